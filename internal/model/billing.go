package model

import (
	"time"

	"github.com/google/uuid"
)

type BillStatus string

const (
	BillStatusDraft     BillStatus = "draft"
	BillStatusGenerated BillStatus = "generated"
	BillStatusSent      BillStatus = "sent"
	BillStatusPaid      BillStatus = "paid"
	BillStatusOverdue   BillStatus = "overdue"
	BillStatusCancelled BillStatus = "cancelled"
)

// Valid reports whether s is one of the known bill statuses.
func (s BillStatus) Valid() bool {
	switch s {
	case BillStatusDraft, BillStatusGenerated, BillStatusSent,
		BillStatusPaid, BillStatusOverdue, BillStatusCancelled:
		return true
	}
	return false
}

type BillItemType string

const (
	BillItemTypeConsultation BillItemType = "consultation"
	BillItemTypeProcedure    BillItemType = "procedure"
	BillItemTypeMedication   BillItemType = "medication"
	BillItemTypeLabTest      BillItemType = "lab_test"
	BillItemTypeRoomCharge   BillItemType = "room_charge"
	BillItemTypeOther        BillItemType = "other"
)

type Bill struct {
	Base
	BillNumber     string      `db:"bill_number" json:"bill_number"`
	PatientID      uuid.UUID   `db:"patient_id" json:"patient_id"`
	CreatedBy      uuid.UUID   `db:"created_by" json:"created_by"`
	Status         BillStatus  `db:"status" json:"status"`
	Subtotal       float64     `db:"subtotal" json:"subtotal"`
	TaxRate        float64     `db:"tax_rate" json:"tax_rate"`
	TaxAmount      float64     `db:"tax_amount" json:"tax_amount"`
	DiscountRate   float64     `db:"discount_rate" json:"discount_rate"`
	DiscountAmount float64     `db:"discount_amount" json:"discount_amount"`
	Total          float64     `db:"total" json:"total"`
	DueDate        *time.Time  `db:"due_date" json:"due_date,omitempty"`
	PaidAt         *time.Time  `db:"paid_at" json:"paid_at,omitempty"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	Items          []*BillItem `db:"-" json:"items,omitempty"`
}

type BillItem struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	BillID      uuid.UUID    `db:"bill_id" json:"bill_id"`
	Description string       `db:"description" json:"description"`
	ItemType    BillItemType `db:"item_type" json:"item_type"`
	Quantity    float64      `db:"quantity" json:"quantity"`
	UnitPrice   float64      `db:"unit_price" json:"unit_price"`
	Total       float64      `db:"total" json:"total"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

type BillItemRequest struct {
	Description string       `json:"description" binding:"required,max=500"`
	ItemType    BillItemType `json:"item_type" binding:"required,oneof=consultation procedure medication lab_test room_charge other"`
	Quantity    float64      `json:"quantity" binding:"required,gt=0"`
	UnitPrice   float64      `json:"unit_price" binding:"required,gte=0"`
}

type CreateBillRequest struct {
	PatientID    uuid.UUID          `json:"patient_id" binding:"required"`
	TaxRate      float64            `json:"tax_rate" binding:"gte=0,lte=100"`
	DiscountRate float64            `json:"discount_rate" binding:"gte=0,lte=100"`
	DueDate      *time.Time         `json:"due_date"`
	Notes        string             `json:"notes" binding:"max=1000"`
	Items        []*BillItemRequest `json:"items" binding:"dive"`
}

type UpdateBillRequest struct {
	TaxRate      *float64           `json:"tax_rate" binding:"omitempty,gte=0,lte=100"`
	DiscountRate *float64           `json:"discount_rate" binding:"omitempty,gte=0,lte=100"`
	DueDate      *time.Time         `json:"due_date"`
	Notes        *string            `json:"notes" binding:"omitempty,max=1000"`
	Items        []*BillItemRequest `json:"items" binding:"omitempty,dive"`
}

type UpdateBillStatusRequest struct {
	Status BillStatus `json:"status" binding:"required,oneof=draft generated sent paid overdue cancelled"`
}

type BillFilters struct {
	PatientID uuid.UUID
	Status    BillStatus
	DateFrom  time.Time
	DateTo    time.Time
	Pagination
}

// BillingStats summarizes revenue for the dashboard.
type BillingStats struct {
	TotalBilled    float64 `db:"total_billed" json:"total_billed"`
	TotalPaid      float64 `db:"total_paid" json:"total_paid"`
	TotalOutstand  float64 `db:"total_outstanding" json:"total_outstanding"`
	DraftCount     int64   `db:"draft_count" json:"draft_count"`
	OverdueCount   int64   `db:"overdue_count" json:"overdue_count"`
	PaidCount      int64   `db:"paid_count" json:"paid_count"`
	GeneratedCount int64   `db:"generated_count" json:"generated_count"`
}
