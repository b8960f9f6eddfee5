package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

type NotificationType string

const (
	NotificationTypeAppointmentCreated   NotificationType = "appointment_created"
	NotificationTypeAppointmentCancelled NotificationType = "appointment_cancelled"
	NotificationTypeLowStock             NotificationType = "low_stock"
	NotificationTypeBillSent             NotificationType = "bill_sent"
)

// Notification is an outbox row: services enqueue, the worker delivers.
type Notification struct {
	ID        uuid.UUID          `db:"id" json:"id"`
	UserID    uuid.UUID          `db:"user_id" json:"user_id"`
	Type      NotificationType   `db:"type" json:"type"`
	Recipient string             `db:"recipient" json:"recipient"`
	Subject   string             `db:"subject" json:"subject"`
	Body      string             `db:"body" json:"body"`
	Status    NotificationStatus `db:"status" json:"status"`
	LastError *string            `db:"last_error" json:"last_error,omitempty"`
	SentAt    *time.Time         `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}
