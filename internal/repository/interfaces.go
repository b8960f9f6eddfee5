package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
	ListDoctors(ctx context.Context) ([]*model.User, error)
}

type RoleRepository interface {
	GetByName(ctx context.Context, name model.RoleName) (*model.Role, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Role, error)
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	Count(ctx context.Context, filters *model.PatientFilters) (int64, error)
	Stats(ctx context.Context) (*model.PatientStats, error)
	NextSequence(ctx context.Context) (int64, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, apt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, apt *model.Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	ListForDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error)
	ExistsAt(ctx context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string, excludeID *uuid.UUID) (bool, error)
	Stats(ctx context.Context, date time.Time) (*model.AppointmentStats, error)
}

type BillRepository interface {
	// CreateWithItems inserts the bill and its items in one transaction.
	CreateWithItems(ctx context.Context, bill *model.Bill) error
	Get(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	// UpdateWithItems rewrites the bill row and, when replaceItems is set,
	// replaces its items, all in one transaction.
	UpdateWithItems(ctx context.Context, bill *model.Bill, replaceItems bool) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.BillStatus, paidAt *time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error)
	GetItems(ctx context.Context, billID uuid.UUID) ([]*model.BillItem, error)
	AddItem(ctx context.Context, item *model.BillItem, bill *model.Bill) error
	RemoveItem(ctx context.Context, billID, itemID uuid.UUID, bill *model.Bill) error
	Stats(ctx context.Context) (*model.BillingStats, error)
	NextSequence(ctx context.Context) (int64, error)
}

type InventoryRepository interface {
	Create(ctx context.Context, item *model.InventoryItem) error
	Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	Update(ctx context.Context, item *model.InventoryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.InventoryFilters) ([]*model.InventoryItem, error)
	// AdjustStock applies delta atomically and fails if the result would be
	// negative.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]*model.InventoryItem, error)
	ListExpiring(ctx context.Context, within time.Duration) ([]*model.InventoryItem, error)
	Stats(ctx context.Context) (*model.InventoryStats, error)
	NextSequence(ctx context.Context) (int64, error)
}

type MedicalRecordRepository interface {
	Create(ctx context.Context, record *model.MedicalRecord) error
	Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error)
	DeleteForPatient(ctx context.Context, patientID uuid.UUID) error
}

type TokenRepository interface {
	Store(ctx context.Context, token *model.RefreshToken) error
	Get(ctx context.Context, token string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	List(ctx context.Context, filters *model.ActivityFilters) ([]*model.ActivityLog, error)
	Cleanup(ctx context.Context, before time.Time) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListPending(ctx context.Context, limit int) ([]*model.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}
