package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// Valid reports whether s is one of the known appointment statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed,
		AppointmentStatusInProgress, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type AppointmentType string

const (
	AppointmentTypeConsultation   AppointmentType = "consultation"
	AppointmentTypeFollowUp       AppointmentType = "follow_up"
	AppointmentTypeEmergency      AppointmentType = "emergency"
	AppointmentTypeRoutineCheckup AppointmentType = "routine_checkup"
)

type AppointmentPriority string

const (
	AppointmentPriorityLow    AppointmentPriority = "low"
	AppointmentPriorityNormal AppointmentPriority = "normal"
	AppointmentPriorityHigh   AppointmentPriority = "high"
	AppointmentPriorityUrgent AppointmentPriority = "urgent"
)

type Appointment struct {
	Base
	PatientID       uuid.UUID           `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID           `db:"doctor_id" json:"doctor_id"`
	CreatedBy       uuid.UUID           `db:"created_by" json:"created_by"`
	Date            time.Time           `db:"date" json:"date"`
	Time            string              `db:"time" json:"time"`
	DurationMinutes int                 `db:"duration_minutes" json:"duration_minutes"`
	Status          AppointmentStatus   `db:"status" json:"status"`
	Type            AppointmentType     `db:"type" json:"type"`
	Priority        AppointmentPriority `db:"priority" json:"priority"`
	Reason          string              `db:"reason" json:"reason,omitempty"`
	Notes           string              `db:"notes" json:"notes,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID       uuid.UUID           `json:"patient_id" binding:"required"`
	DoctorID        uuid.UUID           `json:"doctor_id" binding:"required"`
	Date            string              `json:"date" binding:"required,datetime=2006-01-02"`
	Time            string              `json:"time" binding:"required,hhmm"`
	DurationMinutes int                 `json:"duration_minutes" binding:"omitempty,min=15,max=240"`
	Type            AppointmentType     `json:"type" binding:"required,oneof=consultation follow_up emergency routine_checkup"`
	Priority        AppointmentPriority `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Reason          string              `json:"reason" binding:"max=1000"`
	Notes           string              `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	Date            *string              `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time            *string              `json:"time" binding:"omitempty,hhmm"`
	DurationMinutes *int                 `json:"duration_minutes" binding:"omitempty,min=15,max=240"`
	Type            *AppointmentType     `json:"type" binding:"omitempty,oneof=consultation follow_up emergency routine_checkup"`
	Priority        *AppointmentPriority `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Reason          *string              `json:"reason" binding:"omitempty,max=1000"`
	Notes           *string              `json:"notes" binding:"omitempty,max=1000"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=scheduled confirmed in_progress completed cancelled no_show"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    AppointmentStatus
	DateFrom  time.Time
	DateTo    time.Time
	Pagination
}

// AppointmentStats summarizes today's schedule for the dashboard.
type AppointmentStats struct {
	Today     int64 `db:"today" json:"today"`
	Scheduled int64 `db:"scheduled" json:"scheduled"`
	Confirmed int64 `db:"confirmed" json:"confirmed"`
	Completed int64 `db:"completed" json:"completed"`
	Cancelled int64 `db:"cancelled" json:"cancelled"`
	NoShow    int64 `db:"no_show" json:"no_show"`
}
