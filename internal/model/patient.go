package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Patient struct {
	Base
	PatientCode    string         `db:"patient_code" json:"patient_code"`
	FirstName      string         `db:"first_name" json:"first_name"`
	LastName       string         `db:"last_name" json:"last_name"`
	Email          string         `db:"email" json:"email"`
	Phone          string         `db:"phone" json:"phone"`
	DateOfBirth    time.Time      `db:"date_of_birth" json:"date_of_birth"`
	Gender         string         `db:"gender" json:"gender"`
	BloodGroup     string         `db:"blood_group" json:"blood_group,omitempty"`
	Allergies      pq.StringArray `db:"allergies" json:"allergies"`
	MedicalHistory string         `db:"medical_history" json:"medical_history,omitempty"`
	Address        string         `db:"address" json:"address,omitempty"`
	Active         bool           `db:"active" json:"active"`
	CreatedBy      uuid.UUID      `db:"created_by" json:"created_by"`
}

type CreatePatientRequest struct {
	FirstName      string    `json:"first_name" binding:"required"`
	LastName       string    `json:"last_name" binding:"required"`
	Email          string    `json:"email" binding:"required,email"`
	Phone          string    `json:"phone" binding:"required"`
	DateOfBirth    time.Time `json:"date_of_birth" binding:"required"`
	Gender         string    `json:"gender" binding:"required,oneof=male female other"`
	BloodGroup     string    `json:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies      []string  `json:"allergies"`
	MedicalHistory string    `json:"medical_history"`
	Address        string    `json:"address"`
}

type UpdatePatientRequest struct {
	FirstName      *string    `json:"first_name"`
	LastName       *string    `json:"last_name"`
	Email          *string    `json:"email" binding:"omitempty,email"`
	Phone          *string    `json:"phone"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Gender         *string    `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodGroup     *string    `json:"blood_group" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies      *[]string  `json:"allergies"`
	MedicalHistory *string    `json:"medical_history"`
	Address        *string    `json:"address"`
	Active         *bool      `json:"active"`
}

type PatientFilters struct {
	Search     string
	BloodGroup string
	Active     *bool
	Pagination
}

// PatientStats summarizes the patient roster for the dashboard.
type PatientStats struct {
	Total        int64 `db:"total" json:"total"`
	Active       int64 `db:"active" json:"active"`
	NewThisMonth int64 `db:"new_this_month" json:"new_this_month"`
}
