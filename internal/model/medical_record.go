package model

import (
	"time"

	"github.com/google/uuid"
)

type RecordType string

const (
	RecordTypeDiagnosis    RecordType = "diagnosis"
	RecordTypeLabResult    RecordType = "lab_result"
	RecordTypePrescription RecordType = "prescription"
	RecordTypeImaging      RecordType = "imaging"
	RecordTypeDocument     RecordType = "document"
	RecordTypeNote         RecordType = "note"
)

type MedicalRecord struct {
	Base
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	CreatedBy    uuid.UUID  `db:"created_by" json:"created_by"`
	RecordType   RecordType `db:"record_type" json:"record_type"`
	Title        string     `db:"title" json:"title"`
	Diagnosis    string     `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment    string     `db:"treatment" json:"treatment,omitempty"`
	Notes        string     `db:"notes" json:"notes,omitempty"`
	Document     []byte     `db:"document" json:"-"`
	DocumentName string     `db:"document_name" json:"document_name,omitempty"`
	ContentType  string     `db:"content_type" json:"content_type,omitempty"`
}

type CreateMedicalRecordRequest struct {
	RecordType RecordType `json:"record_type" binding:"required,oneof=diagnosis lab_result prescription imaging document note"`
	Title      string     `json:"title" binding:"required,max=200"`
	Diagnosis  string     `json:"diagnosis" binding:"max=2000"`
	Treatment  string     `json:"treatment" binding:"max=2000"`
	Notes      string     `json:"notes" binding:"max=2000"`
}

type RecordFilters struct {
	Type     RecordType
	DateFrom time.Time
	DateTo   time.Time
}
