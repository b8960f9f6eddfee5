package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

const statsCacheKey = "patient_stats"

type Service struct {
	repo       repository.PatientRepository
	recordRepo repository.MedicalRecordRepository
	auditor    *audit.Service
	cache      *cache.Cache
}

func NewService(repo repository.PatientRepository, recordRepo repository.MedicalRecordRepository,
	auditor *audit.Service) *Service {
	return &Service{
		repo:       repo,
		recordRepo: recordRepo,
		auditor:    auditor,
		cache:      cache.New(time.Minute, 5*time.Minute),
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest, createdBy uuid.UUID) (*model.Patient, error) {
	seq, err := s.repo.NextSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate patient code: %w", err)
	}

	patient := &model.Patient{
		Base:           model.Base{ID: uuid.New()},
		PatientCode:    fmt.Sprintf("PAT-%06d", seq),
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		BloodGroup:     req.BloodGroup,
		Allergies:      req.Allergies,
		MedicalHistory: req.MedicalHistory,
		Address:        req.Address,
		Active:         true,
		CreatedBy:      createdBy,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.cache.Delete(statsCacheKey)
	s.auditor.Log(ctx, createdBy, "create", "patient", patient.ID, &audit.Entry{
		Description: fmt.Sprintf("registered patient %s", patient.PatientCode),
	})
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest, updatedBy uuid.UUID) (*model.Patient, error) {
	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.BloodGroup != nil {
		patient.BloodGroup = *req.BloodGroup
	}
	if req.Allergies != nil {
		patient.Allergies = *req.Allergies
	}
	if req.MedicalHistory != nil {
		patient.MedicalHistory = *req.MedicalHistory
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.Active != nil {
		patient.Active = *req.Active
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.cache.Delete(statsCacheKey)
	s.auditor.Log(ctx, updatedBy, "update", "patient", patient.ID, nil)
	return patient, nil
}

// Delete removes the patient and their medical records. Appointments and
// bills keep their rows for the financial trail.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.recordRepo.DeleteForPatient(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient records: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return apperrors.NotFound("patient")
		}
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	s.cache.Delete(statsCacheKey)
	s.auditor.Log(ctx, deletedBy, "delete", "patient", id, nil)
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int64, error) {
	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return patients, total, nil
}

// Stats serves the dashboard; a short cache keeps repeated loads off the
// aggregate query.
func (s *Service) Stats(ctx context.Context) (*model.PatientStats, error) {
	if cached, ok := s.cache.Get(statsCacheKey); ok {
		return cached.(*model.PatientStats), nil
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient stats: %w", err)
	}
	s.cache.Set(statsCacheKey, stats, cache.DefaultExpiration)
	return stats, nil
}

func (s *Service) CreateRecord(ctx context.Context, patientID uuid.UUID, req *model.CreateMedicalRecordRequest, createdBy uuid.UUID) (*model.MedicalRecord, error) {
	if _, err := s.Get(ctx, patientID); err != nil {
		return nil, err
	}

	record := &model.MedicalRecord{
		Base:       model.Base{ID: uuid.New()},
		PatientID:  patientID,
		CreatedBy:  createdBy,
		RecordType: req.RecordType,
		Title:      req.Title,
		Diagnosis:  req.Diagnosis,
		Treatment:  req.Treatment,
		Notes:      req.Notes,
	}
	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create medical record: %w", err)
	}

	s.auditor.Log(ctx, createdBy, "create", "medical_record", record.ID, nil)
	return record, nil
}

// AttachDocument stores an uploaded file as a document record.
func (s *Service) AttachDocument(ctx context.Context, patientID uuid.UUID, title, filename, contentType string, data []byte, createdBy uuid.UUID) (*model.MedicalRecord, error) {
	if _, err := s.Get(ctx, patientID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apperrors.BadRequest("document is empty")
	}

	record := &model.MedicalRecord{
		Base:         model.Base{ID: uuid.New()},
		PatientID:    patientID,
		CreatedBy:    createdBy,
		RecordType:   model.RecordTypeDocument,
		Title:        title,
		Document:     data,
		DocumentName: filename,
		ContentType:  contentType,
	}
	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	s.auditor.Log(ctx, createdBy, "upload", "medical_record", record.ID, &audit.Entry{
		Description: filename,
	})
	return record, nil
}

func (s *Service) ListRecords(ctx context.Context, patientID uuid.UUID, filters *model.RecordFilters) ([]*model.MedicalRecord, error) {
	if _, err := s.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.recordRepo.ListForPatient(ctx, patientID, filters)
}

func (s *Service) GetRecord(ctx context.Context, patientID, recordID uuid.UUID) (*model.MedicalRecord, error) {
	record, err := s.recordRepo.Get(ctx, recordID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("medical record")
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}
	if record.PatientID != patientID {
		return nil, apperrors.NotFound("medical record")
	}
	return record, nil
}
