package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	"github.com/medicore/hospital-api/internal/service/notification"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

// Working day boundaries for slot generation.
const (
	dayStartHour    = 9
	dayEndHour      = 17
	slotMinutes     = 30
	defaultDuration = 30
)

// allowedTransitions maps each status to the statuses it may move to.
// Completed, cancelled and no_show are terminal.
var allowedTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusScheduled: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
	model.AppointmentStatusInProgress: {
		model.AppointmentStatusCompleted,
	},
}

type Service struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	userRepo    repository.UserRepository
	auditor     *audit.Service
	notifier    *notification.Service
}

func NewService(repo repository.AppointmentRepository, patientRepo repository.PatientRepository,
	userRepo repository.UserRepository, auditor *audit.Service, notifier *notification.Service) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		userRepo:    userRepo,
		auditor:     auditor,
		notifier:    notifier,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest, createdBy uuid.UUID) (*model.Appointment, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date")
	}

	patient, err := s.patientRepo.Get(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	doctor, err := s.userRepo.Get(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	if !doctor.IsDoctor() {
		return nil, apperrors.BadRequest("assigned user is not a doctor")
	}

	taken, err := s.repo.ExistsAt(ctx, req.DoctorID, date, req.Time, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if taken {
		return nil, apperrors.Conflict("doctor already has an appointment at this time")
	}

	apt := &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		CreatedBy:       createdBy,
		Date:            date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Status:          model.AppointmentStatusScheduled,
		Type:            req.Type,
		Priority:        req.Priority,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}
	if apt.DurationMinutes == 0 {
		apt.DurationMinutes = defaultDuration
	}
	if apt.Priority == "" {
		apt.Priority = model.AppointmentPriorityNormal
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.auditor.Log(ctx, createdBy, "create", "appointment", apt.ID, nil)

	if patient.Email != "" {
		subject := fmt.Sprintf("Appointment scheduled for %s at %s", req.Date, req.Time)
		body := fmt.Sprintf("Dear %s %s,\n\nYour appointment with Dr. %s is scheduled for %s at %s.\n",
			patient.FirstName, patient.LastName, doctor.Name, req.Date, req.Time)
		if err := s.notifier.Enqueue(ctx, createdBy, model.NotificationTypeAppointmentCreated,
			patient.Email, subject, body); err != nil {
			return nil, fmt.Errorf("failed to enqueue notification: %w", err)
		}
	}

	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest, updatedBy uuid.UUID) (*model.Appointment, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if apt.Status == model.AppointmentStatusCompleted || apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.Conflict("appointment can no longer be modified")
	}

	rescheduled := false
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, apperrors.BadRequest("invalid date")
		}
		apt.Date = date
		rescheduled = true
	}
	if req.Time != nil {
		apt.Time = *req.Time
		rescheduled = true
	}
	if req.DurationMinutes != nil {
		apt.DurationMinutes = *req.DurationMinutes
	}
	if req.Type != nil {
		apt.Type = *req.Type
	}
	if req.Priority != nil {
		apt.Priority = *req.Priority
	}
	if req.Reason != nil {
		apt.Reason = *req.Reason
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}

	if rescheduled {
		taken, err := s.repo.ExistsAt(ctx, apt.DoctorID, apt.Date, apt.Time, &apt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check slot: %w", err)
		}
		if taken {
			return nil, apperrors.Conflict("doctor already has an appointment at this time")
		}
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.auditor.Log(ctx, updatedBy, "update", "appointment", apt.ID, nil)
	return apt, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, updatedBy uuid.UUID) (*model.Appointment, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(apt.Status, status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move appointment from %s to %s", apt.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	apt.Status = status

	s.auditor.Log(ctx, updatedBy, "status_change", "appointment", apt.ID, &audit.Entry{
		Description: string(status),
	})

	if status == model.AppointmentStatusCancelled {
		if patient, err := s.patientRepo.Get(ctx, apt.PatientID); err == nil && patient.Email != "" {
			subject := fmt.Sprintf("Appointment on %s cancelled", apt.Date.Format("2006-01-02"))
			body := fmt.Sprintf("Dear %s %s,\n\nYour appointment on %s at %s has been cancelled.\n",
				patient.FirstName, patient.LastName, apt.Date.Format("2006-01-02"), apt.Time)
			if err := s.notifier.Enqueue(ctx, updatedBy, model.NotificationTypeAppointmentCancelled,
				patient.Email, subject, body); err != nil {
				return nil, fmt.Errorf("failed to enqueue notification: %w", err)
			}
		}
	}

	return apt, nil
}

func transitionAllowed(from, to model.AppointmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// AvailableSlots returns the open half-hour start times for a doctor on a
// date. The day runs 09:00 to 17:00, and a slot is taken only when a
// non-cancelled appointment starts at exactly that time.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	if !doctor.IsDoctor() {
		return nil, apperrors.BadRequest("user is not a doctor")
	}

	appointments, err := s.repo.ListForDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	taken := make(map[string]bool, len(appointments))
	for _, apt := range appointments {
		if apt.Status != model.AppointmentStatusCancelled {
			taken[apt.Time] = true
		}
	}

	slots := make([]string, 0, (dayEndHour-dayStartHour)*60/slotMinutes)
	for hour := dayStartHour; hour < dayEndHour; hour++ {
		for minute := 0; minute < 60; minute += slotMinutes {
			slot := fmt.Sprintf("%02d:%02d", hour, minute)
			if !taken[slot] {
				slots = append(slots, slot)
			}
		}
	}
	return slots, nil
}

// DoctorSchedule returns a doctor's appointments for one day, cancelled ones
// included so the front desk sees freed slots.
func (s *Service) DoctorSchedule(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	doctor, err := s.userRepo.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	if !doctor.IsDoctor() {
		return nil, apperrors.BadRequest("user is not a doctor")
	}
	return s.repo.ListForDoctorDate(ctx, doctorID, date)
}

func (s *Service) Stats(ctx context.Context) (*model.AppointmentStats, error) {
	today := time.Now().Truncate(24 * time.Hour)
	stats, err := s.repo.Stats(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment stats: %w", err)
	}
	return stats, nil
}
