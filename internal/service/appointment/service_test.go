package appointment

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	"github.com/medicore/hospital-api/internal/service/notification"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
)

type stubAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *stubAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	r.appointments[apt.ID] = apt
	return nil
}

func (r *stubAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	if apt, ok := r.appointments[id]; ok {
		copied := *apt
		return &copied, nil
	}
	return nil, postgres.ErrNotFound
}

func (r *stubAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	if _, ok := r.appointments[apt.ID]; !ok {
		return postgres.ErrNotFound
	}
	r.appointments[apt.ID] = apt
	return nil
}

func (r *stubAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	apt, ok := r.appointments[id]
	if !ok {
		return postgres.ErrNotFound
	}
	apt.Status = status
	return nil
}

func (r *stubAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	out := make([]*model.Appointment, 0, len(r.appointments))
	for _, apt := range r.appointments {
		out = append(out, apt)
	}
	return out, nil
}

func (r *stubAppointmentRepo) ListForDoctorDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.appointments {
		if apt.DoctorID == doctorID && apt.Date.Equal(date) {
			out = append(out, apt)
		}
	}
	return out, nil
}

func (r *stubAppointmentRepo) ExistsAt(_ context.Context, doctorID uuid.UUID, date time.Time, timeOfDay string, excludeID *uuid.UUID) (bool, error) {
	for _, apt := range r.appointments {
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if apt.DoctorID == doctorID && apt.Date.Equal(date) && apt.Time == timeOfDay &&
			apt.Status != model.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAppointmentRepo) Stats(_ context.Context, _ time.Time) (*model.AppointmentStats, error) {
	return &model.AppointmentStats{}, nil
}

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo(users ...*model.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, postgres.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *stubUserRepo) List(_ context.Context, _ *model.UserFilters) ([]*model.User, error) {
	return nil, nil
}

func (r *stubUserRepo) ListDoctors(_ context.Context) ([]*model.User, error) {
	return nil, nil
}

type stubPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newStubPatientRepo(patients ...*model.Patient) *stubPatientRepo {
	r := &stubPatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
	for _, p := range patients {
		r.patients[p.ID] = p
	}
	return r
}

func (r *stubPatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *stubPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	if p, ok := r.patients[id]; ok {
		return p, nil
	}
	return nil, postgres.ErrNotFound
}

func (r *stubPatientRepo) Update(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *stubPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.patients, id)
	return nil
}

func (r *stubPatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

func (r *stubPatientRepo) Count(_ context.Context, _ *model.PatientFilters) (int64, error) {
	return 0, nil
}

func (r *stubPatientRepo) Stats(_ context.Context) (*model.PatientStats, error) {
	return &model.PatientStats{}, nil
}

func (r *stubPatientRepo) NextSequence(_ context.Context) (int64, error) {
	return 1, nil
}

type stubActivityRepo struct{}

func (stubActivityRepo) Create(_ context.Context, _ *model.ActivityLog) error { return nil }
func (stubActivityRepo) List(_ context.Context, _ *model.ActivityFilters) ([]*model.ActivityLog, error) {
	return nil, nil
}
func (stubActivityRepo) Cleanup(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

type stubNotificationRepo struct {
	created []*model.Notification
}

func (r *stubNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.created = append(r.created, n)
	return nil
}

func (r *stubNotificationRepo) ListPending(_ context.Context, _ int) ([]*model.Notification, error) {
	return nil, nil
}

func (r *stubNotificationRepo) MarkSent(_ context.Context, _ uuid.UUID) error { return nil }

func (r *stubNotificationRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

type fixture struct {
	svc       *Service
	repo      *stubAppointmentRepo
	notifRepo *stubNotificationRepo
	patient   *model.Patient
	doctor    *model.User
}

func newFixture() *fixture {
	patient := &model.Patient{
		Base:      model.Base{ID: uuid.New()},
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
	}
	doctor := &model.User{
		Base:     model.Base{ID: uuid.New()},
		Name:     "Dr. Smith",
		Email:    "smith@example.com",
		RoleName: model.RoleDoctor,
	}

	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	repo := newStubAppointmentRepo()
	notifRepo := &stubNotificationRepo{}
	svc := NewService(repo, newStubPatientRepo(patient), newStubUserRepo(doctor),
		audit.NewService(stubActivityRepo{}, log),
		notification.NewService(notifRepo, nil, log))

	return &fixture{svc: svc, repo: repo, notifRepo: notifRepo, patient: patient, doctor: doctor}
}

func TestAvailableSlotsFullDay(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots, err := f.svc.AvailableSlots(context.Background(), f.doctor.ID, date)
	require.NoError(t, err)

	assert.Len(t, slots, 16)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "16:30", slots[len(slots)-1])
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	f := newFixture()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      "2026-03-02",
		Time:      "10:00",
		Type:      model.AppointmentTypeConsultation,
	}, uuid.New())
	require.NoError(t, err)

	slots, err := f.svc.AvailableSlots(context.Background(), f.doctor.ID, date)
	require.NoError(t, err)

	assert.Len(t, slots, 15)
	assert.NotContains(t, slots, "10:00")
}

func TestCancelledAppointmentFreesSlot(t *testing.T) {
	f := newFixture()
	actor := uuid.New()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      "2026-03-02",
		Time:      "10:00",
		Type:      model.AppointmentTypeConsultation,
	}, actor)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), apt.ID, model.AppointmentStatusCancelled, actor)
	require.NoError(t, err)

	slots, err := f.svc.AvailableSlots(context.Background(), f.doctor.ID, date)
	require.NoError(t, err)
	assert.Len(t, slots, 16)
	assert.Contains(t, slots, "10:00")
}

func TestDoubleBookingRejected(t *testing.T) {
	f := newFixture()
	req := &model.CreateAppointmentRequest{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      "2026-03-02",
		Time:      "11:30",
		Type:      model.AppointmentTypeConsultation,
	}

	_, err := f.svc.Create(context.Background(), req, uuid.New())
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), req, uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))
}

func TestCreateRejectsNonDoctor(t *testing.T) {
	f := newFixture()
	nurse := &model.User{
		Base:     model.Base{ID: uuid.New()},
		Name:     "Nina",
		RoleName: model.RoleNurse,
	}
	f.doctor = nurse
	svcUserRepo := newStubUserRepo(nurse)
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	svc := NewService(f.repo, newStubPatientRepo(f.patient), svcUserRepo,
		audit.NewService(stubActivityRepo{}, log),
		notification.NewService(f.notifRepo, nil, log))

	_, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID: f.patient.ID,
		DoctorID:  nurse.ID,
		Date:      "2026-03-02",
		Time:      "09:00",
		Type:      model.AppointmentTypeConsultation,
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
}

func TestCreateQueuesNotification(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      "2026-03-02",
		Time:      "09:30",
		Type:      model.AppointmentTypeConsultation,
	}, uuid.New())
	require.NoError(t, err)

	require.Len(t, f.notifRepo.created, 1)
	assert.Equal(t, model.NotificationTypeAppointmentCreated, f.notifRepo.created[0].Type)
	assert.Equal(t, f.patient.Email, f.notifRepo.created[0].Recipient)
}

func TestStatusTransitionGuard(t *testing.T) {
	f := newFixture()
	actor := uuid.New()

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      "2026-03-02",
		Time:      "14:00",
		Type:      model.AppointmentTypeConsultation,
	}, actor)
	require.NoError(t, err)

	// scheduled -> in_progress skips confirmed and must fail.
	_, err = f.svc.UpdateStatus(context.Background(), apt.ID, model.AppointmentStatusInProgress, actor)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))

	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCompleted,
	} {
		_, err = f.svc.UpdateStatus(context.Background(), apt.ID, status, actor)
		require.NoError(t, err, "transition to %s", status)
	}

	// completed is terminal.
	_, err = f.svc.UpdateStatus(context.Background(), apt.ID, model.AppointmentStatusCancelled, actor)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))
}

func TestDefaultsApplied(t *testing.T) {
	f := newFixture()

	apt, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      "2026-03-02",
		Time:      "15:00",
		Type:      model.AppointmentTypeConsultation,
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 30, apt.DurationMinutes)
	assert.Equal(t, model.AppointmentPriorityNormal, apt.Priority)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
}
