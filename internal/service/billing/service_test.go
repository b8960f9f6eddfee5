package billing

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/config"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	"github.com/medicore/hospital-api/internal/service/notification"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
)

type stubBillRepo struct {
	bills map[uuid.UUID]*model.Bill
	seq   int64
}

func newStubBillRepo() *stubBillRepo {
	return &stubBillRepo{bills: make(map[uuid.UUID]*model.Bill)}
}

func (r *stubBillRepo) CreateWithItems(_ context.Context, bill *model.Bill) error {
	r.bills[bill.ID] = bill
	return nil
}

func (r *stubBillRepo) Get(_ context.Context, id uuid.UUID) (*model.Bill, error) {
	bill, ok := r.bills[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	copied := *bill
	copied.Items = append([]*model.BillItem(nil), bill.Items...)
	return &copied, nil
}

func (r *stubBillRepo) UpdateWithItems(_ context.Context, bill *model.Bill, _ bool) error {
	if _, ok := r.bills[bill.ID]; !ok {
		return postgres.ErrNotFound
	}
	r.bills[bill.ID] = bill
	return nil
}

func (r *stubBillRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.BillStatus, paidAt *time.Time) error {
	bill, ok := r.bills[id]
	if !ok {
		return postgres.ErrNotFound
	}
	bill.Status = status
	bill.PaidAt = paidAt
	return nil
}

func (r *stubBillRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.bills[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(r.bills, id)
	return nil
}

func (r *stubBillRepo) List(_ context.Context, _ *model.BillFilters) ([]*model.Bill, error) {
	out := make([]*model.Bill, 0, len(r.bills))
	for _, b := range r.bills {
		out = append(out, b)
	}
	return out, nil
}

func (r *stubBillRepo) GetItems(_ context.Context, billID uuid.UUID) ([]*model.BillItem, error) {
	if bill, ok := r.bills[billID]; ok {
		return bill.Items, nil
	}
	return nil, nil
}

func (r *stubBillRepo) AddItem(_ context.Context, _ *model.BillItem, bill *model.Bill) error {
	r.bills[bill.ID] = bill
	return nil
}

func (r *stubBillRepo) RemoveItem(_ context.Context, _, _ uuid.UUID, bill *model.Bill) error {
	r.bills[bill.ID] = bill
	return nil
}

func (r *stubBillRepo) Stats(_ context.Context) (*model.BillingStats, error) {
	return &model.BillingStats{}, nil
}

func (r *stubBillRepo) NextSequence(_ context.Context) (int64, error) {
	r.seq++
	return r.seq, nil
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

func newTestService(billRepo *stubBillRepo, patientRepo *stubPatientRepo, notifRepo *stubNotificationRepo) *Service {
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	auditor := audit.NewService(stubActivityRepo{}, log)
	notifier := notification.NewService(notifRepo, nil, log)
	return NewService(billRepo, patientRepo, auditor, notifier, config.HospitalConfig{
		Name:    "Test Hospital",
		Address: "1 Test Way",
	})
}

func testPatient() *model.Patient {
	return &model.Patient{
		Base:        model.Base{ID: uuid.New()},
		PatientCode: "PAT-000001",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
	}
}

func TestCreateBillComputesTotals(t *testing.T) {
	patient := testPatient()
	svc := newTestService(newStubBillRepo(), newStubPatientRepo(patient), &stubNotificationRepo{})

	bill, err := svc.Create(context.Background(), &model.CreateBillRequest{
		PatientID:    patient.ID,
		TaxRate:      18,
		DiscountRate: 10,
		Items: []*model.BillItemRequest{
			{Description: "Consultation", ItemType: model.BillItemTypeConsultation, Quantity: 2, UnitPrice: 500},
			{Description: "X-Ray", ItemType: model.BillItemTypeProcedure, Quantity: 1, UnitPrice: 1000},
		},
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 2000.0, bill.Subtotal)
	assert.Equal(t, 360.0, bill.TaxAmount)
	assert.Equal(t, 200.0, bill.DiscountAmount)
	assert.Equal(t, 2160.0, bill.Total)
	assert.Equal(t, model.BillStatusDraft, bill.Status)
	assert.Equal(t, "BILL-000001", bill.BillNumber)
}

func TestComputeTotalsRoundsPerLine(t *testing.T) {
	bill := &model.Bill{
		TaxRate: 0,
		Items: []*model.BillItem{
			{Quantity: 3, UnitPrice: 0.10},
			{Quantity: 3, UnitPrice: 0.10},
		},
	}
	computeTotals(bill)

	assert.Equal(t, 0.30, bill.Items[0].Total)
	assert.Equal(t, 0.60, bill.Subtotal)
	assert.Equal(t, 0.60, bill.Total)
}

func TestComputeTotalsRoundsHalfUp(t *testing.T) {
	// 1.005 quantity edge: 1 x 10.05 with 50% discount leaves 5.025,
	// which must round to 5.03 half away from zero.
	bill := &model.Bill{
		DiscountRate: 50,
		Items: []*model.BillItem{
			{Quantity: 1, UnitPrice: 10.05},
		},
	}
	computeTotals(bill)

	assert.Equal(t, 10.05, bill.Subtotal)
	assert.Equal(t, 5.03, bill.DiscountAmount)
	assert.Equal(t, 5.02, bill.Total)
}

func TestCreateBillUnknownPatient(t *testing.T) {
	svc := newTestService(newStubBillRepo(), newStubPatientRepo(), &stubNotificationRepo{})

	_, err := svc.Create(context.Background(), &model.CreateBillRequest{
		PatientID: uuid.New(),
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestDeleteOnlyDraftBills(t *testing.T) {
	patient := testPatient()
	billRepo := newStubBillRepo()
	svc := newTestService(billRepo, newStubPatientRepo(patient), &stubNotificationRepo{})
	actor := uuid.New()

	bill, err := svc.Create(context.Background(), &model.CreateBillRequest{
		PatientID: patient.ID,
		Items: []*model.BillItemRequest{
			{Description: "Consultation", ItemType: model.BillItemTypeConsultation, Quantity: 1, UnitPrice: 100},
		},
	}, actor)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), bill.ID, model.BillStatusGenerated, actor)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), bill.ID, actor)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))

	// Still there.
	_, err = svc.Get(context.Background(), bill.ID)
	assert.NoError(t, err)
}

func TestDeleteDraftBill(t *testing.T) {
	patient := testPatient()
	svc := newTestService(newStubBillRepo(), newStubPatientRepo(patient), &stubNotificationRepo{})
	actor := uuid.New()

	bill, err := svc.Create(context.Background(), &model.CreateBillRequest{
		PatientID: patient.ID,
	}, actor)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), bill.ID, actor))

	_, err = svc.Get(context.Background(), bill.ID)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestStatusTransitions(t *testing.T) {
	patient := testPatient()
	svc := newTestService(newStubBillRepo(), newStubPatientRepo(patient), &stubNotificationRepo{})
	actor := uuid.New()

	bill, err := svc.Create(context.Background(), &model.CreateBillRequest{PatientID: patient.ID}, actor)
	require.NoError(t, err)

	// draft -> paid skips generated and must fail.
	_, err = svc.UpdateStatus(context.Background(), bill.ID, model.BillStatusPaid, actor)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))

	for _, status := range []model.BillStatus{
		model.BillStatusGenerated, model.BillStatusSent, model.BillStatusPaid,
	} {
		bill, err = svc.UpdateStatus(context.Background(), bill.ID, status, actor)
		require.NoError(t, err, "transition to %s", status)
	}
	assert.NotNil(t, bill.PaidAt)

	// paid is terminal.
	_, err = svc.UpdateStatus(context.Background(), bill.ID, model.BillStatusCancelled, actor)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))
}

func TestBillSentQueuesNotification(t *testing.T) {
	patient := testPatient()
	notifRepo := &stubNotificationRepo{}
	svc := newTestService(newStubBillRepo(), newStubPatientRepo(patient), notifRepo)
	actor := uuid.New()

	bill, err := svc.Create(context.Background(), &model.CreateBillRequest{
		PatientID: patient.ID,
		Items: []*model.BillItemRequest{
			{Description: "Consultation", ItemType: model.BillItemTypeConsultation, Quantity: 1, UnitPrice: 150},
		},
	}, actor)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), bill.ID, model.BillStatusGenerated, actor)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), bill.ID, model.BillStatusSent, actor)
	require.NoError(t, err)

	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, model.NotificationTypeBillSent, notifRepo.created[0].Type)
	assert.Equal(t, patient.Email, notifRepo.created[0].Recipient)
}

func TestUpdateNonDraftRejected(t *testing.T) {
	patient := testPatient()
	svc := newTestService(newStubBillRepo(), newStubPatientRepo(patient), &stubNotificationRepo{})
	actor := uuid.New()

	bill, err := svc.Create(context.Background(), &model.CreateBillRequest{PatientID: patient.ID}, actor)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), bill.ID, model.BillStatusGenerated, actor)
	require.NoError(t, err)

	rate := 5.0
	_, err = svc.Update(context.Background(), bill.ID, &model.UpdateBillRequest{TaxRate: &rate}, actor)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))
}

func TestAddAndRemoveItemRecomputesTotals(t *testing.T) {
	patient := testPatient()
	svc := newTestService(newStubBillRepo(), newStubPatientRepo(patient), &stubNotificationRepo{})
	actor := uuid.New()

	bill, err := svc.Create(context.Background(), &model.CreateBillRequest{
		PatientID: patient.ID,
		Items: []*model.BillItemRequest{
			{Description: "Consultation", ItemType: model.BillItemTypeConsultation, Quantity: 1, UnitPrice: 100},
		},
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 100.0, bill.Total)

	bill, err = svc.AddItem(context.Background(), bill.ID, &model.BillItemRequest{
		Description: "Lab work", ItemType: model.BillItemTypeLabTest, Quantity: 2, UnitPrice: 25,
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, 150.0, bill.Total)
	require.Len(t, bill.Items, 2)

	bill, err = svc.RemoveItem(context.Background(), bill.ID, bill.Items[1].ID, actor)
	require.NoError(t, err)
	assert.Equal(t, 100.0, bill.Total)
}
