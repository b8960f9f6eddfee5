package inventory

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

type stubInventoryRepo struct {
	items map[uuid.UUID]*model.InventoryItem
	seq   int64
}

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{items: make(map[uuid.UUID]*model.InventoryItem)}
}

func (r *stubInventoryRepo) Create(_ context.Context, item *model.InventoryItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *stubInventoryRepo) Get(_ context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	if item, ok := r.items[id]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, postgres.ErrNotFound
}

func (r *stubInventoryRepo) Update(_ context.Context, item *model.InventoryItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return postgres.ErrNotFound
	}
	r.items[item.ID] = item
	return nil
}

func (r *stubInventoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubInventoryRepo) List(_ context.Context, _ *model.InventoryFilters) ([]*model.InventoryItem, error) {
	out := make([]*model.InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *stubInventoryRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (*model.InventoryItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	if item.CurrentStock+delta < 0 {
		return nil, postgres.ErrInsufficientStock
	}
	item.CurrentStock += delta
	copied := *item
	return &copied, nil
}

func (r *stubInventoryRepo) ListLowStock(_ context.Context) ([]*model.InventoryItem, error) {
	var out []*model.InventoryItem
	for _, item := range r.items {
		if item.Active && item.IsLowStock() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *stubInventoryRepo) ListExpiring(_ context.Context, _ time.Duration) ([]*model.InventoryItem, error) {
	return nil, nil
}

func (r *stubInventoryRepo) Stats(_ context.Context) (*model.InventoryStats, error) {
	return &model.InventoryStats{}, nil
}

func (r *stubInventoryRepo) NextSequence(_ context.Context) (int64, error) {
	r.seq++
	return r.seq, nil
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

func newTestService() (*Service, *stubInventoryRepo, *stubNotificationRepo) {
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	repo := newStubInventoryRepo()
	notifRepo := &stubNotificationRepo{}
	svc := NewService(repo,
		audit.NewService(stubActivityRepo{}, log),
		notification.NewService(notifRepo, nil, log))
	return svc, repo, notifRepo
}

func createItem(t *testing.T, svc *Service, stock, minStock int) *model.InventoryItem {
	t.Helper()
	item, err := svc.Create(context.Background(), &model.CreateInventoryItemRequest{
		Name:         "Paracetamol 500mg",
		Category:     model.InventoryCategoryMedication,
		CurrentStock: stock,
		MinStock:     minStock,
		MaxStock:     stock + 100,
		Unit:         "tablets",
		UnitPrice:    0.10,
	}, uuid.New())
	require.NoError(t, err)
	return item
}

func TestCreateAssignsItemCode(t *testing.T) {
	svc, _, _ := newTestService()
	item := createItem(t, svc, 50, 10)

	assert.Equal(t, "INV-000001", item.ItemCode)
	assert.True(t, item.Active)
}

func TestAdjustStockGuardsNegative(t *testing.T) {
	svc, repo, _ := newTestService()
	item := createItem(t, svc, 5, 2)

	_, err := svc.AdjustStock(context.Background(), item.ID, &model.AdjustStockRequest{
		Adjustment: -6, Reason: "dispense",
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))

	// Stock unchanged after the rejected adjustment.
	assert.Equal(t, 5, repo.items[item.ID].CurrentStock)
}

func TestAdjustStockToZeroAllowed(t *testing.T) {
	svc, _, _ := newTestService()
	item := createItem(t, svc, 5, 2)

	updated, err := svc.AdjustStock(context.Background(), item.ID, &model.AdjustStockRequest{
		Adjustment: -5, Reason: "dispense",
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentStock)
}

func TestAdjustStockUnknownItem(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AdjustStock(context.Background(), uuid.New(), &model.AdjustStockRequest{
		Adjustment: -1,
	}, uuid.New())
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestLowStockAlertQueued(t *testing.T) {
	svc, _, notifRepo := newTestService()
	item := createItem(t, svc, 12, 10)

	_, err := svc.AdjustStock(context.Background(), item.ID, &model.AdjustStockRequest{
		Adjustment: -3, Reason: "dispense",
	}, uuid.New())
	require.NoError(t, err)

	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, model.NotificationTypeLowStock, notifRepo.created[0].Type)
}

func TestRestockDoesNotAlert(t *testing.T) {
	svc, _, notifRepo := newTestService()
	item := createItem(t, svc, 5, 10)

	// Item is already low but the adjustment is positive.
	_, err := svc.AdjustStock(context.Background(), item.ID, &model.AdjustStockRequest{
		Adjustment: 2, Reason: "restock",
	}, uuid.New())
	require.NoError(t, err)

	assert.Empty(t, notifRepo.created)
}

func TestUpdateValidatesStockBounds(t *testing.T) {
	svc, _, _ := newTestService()
	item := createItem(t, svc, 50, 10)

	maxStock := 5
	_, err := svc.Update(context.Background(), item.ID, &model.UpdateInventoryItemRequest{
		MaxStock: &maxStock,
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
}
