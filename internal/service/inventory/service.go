package inventory

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

type Service struct {
	repo     repository.InventoryRepository
	auditor  *audit.Service
	notifier *notification.Service
}

func NewService(repo repository.InventoryRepository, auditor *audit.Service,
	notifier *notification.Service) *Service {
	return &Service{repo: repo, auditor: auditor, notifier: notifier}
}

func (s *Service) Create(ctx context.Context, req *model.CreateInventoryItemRequest, createdBy uuid.UUID) (*model.InventoryItem, error) {
	seq, err := s.repo.NextSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate item code: %w", err)
	}

	item := &model.InventoryItem{
		Base:         model.Base{ID: uuid.New()},
		ItemCode:     fmt.Sprintf("INV-%06d", seq),
		Name:         req.Name,
		Category:     req.Category,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
		MaxStock:     req.MaxStock,
		Unit:         req.Unit,
		UnitPrice:    req.UnitPrice,
		Supplier:     req.Supplier,
		ExpiryDate:   req.ExpiryDate,
		Active:       true,
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create inventory item: %w", err)
	}

	s.auditor.Log(ctx, createdBy, "create", "inventory_item", item.ID, &audit.Entry{
		Description: item.ItemCode,
	})
	return item, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("inventory item")
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateInventoryItemRequest, updatedBy uuid.UUID) (*model.InventoryItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.MinStock != nil {
		item.MinStock = *req.MinStock
	}
	if req.MaxStock != nil {
		item.MaxStock = *req.MaxStock
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.Supplier != nil {
		item.Supplier = *req.Supplier
	}
	if req.ExpiryDate != nil {
		item.ExpiryDate = req.ExpiryDate
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if item.MaxStock < item.MinStock {
		return nil, apperrors.BadRequest("max stock cannot be below min stock")
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("inventory item")
		}
		return nil, fmt.Errorf("failed to update inventory item: %w", err)
	}

	s.auditor.Log(ctx, updatedBy, "update", "inventory_item", item.ID, nil)
	return item, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return apperrors.NotFound("inventory item")
		}
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	s.auditor.Log(ctx, deletedBy, "delete", "inventory_item", id, nil)
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.InventoryFilters) ([]*model.InventoryItem, error) {
	return s.repo.List(ctx, filters)
}

// AdjustStock applies a signed delta to an item's stock. The repository
// enforces the non-negative guard atomically, so concurrent dispenses cannot
// oversell. Crossing the low-stock threshold queues an alert.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, req *model.AdjustStockRequest, adjustedBy uuid.UUID) (*model.InventoryItem, error) {
	item, err := s.repo.AdjustStock(ctx, id, req.Adjustment)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrNotFound):
			return nil, apperrors.NotFound("inventory item")
		case errors.Is(err, postgres.ErrInsufficientStock):
			return nil, apperrors.Conflict("insufficient stock for adjustment")
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	s.auditor.Log(ctx, adjustedBy, "adjust_stock", "inventory_item", item.ID, &audit.Entry{
		Description: fmt.Sprintf("%+d (%s)", req.Adjustment, req.Reason),
	})

	if req.Adjustment < 0 && item.IsLowStock() {
		subject := fmt.Sprintf("Low stock: %s", item.Name)
		body := fmt.Sprintf("Item %s (%s) is down to %d %s; minimum is %d.\n",
			item.Name, item.ItemCode, item.CurrentStock, item.Unit, item.MinStock)
		if err := s.notifier.Enqueue(ctx, adjustedBy, model.NotificationTypeLowStock,
			"", subject, body); err != nil {
			return nil, fmt.Errorf("failed to enqueue low stock alert: %w", err)
		}
	}

	return item, nil
}

func (s *Service) ListLowStock(ctx context.Context) ([]*model.InventoryItem, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) ListExpiring(ctx context.Context, within time.Duration) ([]*model.InventoryItem, error) {
	return s.repo.ListExpiring(ctx, within)
}

func (s *Service) Stats(ctx context.Context) (*model.InventoryStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory stats: %w", err)
	}
	return stats, nil
}
