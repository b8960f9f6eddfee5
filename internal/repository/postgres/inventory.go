package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
)

// ErrInsufficientStock is returned when an adjustment would drive stock
// negative.
var ErrInsufficientStock = errors.New("insufficient stock")

type inventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (
			id, item_code, name, category, current_stock, min_stock,
			max_stock, unit, unit_price, supplier, expiry_date, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.ItemCode,
		item.Name,
		item.Category,
		item.CurrentStock,
		item.MinStock,
		item.MaxStock,
		item.Unit,
		item.UnitPrice,
		item.Supplier,
		item.ExpiryDate,
		item.Active,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	return nil
}

func (r *inventoryRepository) Get(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	query := `SELECT * FROM inventory_items WHERE id = $1`
	var item model.InventoryItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return &item, nil
}

func (r *inventoryRepository) Update(ctx context.Context, item *model.InventoryItem) error {
	query := `
		UPDATE inventory_items
		SET name = $1, category = $2, min_stock = $3, max_stock = $4,
			unit = $5, unit_price = $6, supplier = $7, expiry_date = $8,
			active = $9, updated_at = $10
		WHERE id = $11
	`
	item.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		item.Name,
		item.Category,
		item.MinStock,
		item.MaxStock,
		item.Unit,
		item.UnitPrice,
		item.Supplier,
		item.ExpiryDate,
		item.Active,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) List(ctx context.Context, filters *model.InventoryFilters) ([]*model.InventoryItem, error) {
	query := `SELECT * FROM inventory_items WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argCount)
		args = append(args, filters.Category)
		argCount++
	}
	if filters.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR item_code ILIKE $%d OR supplier ILIKE $%d)",
			argCount, argCount, argCount)
		args = append(args, "%"+filters.Search+"%")
		argCount++
	}
	if filters.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", argCount)
		args = append(args, *filters.Active)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.Limit(), filters.Offset())

	var items []*model.InventoryItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	return items, nil
}

// AdjustStock applies the delta with a guard in the WHERE clause, so two
// concurrent adjustments can never drive the stock negative.
func (r *inventoryRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET current_stock = current_stock + $1, updated_at = $2
		WHERE id = $3 AND current_stock + $1 >= 0
		RETURNING *
	`
	var item model.InventoryItem
	err := r.db.GetContext(ctx, &item, query, delta, time.Now(), id)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	// Distinguish a missing row from a guard rejection.
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrInsufficientStock
}

func (r *inventoryRepository) ListLowStock(ctx context.Context) ([]*model.InventoryItem, error) {
	query := `
		SELECT * FROM inventory_items
		WHERE active = true AND current_stock <= min_stock
		ORDER BY current_stock ASC
	`
	var items []*model.InventoryItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	return items, nil
}

func (r *inventoryRepository) ListExpiring(ctx context.Context, within time.Duration) ([]*model.InventoryItem, error) {
	query := `
		SELECT * FROM inventory_items
		WHERE active = true AND expiry_date IS NOT NULL
		AND expiry_date <= $1 AND expiry_date >= NOW()
		ORDER BY expiry_date ASC
	`
	var items []*model.InventoryItem
	if err := r.db.SelectContext(ctx, &items, query, time.Now().Add(within)); err != nil {
		return nil, fmt.Errorf("failed to list expiring items: %w", err)
	}
	return items, nil
}

func (r *inventoryRepository) Stats(ctx context.Context) (*model.InventoryStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_items,
			COUNT(*) FILTER (WHERE current_stock <= min_stock) AS low_stock_items,
			COUNT(*) FILTER (WHERE expiry_date IS NOT NULL AND expiry_date <= NOW() + INTERVAL '30 days' AND expiry_date >= NOW()) AS expiring_soon,
			COALESCE(SUM(current_stock * unit_price), 0) AS stock_value
		FROM inventory_items
		WHERE active = true
	`
	var stats model.InventoryStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get inventory stats: %w", err)
	}
	return &stats, nil
}

func (r *inventoryRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT nextval('item_code_seq')`); err != nil {
		return 0, fmt.Errorf("failed to get next item sequence: %w", err)
	}
	return seq, nil
}
