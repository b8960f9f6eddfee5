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

type billRepository struct {
	BaseRepository
}

func NewBillRepository(base BaseRepository) repository.BillRepository {
	return &billRepository{base}
}

const insertBillQuery = `
	INSERT INTO bills (
		id, bill_number, patient_id, created_by, status, subtotal,
		tax_rate, tax_amount, discount_rate, discount_amount, total,
		due_date, notes, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

const insertBillItemQuery = `
	INSERT INTO bill_items (
		id, bill_id, description, item_type, quantity, unit_price, total, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

const updateBillTotalsQuery = `
	UPDATE bills
	SET subtotal = $1, tax_rate = $2, tax_amount = $3, discount_rate = $4,
		discount_amount = $5, total = $6, due_date = $7, notes = $8, updated_at = $9
	WHERE id = $10
`

func (r *billRepository) CreateWithItems(ctx context.Context, bill *model.Bill) error {
	bill.CreatedAt = time.Now()
	bill.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, insertBillQuery,
			bill.ID,
			bill.BillNumber,
			bill.PatientID,
			bill.CreatedBy,
			bill.Status,
			bill.Subtotal,
			bill.TaxRate,
			bill.TaxAmount,
			bill.DiscountRate,
			bill.DiscountAmount,
			bill.Total,
			bill.DueDate,
			bill.Notes,
			bill.CreatedAt,
			bill.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create bill: %w", err)
		}

		for _, item := range bill.Items {
			if err := insertItemTx(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertItemTx(ctx context.Context, tx *sqlx.Tx, item *model.BillItem) error {
	if _, err := tx.ExecContext(ctx, insertBillItemQuery,
		item.ID,
		item.BillID,
		item.Description,
		item.ItemType,
		item.Quantity,
		item.UnitPrice,
		item.Total,
		item.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert bill item: %w", err)
	}
	return nil
}

func updateTotalsTx(ctx context.Context, tx *sqlx.Tx, bill *model.Bill) error {
	result, err := tx.ExecContext(ctx, updateBillTotalsQuery,
		bill.Subtotal,
		bill.TaxRate,
		bill.TaxAmount,
		bill.DiscountRate,
		bill.DiscountAmount,
		bill.Total,
		bill.DueDate,
		bill.Notes,
		time.Now(),
		bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
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

func (r *billRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	query := `SELECT * FROM bills WHERE id = $1`
	var bill model.Bill
	if err := r.GetDB().GetContext(ctx, &bill, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	items, err := r.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	bill.Items = items
	return &bill, nil
}

func (r *billRepository) UpdateWithItems(ctx context.Context, bill *model.Bill, replaceItems bool) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateTotalsTx(ctx, tx, bill); err != nil {
			return err
		}
		if !replaceItems {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, bill.ID); err != nil {
			return fmt.Errorf("failed to clear bill items: %w", err)
		}
		for _, item := range bill.Items {
			if err := insertItemTx(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *billRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BillStatus, paidAt *time.Time) error {
	result, err := r.GetDB().ExecContext(ctx,
		`UPDATE bills SET status = $1, paid_at = $2, updated_at = $3 WHERE id = $4`,
		status, paidAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update bill status: %w", err)
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

func (r *billRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete bill items: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete bill: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *billRepository) List(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error) {
	query := `SELECT * FROM bills WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.DateFrom.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, filters.DateFrom)
		argCount++
	}
	if !filters.DateTo.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, filters.DateTo)
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.Limit(), filters.Offset())

	var bills []*model.Bill
	if err := r.GetDB().SelectContext(ctx, &bills, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	return bills, nil
}

func (r *billRepository) GetItems(ctx context.Context, billID uuid.UUID) ([]*model.BillItem, error) {
	query := `SELECT * FROM bill_items WHERE bill_id = $1 ORDER BY created_at ASC`
	var items []*model.BillItem
	if err := r.GetDB().SelectContext(ctx, &items, query, billID); err != nil {
		return nil, fmt.Errorf("failed to get bill items: %w", err)
	}
	return items, nil
}

// AddItem inserts the item and rewrites the parent bill's totals in one
// transaction so a partial write never survives a failure.
func (r *billRepository) AddItem(ctx context.Context, item *model.BillItem, bill *model.Bill) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertItemTx(ctx, tx, item); err != nil {
			return err
		}
		return updateTotalsTx(ctx, tx, bill)
	})
}

func (r *billRepository) RemoveItem(ctx context.Context, billID, itemID uuid.UUID, bill *model.Bill) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM bill_items WHERE id = $1 AND bill_id = $2`, itemID, billID)
		if err != nil {
			return fmt.Errorf("failed to remove bill item: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrNotFound
		}
		return updateTotalsTx(ctx, tx, bill)
	})
}

func (r *billRepository) Stats(ctx context.Context) (*model.BillingStats, error) {
	query := `
		SELECT
			COALESCE(SUM(total) FILTER (WHERE status != 'cancelled'), 0) AS total_billed,
			COALESCE(SUM(total) FILTER (WHERE status = 'paid'), 0) AS total_paid,
			COALESCE(SUM(total) FILTER (WHERE status IN ('generated', 'sent', 'overdue')), 0) AS total_outstanding,
			COUNT(*) FILTER (WHERE status = 'draft') AS draft_count,
			COUNT(*) FILTER (WHERE status = 'overdue') AS overdue_count,
			COUNT(*) FILTER (WHERE status = 'paid') AS paid_count,
			COUNT(*) FILTER (WHERE status = 'generated') AS generated_count
		FROM bills
	`
	var stats model.BillingStats
	if err := r.GetDB().GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get billing stats: %w", err)
	}
	return &stats, nil
}

func (r *billRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.GetDB().GetContext(ctx, &seq, `SELECT nextval('bill_number_seq')`); err != nil {
		return 0, fmt.Errorf("failed to get next bill sequence: %w", err)
	}
	return seq, nil
}
