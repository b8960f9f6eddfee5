package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medicore/hospital-api/internal/config"
	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	"github.com/medicore/hospital-api/internal/service/notification"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/pdf"
)

// allowedTransitions maps each bill status to the statuses it may move to.
// Paid and cancelled are terminal.
var allowedTransitions = map[model.BillStatus][]model.BillStatus{
	model.BillStatusDraft: {
		model.BillStatusGenerated,
		model.BillStatusCancelled,
	},
	model.BillStatusGenerated: {
		model.BillStatusSent,
		model.BillStatusPaid,
		model.BillStatusCancelled,
	},
	model.BillStatusSent: {
		model.BillStatusPaid,
		model.BillStatusOverdue,
		model.BillStatusCancelled,
	},
	model.BillStatusOverdue: {
		model.BillStatusPaid,
		model.BillStatusCancelled,
	},
}

type Service struct {
	repo        repository.BillRepository
	patientRepo repository.PatientRepository
	auditor     *audit.Service
	notifier    *notification.Service
	hospital    config.HospitalConfig
}

func NewService(repo repository.BillRepository, patientRepo repository.PatientRepository,
	auditor *audit.Service, notifier *notification.Service, hospital config.HospitalConfig) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		auditor:     auditor,
		notifier:    notifier,
		hospital:    hospital,
	}
}

// round2 rounds half away from zero to 2 decimal places.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// computeTotals recalculates every derived amount on the bill from its items
// and rates. Each item line is rounded before it enters the subtotal, and
// tax and discount are each rounded independently, so the printed lines
// always add up to the printed total.
func computeTotals(bill *model.Bill) {
	subtotal := decimal.Zero
	for _, item := range bill.Items {
		line := round2(decimal.NewFromFloat(item.Quantity).Mul(decimal.NewFromFloat(item.UnitPrice)))
		item.Total = line.InexactFloat64()
		subtotal = subtotal.Add(line)
	}

	hundred := decimal.NewFromInt(100)
	tax := round2(subtotal.Mul(decimal.NewFromFloat(bill.TaxRate)).Div(hundred))
	discount := round2(subtotal.Mul(decimal.NewFromFloat(bill.DiscountRate)).Div(hundred))
	total := round2(subtotal.Add(tax).Sub(discount))

	bill.Subtotal = subtotal.InexactFloat64()
	bill.TaxAmount = tax.InexactFloat64()
	bill.DiscountAmount = discount.InexactFloat64()
	bill.Total = total.InexactFloat64()
}

func buildItems(billID uuid.UUID, reqs []*model.BillItemRequest) []*model.BillItem {
	items := make([]*model.BillItem, 0, len(reqs))
	now := time.Now()
	for _, r := range reqs {
		items = append(items, &model.BillItem{
			ID:          uuid.New(),
			BillID:      billID,
			Description: r.Description,
			ItemType:    r.ItemType,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			CreatedAt:   now,
		})
	}
	return items
}

func (s *Service) Create(ctx context.Context, req *model.CreateBillRequest, createdBy uuid.UUID) (*model.Bill, error) {
	if _, err := s.patientRepo.Get(ctx, req.PatientID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	seq, err := s.repo.NextSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate bill number: %w", err)
	}

	bill := &model.Bill{
		Base:         model.Base{ID: uuid.New()},
		BillNumber:   fmt.Sprintf("BILL-%06d", seq),
		PatientID:    req.PatientID,
		CreatedBy:    createdBy,
		Status:       model.BillStatusDraft,
		TaxRate:      req.TaxRate,
		DiscountRate: req.DiscountRate,
		DueDate:      req.DueDate,
		Notes:        req.Notes,
	}
	bill.Items = buildItems(bill.ID, req.Items)
	computeTotals(bill)

	if err := s.repo.CreateWithItems(ctx, bill); err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}

	s.auditor.Log(ctx, createdBy, "create", "bill", bill.ID, &audit.Entry{
		Description: bill.BillNumber,
	})
	return bill, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	bill, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("bill")
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// Update modifies rates, due date, notes and optionally replaces the item
// list. Only draft bills accept changes.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateBillRequest, updatedBy uuid.UUID) (*model.Bill, error) {
	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.Status != model.BillStatusDraft {
		return nil, apperrors.Conflict("only draft bills can be modified")
	}

	if req.TaxRate != nil {
		bill.TaxRate = *req.TaxRate
	}
	if req.DiscountRate != nil {
		bill.DiscountRate = *req.DiscountRate
	}
	if req.DueDate != nil {
		bill.DueDate = req.DueDate
	}
	if req.Notes != nil {
		bill.Notes = *req.Notes
	}

	replaceItems := req.Items != nil
	if replaceItems {
		bill.Items = buildItems(bill.ID, req.Items)
	}
	computeTotals(bill)

	if err := s.repo.UpdateWithItems(ctx, bill, replaceItems); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("bill")
		}
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}

	s.auditor.Log(ctx, updatedBy, "update", "bill", bill.ID, nil)
	return bill, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.BillStatus, updatedBy uuid.UUID) (*model.Bill, error) {
	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(bill.Status, status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move bill from %s to %s", bill.Status, status))
	}

	var paidAt *time.Time
	if status == model.BillStatusPaid {
		now := time.Now()
		paidAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, id, status, paidAt); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("bill")
		}
		return nil, fmt.Errorf("failed to update bill status: %w", err)
	}
	bill.Status = status
	bill.PaidAt = paidAt

	s.auditor.Log(ctx, updatedBy, "status_change", "bill", bill.ID, &audit.Entry{
		Description: string(status),
	})

	if status == model.BillStatusSent {
		if patient, err := s.patientRepo.Get(ctx, bill.PatientID); err == nil && patient.Email != "" {
			subject := fmt.Sprintf("Invoice %s", bill.BillNumber)
			body := fmt.Sprintf("Dear %s %s,\n\nInvoice %s for %.2f is now due.\n",
				patient.FirstName, patient.LastName, bill.BillNumber, bill.Total)
			if err := s.notifier.Enqueue(ctx, updatedBy, model.NotificationTypeBillSent,
				patient.Email, subject, body); err != nil {
				return nil, fmt.Errorf("failed to enqueue notification: %w", err)
			}
		}
	}

	return bill, nil
}

func transitionAllowed(from, to model.BillStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Delete removes a bill. Only drafts are deletable; everything past draft
// is part of the financial record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy uuid.UUID) error {
	bill, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if bill.Status != model.BillStatusDraft {
		return apperrors.Conflict("only draft bills can be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return apperrors.NotFound("bill")
		}
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	s.auditor.Log(ctx, deletedBy, "delete", "bill", id, &audit.Entry{
		Description: bill.BillNumber,
	})
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.BillFilters) ([]*model.Bill, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) AddItem(ctx context.Context, billID uuid.UUID, req *model.BillItemRequest, updatedBy uuid.UUID) (*model.Bill, error) {
	bill, err := s.Get(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status != model.BillStatusDraft {
		return nil, apperrors.Conflict("only draft bills can be modified")
	}

	item := &model.BillItem{
		ID:          uuid.New(),
		BillID:      billID,
		Description: req.Description,
		ItemType:    req.ItemType,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		CreatedAt:   time.Now(),
	}
	bill.Items = append(bill.Items, item)
	computeTotals(bill)

	if err := s.repo.AddItem(ctx, item, bill); err != nil {
		return nil, fmt.Errorf("failed to add bill item: %w", err)
	}

	s.auditor.Log(ctx, updatedBy, "add_item", "bill", bill.ID, nil)
	return bill, nil
}

func (s *Service) RemoveItem(ctx context.Context, billID, itemID uuid.UUID, updatedBy uuid.UUID) (*model.Bill, error) {
	bill, err := s.Get(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.Status != model.BillStatusDraft {
		return nil, apperrors.Conflict("only draft bills can be modified")
	}

	found := false
	kept := bill.Items[:0]
	for _, item := range bill.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return nil, apperrors.NotFound("bill item")
	}
	bill.Items = kept
	computeTotals(bill)

	if err := s.repo.RemoveItem(ctx, billID, itemID, bill); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("bill item")
		}
		return nil, fmt.Errorf("failed to remove bill item: %w", err)
	}

	s.auditor.Log(ctx, updatedBy, "remove_item", "bill", bill.ID, nil)
	return bill, nil
}

// RenderInvoice writes the invoice PDF for a bill to w. Draft bills have no
// invoice yet.
func (s *Service) RenderInvoice(ctx context.Context, id uuid.UUID, w io.Writer) (*model.Bill, error) {
	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.Status == model.BillStatusDraft {
		return nil, apperrors.Conflict("invoice is not available for draft bills")
	}

	patient, err := s.patientRepo.Get(ctx, bill.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	inv := &pdf.Invoice{
		Bill:        bill,
		PatientName: patient.FirstName + " " + patient.LastName,
		PatientCode: patient.PatientCode,
		Hospital:    s.hospital.Name,
		Address:     s.hospital.Address,
	}
	if err := pdf.Render(w, inv); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return bill, nil
}

func (s *Service) Stats(ctx context.Context) (*model.BillingStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing stats: %w", err)
	}
	return stats, nil
}
