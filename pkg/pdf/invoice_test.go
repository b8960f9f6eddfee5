package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/model"
)

func sampleInvoice() *Invoice {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	bill := &model.Bill{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		},
		BillNumber:     "BILL-000042",
		Status:         model.BillStatusGenerated,
		Subtotal:       2000,
		TaxRate:        18,
		TaxAmount:      360,
		DiscountRate:   10,
		DiscountAmount: 200,
		Total:          2160,
		DueDate:        &due,
		Notes:          "Payable within 30 days.",
		Items: []*model.BillItem{
			{
				Description: "Consultation",
				ItemType:    model.BillItemTypeConsultation,
				Quantity:    2,
				UnitPrice:   500,
				Total:       1000,
			},
			{
				Description: "Blood panel",
				ItemType:    model.BillItemTypeLabTest,
				Quantity:    1,
				UnitPrice:   1000,
				Total:       1000,
			},
		},
	}
	return &Invoice{
		Bill:        bill,
		PatientName: "Grace Hopper",
		PatientCode: "PAT-000007",
		Hospital:    "MediCore General Hospital",
		Address:     "42 Harbor Street, Springfield",
	}
}

func TestRenderProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleInvoice()))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 500)
}

func TestRenderWithoutItems(t *testing.T) {
	inv := sampleInvoice()
	inv.Bill.Items = nil

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, inv))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderRequiresBill(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, &Invoice{})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}
