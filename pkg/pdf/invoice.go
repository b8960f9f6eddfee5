package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/medicore/hospital-api/internal/model"
)

// Invoice holds everything the renderer needs; callers assemble it so the
// package stays free of repository dependencies.
type Invoice struct {
	Bill        *model.Bill
	PatientName string
	PatientCode string
	Hospital    string
	Address     string
}

// Render writes the invoice PDF for a bill to w. The layout is a fixed
// sequence of draws, so identical input produces an identical document.
func Render(w io.Writer, inv *Invoice) error {
	if inv.Bill == nil {
		return fmt.Errorf("invoice requires a bill")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Invoice %s", inv.Bill.BillNumber), false)
	doc.AddPage()

	// Header
	doc.SetFont("Arial", "B", 18)
	doc.Cell(0, 10, inv.Hospital)
	doc.Ln(7)
	doc.SetFont("Arial", "", 10)
	doc.Cell(0, 6, inv.Address)
	doc.Ln(12)

	doc.SetFont("Arial", "B", 14)
	doc.Cell(0, 8, fmt.Sprintf("Invoice %s", inv.Bill.BillNumber))
	doc.Ln(10)

	doc.SetFont("Arial", "", 10)
	doc.Cell(95, 6, fmt.Sprintf("Patient: %s (%s)", inv.PatientName, inv.PatientCode))
	doc.Cell(0, 6, fmt.Sprintf("Date: %s", inv.Bill.CreatedAt.Format("2006-01-02")))
	doc.Ln(6)
	doc.Cell(95, 6, fmt.Sprintf("Status: %s", inv.Bill.Status))
	if inv.Bill.DueDate != nil {
		doc.Cell(0, 6, fmt.Sprintf("Due: %s", inv.Bill.DueDate.Format("2006-01-02")))
	}
	doc.Ln(12)

	// Items table
	doc.SetFont("Arial", "B", 10)
	doc.SetFillColor(235, 235, 235)
	doc.CellFormat(80, 8, "Description", "1", 0, "L", true, 0, "")
	doc.CellFormat(30, 8, "Type", "1", 0, "L", true, 0, "")
	doc.CellFormat(20, 8, "Qty", "1", 0, "R", true, 0, "")
	doc.CellFormat(30, 8, "Unit Price", "1", 0, "R", true, 0, "")
	doc.CellFormat(30, 8, "Amount", "1", 1, "R", true, 0, "")

	doc.SetFont("Arial", "", 10)
	for _, item := range inv.Bill.Items {
		doc.CellFormat(80, 8, item.Description, "1", 0, "L", false, 0, "")
		doc.CellFormat(30, 8, string(item.ItemType), "1", 0, "L", false, 0, "")
		doc.CellFormat(20, 8, fmt.Sprintf("%.2f", item.Quantity), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 8, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		doc.CellFormat(30, 8, fmt.Sprintf("%.2f", item.Total), "1", 1, "R", false, 0, "")
	}
	doc.Ln(4)

	// Totals block
	writeTotal := func(label string, amount float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		doc.SetFont("Arial", style, 10)
		doc.CellFormat(130, 7, "", "", 0, "L", false, 0, "")
		doc.CellFormat(30, 7, label, "", 0, "R", false, 0, "")
		doc.CellFormat(30, 7, fmt.Sprintf("%.2f", amount), "", 1, "R", false, 0, "")
	}
	writeTotal("Subtotal", inv.Bill.Subtotal, false)
	writeTotal(fmt.Sprintf("Tax (%.1f%%)", inv.Bill.TaxRate), inv.Bill.TaxAmount, false)
	writeTotal(fmt.Sprintf("Discount (%.1f%%)", inv.Bill.DiscountRate), inv.Bill.DiscountAmount, false)
	writeTotal("Total", inv.Bill.Total, true)

	if inv.Bill.Notes != "" {
		doc.Ln(8)
		doc.SetFont("Arial", "I", 9)
		doc.MultiCell(0, 5, "Notes: "+inv.Bill.Notes, "", "L", false)
	}

	doc.Ln(10)
	doc.SetFont("Arial", "", 8)
	doc.Cell(0, 5, fmt.Sprintf("Generated %s", time.Now().Format(time.RFC3339)))

	return doc.Output(w)
}
