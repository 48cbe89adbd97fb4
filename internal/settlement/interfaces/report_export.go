package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	settlement "rentroll-cloud/internal/settlement/domain"
)

// BuildReportPDF renders a minimal PDF for a set of monthly report rows.
func BuildReportPDF(rows []settlement.MonthlyReportRow) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Monthly Settlement Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if len(rows) > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s",
			rows[0].PeriodStart.Format("2006-01-02"), rows[0].PeriodEnd.Format("2006-01-02")))
		pdf.Ln(5)
		pdf.Cell(0, 6, fmt.Sprintf("Report date: %s", rows[0].ReportDate.Format("2006-01-02")))
		pdf.Ln(8)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Property", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Period Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Period End", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Rent", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "HOA", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Deductions", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Payout", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	var totalPayout float64
	for _, row := range rows {
		pdf.CellFormat(50, 6, row.PropertyID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, row.PeriodStart.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, row.PeriodEnd.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.0f", row.TotalRent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.0f", row.TotalHOA), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.0f", row.TotalDeductions), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.0f", row.Payout), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		totalPayout += row.Payout
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total payout: %.0f", totalPayout))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportXLSX renders a minimal XLSX for a set of monthly report rows.
func BuildReportXLSX(rows []settlement.MonthlyReportRow) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "reports"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Property", "Period Start", "Period End", "Report Date", "Rent", "HOA", "Deductions", "Payout"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, row := range rows {
		values := []any{
			row.PropertyID,
			row.PeriodStart.Format("2006-01-02"),
			row.PeriodEnd.Format("2006-01-02"),
			row.ReportDate.Format("2006-01-02"),
			row.TotalRent,
			row.TotalHOA,
			row.TotalDeductions,
			row.Payout,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
