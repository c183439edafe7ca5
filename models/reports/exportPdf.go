package reports

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// truncateCell trims by rune, never mid-character: reasons are free text and
// often non-ASCII.
func truncateCell(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// ExportPdf writes a landscape summary-plus-grid report. Column layout is
// fixed; long reasons are truncated rather than wrapped.
func ExportPdf(report *VarianceReport, w io.Writer) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Variance Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated at %s", report.GeneratedAt.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf(
		"Records: %d  Positive: %d  Negative: %d  Critical: %d  Pending: %d  Total value: %s",
		report.Stats.TotalVariances,
		report.Stats.PositiveVariances,
		report.Stats.NegativeVariances,
		report.Stats.CriticalVariances,
		report.Stats.PendingVariances,
		report.Stats.TotalVarianceValue.String(),
	), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	colWidths := []float64{12, 16, 22, 22, 20, 22, 20, 20, 24, 26, 18, 22, 32}

	pdf.SetFont("Helvetica", "B", 8)
	for i, header := range varianceExportHeaders {
		pdf.CellFormat(colWidths[i], 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, rec := range report.Variances {
		for i, value := range varianceExportRow(rec) {
			pdf.CellFormat(colWidths[i], 6, truncateCell(fmt.Sprint(value), 18), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
