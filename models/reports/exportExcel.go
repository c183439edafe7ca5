package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

var varianceExportHeaders = []string{
	"Id", "ItemId", "DepartmentId", "ShiftDate", "ShiftType",
	"ExpectedStock", "ActualStock", "StockVariance", "StockVariancePercent",
	"TotalVarianceValue", "AlertLevel", "Status", "Reason",
}

func varianceExportRow(rec *models.Reconciliation) []interface{} {
	return []interface{}{
		rec.ID,
		rec.ItemId,
		rec.DepartmentId,
		rec.ShiftDate.Format("2006-01-02"),
		string(rec.ShiftType),
		rec.Expected.Stock.String(),
		rec.Actual.Stock.String(),
		rec.Variance.Stock.String(),
		rec.VariancePercent.Stock.String(),
		rec.TotalVarianceValue.String(),
		string(rec.AlertLevel),
		string(rec.CurrentStatus),
		utils.DereferencePtr(rec.Reason, ""),
	}
}

// ExportExcel writes the variance report as an xlsx workbook: one sheet for
// the record grid, one for the summary stats.
func ExportExcel(report *VarianceReport, w io.Writer) error {
	f := excelize.NewFile()
	const sheet = "Variances"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	for col, header := range varianceExportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	for i, rec := range report.Variances {
		for col, value := range varianceExportRow(rec) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return err
	}
	stats := report.Stats
	summaryRows := [][]interface{}{
		{"TotalVariances", stats.TotalVariances},
		{"PositiveVariances", stats.PositiveVariances},
		{"NegativeVariances", stats.NegativeVariances},
		{"CriticalVariances", stats.CriticalVariances},
		{"PendingVariances", stats.PendingVariances},
		{"TotalVarianceValue", stats.TotalVarianceValue.String()},
		{"AverageVariancePercent", stats.AverageVariancePercent.String()},
		{"GeneratedAt", report.GeneratedAt.Format("2006-01-02 15:04:05")},
	}
	for i, row := range summaryRows {
		f.SetCellValue(summary, "A"+fmt.Sprint(i+1), row[0])
		f.SetCellValue(summary, "B"+fmt.Sprint(i+1), row[1])
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.Write(w)
}
