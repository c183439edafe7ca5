package reports

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportCsv writes the record grid only; stats are a spreadsheet concern.
func ExportCsv(report *VarianceReport, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(varianceExportHeaders); err != nil {
		return err
	}
	for _, rec := range report.Variances {
		row := varianceExportRow(rec)
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = fmt.Sprint(v)
		}
		if err := cw.Write(fields); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
