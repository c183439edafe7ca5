package reports

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
)

func TestExportCsv(t *testing.T) {
	report := BuildReport(sampleRecords(), &models.VarianceFilter{})

	var buf bytes.Buffer
	if err := ExportCsv(report, &buf); err != nil {
		t.Fatalf("ExportCsv: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv back: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("csv has %d rows, want header + 4 records", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(varianceExportHeaders, ",") {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][0] != "1" || rows[1][7] != "-3" {
		t.Errorf("first record row = %v", rows[1])
	}
	if rows[3][10] != "critical" {
		t.Errorf("alert level cell = %q, want critical", rows[3][10])
	}
}

func TestExportExcel(t *testing.T) {
	report := BuildReport(sampleRecords(), &models.VarianceFilter{})

	var buf bytes.Buffer
	if err := ExportExcel(report, &buf); err != nil {
		t.Fatalf("ExportExcel: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reading workbook back: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Variances")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("Variances sheet has %d rows, want header + 4 records", len(rows))
	}
	if rows[0][0] != "Id" || rows[0][len(rows[0])-1] != "Reason" {
		t.Errorf("header row = %v", rows[0])
	}

	got, err := f.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "4" {
		t.Errorf("Summary B1 = %q, want 4", got)
	}

	// The default sheet is replaced, not left dangling next to the data.
	for _, name := range f.GetSheetList() {
		if name == "Sheet1" {
			t.Error("Sheet1 should be deleted")
		}
	}
}

func TestTruncateCell_ByRune(t *testing.T) {
	if got := truncateCell("short", 18); got != "short" {
		t.Errorf("truncateCell(short) = %q", got)
	}
	long := "ကြက်သားပျက်စီးမှု အလွန်များသောကြောင့်"
	got := truncateCell(long, 18)
	if !utf8.ValidString(got) {
		t.Errorf("truncated text is not valid utf-8: %q", got)
	}
	if n := len([]rune(got)); n != 18 {
		t.Errorf("truncated to %d runes, want 18", n)
	}
}

func TestExportPdf(t *testing.T) {
	records := sampleRecords()
	longReason := "မှာယူမှုအမှား နှင့် ပျက်စီးမှု စာရင်းကိုက်ညှိခြင်း"
	records[0].Reason = &longReason
	report := BuildReport(records, &models.VarianceFilter{})

	var buf bytes.Buffer
	if err := ExportPdf(report, &buf); err != nil {
		t.Fatalf("ExportPdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Errorf("output does not start with a pdf header: %q", buf.Bytes()[:8])
	}
}
