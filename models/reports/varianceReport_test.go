package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
)

// NOTE: These tests are intentionally DB-free. BuildReport is pure over an
// in-memory snapshot; the query path that loads the snapshot needs MySQL and
// belongs in an integration environment.

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func rec(id, itemId, deptId, dayOfMonth int, stockVar, totalValue int64, level models.AlertLevel, status models.ReconciliationStatus, reason *string) *models.Reconciliation {
	return &models.Reconciliation{
		ID:                 id,
		RestaurantId:       "rest-1",
		ItemId:             itemId,
		DepartmentId:       deptId,
		ShiftDate:          day(dayOfMonth),
		ShiftType:          models.ShiftTypeMorning,
		Variance:           models.MetricValues{Stock: decimal.NewFromInt(stockVar)},
		VariancePercent:    models.MetricValues{Stock: decimal.NewFromInt(stockVar * 2)},
		TotalVarianceValue: decimal.NewFromInt(totalValue),
		AlertLevel:         level,
		CurrentStatus:      status,
		Reason:             reason,
	}
}

func reasonPtr(s string) *string { return &s }

func sampleRecords() []*models.Reconciliation {
	return []*models.Reconciliation{
		rec(1, 10, 1, 1, -3, 100000, models.AlertLevelMedium, models.ReconciliationStatusPending, reasonPtr("waste")),
		rec(2, 10, 1, 1, 2, 40000, models.AlertLevelLow, models.ReconciliationStatusApproved, reasonPtr("waste")),
		rec(3, 11, 2, 2, -12, 500000, models.AlertLevelCritical, models.ReconciliationStatusCritical, nil),
		rec(4, 12, 2, 2, 0, 0, models.AlertLevelNone, models.ReconciliationStatusPending, reasonPtr("count error")),
	}
}

func TestBuildReport_Stats(t *testing.T) {
	report := BuildReport(sampleRecords(), &models.VarianceFilter{})
	stats := report.Stats

	if stats.TotalVariances != 4 {
		t.Errorf("TotalVariances = %d, want 4", stats.TotalVariances)
	}
	if stats.PositiveVariances != 1 {
		t.Errorf("PositiveVariances = %d, want 1", stats.PositiveVariances)
	}
	if stats.NegativeVariances != 2 {
		t.Errorf("NegativeVariances = %d, want 2", stats.NegativeVariances)
	}
	if stats.CriticalVariances != 1 {
		t.Errorf("CriticalVariances = %d, want 1", stats.CriticalVariances)
	}
	if stats.PendingVariances != 2 {
		t.Errorf("PendingVariances = %d, want 2", stats.PendingVariances)
	}
	if !stats.TotalVarianceValue.Equal(decimal.NewFromInt(640000)) {
		t.Errorf("TotalVarianceValue = %s, want 640000", stats.TotalVarianceValue)
	}
	// Percent sum: -6 + 4 + -24 + 0 = -26, over 4 records.
	if !stats.AverageVariancePercent.Equal(decimal.NewFromFloat(-6.5)) {
		t.Errorf("AverageVariancePercent = %s, want -6.5", stats.AverageVariancePercent)
	}
}

func TestBuildReport_EmptySnapshot(t *testing.T) {
	report := BuildReport(nil, &models.VarianceFilter{})
	if report.Stats.TotalVariances != 0 {
		t.Errorf("TotalVariances = %d, want 0", report.Stats.TotalVariances)
	}
	if !report.Stats.AverageVariancePercent.IsZero() {
		t.Errorf("AverageVariancePercent = %s, want 0", report.Stats.AverageVariancePercent)
	}
	if len(report.Trend) != 0 || len(report.ByReason) != 0 {
		t.Error("empty snapshot must produce empty rollups")
	}
}

func TestBuildReport_TrendIsChronological(t *testing.T) {
	report := BuildReport(sampleRecords(), &models.VarianceFilter{})

	if len(report.Trend) != 2 {
		t.Fatalf("trend has %d points, want 2", len(report.Trend))
	}
	if report.Trend[0].Date != "2026-03-01" || report.Trend[1].Date != "2026-03-02" {
		t.Errorf("trend dates = %s, %s; want ascending", report.Trend[0].Date, report.Trend[1].Date)
	}
	if report.Trend[0].TotalVariances != 2 {
		t.Errorf("day one count = %d, want 2", report.Trend[0].TotalVariances)
	}
	if report.Trend[1].CriticalCount != 1 {
		t.Errorf("day two criticals = %d, want 1", report.Trend[1].CriticalCount)
	}
	if !report.Trend[0].TotalValue.Equal(decimal.NewFromInt(140000)) {
		t.Errorf("day one value = %s, want 140000", report.Trend[0].TotalValue)
	}
}

func TestBuildReport_ReasonRollup(t *testing.T) {
	report := BuildReport(sampleRecords(), &models.VarianceFilter{})

	if len(report.ByReason) != 3 {
		t.Fatalf("reason rows = %d, want 3", len(report.ByReason))
	}
	// "waste" has the most records and sorts first.
	top := report.ByReason[0]
	if top.Reason != "waste" || top.Count != 2 {
		t.Errorf("top reason = %s (%d), want waste (2)", top.Reason, top.Count)
	}
	if !top.Percentage.Equal(decimal.NewFromInt(50)) {
		t.Errorf("waste percentage = %s, want 50", top.Percentage)
	}
	if !top.AverageValue.Equal(decimal.NewFromInt(70000)) {
		t.Errorf("waste average = %s, want 70000", top.AverageValue)
	}

	// A nil reason lands in the unspecified bucket, not a crash.
	found := false
	for _, row := range report.ByReason {
		if row.Reason == "unspecified" {
			found = true
			if row.Count != 1 {
				t.Errorf("unspecified count = %d, want 1", row.Count)
			}
		}
	}
	if !found {
		t.Error("missing unspecified reason bucket")
	}
}

func TestBuildReport_ItemRollupTracksLastDate(t *testing.T) {
	report := BuildReport(sampleRecords(), &models.VarianceFilter{})

	var item10 *VarianceByItem
	for i := range report.ByItem {
		if report.ByItem[i].ItemId == 10 {
			item10 = &report.ByItem[i]
		}
	}
	if item10 == nil {
		t.Fatal("item 10 missing from rollup")
	}
	if item10.VarianceCount != 2 {
		t.Errorf("item 10 count = %d, want 2", item10.VarianceCount)
	}
	if !item10.LastVarianceDate.Equal(day(1)) {
		t.Errorf("item 10 last date = %s, want %s", item10.LastVarianceDate, day(1))
	}
	// Item with the most variances sorts first.
	if report.ByItem[0].ItemId != 10 {
		t.Errorf("first item = %d, want 10", report.ByItem[0].ItemId)
	}
}

func TestBuildReport_FilterNarrowsSnapshot(t *testing.T) {
	critical := models.VarianceDirectionCritical
	report := BuildReport(sampleRecords(), &models.VarianceFilter{VarianceType: critical})
	if report.Stats.TotalVariances != 1 {
		t.Fatalf("critical filter kept %d records, want 1", report.Stats.TotalVariances)
	}
	if report.Variances[0].ID != 3 {
		t.Errorf("kept record %d, want 3", report.Variances[0].ID)
	}

	dept := 1
	report = BuildReport(sampleRecords(), &models.VarianceFilter{DepartmentId: &dept})
	if report.Stats.TotalVariances != 2 {
		t.Errorf("department filter kept %d records, want 2", report.Stats.TotalVariances)
	}

	negative := models.VarianceDirectionNegative
	report = BuildReport(sampleRecords(), &models.VarianceFilter{VarianceType: negative})
	if report.Stats.TotalVariances != 2 {
		t.Errorf("negative filter kept %d records, want 2", report.Stats.TotalVariances)
	}
}

func TestStampReport_AttributesToCaller(t *testing.T) {
	shared := BuildReport(sampleRecords(), &models.VarianceFilter{})
	shared.GeneratedBy = 1
	builtAt := shared.GeneratedAt

	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	stamped := stampReport(shared, 2, now)

	if stamped.GeneratedBy != 2 {
		t.Errorf("GeneratedBy = %d, want the caller, 2", stamped.GeneratedBy)
	}
	if !stamped.GeneratedAt.Equal(now) {
		t.Errorf("GeneratedAt = %s, want %s", stamped.GeneratedAt, now)
	}

	// The shared copy keeps its own attribution.
	if shared.GeneratedBy != 1 || !shared.GeneratedAt.Equal(builtAt) {
		t.Errorf("shared report mutated: by=%d at=%s", shared.GeneratedBy, shared.GeneratedAt)
	}
	if stamped.Stats.TotalVariances != shared.Stats.TotalVariances {
		t.Error("stamping must not touch report contents")
	}
}

func TestVarianceFilter_Validate(t *testing.T) {
	bad := models.ShiftType("brunch")
	filter := &models.VarianceFilter{ShiftType: &bad}
	if err := filter.Validate(); err == nil {
		t.Error("invalid shift type passed validation")
	}

	filter = &models.VarianceFilter{VarianceType: models.VarianceDirection("sideways")}
	if err := filter.Validate(); err == nil {
		t.Error("invalid variance type passed validation")
	}

	if err := (&models.VarianceFilter{}).Validate(); err != nil {
		t.Errorf("empty filter failed validation: %v", err)
	}
}
