package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

var tracer = otel.Tracer("mkitchen-reconciliation")

type VarianceStats struct {
	TotalVariances         int             `json:"total_variances"`
	PositiveVariances      int             `json:"positive_variances"`
	NegativeVariances      int             `json:"negative_variances"`
	CriticalVariances      int             `json:"critical_variances"`
	PendingVariances       int             `json:"pending_variances"`
	TotalVarianceValue     decimal.Decimal `json:"total_variance_value"`
	AverageVariancePercent decimal.Decimal `json:"average_variance_percent"`
}

type VarianceTrendPoint struct {
	Date           string          `json:"date"`
	TotalVariances int             `json:"total_variances"`
	TotalValue     decimal.Decimal `json:"total_value"`
	CriticalCount  int             `json:"critical_count"`
	AveragePercent decimal.Decimal `json:"average_percent"`
}

type VarianceByDepartment struct {
	DepartmentId           int             `json:"department_id"`
	VarianceCount          int             `json:"variance_count"`
	TotalVarianceValue     decimal.Decimal `json:"total_variance_value"`
	CriticalCount          int             `json:"critical_count"`
	AverageVariancePercent decimal.Decimal `json:"average_variance_percent"`
}

type VarianceByReason struct {
	Reason       string          `json:"reason"`
	Count        int             `json:"count"`
	TotalValue   decimal.Decimal `json:"total_value"`
	AverageValue decimal.Decimal `json:"average_value"`
	Percentage   decimal.Decimal `json:"percentage"`
}

type VarianceByItem struct {
	ItemId                 int             `json:"item_id"`
	VarianceCount          int             `json:"variance_count"`
	TotalVarianceValue     decimal.Decimal `json:"total_variance_value"`
	AverageVariancePercent decimal.Decimal `json:"average_variance_percent"`
	LastVarianceDate       time.Time       `json:"last_variance_date"`
}

type VarianceReport struct {
	Filter       *models.VarianceFilter   `json:"filters"`
	Stats        VarianceStats            `json:"stats"`
	Trend        []VarianceTrendPoint     `json:"trend"`
	ByDepartment []VarianceByDepartment   `json:"by_department"`
	ByReason     []VarianceByReason       `json:"by_reason"`
	ByItem       []VarianceByItem         `json:"by_item"`
	Variances    []*models.Reconciliation `json:"variances"`
	GeneratedAt  time.Time                `json:"generated_at"`
	GeneratedBy  int                      `json:"generated_by"`
}

// BuildVarianceReport loads the filtered snapshot for the caller's restaurant
// and derives the report. The load is the only suspension point; the caller's
// ctx cancels it.
func BuildVarianceReport(ctx context.Context, filter *models.VarianceFilter) (*VarianceReport, error) {
	ctx, span := tracer.Start(ctx, "BuildVarianceReport")
	defer span.End()

	userId, _ := utils.GetUserIdFromContext(ctx)

	// The cache key is restaurant+filter, so a hit may have been built by a
	// different user; the stamp always reflects the caller.
	if cached, ok := reportCacheLookup(ctx, filter); ok {
		return stampReport(cached, userId, time.Now().UTC()), nil
	}

	started := time.Now()
	records, err := models.GetFilteredReconciliations(ctx, filter, 0, 0)
	if err != nil {
		return nil, err
	}

	report := BuildReport(records, filter)
	reportCacheStore(ctx, filter, report)
	logSlowReport(ctx, "varianceReport", started, map[string]any{"records": len(records)})
	return stampReport(report, userId, report.GeneratedAt), nil
}

// stampReport returns a shallow copy attributed to the caller, leaving the
// input (a shared cache entry) untouched.
func stampReport(report *VarianceReport, userId int, at time.Time) *VarianceReport {
	stamped := *report
	stamped.GeneratedAt = at
	stamped.GeneratedBy = userId
	return &stamped
}

// BuildReport derives stats, trend and rollups from a snapshot of records.
// Pure: no mutation of the input, safe to run concurrently with in-flight
// writes because it only ever sees the point-in-time slice it was given.
func BuildReport(records []*models.Reconciliation, filter *models.VarianceFilter) *VarianceReport {
	matched := make([]*models.Reconciliation, 0, len(records))
	for _, rec := range records {
		if filter.Matches(rec) {
			matched = append(matched, rec)
		}
	}

	report := &VarianceReport{
		Filter:       filter,
		Stats:        buildStats(matched),
		Trend:        buildTrend(matched),
		ByDepartment: buildByDepartment(matched),
		ByReason:     buildByReason(matched),
		ByItem:       buildByItem(matched),
		Variances:    matched,
		GeneratedAt:  time.Now().UTC(),
	}
	return report
}

func buildStats(records []*models.Reconciliation) VarianceStats {
	stats := VarianceStats{
		TotalVariances:     len(records),
		TotalVarianceValue: decimal.Zero,
	}
	percentSum := decimal.Zero
	for _, rec := range records {
		if rec.Variance.Stock.IsPositive() {
			stats.PositiveVariances++
		}
		if rec.Variance.Stock.IsNegative() {
			stats.NegativeVariances++
		}
		if rec.AlertLevel == models.AlertLevelCritical {
			stats.CriticalVariances++
		}
		if rec.CurrentStatus == models.ReconciliationStatusPending {
			stats.PendingVariances++
		}
		stats.TotalVarianceValue = stats.TotalVarianceValue.Add(rec.TotalVarianceValue)
		percentSum = percentSum.Add(rec.VariancePercent.Stock)
	}
	if len(records) > 0 {
		stats.AverageVariancePercent = percentSum.Div(decimal.NewFromInt(int64(len(records))))
	} else {
		stats.AverageVariancePercent = decimal.Zero
	}
	return stats
}

func buildTrend(records []*models.Reconciliation) []VarianceTrendPoint {
	byDate := map[string]*VarianceTrendPoint{}
	percentSums := map[string]decimal.Decimal{}
	for _, rec := range records {
		date := rec.ShiftDate.Format("2006-01-02")
		point, ok := byDate[date]
		if !ok {
			point = &VarianceTrendPoint{Date: date, TotalValue: decimal.Zero}
			byDate[date] = point
			percentSums[date] = decimal.Zero
		}
		point.TotalVariances++
		point.TotalValue = point.TotalValue.Add(rec.TotalVarianceValue)
		if rec.AlertLevel == models.AlertLevelCritical {
			point.CriticalCount++
		}
		percentSums[date] = percentSums[date].Add(rec.VariancePercent.Stock)
	}

	trend := make([]VarianceTrendPoint, 0, len(byDate))
	for date, point := range byDate {
		point.AveragePercent = percentSums[date].Div(decimal.NewFromInt(int64(point.TotalVariances)))
		trend = append(trend, *point)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })
	return trend
}

func buildByDepartment(records []*models.Reconciliation) []VarianceByDepartment {
	byDept := map[int]*VarianceByDepartment{}
	percentSums := map[int]decimal.Decimal{}
	for _, rec := range records {
		row, ok := byDept[rec.DepartmentId]
		if !ok {
			row = &VarianceByDepartment{DepartmentId: rec.DepartmentId, TotalVarianceValue: decimal.Zero}
			byDept[rec.DepartmentId] = row
			percentSums[rec.DepartmentId] = decimal.Zero
		}
		row.VarianceCount++
		row.TotalVarianceValue = row.TotalVarianceValue.Add(rec.TotalVarianceValue)
		if rec.AlertLevel == models.AlertLevelCritical {
			row.CriticalCount++
		}
		percentSums[rec.DepartmentId] = percentSums[rec.DepartmentId].Add(rec.VariancePercent.Stock)
	}

	rows := make([]VarianceByDepartment, 0, len(byDept))
	for id, row := range byDept {
		row.AverageVariancePercent = percentSums[id].Div(decimal.NewFromInt(int64(row.VarianceCount)))
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].VarianceCount != rows[j].VarianceCount {
			return rows[i].VarianceCount > rows[j].VarianceCount
		}
		// Ties break by descending total value.
		return rows[i].TotalVarianceValue.GreaterThan(rows[j].TotalVarianceValue)
	})
	return rows
}

func buildByReason(records []*models.Reconciliation) []VarianceByReason {
	byReason := map[string]*VarianceByReason{}
	for _, rec := range records {
		reason := utils.DereferencePtr(rec.Reason, "unspecified")
		if reason == "" {
			reason = "unspecified"
		}
		row, ok := byReason[reason]
		if !ok {
			row = &VarianceByReason{Reason: reason, TotalValue: decimal.Zero}
			byReason[reason] = row
		}
		row.Count++
		row.TotalValue = row.TotalValue.Add(rec.TotalVarianceValue)
	}

	total := len(records)
	rows := make([]VarianceByReason, 0, len(byReason))
	for _, row := range byReason {
		count := decimal.NewFromInt(int64(row.Count))
		row.AverageValue = row.TotalValue.Div(count)
		if total > 0 {
			row.Percentage = count.Div(decimal.NewFromInt(int64(total))).Mul(decimal.NewFromInt(100))
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].TotalValue.GreaterThan(rows[j].TotalValue)
	})
	return rows
}

func buildByItem(records []*models.Reconciliation) []VarianceByItem {
	byItem := map[int]*VarianceByItem{}
	percentSums := map[int]decimal.Decimal{}
	for _, rec := range records {
		row, ok := byItem[rec.ItemId]
		if !ok {
			row = &VarianceByItem{ItemId: rec.ItemId, TotalVarianceValue: decimal.Zero}
			byItem[rec.ItemId] = row
			percentSums[rec.ItemId] = decimal.Zero
		}
		row.VarianceCount++
		row.TotalVarianceValue = row.TotalVarianceValue.Add(rec.TotalVarianceValue)
		if rec.ShiftDate.After(row.LastVarianceDate) {
			row.LastVarianceDate = rec.ShiftDate
		}
		percentSums[rec.ItemId] = percentSums[rec.ItemId].Add(rec.VariancePercent.Stock)
	}

	rows := make([]VarianceByItem, 0, len(byItem))
	for id, row := range byItem {
		row.AverageVariancePercent = percentSums[id].Div(decimal.NewFromInt(int64(row.VarianceCount)))
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].VarianceCount != rows[j].VarianceCount {
			return rows[i].VarianceCount > rows[j].VarianceCount
		}
		return rows[i].TotalVarianceValue.GreaterThan(rows[j].TotalVarianceValue)
	})
	return rows
}
