package models

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

var hundred = decimal.NewFromInt(100)

// VarianceResult is the full variance grid for one expected/actual pair.
// All fields are derived; callers never supply them.
type VarianceResult struct {
	Variance        MetricValues    `json:"variance"`
	VariancePercent MetricValues    `json:"variance_percent"`
	VarianceValue   MetricValues    `json:"variance_value"`
	// TotalVarianceValue sums flow-metric variance values only. Stock
	// variance value is the headline figure and is reported separately,
	// never double-counted into the total.
	TotalVarianceValue decimal.Decimal `json:"total_variance_value"`
}

// ComputeVariance turns an (expected, actual, unitPrice) triple into the full
// variance grid. Pure and deterministic; safe for any number of concurrent
// callers. Division by zero never occurs: a zero expected base maps to 0%
// when actual is also zero and to 100% when actual is positive.
func ComputeVariance(expected MetricValues, actual MetricValues, unitPrice decimal.Decimal) (*VarianceResult, error) {
	if err := expected.Validate("expected"); err != nil {
		return nil, err
	}
	if err := actual.Validate("actual"); err != nil {
		return nil, err
	}
	if unitPrice.IsNegative() {
		return nil, utils.NewValidationError("unitPrice must not be negative")
	}

	result := &VarianceResult{TotalVarianceValue: decimal.Zero}
	for _, m := range AllMetrics() {
		delta := actual.Get(m).Sub(expected.Get(m))
		result.Variance.Set(m, delta)
		result.VariancePercent.Set(m, variancePercent(expected.Get(m), actual.Get(m), delta))

		value := delta.Mul(unitPrice)
		result.VarianceValue.Set(m, value)
		if m != MetricStock {
			result.TotalVarianceValue = result.TotalVarianceValue.Add(value)
		}
	}
	return result, nil
}

// New usage from a zero base counts as a full 100% deviation.
func variancePercent(expected, actual, delta decimal.Decimal) decimal.Decimal {
	if expected.IsZero() {
		if actual.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return delta.Div(expected).Mul(hundred)
}

// CheckWithdrawalIdentity evaluates the cross-field consistency equation
// withdrawn == sold + returned + wasted + staffConsumed + sampled.
// The result is advisory: it feeds the reviewer's investigation and never
// blocks record creation.
func CheckWithdrawalIdentity(values MetricValues) (consistent bool, discrepancy decimal.Decimal) {
	accounted := values.Sold.
		Add(values.Returned).
		Add(values.Wasted).
		Add(values.StaffConsumed).
		Add(values.Sampled)
	discrepancy = values.Withdrawn.Sub(accounted)
	return discrepancy.IsZero(), discrepancy
}

// ClassifyByPercent maps the stock variance percentage to the stored alert
// level. Thresholds act on the absolute value.
func ClassifyByPercent(percent decimal.Decimal) AlertLevel {
	abs := percent.Abs()
	switch {
	case abs.IsZero():
		return AlertLevelNone
	case abs.LessThanOrEqual(decimal.NewFromInt(2)):
		return AlertLevelLow
	case abs.LessThanOrEqual(decimal.NewFromInt(10)):
		return AlertLevelMedium
	case abs.LessThanOrEqual(decimal.NewFromInt(20)):
		return AlertLevelHigh
	default:
		return AlertLevelCritical
	}
}

// ClassifyByAbsoluteDelta is the quantity-based pre-check for callers that
// only need a three-way ok/warning/critical signal without computing
// percentages (per-row flags in summary tables).
func ClassifyByAbsoluteDelta(delta decimal.Decimal) DeltaSeverity {
	abs := delta.Abs()
	switch {
	case abs.IsZero():
		return DeltaSeverityOk
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return DeltaSeverityWarning
	default:
		return DeltaSeverityCritical
	}
}
