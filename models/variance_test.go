package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

// NOTE: These tests are intentionally DB-free. They validate the pure
// calculation layer: variance arithmetic, the zero-expected percent policy,
// the withdrawal identity and both severity classifiers. Persistence paths
// need MySQL and belong in an integration environment.

func mv(stock, withdrawn, sold, returned, wasted, staffConsumed, sampled int64) MetricValues {
	return MetricValues{
		Stock:         decimal.NewFromInt(stock),
		Withdrawn:     decimal.NewFromInt(withdrawn),
		Sold:          decimal.NewFromInt(sold),
		Returned:      decimal.NewFromInt(returned),
		Wasted:        decimal.NewFromInt(wasted),
		StaffConsumed: decimal.NewFromInt(staffConsumed),
		Sampled:       decimal.NewFromInt(sampled),
	}
}

func TestComputeVariance_Arithmetic(t *testing.T) {
	expected := mv(10, 8, 5, 1, 1, 1, 0)
	actual := mv(7, 8, 6, 1, 2, 0, 1)
	unitPrice := decimal.NewFromInt(1500)

	result, err := ComputeVariance(expected, actual, unitPrice)
	if err != nil {
		t.Fatalf("ComputeVariance: %v", err)
	}

	for _, m := range AllMetrics() {
		wantDelta := actual.Get(m).Sub(expected.Get(m))
		if !result.Variance.Get(m).Equal(wantDelta) {
			t.Errorf("variance.%s = %s, want %s", m, result.Variance.Get(m), wantDelta)
		}
		wantValue := wantDelta.Mul(unitPrice)
		if !result.VarianceValue.Get(m).Equal(wantValue) {
			t.Errorf("varianceValue.%s = %s, want %s", m, result.VarianceValue.Get(m), wantValue)
		}
	}

	// Total sums flow metrics only; the stock line stays out.
	wantTotal := decimal.Zero
	for _, m := range AllMetrics() {
		if m == MetricStock {
			continue
		}
		wantTotal = wantTotal.Add(result.VarianceValue.Get(m))
	}
	if !result.TotalVarianceValue.Equal(wantTotal) {
		t.Errorf("totalVarianceValue = %s, want %s", result.TotalVarianceValue, wantTotal)
	}
}

func TestComputeVariance_ZeroExpectedPolicy(t *testing.T) {
	// Zero expected, zero actual: no deviation, 0%.
	result, err := ComputeVariance(MetricValues{}, MetricValues{}, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("ComputeVariance: %v", err)
	}
	for _, m := range AllMetrics() {
		if !result.VariancePercent.Get(m).IsZero() {
			t.Errorf("percent.%s = %s, want 0", m, result.VariancePercent.Get(m))
		}
	}

	// Zero expected, positive actual: full 100% deviation, never a division.
	actual := MetricValues{Sold: decimal.NewFromInt(3)}
	result, err = ComputeVariance(MetricValues{}, actual, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("ComputeVariance: %v", err)
	}
	if !result.VariancePercent.Sold.Equal(decimal.NewFromInt(100)) {
		t.Errorf("percent.sold = %s, want 100", result.VariancePercent.Sold)
	}
}

func TestComputeVariance_RejectsNegativeInput(t *testing.T) {
	bad := MetricValues{Sold: decimal.NewFromInt(-1)}

	_, err := ComputeVariance(bad, MetricValues{}, decimal.Zero)
	var validationErr *utils.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError for negative expected.sold, got %v", err)
	}

	_, err = ComputeVariance(MetricValues{}, MetricValues{}, decimal.NewFromInt(-1))
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError for negative unitPrice, got %v", err)
	}
}

func TestCheckWithdrawalIdentity(t *testing.T) {
	consistent, discrepancy := CheckWithdrawalIdentity(mv(0, 10, 6, 1, 1, 1, 1))
	if !consistent || !discrepancy.IsZero() {
		t.Errorf("balanced values: consistent=%v discrepancy=%s, want true/0", consistent, discrepancy)
	}

	consistent, discrepancy = CheckWithdrawalIdentity(mv(0, 10, 6, 0, 0, 0, 0))
	if consistent {
		t.Error("unbalanced values reported consistent")
	}
	if !discrepancy.Equal(decimal.NewFromInt(4)) {
		t.Errorf("discrepancy = %s, want 4", discrepancy)
	}
}

func TestClassifyByPercent_Boundaries(t *testing.T) {
	cases := []struct {
		percent string
		want    AlertLevel
	}{
		{"0", AlertLevelNone},
		{"2", AlertLevelLow},
		{"2.01", AlertLevelMedium},
		{"10", AlertLevelMedium},
		{"10.01", AlertLevelHigh},
		{"20", AlertLevelHigh},
		{"20.01", AlertLevelCritical},
		{"-25", AlertLevelCritical},
		{"-1.5", AlertLevelLow},
	}
	for _, c := range cases {
		p, _ := decimal.NewFromString(c.percent)
		if got := ClassifyByPercent(p); got != c.want {
			t.Errorf("ClassifyByPercent(%s) = %s, want %s", c.percent, got, c.want)
		}
	}
}

func TestClassifyByAbsoluteDelta_Boundaries(t *testing.T) {
	cases := []struct {
		delta string
		want  DeltaSeverity
	}{
		{"0", DeltaSeverityOk},
		{"1", DeltaSeverityWarning},
		{"-1", DeltaSeverityWarning},
		{"2", DeltaSeverityCritical},
		{"-3.5", DeltaSeverityCritical},
	}
	for _, c := range cases {
		d, _ := decimal.NewFromString(c.delta)
		if got := ClassifyByAbsoluteDelta(d); got != c.want {
			t.Errorf("ClassifyByAbsoluteDelta(%s) = %s, want %s", c.delta, got, c.want)
		}
	}
}

// Full shift walkthrough: a 3-unit stock shortage on a base of 50 is a 6%
// deviation, so the record classifies medium and starts pending, not critical.
func TestShiftScenario_MediumVariance(t *testing.T) {
	expected := mv(50, 45, 40, 2, 1, 1, 1)
	actual := mv(47, 45, 40, 2, 3, 1, 1)
	unitPrice := decimal.NewFromInt(50000)

	result, err := ComputeVariance(expected, actual, unitPrice)
	if err != nil {
		t.Fatalf("ComputeVariance: %v", err)
	}

	if !result.Variance.Stock.Equal(decimal.NewFromInt(-3)) {
		t.Errorf("variance.stock = %s, want -3", result.Variance.Stock)
	}
	if !result.Variance.Wasted.Equal(decimal.NewFromInt(2)) {
		t.Errorf("variance.wasted = %s, want 2", result.Variance.Wasted)
	}
	if !result.TotalVarianceValue.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("totalVarianceValue = %s, want 100000", result.TotalVarianceValue)
	}
	if !result.VariancePercent.Stock.Equal(decimal.NewFromInt(-6)) {
		t.Errorf("variancePercent.stock = %s, want -6", result.VariancePercent.Stock)
	}

	level := ClassifyByPercent(result.VariancePercent.Stock)
	if level != AlertLevelMedium {
		t.Errorf("alertLevel = %s, want medium", level)
	}
	if status := InitialStatusForAlert(level); status != ReconciliationStatusPending {
		t.Errorf("initial status = %s, want pending", status)
	}

	// The expected side balances (45 == 40+2+1+1+1). The actual side does
	// not: the extra wastage pushes the flows to 47 against withdrawn 45,
	// so the identity flags a -2 discrepancy. Advisory only, the record is
	// still created.
	if ok, _ := CheckWithdrawalIdentity(expected); !ok {
		t.Error("expected side should balance")
	}
	ok, discrepancy := CheckWithdrawalIdentity(actual)
	if ok {
		t.Error("actual side should not balance")
	}
	if !discrepancy.Equal(decimal.NewFromInt(-2)) {
		t.Errorf("actual discrepancy = %s, want -2", discrepancy)
	}
}

func TestInitialStatusForAlert_CriticalEscalates(t *testing.T) {
	if got := InitialStatusForAlert(AlertLevelCritical); got != ReconciliationStatusCritical {
		t.Errorf("critical alert starts %s, want critical", got)
	}
	for _, level := range []AlertLevel{AlertLevelNone, AlertLevelLow, AlertLevelMedium, AlertLevelHigh} {
		if got := InitialStatusForAlert(level); got != ReconciliationStatusPending {
			t.Errorf("%s alert starts %s, want pending", level, got)
		}
	}
}
