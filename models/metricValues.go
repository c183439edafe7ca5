package models

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

// Metric is one of the seven measured quantities of a reconciliation record.
type Metric string

const (
	MetricStock         Metric = "stock"
	MetricWithdrawn     Metric = "withdrawn"
	MetricSold          Metric = "sold"
	MetricReturned      Metric = "returned"
	MetricWasted        Metric = "wasted"
	MetricStaffConsumed Metric = "staffConsumed"
	MetricSampled       Metric = "sampled"
)

// AllMetrics returns the metric vocabulary in canonical order.
func AllMetrics() []Metric {
	return []Metric{
		MetricStock,
		MetricWithdrawn,
		MetricSold,
		MetricReturned,
		MetricWasted,
		MetricStaffConsumed,
		MetricSampled,
	}
}

// MetricValues maps every metric to a quantity. It is embedded in the
// Reconciliation gorm model with a column prefix per role (expected_,
// actual_, variance_, ...).
type MetricValues struct {
	Stock         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock"`
	Withdrawn     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"withdrawn"`
	Sold          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sold"`
	Returned      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"returned"`
	Wasted        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"wasted"`
	StaffConsumed decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"staffConsumed"`
	Sampled       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sampled"`
}

func (v MetricValues) Get(m Metric) decimal.Decimal {
	switch m {
	case MetricStock:
		return v.Stock
	case MetricWithdrawn:
		return v.Withdrawn
	case MetricSold:
		return v.Sold
	case MetricReturned:
		return v.Returned
	case MetricWasted:
		return v.Wasted
	case MetricStaffConsumed:
		return v.StaffConsumed
	case MetricSampled:
		return v.Sampled
	}
	return decimal.Zero
}

func (v *MetricValues) Set(m Metric, d decimal.Decimal) {
	switch m {
	case MetricStock:
		v.Stock = d
	case MetricWithdrawn:
		v.Withdrawn = d
	case MetricSold:
		v.Sold = d
	case MetricReturned:
		v.Returned = d
	case MetricWasted:
		v.Wasted = d
	case MetricStaffConsumed:
		v.StaffConsumed = d
	case MetricSampled:
		v.Sampled = d
	}
}

// Validate rejects negative quantities. decimal.Decimal cannot represent
// NaN/Inf, so the negativity check is the whole finiteness policy.
func (v MetricValues) Validate(role string) error {
	for _, m := range AllMetrics() {
		if v.Get(m).IsNegative() {
			return utils.NewValidationError("%s.%s must not be negative", role, m)
		}
	}
	return nil
}
