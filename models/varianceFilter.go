package models

import (
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

// VarianceFilter narrows a report/listing window. Zero-value fields are
// ignored. Bound from query parameters on the read endpoints.
type VarianceFilter struct {
	StartDate    *time.Time            `form:"start_date" time_format:"2006-01-02" json:"start_date,omitempty"`
	EndDate      *time.Time            `form:"end_date" time_format:"2006-01-02" json:"end_date,omitempty"`
	DepartmentId *int                  `form:"department_id" json:"department_id,omitempty"`
	ShiftType    *ShiftType            `form:"shift_type" json:"shift_type,omitempty"`
	Status       *ReconciliationStatus `form:"status" json:"status,omitempty"`
	AlertLevel   *AlertLevel           `form:"alert_level" json:"alert_level,omitempty"`
	ItemId       *int                  `form:"item_id" json:"item_id,omitempty"`
	VarianceType VarianceDirection     `form:"variance_type" json:"variance_type,omitempty"`
}

// Validate rejects enum values that query-string binding cannot check.
func (f *VarianceFilter) Validate() error {
	if f.ShiftType != nil {
		switch *f.ShiftType {
		case ShiftTypeMorning, ShiftTypeAfternoon, ShiftTypeEvening, ShiftTypeNight:
		default:
			return utils.NewValidationError("invalid shift type %q", *f.ShiftType)
		}
	}
	if f.Status != nil {
		switch *f.Status {
		case ReconciliationStatusPending, ReconciliationStatusInvestigation,
			ReconciliationStatusCritical, ReconciliationStatusApproved, ReconciliationStatusResolved:
		default:
			return utils.NewValidationError("invalid status %q", *f.Status)
		}
	}
	if f.AlertLevel != nil {
		switch *f.AlertLevel {
		case AlertLevelNone, AlertLevelLow, AlertLevelMedium, AlertLevelHigh, AlertLevelCritical:
		default:
			return utils.NewValidationError("invalid alert level %q", *f.AlertLevel)
		}
	}
	switch f.VarianceType {
	case "", VarianceDirectionAll, VarianceDirectionPositive, VarianceDirectionNegative, VarianceDirectionCritical:
	default:
		return utils.NewValidationError("invalid variance type %q", f.VarianceType)
	}
	return nil
}

func (f *VarianceFilter) apply(q *gorm.DB) *gorm.DB {
	if f.StartDate != nil {
		q = q.Where("shift_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("shift_date <= ?", *f.EndDate)
	}
	if f.DepartmentId != nil {
		q = q.Where("department_id = ?", *f.DepartmentId)
	}
	if f.ShiftType != nil {
		q = q.Where("shift_type = ?", *f.ShiftType)
	}
	if f.Status != nil {
		q = q.Where("current_status = ?", *f.Status)
	}
	if f.AlertLevel != nil {
		q = q.Where("alert_level = ?", *f.AlertLevel)
	}
	if f.ItemId != nil {
		q = q.Where("item_id = ?", *f.ItemId)
	}
	switch f.VarianceType {
	case VarianceDirectionPositive:
		q = q.Where("variance_stock > 0")
	case VarianceDirectionNegative:
		q = q.Where("variance_stock < 0")
	case VarianceDirectionCritical:
		q = q.Where("alert_level = ?", AlertLevelCritical)
	}
	return q
}

// Matches is the in-memory counterpart of apply, used when a report is built
// over an already-loaded snapshot.
func (f *VarianceFilter) Matches(rec *Reconciliation) bool {
	if f == nil {
		return true
	}
	if f.StartDate != nil && rec.ShiftDate.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && rec.ShiftDate.After(*f.EndDate) {
		return false
	}
	if f.DepartmentId != nil && rec.DepartmentId != *f.DepartmentId {
		return false
	}
	if f.ShiftType != nil && rec.ShiftType != *f.ShiftType {
		return false
	}
	if f.Status != nil && rec.CurrentStatus != *f.Status {
		return false
	}
	if f.AlertLevel != nil && rec.AlertLevel != *f.AlertLevel {
		return false
	}
	if f.ItemId != nil && rec.ItemId != *f.ItemId {
		return false
	}
	switch f.VarianceType {
	case VarianceDirectionPositive:
		return rec.Variance.Stock.IsPositive()
	case VarianceDirectionNegative:
		return rec.Variance.Stock.IsNegative()
	case VarianceDirectionCritical:
		return rec.AlertLevel == AlertLevelCritical
	}
	return true
}
