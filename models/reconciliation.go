package models

import (
	"context"
	"errors"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/config"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

// Reconciliation is one item/department/shift comparison of system-derived
// expected movement against the physical count. Quantity fields are immutable
// after creation: corrections are new compensating records, never in-place
// edits. Records are never physically deleted, only transitioned to a
// terminal status.
type Reconciliation struct {
	ID           int       `gorm:"primary_key" json:"id"`
	RestaurantId string    `gorm:"size:64;uniqueIndex:uniq_reconciliation_shift;not null" json:"restaurant_id"`
	ItemId       int       `gorm:"uniqueIndex:uniq_reconciliation_shift;not null" json:"item_id" binding:"required"`
	DepartmentId int       `gorm:"uniqueIndex:uniq_reconciliation_shift;not null" json:"department_id" binding:"required"`
	ShiftDate    time.Time `gorm:"uniqueIndex:uniq_reconciliation_shift;not null" json:"shift_date" binding:"required"`
	ShiftType    ShiftType `gorm:"type:enum('morning','afternoon','evening','night');uniqueIndex:uniq_reconciliation_shift;not null" json:"shift_type" binding:"required"`

	Expected  MetricValues    `gorm:"embedded;embeddedPrefix:expected_" json:"expected"`
	Actual    MetricValues    `gorm:"embedded;embeddedPrefix:actual_" json:"actual"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`

	// Derived fields. Never externally settable.
	Variance           MetricValues    `gorm:"embedded;embeddedPrefix:variance_" json:"variance"`
	VariancePercent    MetricValues    `gorm:"embedded;embeddedPrefix:variance_percent_" json:"variance_percent"`
	VarianceValue      MetricValues    `gorm:"embedded;embeddedPrefix:variance_value_" json:"variance_value"`
	TotalVarianceValue decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_variance_value"`

	CurrentStatus ReconciliationStatus `gorm:"type:enum('pending','investigation','critical','approved','resolved');index;not null" json:"current_status"`
	AlertLevel    AlertLevel           `gorm:"type:enum('none','low','medium','high','critical');index;not null" json:"alert_level"`

	// Withdrawal identity flags. Advisory only: a mismatch never blocks
	// creation, it feeds the reviewer's investigation.
	ExpectedConsistent  bool            `gorm:"not null" json:"expected_consistent"`
	ActualConsistent    bool            `gorm:"not null" json:"actual_consistent"`
	ExpectedDiscrepancy decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expected_discrepancy"`
	ActualDiscrepancy   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual_discrepancy"`

	Source        ReconciliationSource `gorm:"type:enum('Manual','Ocr');default:Manual" json:"source"`
	OcrConfidence *decimal.Decimal     `gorm:"type:decimal(5,4);default:null" json:"ocr_confidence"`

	Reason          *string `gorm:"size:500;default:null" json:"reason"`
	ResolutionNotes *string `gorm:"type:text;default:null" json:"resolution_notes"`

	CreatedBy  int        `gorm:"not null" json:"created_by"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ReviewedBy *int       `gorm:"default:null" json:"reviewed_by"`
	ReviewedAt *time.Time `gorm:"default:null" json:"reviewed_at"`
	ApprovedBy *int       `gorm:"default:null" json:"approved_by"`
	ApprovedAt *time.Time `gorm:"default:null" json:"approved_at"`
}

type NewReconciliation struct {
	ItemId        int                  `json:"item_id" binding:"required"`
	DepartmentId  int                  `json:"department_id" binding:"required"`
	ShiftDate     time.Time            `json:"shift_date" binding:"required"`
	ShiftType     ShiftType            `json:"shift_type" binding:"required"`
	Expected      MetricValues         `json:"expected"`
	Actual        MetricValues         `json:"actual"`
	UnitPrice     decimal.Decimal      `json:"unit_price"`
	Source        ReconciliationSource `json:"source"`
	OcrConfidence *decimal.Decimal     `json:"ocr_confidence"`
	Reason        *string              `json:"reason"`
}

// InitialStatusForAlert escalates critical variances straight into mandatory
// review; everything else starts pending.
func InitialStatusForAlert(level AlertLevel) ReconciliationStatus {
	if level == AlertLevelCritical {
		return ReconciliationStatusCritical
	}
	return ReconciliationStatusPending
}

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// CreateReconciliation validates the submission, computes the variance grid,
// classifies severity and persists the record in its initial status. When the
// record lands in Critical status, an alert outbox row is written inside the
// same transaction.
func CreateReconciliation(ctx context.Context, input *NewReconciliation) (*Reconciliation, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, utils.NewValidationError("restaurant id is required")
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("user id is required")
	}

	switch input.ShiftType {
	case ShiftTypeMorning, ShiftTypeAfternoon, ShiftTypeEvening, ShiftTypeNight:
	default:
		return nil, utils.NewValidationError("invalid shift type %q", input.ShiftType)
	}
	source := input.Source
	if source == "" {
		source = ReconciliationSourceManual
	}
	if input.OcrConfidence != nil {
		c := *input.OcrConfidence
		if c.IsNegative() || c.GreaterThan(decimal.NewFromInt(1)) {
			return nil, utils.NewValidationError("ocr_confidence must be within [0,1]")
		}
	}

	result, err := ComputeVariance(input.Expected, input.Actual, input.UnitPrice)
	if err != nil {
		return nil, err
	}
	expectedConsistent, expectedDiscrepancy := CheckWithdrawalIdentity(input.Expected)
	actualConsistent, actualDiscrepancy := CheckWithdrawalIdentity(input.Actual)
	alertLevel := ClassifyByPercent(result.VariancePercent.Stock)

	rec := Reconciliation{
		RestaurantId:        restaurantId,
		ItemId:              input.ItemId,
		DepartmentId:        input.DepartmentId,
		ShiftDate:           input.ShiftDate,
		ShiftType:           input.ShiftType,
		Expected:            input.Expected,
		Actual:              input.Actual,
		UnitPrice:           input.UnitPrice,
		Variance:            result.Variance,
		VariancePercent:     result.VariancePercent,
		VarianceValue:       result.VarianceValue,
		TotalVarianceValue:  result.TotalVarianceValue,
		CurrentStatus:       InitialStatusForAlert(alertLevel),
		AlertLevel:          alertLevel,
		ExpectedConsistent:  expectedConsistent,
		ActualConsistent:    actualConsistent,
		ExpectedDiscrepancy: expectedDiscrepancy,
		ActualDiscrepancy:   actualDiscrepancy,
		Source:              source,
		OcrConfidence:       input.OcrConfidence,
		Reason:              input.Reason,
		CreatedBy:           userId,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if rec.CurrentStatus == ReconciliationStatusCritical {
			return QueueVarianceAlert(ctx, tx, &rec)
		}
		return nil
	})
	if err != nil {
		if isDuplicateKeyErr(err) {
			return nil, utils.NewValidationError(
				"reconciliation already exists for item %d, department %d, shift %s %s; submit a compensating record instead",
				input.ItemId, input.DepartmentId, input.ShiftDate.Format("2006-01-02"), input.ShiftType)
		}
		return nil, err
	}

	return &rec, nil
}

// GetReconciliation returns a record scoped to the caller's restaurant.
func GetReconciliation(ctx context.Context, id int) (*Reconciliation, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, utils.NewValidationError("restaurant id is required")
	}

	var rec Reconciliation
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("restaurant_id = ? AND id = ?", restaurantId, id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &utils.NotFoundError{Resource: "reconciliation", Id: id}
		}
		return nil, err
	}
	return &rec, nil
}

// GetFilteredReconciliations loads the snapshot a report or listing is built
// from. limit <= 0 means no limit. Results are newest shift first.
func GetFilteredReconciliations(ctx context.Context, filter *VarianceFilter, limit int, offset int) ([]*Reconciliation, error) {
	restaurantId, ok := utils.GetRestaurantIdFromContext(ctx)
	if !ok || restaurantId == "" {
		return nil, utils.NewValidationError("restaurant id is required")
	}
	if filter == nil {
		filter = &VarianceFilter{}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	q := filter.apply(db.WithContext(ctx).Where("restaurant_id = ?", restaurantId))
	q = q.Order("shift_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var records []*Reconciliation
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
