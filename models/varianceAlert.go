package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/config"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

// VarianceAlertRecord is the transactional outbox row for critical-variance
// events: written inside the transaction that creates a Critical
// reconciliation, published asynchronously by the alert dispatcher after
// commit.
type VarianceAlertRecord struct {
	ID               int    `gorm:"primary_key;index:idx_alert_dispatch,priority:3" json:"id"`
	RestaurantId     string `gorm:"size:64;not null;index" json:"restaurant_id"`
	ReconciliationId int    `gorm:"index;not null" json:"reconciliation_id"`
	ItemId           int    `gorm:"not null" json:"item_id"`
	DepartmentId     int    `gorm:"not null" json:"department_id"`

	ShiftDate time.Time `gorm:"not null" json:"shift_date"`
	ShiftType ShiftType `gorm:"type:enum('morning','afternoon','evening','night');not null" json:"shift_type"`

	AlertLevel           AlertLevel `gorm:"type:enum('none','low','medium','high','critical');not null" json:"alert_level"`
	StockVariancePercent string     `gorm:"size:40;not null" json:"stock_variance_percent"`
	TotalVarianceValue   string     `gorm:"size:40;not null" json:"total_variance_value"`

	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_alert_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_alert_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`

	CorrelationId string    `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// QueueVarianceAlert writes the outbox row for a critical reconciliation.
// Must run inside the caller's transaction so the alert and the record
// commit or roll back together.
func QueueVarianceAlert(ctx context.Context, tx *gorm.DB, rec *Reconciliation) error {
	record := VarianceAlertRecord{
		RestaurantId:         rec.RestaurantId,
		ReconciliationId:     rec.ID,
		ItemId:               rec.ItemId,
		DepartmentId:         rec.DepartmentId,
		ShiftDate:            rec.ShiftDate,
		ShiftType:            rec.ShiftType,
		AlertLevel:           rec.AlertLevel,
		StockVariancePercent: rec.VariancePercent.Stock.String(),
		TotalVarianceValue:   rec.TotalVarianceValue.String(),
		PublishStatus:        AlertPublishStatusPending,
		CorrelationId:        correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func ConvertToAlertMessage(record VarianceAlertRecord) config.VarianceAlertMessage {
	return config.VarianceAlertMessage{
		ID:                   record.ID,
		RestaurantId:         record.RestaurantId,
		ReconciliationId:     record.ReconciliationId,
		ItemId:               record.ItemId,
		DepartmentId:         record.DepartmentId,
		ShiftDate:            record.ShiftDate,
		ShiftType:            string(record.ShiftType),
		AlertLevel:           string(record.AlertLevel),
		StockVariancePercent: record.StockVariancePercent,
		TotalVarianceValue:   record.TotalVarianceValue,
		CorrelationId:        record.CorrelationId,
	}
}
