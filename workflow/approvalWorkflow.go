package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/config"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

// ReconciliationActionInput is a reviewer's decision on one record.
type ReconciliationActionInput struct {
	Action          models.ReconciliationAction `json:"action" binding:"required"`
	Reason          *string                     `json:"reason"`
	ResolutionNotes *string                     `json:"resolution_notes"`
}

// Legal source states per action. Critical records skip investigation: they
// are already flagged, so only a terminal decision is left.
var allowedSources = map[models.ReconciliationAction][]models.ReconciliationStatus{
	models.ReconciliationActionApprove: {
		models.ReconciliationStatusPending,
		models.ReconciliationStatusInvestigation,
		models.ReconciliationStatusCritical,
	},
	models.ReconciliationActionReject: {
		models.ReconciliationStatusPending,
		models.ReconciliationStatusInvestigation,
		models.ReconciliationStatusCritical,
	},
	models.ReconciliationActionInvestigate: {
		models.ReconciliationStatusPending,
	},
}

var actionTargets = map[models.ReconciliationAction]models.ReconciliationStatus{
	models.ReconciliationActionApprove:     models.ReconciliationStatusApproved,
	models.ReconciliationActionReject:      models.ReconciliationStatusResolved,
	models.ReconciliationActionInvestigate: models.ReconciliationStatusInvestigation,
}

// planTransition decides the column updates for one reviewer action against a
// snapshot of the record. Pure; the compare-and-set in
// ProcessReconciliationAction enforces that the snapshot still holds when the
// updates land.
func planTransition(rec *models.Reconciliation, input *ReconciliationActionInput, actorId int, now time.Time) (map[string]interface{}, error) {
	sources, ok := allowedSources[input.Action]
	if !ok {
		return nil, utils.NewValidationError("unknown action %q", input.Action)
	}
	legal := false
	for _, s := range sources {
		if rec.CurrentStatus == s {
			legal = true
			break
		}
	}
	if !legal {
		// Covers terminal states too: a second approve is an error, never a
		// silent no-op, because it would overwrite audit identity.
		return nil, &utils.InvalidTransitionError{Action: string(input.Action), From: string(rec.CurrentStatus)}
	}

	if input.Action == models.ReconciliationActionReject {
		if input.Reason == nil || strings.TrimSpace(*input.Reason) == "" {
			return nil, utils.NewValidationError("reject requires a non-empty reason")
		}
	}

	updates := map[string]interface{}{
		"current_status": actionTargets[input.Action],
	}
	if rec.ReviewedAt == nil {
		updates["reviewed_by"] = actorId
		updates["reviewed_at"] = now
	}
	if input.Action == models.ReconciliationActionApprove {
		updates["approved_by"] = actorId
		updates["approved_at"] = now
	}
	if input.Reason != nil && strings.TrimSpace(*input.Reason) != "" {
		updates["reason"] = strings.TrimSpace(*input.Reason)
	}
	if input.ResolutionNotes != nil && strings.TrimSpace(*input.ResolutionNotes) != "" {
		updates["resolution_notes"] = strings.TrimSpace(*input.ResolutionNotes)
	}
	return updates, nil
}

// ProcessReconciliationAction runs one reviewer action through the approval
// state machine. The write is a compare-and-set on (id, current_status):
// whoever wins the race transitions the record, the loser gets ConflictError
// and must re-read before retrying. At most one terminal transition per
// record.
func ProcessReconciliationAction(ctx context.Context, logger *logrus.Logger, recordId int, input *ReconciliationActionInput) (*models.Reconciliation, error) {
	actorId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("user id is required")
	}

	rec, err := models.GetReconciliation(ctx, recordId)
	if err != nil {
		return nil, err
	}

	updates, err := planTransition(rec, input, actorId, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	res := db.WithContext(ctx).
		Model(&models.Reconciliation{}).
		Where("id = ? AND restaurant_id = ? AND current_status = ?", rec.ID, rec.RestaurantId, rec.CurrentStatus).
		Updates(updates)
	if res.Error != nil {
		config.LogError(logger, "approvalWorkflow.go", "ProcessReconciliationAction", "compare-and-set update", input, res.Error)
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &utils.ConflictError{RecordId: rec.ID}
	}

	updated, err := models.GetReconciliation(ctx, recordId)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"field":             "ApprovalWorkflow",
		"restaurant_id":     rec.RestaurantId,
		"reconciliation_id": rec.ID,
		"action":            input.Action,
		"from_status":       rec.CurrentStatus,
		"to_status":         updated.CurrentStatus,
		"actor_id":          actorId,
	}).Info("reconciliation transitioned")

	return updated, nil
}
