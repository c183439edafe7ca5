package models

import (
	"encoding/json"
	"errors"
	"strconv"
)

type ShiftType string

const (
	ShiftTypeMorning   ShiftType = "morning"
	ShiftTypeAfternoon ShiftType = "afternoon"
	ShiftTypeEvening   ShiftType = "evening"
	ShiftTypeNight     ShiftType = "night"
)

func (t ShiftType) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(t))), nil
}

func (t *ShiftType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("shift type must be string")
	}
	switch str {
	case "morning":
		*t = ShiftTypeMorning
	case "afternoon":
		*t = ShiftTypeAfternoon
	case "evening":
		*t = ShiftTypeEvening
	case "night":
		*t = ShiftTypeNight
	default:
		return errors.New("invalid shift type")
	}
	return nil
}

type ReconciliationStatus string

const (
	ReconciliationStatusPending       ReconciliationStatus = "pending"
	ReconciliationStatusInvestigation ReconciliationStatus = "investigation"
	ReconciliationStatusCritical      ReconciliationStatus = "critical"
	ReconciliationStatusApproved      ReconciliationStatus = "approved"
	ReconciliationStatusResolved      ReconciliationStatus = "resolved"
)

// IsTerminal reports whether no further transition is legal.
func (s ReconciliationStatus) IsTerminal() bool {
	return s == ReconciliationStatusApproved || s == ReconciliationStatusResolved
}

func (s ReconciliationStatus) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *ReconciliationStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("reconciliation status must be string")
	}
	statuses := map[string]ReconciliationStatus{
		"pending":       ReconciliationStatusPending,
		"investigation": ReconciliationStatusInvestigation,
		"critical":      ReconciliationStatusCritical,
		"approved":      ReconciliationStatusApproved,
		"resolved":      ReconciliationStatusResolved,
	}
	v, ok := statuses[str]
	if !ok {
		return errors.New("invalid reconciliation status")
	}
	*s = v
	return nil
}

type AlertLevel string

const (
	AlertLevelNone     AlertLevel = "none"
	AlertLevelLow      AlertLevel = "low"
	AlertLevelMedium   AlertLevel = "medium"
	AlertLevelHigh     AlertLevel = "high"
	AlertLevelCritical AlertLevel = "critical"
)

func (l AlertLevel) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(l))), nil
}

func (l *AlertLevel) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("alert level must be string")
	}
	levels := map[string]AlertLevel{
		"none":     AlertLevelNone,
		"low":      AlertLevelLow,
		"medium":   AlertLevelMedium,
		"high":     AlertLevelHigh,
		"critical": AlertLevelCritical,
	}
	v, ok := levels[str]
	if !ok {
		return errors.New("invalid alert level")
	}
	*l = v
	return nil
}

// DeltaSeverity is the cheap three-way flag computed from a raw delta without
// percentages. Summary tables use it for quick per-row coloring.
type DeltaSeverity string

const (
	DeltaSeverityOk       DeltaSeverity = "ok"
	DeltaSeverityWarning  DeltaSeverity = "warning"
	DeltaSeverityCritical DeltaSeverity = "critical"
)

type ReconciliationAction string

const (
	ReconciliationActionApprove     ReconciliationAction = "approve"
	ReconciliationActionReject      ReconciliationAction = "reject"
	ReconciliationActionInvestigate ReconciliationAction = "investigate"
)

func (a ReconciliationAction) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(a))), nil
}

func (a *ReconciliationAction) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("action must be string")
	}
	switch str {
	case "approve":
		*a = ReconciliationActionApprove
	case "reject":
		*a = ReconciliationActionReject
	case "investigate":
		*a = ReconciliationActionInvestigate
	default:
		return errors.New("invalid action")
	}
	return nil
}

// ReconciliationSource records which external producer supplied the counts.
type ReconciliationSource string

const (
	ReconciliationSourceManual ReconciliationSource = "Manual"
	ReconciliationSourceOcr    ReconciliationSource = "Ocr"
)

func (s ReconciliationSource) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

func (s *ReconciliationSource) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("source must be string")
	}
	switch str {
	case "Manual":
		*s = ReconciliationSourceManual
	case "Ocr":
		*s = ReconciliationSourceOcr
	default:
		return errors.New("invalid source")
	}
	return nil
}

// VarianceDirection narrows report filters to one side of the ledger.
type VarianceDirection string

const (
	VarianceDirectionAll      VarianceDirection = "all"
	VarianceDirectionPositive VarianceDirection = "positive"
	VarianceDirectionNegative VarianceDirection = "negative"
	VarianceDirectionCritical VarianceDirection = "critical"
)

// Publish states for the variance alert outbox.
const (
	AlertPublishStatusPending    = "PENDING"
	AlertPublishStatusProcessing = "PROCESSING"
	AlertPublishStatusFailed     = "FAILED"
	AlertPublishStatusDead       = "DEAD"
	AlertPublishStatusSent       = "SENT"
)
