package workflow

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/models"
	"bitbucket.org/mmdatafocus/mkitchen_reconciliation/utils"
)

// NOTE: These tests are intentionally DB-free. planTransition is pure, and
// the compare-and-set race is modelled with an in-memory store that mirrors
// the UPDATE ... WHERE current_status = ? discipline. Full MySQL integration
// tests belong in an environment that can run the real store.

func pendingRecord() *models.Reconciliation {
	return &models.Reconciliation{
		ID:            1,
		RestaurantId:  "rest-1",
		CurrentStatus: models.ReconciliationStatusPending,
	}
}

func strPtr(s string) *string { return &s }

func TestPlanTransition_ApproveFromPending(t *testing.T) {
	rec := pendingRecord()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	updates, err := planTransition(rec, &ReconciliationActionInput{Action: models.ReconciliationActionApprove}, 42, now)
	if err != nil {
		t.Fatalf("planTransition: %v", err)
	}

	if got := updates["current_status"]; got != models.ReconciliationStatusApproved {
		t.Errorf("current_status = %v, want approved", got)
	}
	if got := updates["approved_by"]; got != 42 {
		t.Errorf("approved_by = %v, want 42", got)
	}
	if got := updates["approved_at"]; got != now {
		t.Errorf("approved_at = %v, want %v", got, now)
	}
	if got := updates["reviewed_by"]; got != 42 {
		t.Errorf("reviewed_by = %v, want 42", got)
	}
}

func TestPlanTransition_SecondApproveIsIllegal(t *testing.T) {
	rec := pendingRecord()
	rec.CurrentStatus = models.ReconciliationStatusApproved

	_, err := planTransition(rec, &ReconciliationActionInput{Action: models.ReconciliationActionApprove}, 42, time.Now())
	var transitionErr *utils.InvalidTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("want InvalidTransitionError, got %v", err)
	}
}

func TestPlanTransition_RejectRequiresReason(t *testing.T) {
	var validationErr *utils.ValidationError

	_, err := planTransition(pendingRecord(), &ReconciliationActionInput{Action: models.ReconciliationActionReject}, 42, time.Now())
	if !errors.As(err, &validationErr) {
		t.Fatalf("reject without reason: want ValidationError, got %v", err)
	}

	_, err = planTransition(pendingRecord(), &ReconciliationActionInput{
		Action: models.ReconciliationActionReject,
		Reason: strPtr("   "),
	}, 42, time.Now())
	if !errors.As(err, &validationErr) {
		t.Fatalf("reject with blank reason: want ValidationError, got %v", err)
	}

	updates, err := planTransition(pendingRecord(), &ReconciliationActionInput{
		Action: models.ReconciliationActionReject,
		Reason: strPtr("  spoiled batch  "),
	}, 42, time.Now())
	if err != nil {
		t.Fatalf("reject with reason: %v", err)
	}
	if got := updates["current_status"]; got != models.ReconciliationStatusResolved {
		t.Errorf("current_status = %v, want resolved", got)
	}
	if got := updates["reason"]; got != "spoiled batch" {
		t.Errorf("reason = %v, want trimmed text", got)
	}
	if _, ok := updates["approved_by"]; ok {
		t.Error("reject must not set approved_by")
	}
}

func TestPlanTransition_Legality(t *testing.T) {
	cases := []struct {
		from   models.ReconciliationStatus
		action models.ReconciliationAction
		legal  bool
	}{
		{models.ReconciliationStatusPending, models.ReconciliationActionApprove, true},
		{models.ReconciliationStatusPending, models.ReconciliationActionInvestigate, true},
		{models.ReconciliationStatusInvestigation, models.ReconciliationActionApprove, true},
		{models.ReconciliationStatusInvestigation, models.ReconciliationActionReject, true},
		{models.ReconciliationStatusInvestigation, models.ReconciliationActionInvestigate, false},
		{models.ReconciliationStatusCritical, models.ReconciliationActionApprove, true},
		{models.ReconciliationStatusCritical, models.ReconciliationActionReject, true},
		{models.ReconciliationStatusCritical, models.ReconciliationActionInvestigate, false},
		{models.ReconciliationStatusApproved, models.ReconciliationActionReject, false},
		{models.ReconciliationStatusResolved, models.ReconciliationActionApprove, false},
		{models.ReconciliationStatusResolved, models.ReconciliationActionInvestigate, false},
	}
	for _, c := range cases {
		rec := pendingRecord()
		rec.CurrentStatus = c.from
		input := &ReconciliationActionInput{Action: c.action}
		if c.action == models.ReconciliationActionReject {
			input.Reason = strPtr("count error")
		}
		_, err := planTransition(rec, input, 1, time.Now())
		if c.legal && err != nil {
			t.Errorf("%s from %s: unexpected error %v", c.action, c.from, err)
		}
		if !c.legal {
			var transitionErr *utils.InvalidTransitionError
			if !errors.As(err, &transitionErr) {
				t.Errorf("%s from %s: want InvalidTransitionError, got %v", c.action, c.from, err)
			}
		}
	}
}

// casStore mirrors the persistence contract: an update lands only if the
// caller's snapshot status still matches the stored status.
type casStore struct {
	mu  sync.Mutex
	rec models.Reconciliation
}

func (s *casStore) read() models.Reconciliation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

func (s *casStore) compareAndSet(fromStatus models.ReconciliationStatus, updates map[string]interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.CurrentStatus != fromStatus {
		return false
	}
	s.rec.CurrentStatus = updates["current_status"].(models.ReconciliationStatus)
	return true
}

func (s *casStore) transition(actorId int, input *ReconciliationActionInput) error {
	snapshot := s.read()
	updates, err := planTransition(&snapshot, input, actorId, time.Now().UTC())
	if err != nil {
		return err
	}
	if !s.compareAndSet(snapshot.CurrentStatus, updates) {
		return &utils.ConflictError{RecordId: snapshot.ID}
	}
	return nil
}

func TestConcurrentTransitions_ExactlyOneWins(t *testing.T) {
	for i := 0; i < 200; i++ {
		store := &casStore{rec: *pendingRecord()}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		start := make(chan struct{})

		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			errs[0] = store.transition(1, &ReconciliationActionInput{Action: models.ReconciliationActionApprove})
		}()
		go func() {
			defer wg.Done()
			<-start
			errs[1] = store.transition(2, &ReconciliationActionInput{
				Action: models.ReconciliationActionReject,
				Reason: strPtr("recount mismatch"),
			})
		}()
		close(start)
		wg.Wait()

		var conflicts, wins int
		for _, err := range errs {
			switch {
			case err == nil:
				wins++
			default:
				var conflictErr *utils.ConflictError
				var transitionErr *utils.InvalidTransitionError
				if errors.As(err, &conflictErr) || errors.As(err, &transitionErr) {
					conflicts++
				} else {
					t.Fatalf("unexpected error type: %v", err)
				}
			}
		}
		if wins != 1 || conflicts != 1 {
			t.Fatalf("iteration %d: wins=%d conflicts=%d, want exactly one of each", i, wins, conflicts)
		}

		final := store.read().CurrentStatus
		if errs[0] == nil && final != models.ReconciliationStatusApproved {
			t.Fatalf("approve won but final status is %s", final)
		}
		if errs[1] == nil && final != models.ReconciliationStatusResolved {
			t.Fatalf("reject won but final status is %s", final)
		}
	}
}

func TestActionInput_UnknownActionRejected(t *testing.T) {
	_, err := planTransition(pendingRecord(), &ReconciliationActionInput{Action: models.ReconciliationAction("escalate")}, 1, time.Now())
	var validationErr *utils.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError for unknown action, got %v", err)
	}
	if !strings.Contains(validationErr.Message, "escalate") {
		t.Errorf("error should name the action, got %q", validationErr.Message)
	}
}
