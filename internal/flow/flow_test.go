package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/pukaarhealth/pukaar/internal/redflag"
	"github.com/pukaarhealth/pukaar/pkg/session"
)

func TestStateOf(t *testing.T) {
	tests := []struct {
		flow session.FlowType
		step int
		want State
	}{
		{session.FlowInitial, 0, StateInitial},
		{session.FlowTriage, 0, StateTriage},
		{session.FlowScreening, 0, StateConditionSelection},
		{session.FlowScreening, 1, StateQuestionCollection},
		{session.FlowScreening, 2, StateAnalysis},
		{session.FlowScreening, 3, StateRecommendation},
		{session.FlowScreening, 4, StateError},
		{session.FlowScreening, -1, StateError},
		{session.FlowRedFlag, 0, StateRedFlagDetected},
		{session.FlowFollowUp, 0, StateFollowUp},
		{session.FlowType("bogus"), 0, StateError},
	}
	for _, tt := range tests {
		s := &session.Session{FlowType: tt.flow, CurrentStep: tt.step}
		if got := StateOf(s); got != tt.want {
			t.Errorf("StateOf(%s/%d) = %s, want %s", tt.flow, tt.step, got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to State }{
		{StateInitial, StateTriage},
		{StateTriage, StateConditionSelection},
		{StateTriage, StateRedFlagDetected},
		{StateConditionSelection, StateQuestionCollection},
		{StateQuestionCollection, StateAnalysis},
		{StateQuestionCollection, StateRedFlagDetected},
		{StateAnalysis, StateRecommendation},
		{StateRecommendation, StateFollowUp},
		{StateRecommendation, StateCompleted},
		{StateRedFlagDetected, StateCompleted},
		{StateFollowUp, StateCompleted},
		{StateError, StateInitial},
	}
	for _, tt := range allowed {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be allowed", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to State }{
		{StateInitial, StateRecommendation},
		{StateConditionSelection, StateAnalysis},
		{StateConditionSelection, StateRedFlagDetected},
		{StateCompleted, StateInitial},
		{StateRecommendation, StateTriage},
	}
	for _, tt := range denied {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be denied", tt.from, tt.to)
		}
	}
}

func TestTransitionPersists(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	s, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := Transition(ctx, store, s.ID, StateTriage); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if _, err := Transition(ctx, store, s.ID, StateConditionSelection); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}

	got, _ := store.Get(ctx, s.ID)
	if got.FlowType != session.FlowScreening || got.CurrentStep != 0 {
		t.Fatalf("expected screening/0, got %s/%d", got.FlowType, got.CurrentStep)
	}

	// Skipping ahead is rejected.
	_, err = Transition(ctx, store, s.ID, StateRecommendation)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestNextActionWithSelectedCondition(t *testing.T) {
	s := &session.Session{FlowType: session.FlowScreening, CurrentStep: 0}
	if got := NextAction(s); got.Action != "select_condition" {
		t.Errorf("expected select_condition, got %s", got.Action)
	}

	s.SelectedCondition = "neonatal_jaundice"
	got := NextAction(s)
	if got.Action != "collect_responses" || got.Condition != "neonatal_jaundice" {
		t.Errorf("expected collect_responses for selected condition, got %+v", got)
	}
}

func TestResumeAfterRedFlag(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	s, _ := store.Create(ctx)

	// Without red flags the resume is refused.
	if _, err := session.SetFlow(ctx, store, s.ID, session.FlowRedFlag); err != nil {
		t.Fatalf("SetFlow failed: %v", err)
	}
	if _, err := ResumeAfterRedFlag(ctx, store, s.ID); !errors.Is(err, ErrNoRedFlags) {
		t.Fatalf("expected ErrNoRedFlags, got %v", err)
	}

	flags := []redflag.Flag{
		{Type: "lethargy", Trigger: "very tired", Severity: redflag.SeverityHigh},
		{Type: "cyanosis", Trigger: "blue lips", Severity: redflag.SeverityHigh},
	}
	if _, err := session.AddRedFlags(ctx, store, s.ID, flags...); err != nil {
		t.Fatalf("AddRedFlags failed: %v", err)
	}

	resume, err := ResumeAfterRedFlag(ctx, store, s.ID)
	if err != nil {
		t.Fatalf("ResumeAfterRedFlag failed: %v", err)
	}
	if resume.RedFlag.Type != "cyanosis" {
		t.Errorf("expected most recent flag, got %+v", resume.RedFlag)
	}

	got, _ := store.Get(ctx, s.ID)
	if StateOf(got) == StateRedFlagDetected {
		t.Error("expected session to leave the red flag state")
	}
}
