// Package flow is the screening conversation state machine. A session's
// persisted flow type and step number project onto a state; transitions are
// whitelisted so a conversation can only move forward through triage,
// screening, and recommendation, or sideways into red-flag handling.
package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/pukaarhealth/pukaar/internal/redflag"
	"github.com/pukaarhealth/pukaar/pkg/session"
)

// State of the screening conversation.
type State string

const (
	StateInitial            State = "initial"
	StateTriage             State = "triage"
	StateConditionSelection State = "condition_selection"
	StateQuestionCollection State = "question_collection"
	StateAnalysis           State = "analysis"
	StateRecommendation     State = "recommendation"
	StateRedFlagDetected    State = "red_flag_detected"
	StateFollowUp           State = "follow_up"
	StateCompleted          State = "completed"
	StateError              State = "error"
)

// ErrInvalidTransition is returned when a requested state change is not in
// the transition table.
var ErrInvalidTransition = errors.New("flow: invalid transition")

// ErrNoRedFlags is returned when resuming a session that has none recorded.
var ErrNoRedFlags = errors.New("flow: no red flags in session")

var transitions = map[State][]State{
	StateInitial:            {StateTriage},
	StateTriage:             {StateConditionSelection, StateRedFlagDetected},
	StateConditionSelection: {StateQuestionCollection},
	StateQuestionCollection: {StateAnalysis, StateRedFlagDetected},
	StateAnalysis:           {StateRecommendation},
	StateRecommendation:     {StateFollowUp, StateCompleted},
	StateRedFlagDetected:    {StateCompleted},
	StateFollowUp:           {StateCompleted},
	StateCompleted:          {},
	StateError:              {StateInitial, StateTriage, StateCompleted},
}

// screeningStates maps screening step numbers to states and back.
var screeningStates = []State{
	StateConditionSelection,
	StateQuestionCollection,
	StateAnalysis,
	StateRecommendation,
}

// StateOf projects a session's flow type and step onto a state. A screening
// step outside 0-3 is an error state.
func StateOf(s *session.Session) State {
	switch s.FlowType {
	case session.FlowInitial:
		return StateInitial
	case session.FlowTriage:
		return StateTriage
	case session.FlowScreening:
		if s.CurrentStep >= 0 && s.CurrentStep < len(screeningStates) {
			return screeningStates[s.CurrentStep]
		}
		return StateError
	case session.FlowRedFlag:
		return StateRedFlagDetected
	case session.FlowFollowUp:
		return StateFollowUp
	case session.FlowConsult:
		return StateFollowUp
	}
	return StateError
}

// CanTransition reports whether from → to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// flowFor maps a target state back onto flow type and step.
func flowFor(target State) (session.FlowType, int) {
	for step, s := range screeningStates {
		if s == target {
			return session.FlowScreening, step
		}
	}
	switch target {
	case StateTriage:
		return session.FlowTriage, 0
	case StateRedFlagDetected:
		return session.FlowRedFlag, 0
	case StateFollowUp:
		return session.FlowFollowUp, 0
	default:
		return session.FlowInitial, 0
	}
}

// Transition moves a session to target, validating against the table.
func Transition(ctx context.Context, store session.Store, id string, target State) (*session.Session, error) {
	s, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	current := StateOf(s)
	if !CanTransition(current, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}

	ft, step := flowFor(target)
	return store.Update(ctx, id, func(s *session.Session) {
		s.FlowType = ft
		s.CurrentStep = step
	})
}

// Action tells the orchestrator what to do next for a session.
type Action struct {
	Action    string `json:"action"`
	Message   string `json:"message"`
	Condition string `json:"condition,omitempty"`
}

// NextAction describes the pending work for a session's current state.
func NextAction(s *session.Session) Action {
	switch StateOf(s) {
	case StateInitial:
		return Action{Action: "start_triage", Message: "Please describe the symptoms or concerns"}
	case StateTriage:
		return Action{Action: "perform_triage", Message: "Analyzing symptoms..."}
	case StateConditionSelection:
		if s.SelectedCondition != "" {
			return Action{
				Action:    "collect_responses",
				Message:   "Please answer the following questions",
				Condition: s.SelectedCondition,
			}
		}
		return Action{Action: "select_condition", Message: "Please select a condition to screen for"}
	case StateQuestionCollection:
		return Action{Action: "analyze_responses", Message: "Analyzing responses..."}
	case StateAnalysis:
		return Action{Action: "provide_recommendation", Message: "Generating recommendations..."}
	case StateRecommendation:
		return Action{Action: "complete_screening", Message: "Screening completed"}
	case StateRedFlagDetected:
		return Action{Action: "handle_red_flag", Message: "Red flag detected! Urgent attention required."}
	case StateFollowUp:
		return Action{Action: "schedule_follow_up", Message: "Please schedule a follow-up appointment"}
	case StateCompleted:
		return Action{Action: "start_new_session", Message: "Screening completed. Start a new session?"}
	default:
		return Action{Action: "handle_error", Message: "An error occurred in the screening flow"}
	}
}

// Resume summarizes the red-flag situation when a caregiver returns to a
// flagged session.
type Resume struct {
	RedFlag        redflag.Flag `json:"red_flag"`
	Message        string       `json:"message"`
	Recommendation string       `json:"recommendation"`
}

// ResumeAfterRedFlag closes out a session that hit a red flag, returning a
// summary built from the most recent flag.
func ResumeAfterRedFlag(ctx context.Context, store session.Store, id string) (*Resume, error) {
	s, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(s.RedFlags) == 0 {
		return nil, ErrNoRedFlags
	}

	if _, err := Transition(ctx, store, id, StateCompleted); err != nil {
		return nil, err
	}

	return &Resume{
		RedFlag:        s.RedFlags[len(s.RedFlags)-1],
		Message:        "Session resumed after red flag detection",
		Recommendation: "Please seek immediate medical attention",
	}, nil
}
