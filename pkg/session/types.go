package session

import (
	"time"

	"github.com/pukaarhealth/pukaar/internal/agents"
	"github.com/pukaarhealth/pukaar/internal/classify"
	"github.com/pukaarhealth/pukaar/internal/redflag"
	"github.com/pukaarhealth/pukaar/internal/scoring"
)

// FlowType identifies which conversation flow a session is in.
type FlowType string

const (
	FlowInitial   FlowType = "initial"
	FlowTriage    FlowType = "triage"
	FlowScreening FlowType = "screening"
	FlowRedFlag   FlowType = "red_flag"
	FlowFollowUp  FlowType = "follow_up"
	FlowConsult   FlowType = "consult"
)

// ValidFlowType reports whether ft is a known flow type.
func ValidFlowType(ft FlowType) bool {
	switch ft {
	case FlowInitial, FlowTriage, FlowScreening, FlowRedFlag, FlowFollowUp, FlowConsult:
		return true
	}
	return false
}

// Message is one turn of the conversation history.
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ScreeningRecord holds the collected answers and, once scored, the result
// for one condition.
type ScreeningRecord struct {
	Responses []string        `json:"responses,omitempty"`
	Result    *scoring.Result `json:"result,omitempty"`
}

// Session is the full persisted state of one conversation.
type Session struct {
	ID                string                     `json:"id"`
	CreatedAt         time.Time                  `json:"created_at"`
	LastActive        time.Time                  `json:"last_active"`
	FlowType          FlowType                   `json:"flow_type"`
	CurrentStep       int                        `json:"current_step"`
	History           []Message                  `json:"conversation_history"`
	SelectedCondition string                     `json:"selected_condition,omitempty"`
	ConditionScore    float64                    `json:"condition_score,omitempty"`
	Classification    *classify.Result           `json:"context_classification,omitempty"`
	TriageResult      *agents.TriageResult       `json:"triage_result,omitempty"`
	ScreeningData     map[string]ScreeningRecord `json:"screening_data"`
	RedFlags          []redflag.Flag             `json:"red_flags"`
	Metadata          map[string]string          `json:"metadata,omitempty"`
}

// Clone returns a deep copy. Stores hand out copies so callers can't mutate
// shared state outside Update.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Classification != nil {
		c := *s.Classification
		out.Classification = &c
	}
	if s.TriageResult != nil {
		tr := *s.TriageResult
		out.TriageResult = &tr
	}
	out.History = make([]Message, len(s.History))
	copy(out.History, s.History)
	out.RedFlags = make([]redflag.Flag, len(s.RedFlags))
	copy(out.RedFlags, s.RedFlags)
	out.ScreeningData = make(map[string]ScreeningRecord, len(s.ScreeningData))
	for k, v := range s.ScreeningData {
		rec := ScreeningRecord{Responses: append([]string(nil), v.Responses...)}
		if v.Result != nil {
			r := *v.Result
			rec.Result = &r
		}
		out.ScreeningData[k] = rec
	}
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
