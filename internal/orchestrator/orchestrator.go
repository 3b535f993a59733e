// Package orchestrator coordinates one conversation turn: red-flag scanning
// runs concurrently with the flow handler for the session's current state,
// and a detected red flag overrides whatever the handler produced. Handlers
// never fail a turn for model trouble; they degrade to a safe fallback
// response instead.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pukaarhealth/pukaar/internal/agents"
	"github.com/pukaarhealth/pukaar/internal/classify"
	"github.com/pukaarhealth/pukaar/internal/llm"
	"github.com/pukaarhealth/pukaar/internal/redflag"
	"github.com/pukaarhealth/pukaar/internal/scoring"
	"github.com/pukaarhealth/pukaar/pkg/observability"
	"github.com/pukaarhealth/pukaar/pkg/session"
)

// Orchestrator routes conversation turns through the screening flows.
type Orchestrator struct {
	store  session.Store
	client llm.Client
	engine *scoring.Engine
	logger *log.Logger
}

// New creates an orchestrator. A nil logger falls back to the standard one.
func New(store session.Store, client llm.Client, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		store:  store,
		client: client,
		engine: scoring.NewEngine(),
		logger: logger,
	}
}

// Engine exposes the scoring engine for read-only question lookups.
func (o *Orchestrator) Engine() *scoring.Engine {
	return o.engine
}

// Client exposes the language model client for the direct advice endpoint.
func (o *Orchestrator) Client() llm.Client {
	return o.client
}

// Request is one inbound conversation turn.
type Request struct {
	// SessionID is empty for a new conversation.
	SessionID string `json:"session_id,omitempty"`
	// Input is the caregiver's message.
	Input string `json:"input"`
	// Condition optionally names the condition to screen, overriding the
	// triage selection.
	Condition string `json:"condition,omitempty"`
	// Responses optionally carries the full screening answer set; when
	// empty the single Input is used.
	Responses []string `json:"responses,omitempty"`
	// AgeDays is the infant's age, 0 when unknown.
	AgeDays int `json:"age_days,omitempty"`
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	SessionID         string               `json:"session_id"`
	FlowType          session.FlowType     `json:"flow_type"`
	CurrentStep       int                  `json:"current_step"`
	Response          string               `json:"response"`
	Err               bool                 `json:"error,omitempty"`
	ErrorMessage      string               `json:"error_message,omitempty"`
	Classification    *classify.Result     `json:"classification,omitempty"`
	Triage            *agents.TriageResult `json:"triage_result,omitempty"`
	SelectedCondition string               `json:"selected_condition,omitempty"`
	ConditionScore    float64              `json:"condition_score,omitempty"`
	Questions         []scoring.Question   `json:"questions,omitempty"`
	Screening         *scoring.Result      `json:"screening_result,omitempty"`
	Advice            *agents.Advice       `json:"advice,omitempty"`
	RedFlag           *redflag.Result      `json:"red_flag,omitempty"`
	ProcessingTime    float64              `json:"processing_time"`
}

func errResult(msg, response string) *TurnResult {
	return &TurnResult{Err: true, ErrorMessage: msg, Response: response}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Process handles one conversation turn. The red-flag scan always runs,
// regardless of which flow the session is in, and its verdict wins.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*TurnResult, error) {
	start := time.Now()

	s, err := o.ensureSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if err := o.store.AppendMessage(ctx, s.ID, session.Message{Role: "user", Content: req.Input}); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	var (
		rf     redflag.Result
		result *TurnResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rf = redflag.Detect(req.Input)
		return nil
	})
	g.Go(func() error {
		r, err := o.dispatch(gctx, s, req)
		if err != nil {
			// A handler failure must never fail the turn.
			o.logger.Printf("flow handler failed for session %s: %v", s.ID, err)
			r = errResult(
				"Failed to process message",
				"I'm sorry, I ran into a problem processing your message. Please try again.",
			)
		}
		result = r
		return nil
	})
	_ = g.Wait()

	if rf.Detected {
		result = o.handleRedFlagDetected(ctx, s.ID, rf)
	}

	if result.Response != "" {
		if err := o.store.AppendMessage(ctx, s.ID, session.Message{Role: "system", Content: result.Response}); err != nil {
			o.logger.Printf("append system message: %v", err)
		}
	}

	final, err := o.store.Get(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}
	result.SessionID = final.ID
	result.FlowType = final.FlowType
	result.CurrentStep = final.CurrentStep
	result.ProcessingTime = time.Since(start).Seconds()

	status := "ok"
	if result.Err {
		status = "error"
	}
	observability.RecordTurn(string(final.FlowType), status, time.Since(start))

	return result, nil
}

// ensureSession loads the session, creating one when the ID is empty or the
// session expired.
func (o *Orchestrator) ensureSession(ctx context.Context, id string) (*session.Session, error) {
	if id != "" {
		s, err := o.store.Get(ctx, id)
		if err == nil {
			return s, nil
		}
		o.logger.Printf("session %s not found, starting a new one", id)
	}

	s, err := o.store.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	observability.SessionOpened()
	o.logger.Printf("created new session %s", s.ID)
	return s, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, s *session.Session, req Request) (*TurnResult, error) {
	switch s.FlowType {
	case session.FlowTriage:
		return o.handleTriage(ctx, s.ID, req.Input)
	case session.FlowScreening:
		return o.handleScreening(ctx, s, req)
	case session.FlowRedFlag:
		return o.handleRedFlagFlow(ctx, s, req.Input)
	case session.FlowFollowUp, session.FlowConsult:
		return o.handleFollowUp(ctx, s, req.Input)
	default:
		return o.handleInitial(ctx, s, req)
	}
}

// handleInitial classifies the first message and routes it.
func (o *Orchestrator) handleInitial(ctx context.Context, s *session.Session, req Request) (*TurnResult, error) {
	cls := classify.Classify(req.Input)
	if _, err := o.store.Update(ctx, s.ID, func(s *session.Session) {
		s.Classification = &cls
	}); err != nil {
		return nil, fmt.Errorf("store classification: %w", err)
	}

	switch cls.Context {
	case classify.ContextScreenable:
		if _, err := session.SetFlow(ctx, o.store, s.ID, session.FlowTriage); err != nil {
			return nil, err
		}
		result, err := o.handleTriage(ctx, s.ID, req.Input)
		if err != nil {
			return nil, err
		}
		result.Classification = &cls
		return result, nil

	case classify.ContextFollowUp:
		if _, err := session.SetFlow(ctx, o.store, s.ID, session.FlowFollowUp); err != nil {
			return nil, err
		}
		result, err := o.handleFollowUp(ctx, s, req.Input)
		if err != nil {
			return nil, err
		}
		result.Classification = &cls
		return result, nil

	case classify.ContextNonMedical:
		advice, err := agents.GetAdvice(ctx, o.client, "parenting", req.Input)
		if err != nil {
			o.logger.Printf("parenting advice failed: %v", err)
			return &TurnResult{
				Classification: &cls,
				Response:       "This appears to be a general parenting question. I can provide general guidance, but for specific concerns, please consult with a healthcare professional.",
			}, nil
		}
		return &TurnResult{
			Classification: &cls,
			Advice:         advice,
			Response:       advice.Advice,
		}, nil

	default: // medical_non_screenable, consult
		advice, err := agents.GetAdvice(ctx, o.client, "general", req.Input)
		if err != nil {
			o.logger.Printf("general advice failed: %v", err)
			return &TurnResult{
				Classification: &cls,
				Response:       "I recommend consulting with a healthcare professional about this concern.",
			}, nil
		}
		return &TurnResult{
			Classification: &cls,
			Advice:         advice,
			Response:       strings.TrimSpace(advice.Advice + "\n\n" + advice.WhenToConsult),
		}, nil
	}
}

// handleTriage runs the LLM triage and, when screenable, selects the top
// condition and moves the session into the screening flow.
func (o *Orchestrator) handleTriage(ctx context.Context, id, input string) (*TurnResult, error) {
	tri, err := agents.Triage(ctx, o.client, input)
	if err != nil {
		o.logger.Printf("triage failed: %v", err)
		return errResult(
			"Failed to perform triage",
			"I'm having trouble analyzing your concern. Could you please provide more specific details about the symptoms?",
		), nil
	}

	if _, err := o.store.Update(ctx, id, func(s *session.Session) {
		s.TriageResult = tri
	}); err != nil {
		return nil, fmt.Errorf("store triage result: %w", err)
	}

	if !tri.IsScreenable() {
		response := tri.Response
		if response == "" {
			response = "Based on your description, I recommend consulting with a healthcare professional."
		}
		return &TurnResult{Triage: tri, Response: response}, nil
	}

	if _, err := session.SetFlow(ctx, o.store, id, session.FlowScreening); err != nil {
		return nil, err
	}

	condition, score := tri.Top()
	if _, err := o.store.Update(ctx, id, func(s *session.Session) {
		s.SelectedCondition = condition
		s.ConditionScore = score
	}); err != nil {
		return nil, fmt.Errorf("store selected condition: %w", err)
	}

	response := tri.Response
	if response == "" {
		response = "Based on your description, I'd like to ask a few more questions to better understand the situation."
	}
	return &TurnResult{
		Triage:            tri,
		SelectedCondition: condition,
		ConditionScore:    score,
		Response:          response,
	}, nil
}

// handleScreening walks the screening steps: hand out questions, then score
// the answers, then serve advice on top of the stored result.
func (o *Orchestrator) handleScreening(ctx context.Context, s *session.Session, req Request) (*TurnResult, error) {
	condition := s.SelectedCondition
	if condition == "" {
		condition = req.Condition
	}
	if condition == "" {
		return errResult(
			"No condition selected for screening",
			"I'm not sure which condition we're discussing. Could you please provide more details about the symptoms?",
		), nil
	}

	switch s.CurrentStep {
	case 0:
		return o.screeningQuestions(ctx, s.ID, condition)
	case 1:
		return o.screeningAnalysis(ctx, s.ID, condition, req)
	default:
		return o.screeningAdvice(ctx, s, condition, req.Input)
	}
}

func (o *Orchestrator) screeningQuestions(ctx context.Context, id, condition string) (*TurnResult, error) {
	questions, err := o.engine.Questions(condition)
	if err != nil {
		return errResult(
			"Unknown screening condition",
			"I'm not sure which condition we're discussing. Could you please provide more details about the symptoms?",
		), nil
	}
	display, _ := o.engine.DisplayName(condition)

	if _, err := session.AdvanceStep(ctx, o.store, id); err != nil {
		return nil, err
	}

	return &TurnResult{
		SelectedCondition: condition,
		Questions:         questions,
		Response:          fmt.Sprintf("I'd like to ask you some questions about %s. Could you provide more details about the symptoms?", display),
	}, nil
}

func (o *Orchestrator) screeningAnalysis(ctx context.Context, id, condition string, req Request) (*TurnResult, error) {
	responses := req.Responses
	if len(responses) == 0 {
		responses = []string{req.Input}
	}

	if _, err := session.AdvanceStep(ctx, o.store, id); err != nil {
		return nil, err
	}

	result, err := o.engine.Score(condition, responses, req.AgeDays)
	if err != nil {
		o.logger.Printf("screening analysis failed: %v", err)
		return errResult(
			"Failed to analyze screening responses",
			"I'm having trouble analyzing your responses. Could you please provide more details?",
		), nil
	}

	if _, err := session.SetScreeningData(ctx, o.store, id, condition, session.ScreeningRecord{
		Responses: responses,
		Result:    &result,
	}); err != nil {
		return nil, fmt.Errorf("store screening data: %w", err)
	}
	if _, err := session.AdvanceStep(ctx, o.store, id); err != nil {
		return nil, err
	}

	observability.RecordScreening(condition, string(result.RiskLevel))

	display, _ := o.engine.DisplayName(condition)
	rec := result.Recommendation
	var b strings.Builder
	fmt.Fprintf(&b, "Based on your description about %s, here's my assessment:\n\n", display)
	fmt.Fprintf(&b, "Risk Level: %s\n", capitalize(string(result.RiskLevel)))
	fmt.Fprintf(&b, "Recommended Action: %s\n", rec.Action)
	fmt.Fprintf(&b, "Timeframe: %s\n\n", rec.Timeframe)
	fmt.Fprintf(&b, "Things to monitor: %s\n", rec.Monitoring)
	fmt.Fprintf(&b, "Warning signs: %s", rec.WarningSigns)

	return &TurnResult{
		SelectedCondition: condition,
		Screening:         &result,
		Response:          b.String(),
	}, nil
}

func (o *Orchestrator) screeningAdvice(ctx context.Context, s *session.Session, condition, input string) (*TurnResult, error) {
	rec, ok := s.ScreeningData[condition]
	if !ok || rec.Result == nil {
		return errResult(
			"No screening data available",
			"I don't have enough information to provide specific guidance. Could you please describe the symptoms again?",
		), nil
	}

	display, _ := o.engine.DisplayName(condition)
	advice, err := agents.GetAdvice(ctx, o.client, condition, input)
	if err != nil {
		o.logger.Printf("screening advice failed: %v", err)
		r := rec.Result.Recommendation
		return &TurnResult{
			SelectedCondition: condition,
			Screening:         rec.Result,
			Response:          fmt.Sprintf("For %s, I recommend:\n\n- %s\n- %s", display, r.Action, r.Monitoring),
		}, nil
	}

	return &TurnResult{
		SelectedCondition: condition,
		Screening:         rec.Result,
		Advice:            advice,
		Response: fmt.Sprintf("Regarding %s:\n\n%s\n\nHome care: %s\n\nWhen to consult a doctor: %s",
			display, advice.Advice, advice.HomeCare, advice.WhenToConsult),
	}, nil
}

// handleRedFlagFlow serves a session already in the red-flag flow. Without
// recorded flags the session falls back to triage.
func (o *Orchestrator) handleRedFlagFlow(ctx context.Context, s *session.Session, input string) (*TurnResult, error) {
	if len(s.RedFlags) == 0 {
		if _, err := session.SetFlow(ctx, o.store, s.ID, session.FlowTriage); err != nil {
			return nil, err
		}
		return o.handleTriage(ctx, s.ID, input)
	}

	latest := s.RedFlags[len(s.RedFlags)-1]
	response := fmt.Sprintf("URGENT: Emergency sign detected (%s).\n\nRecommendation: %s", latest.Trigger, latest.Recommendation)

	advice, err := agents.GetAdvice(ctx, o.client, "emergency", input)
	if err != nil {
		o.logger.Printf("emergency advice failed: %v", err)
		return &TurnResult{Response: response}, nil
	}

	if advice.HomeCare != "" {
		response += "\n\nWhile seeking help: " + advice.HomeCare
	}
	return &TurnResult{Advice: advice, Response: response}, nil
}

// handleFollowUp answers a follow-up question with the full session context.
func (o *Orchestrator) handleFollowUp(ctx context.Context, s *session.Session, input string) (*TurnResult, error) {
	topic := s.SelectedCondition
	if topic == "" {
		topic = "follow_up"
	}

	advice, err := agents.GetAdvice(ctx, o.client, topic, o.followUpContext(s, input))
	if err != nil {
		o.logger.Printf("follow-up advice failed: %v", err)
		return errResult(
			"Failed to get follow-up advice",
			"For follow-up concerns, I recommend consulting with your healthcare provider.",
		), nil
	}

	if _, err := session.SetFlow(ctx, o.store, s.ID, session.FlowFollowUp); err != nil {
		return nil, err
	}

	return &TurnResult{
		Advice: advice,
		Response: fmt.Sprintf("%s\n\nFor ongoing care: %s\n\nWhen to consult again: %s",
			advice.Advice, advice.HomeCare, advice.WhenToConsult),
	}, nil
}

// followUpContext assembles a context-rich prompt from the session history.
func (o *Orchestrator) followUpContext(s *session.Session, input string) string {
	var lines []string
	if s.SelectedCondition != "" {
		lines = append(lines, "- Main condition: "+s.SelectedCondition)
	}
	if s.TriageResult != nil {
		lines = append(lines, fmt.Sprintf("- Triage result: %+v", *s.TriageResult))
	}
	if rec, ok := s.ScreeningData[s.SelectedCondition]; ok && rec.Result != nil {
		lines = append(lines, fmt.Sprintf("- Screening result: risk %s (%.0f%%)", rec.Result.RiskLevel, rec.Result.RiskPercent))
	}
	if len(s.RedFlags) > 0 {
		lines = append(lines, fmt.Sprintf("- Red flags: %+v", s.RedFlags))
	}

	history := s.History
	if len(history) > 5 {
		history = history[len(history)-5:]
	}
	for _, m := range history {
		lines = append(lines, fmt.Sprintf("- Previous %s message: %s", m.Role, m.Content))
	}
	lines = append(lines, "- Parent follow-up question: "+input)
	lines = append(lines, "Instructions: Provide clear, safe, evidence-based advice. If the follow-up question suggests a new red flag, escalate and recommend immediate medical attention.")
	return strings.Join(lines, "\n")
}

// handleRedFlagDetected overrides the turn when the scan found a red flag:
// the flags are persisted, the session moves to the red-flag flow, and the
// response is the emergency guidance. Store trouble is logged but never
// suppresses the emergency response.
func (o *Orchestrator) handleRedFlagDetected(ctx context.Context, id string, rf redflag.Result) *TurnResult {
	if _, err := session.AddRedFlags(ctx, o.store, id, rf.Flags...); err != nil {
		o.logger.Printf("store red flags for session %s: %v", id, err)
	}
	if _, err := session.SetFlow(ctx, o.store, id, session.FlowRedFlag); err != nil {
		o.logger.Printf("switch session %s to red-flag flow: %v", id, err)
	}

	for _, f := range rf.Flags {
		observability.RecordRedFlag(f.Type, string(f.Severity))
	}

	response := fmt.Sprintf("URGENT: Emergency sign detected (%s).\n\nRecommendation: %s", rf.Trigger, rf.Recommendation)
	if len(rf.Flags) > 0 && rf.Flags[0].Severity == redflag.SeverityHigh {
		response += "\n\nPlease seek immediate emergency care."
	} else {
		response += "\n\nPlease contact your healthcare provider right away."
	}

	return &TurnResult{RedFlag: &rf, Response: response}
}
