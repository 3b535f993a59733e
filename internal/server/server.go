// Package server exposes the triage orchestrator over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pukaarhealth/pukaar/internal/agents"
	"github.com/pukaarhealth/pukaar/internal/classify"
	"github.com/pukaarhealth/pukaar/internal/flow"
	"github.com/pukaarhealth/pukaar/internal/orchestrator"
	"github.com/pukaarhealth/pukaar/internal/redflag"
	"github.com/pukaarhealth/pukaar/internal/scoring"
	"github.com/pukaarhealth/pukaar/pkg/observability"
	"github.com/pukaarhealth/pukaar/pkg/session"
)

// Server wires the HTTP API.
type Server struct {
	orch   *orchestrator.Orchestrator
	store  session.Store
	logger *log.Logger
}

// New creates a server. A nil logger falls back to the standard one.
func New(orch *orchestrator.Orchestrator, store session.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{orch: orch, store: store, logger: logger}
}

// Router builds the chi router. Metrics exposure is optional so internal
// deployments can keep /metrics off the public surface.
func (s *Server) Router(enableMetrics bool) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	if enableMetrics {
		r.Handle("/metrics", observability.MetricsHandler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/screen", s.handleScreen)
		r.Post("/follow-up", s.handleFollowUp)
		r.Route("/session/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/history", s.handleGetHistory)
			r.Get("/next", s.handleNextAction)
			r.Post("/resume", s.handleResume)
		})
		r.Get("/conditions", s.handleListConditions)
		r.Get("/conditions/{condition}/questions", s.handleGetQuestions)

		// Direct model endpoints, bypassing session state.
		r.Post("/red-flag", s.handleRedFlagCheck)
		r.Post("/context-classifier", s.handleClassify)
		r.Post("/screening/{condition}/run", s.handleRunScreening)
		r.Post("/consult-advice", s.handleConsultAdvice)
	})

	return r
}

// instrument records request metrics per route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		observability.RecordHTTPRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("write response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"error": true, "error_message": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScreen processes one conversation turn.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	result, err := s.orch.Process(r.Context(), req)
	if err != nil {
		s.logger.Printf("process turn: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleFollowUp forces the session into the follow-up flow before
// processing, so a caregiver can return to a finished screening.
func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.Input == "" {
		s.writeError(w, http.StatusBadRequest, "session_id and input are required")
		return
	}

	if _, err := session.SetFlow(r.Context(), s.store, req.SessionID, session.FlowFollowUp); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Printf("set follow-up flow: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	result, err := s.orch.Process(r.Context(), req)
	if err != nil {
		s.logger.Printf("process follow-up: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	observability.SessionClosed()
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"history":    sess.History,
	})
}

// handleNextAction tells a client what the conversation expects next, so a
// UI can render the right prompt without replaying the whole history.
func (s *Server) handleNextAction(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"session_id":  sess.ID,
		"state":       flow.StateOf(sess),
		"next_action": flow.NextAction(sess),
	})
}

// handleResume closes out a red-flagged session once the caregiver returns.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	resume, err := flow.ResumeAfterRedFlag(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			s.writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, flow.ErrNoRedFlags):
			s.writeError(w, http.StatusConflict, "session has no red flags to resume from")
		case errors.Is(err, flow.ErrInvalidTransition):
			s.writeError(w, http.StatusConflict, "session is not in a red-flag state")
		default:
			s.writeError(w, http.StatusInternalServerError, "failed to resume session")
		}
		return
	}
	s.writeJSON(w, http.StatusOK, resume)
}

func (s *Server) handleListConditions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"conditions": s.orch.Engine().Conditions()})
}

func (s *Server) handleGetQuestions(w http.ResponseWriter, r *http.Request) {
	condition := chi.URLParam(r, "condition")
	questions, err := s.orch.Engine().Questions(condition)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown condition")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"condition": condition,
		"questions": questions,
	})
}

type inputRequest struct {
	Input string `json:"input"`
}

func (s *Server) decodeInput(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, "input is required")
		return "", false
	}
	return req.Input, true
}

// handleRedFlagCheck runs the emergency detector on one message, with no
// session involved.
func (s *Server) handleRedFlagCheck(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, redflag.Detect(input))
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	input, ok := s.decodeInput(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, classify.Classify(input))
}

// handleRunScreening scores a full answer set for one condition in a single
// shot, without walking the conversational steps.
func (s *Server) handleRunScreening(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Responses []string `json:"responses"`
		AgeDays   int      `json:"age_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Responses) == 0 {
		s.writeError(w, http.StatusBadRequest, "responses are required")
		return
	}

	result, err := s.orch.Engine().Score(chi.URLParam(r, "condition"), req.Responses, req.AgeDays)
	if err != nil {
		if errors.Is(err, scoring.ErrUnknownCondition) {
			s.writeError(w, http.StatusNotFound, "unknown condition")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "failed to score responses")
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConsultAdvice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Condition string `json:"condition"`
		Input     string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	if req.Condition == "" {
		req.Condition = "general"
	}

	advice, err := agents.GetAdvice(r.Context(), s.orch.Client(), req.Condition, req.Input)
	if err != nil {
		s.logger.Printf("consult advice: %v", err)
		s.writeError(w, http.StatusBadGateway, "failed to generate advice")
		return
	}
	s.writeJSON(w, http.StatusOK, advice)
}
