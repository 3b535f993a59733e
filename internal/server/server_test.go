package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pukaarhealth/pukaar/internal/classify"
	"github.com/pukaarhealth/pukaar/internal/llm"
	"github.com/pukaarhealth/pukaar/internal/orchestrator"
	"github.com/pukaarhealth/pukaar/internal/redflag"
	"github.com/pukaarhealth/pukaar/internal/scoring"
	"github.com/pukaarhealth/pukaar/pkg/session"
)

const triageJSON = `{"Pneumonia / ARI": 75, "Diarrhea": 10, "Malnutrition": 0, "Neonatal Sepsis": 15, "Neonatal Jaundice": 0, "Looks Normal": 5, "response": "I'd like to ask a few questions about the breathing."}`

func newTestServer(t *testing.T, client llm.Client) (*httptest.Server, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	orch := orchestrator.New(store, client, nil)
	srv := httptest.NewServer(New(orch, store, nil).Router(false))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestScreenCreatesSession(t *testing.T) {
	srv, store := newTestServer(t, llm.NewMockClient(triageJSON))

	resp := postJSON(t, srv.URL+"/api/screen", map[string]string{"input": "my baby has a cough"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result orchestrator.TurnResult
	decode(t, resp, &result)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, session.FlowScreening, result.FlowType)
	assert.Equal(t, "pneumonia_ari", result.SelectedCondition)

	s, err := store.Get(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Len(t, s.History, 2)
}

func TestScreenRejectsEmptyInput(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp := postJSON(t, srv.URL+"/api/screen", map[string]string{"input": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestScreenRejectsBadJSON(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp, err := http.Post(srv.URL+"/api/screen", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetSession(t *testing.T) {
	srv, store := newTestServer(t, llm.NewMockClient(triageJSON))
	s, err := store.Create(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/session/" + s.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got session.Session
	decode(t, resp, &got)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, session.FlowInitial, got.FlowType)
}

func TestGetSessionNotFound(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp, err := http.Get(srv.URL + "/api/session/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteSession(t *testing.T) {
	srv, store := newTestServer(t, llm.NewMockClient(triageJSON))
	s, _ := store.Create(context.Background())

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/session/"+s.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	_, err = store.Get(context.Background(), s.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestGetHistory(t *testing.T) {
	srv, store := newTestServer(t, llm.NewMockClient(triageJSON))
	ctx := context.Background()
	s, _ := store.Create(ctx)
	require.NoError(t, store.AppendMessage(ctx, s.ID, session.Message{Role: "user", Content: "hello"}))

	resp, err := http.Get(srv.URL + "/api/session/" + s.ID + "/history")
	require.NoError(t, err)

	var body struct {
		SessionID string            `json:"session_id"`
		History   []session.Message `json:"history"`
	}
	decode(t, resp, &body)
	assert.Equal(t, s.ID, body.SessionID)
	require.Len(t, body.History, 1)
	assert.Equal(t, "hello", body.History[0].Content)
}

func TestNextAction(t *testing.T) {
	srv, store := newTestServer(t, llm.NewMockClient(triageJSON))
	s, _ := store.Create(context.Background())

	resp, err := http.Get(srv.URL + "/api/session/" + s.ID + "/next")
	require.NoError(t, err)

	var body struct {
		State      string `json:"state"`
		NextAction struct {
			Action string `json:"action"`
		} `json:"next_action"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "initial", body.State)
	assert.Equal(t, "start_triage", body.NextAction.Action)
}

func TestResumeAfterRedFlag(t *testing.T) {
	srv, store := newTestServer(t, llm.NewMockClient(triageJSON))
	ctx := context.Background()
	s, _ := store.Create(ctx)

	// Without flags the resume is rejected.
	resp := postJSON(t, srv.URL+"/api/session/"+s.ID+"/resume", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	_, err := session.SetFlow(ctx, store, s.ID, session.FlowRedFlag)
	require.NoError(t, err)
	_, err = session.AddRedFlags(ctx, store, s.ID, redflag.Flag{
		Type:           "cyanosis",
		Trigger:        "blue lips",
		Severity:       redflag.SeverityHigh,
		Recommendation: redflag.EmergencyAdvice,
	})
	require.NoError(t, err)

	resp = postJSON(t, srv.URL+"/api/session/"+s.ID+"/resume", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RedFlag        redflag.Flag `json:"red_flag"`
		Recommendation string       `json:"recommendation"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "cyanosis", body.RedFlag.Type)
	assert.Equal(t, "Please seek immediate medical attention", body.Recommendation)
}

func TestFollowUpEndpoint(t *testing.T) {
	adviceJSON := `{"advice": "Keep the baby comfortable.", "home_care": "Offer small frequent feeds.", "when_to_consult": "If symptoms persist beyond 24 hours."}`
	srv, store := newTestServer(t, llm.NewMockClient(adviceJSON))
	s, _ := store.Create(context.Background())

	resp := postJSON(t, srv.URL+"/api/follow-up", map[string]string{
		"session_id": s.ID,
		"input":      "the medicine finished, now what",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result orchestrator.TurnResult
	decode(t, resp, &result)
	assert.Equal(t, session.FlowFollowUp, result.FlowType)
	assert.Contains(t, result.Response, "Keep the baby comfortable.")
}

func TestFollowUpMissingSession(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp := postJSON(t, srv.URL+"/api/follow-up", map[string]string{
		"session_id": "missing",
		"input":      "hello",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestListConditions(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp, err := http.Get(srv.URL + "/api/conditions")
	require.NoError(t, err)

	var body struct {
		Conditions []string `json:"conditions"`
	}
	decode(t, resp, &body)
	assert.Len(t, body.Conditions, 5)
	assert.Contains(t, body.Conditions, "pneumonia_ari")
}

func TestGetQuestions(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp, err := http.Get(srv.URL + "/api/conditions/pneumonia_ari/questions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Condition string `json:"condition"`
		Questions []struct {
			Text string `json:"question"`
		} `json:"questions"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "pneumonia_ari", body.Condition)
	assert.Len(t, body.Questions, 7)
}

func TestRedFlagEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp := postJSON(t, srv.URL+"/api/red-flag", map[string]string{"input": "my baby has blue lips"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result redflag.Result
	decode(t, resp, &result)
	assert.True(t, result.Detected)
	require.NotEmpty(t, result.Flags)
	assert.Equal(t, "cyanosis", result.Flags[0].Type)
}

func TestClassifyEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp := postJSON(t, srv.URL+"/api/context-classifier", map[string]string{"input": "my baby has a cough"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result classify.Result
	decode(t, resp, &result)
	assert.Equal(t, classify.ContextScreenable, result.Context)
	assert.Contains(t, result.Conditions, "pneumonia_ari")
}

func TestRunScreeningEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp := postJSON(t, srv.URL+"/api/screening/pneumonia_ari/run", map[string]any{
		"responses": []string{
			"65 breaths per minute",
			"moderate chest indrawing",
			"frequent grunting",
			"no cyanosis",
			"poor feeding",
		},
		"age_days": 45,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result scoring.Result
	decode(t, resp, &result)
	assert.Equal(t, scoring.RiskHigh, result.RiskLevel)
	assert.Equal(t, scoring.UrgencyImmediate, result.Urgency)
	assert.Equal(t, scoring.AgeYoungInfant, result.AgeGroup)
}

func TestRunScreeningUnknownCondition(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp := postJSON(t, srv.URL+"/api/screening/colic/run", map[string]any{
		"responses": []string{"crying a lot"},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestConsultAdviceEndpoint(t *testing.T) {
	adviceJSON := `{"advice": "Keep the baby hydrated.", "home_care": "Offer frequent feeds.", "when_to_consult": "If stools stay watery beyond 24 hours."}`
	srv, _ := newTestServer(t, llm.NewMockClient(adviceJSON))

	resp := postJSON(t, srv.URL+"/api/consult-advice", map[string]string{
		"condition": "diarrhea",
		"input":     "watery stools since morning",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Advice   string `json:"advice"`
		HomeCare string `json:"home_care"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "Keep the baby hydrated.", body.Advice)
	assert.Equal(t, "Offer frequent feeds.", body.HomeCare)
}

func TestConsultAdviceModelFailure(t *testing.T) {
	boom := llm.NewError("mock", llm.ErrorCodeServerError, "down", nil)
	srv, _ := newTestServer(t, llm.NewMockClientErr(boom))

	resp := postJSON(t, srv.URL+"/api/consult-advice", map[string]string{"input": "question"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()
}

func TestGetQuestionsUnknownCondition(t *testing.T) {
	srv, _ := newTestServer(t, llm.NewMockClient(triageJSON))

	resp, err := http.Get(srv.URL + "/api/conditions/nope/questions")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
