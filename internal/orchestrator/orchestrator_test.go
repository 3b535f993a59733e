package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pukaarhealth/pukaar/internal/llm"
	"github.com/pukaarhealth/pukaar/pkg/session"
)

const triageJSON = `{"Pneumonia / ARI": 75, "Diarrhea": 10, "Malnutrition": 0, "Neonatal Sepsis": 15, "Neonatal Jaundice": 0, "Looks Normal": 5, "response": "I'd like to ask a few questions about the breathing."}`

const adviceJSON = `{"advice": "Keep the baby comfortable.", "home_care": "Offer small frequent feeds.", "when_to_consult": "If symptoms persist beyond 24 hours.", "references": ["WHO IMCI"]}`

func newTestOrchestrator(client llm.Client) (*Orchestrator, session.Store) {
	store := session.NewMemoryStore()
	return New(store, client, nil), store
}

func TestProcessCreatesSessionAndTriages(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrchestrator(llm.NewMockClient(triageJSON))

	result, err := o.Process(ctx, Request{Input: "my baby has a cough"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.SessionID, "a fresh turn must create a session")
	assert.False(t, result.Err)
	assert.Equal(t, session.FlowScreening, result.FlowType)
	assert.Equal(t, "pneumonia_ari", result.SelectedCondition)
	assert.Equal(t, 75.0, result.ConditionScore)
	require.NotNil(t, result.Classification)
	require.NotNil(t, result.Triage)

	s, err := store.Get(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "pneumonia_ari", s.SelectedCondition)
	require.Len(t, s.History, 2)
	assert.Equal(t, "user", s.History[0].Role)
	assert.Equal(t, "system", s.History[1].Role)
}

func TestProcessUnknownSessionStartsFresh(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(llm.NewMockClient(triageJSON))

	result, err := o.Process(ctx, Request{SessionID: "expired-id", Input: "my baby has a cough"})
	require.NoError(t, err)
	assert.NotEqual(t, "expired-id", result.SessionID)
}

func TestProcessRedFlagOverridesFlow(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrchestrator(llm.NewMockClient(triageJSON))

	result, err := o.Process(ctx, Request{Input: "my baby has blue lips"})
	require.NoError(t, err)

	require.NotNil(t, result.RedFlag)
	assert.True(t, result.RedFlag.Detected)
	assert.Equal(t, session.FlowRedFlag, result.FlowType)
	assert.Contains(t, result.Response, "URGENT")
	assert.Contains(t, result.Response, "Please seek immediate emergency care.")

	s, _ := store.Get(ctx, result.SessionID)
	require.NotEmpty(t, s.RedFlags)
	assert.Equal(t, "cyanosis", s.RedFlags[0].Type)
}

func TestProcessNonMedical(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(llm.NewMockClient(adviceJSON))

	result, err := o.Process(ctx, Request{Input: "my baby won't sleep through the night"})
	require.NoError(t, err)

	require.NotNil(t, result.Classification)
	assert.Equal(t, "non_medical", string(result.Classification.Context))
	assert.Equal(t, "Keep the baby comfortable.", result.Response)
	assert.Equal(t, session.FlowInitial, result.FlowType)
}

func TestProcessTriageFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	boom := llm.NewError("mock", llm.ErrorCodeServerError, "down", nil)
	o, _ := newTestOrchestrator(llm.NewMockClientErr(boom))

	result, err := o.Process(ctx, Request{Input: "my baby has a cough"})
	require.NoError(t, err, "model trouble must not fail the turn")

	assert.True(t, result.Err)
	assert.Contains(t, result.Response, "I'm having trouble analyzing your concern")
}

// updateFailingStore simulates a session backend that accepts reads but
// fails every write-through update.
type updateFailingStore struct {
	session.Store
}

func (s *updateFailingStore) Update(ctx context.Context, id string, mutate func(*session.Session)) (*session.Session, error) {
	return nil, errors.New("write failed")
}

func TestProcessStoreFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	store := &updateFailingStore{Store: session.NewMemoryStore()}
	o := New(store, llm.NewMockClient(triageJSON), nil)

	result, err := o.Process(ctx, Request{Input: "my baby has a cough"})
	require.NoError(t, err, "store trouble inside a handler must not fail the turn")

	assert.True(t, result.Err)
	assert.NotEmpty(t, result.Response)
	assert.Equal(t, "Failed to process message", result.ErrorMessage)
}

func TestScreeningStepWalkthrough(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrchestrator(llm.NewMockClient(adviceJSON))

	s, err := store.Create(ctx)
	require.NoError(t, err)
	_, err = session.SetFlow(ctx, store, s.ID, session.FlowScreening)
	require.NoError(t, err)
	_, err = store.Update(ctx, s.ID, func(s *session.Session) {
		s.SelectedCondition = "pneumonia_ari"
	})
	require.NoError(t, err)

	// Step 0: questions are handed out.
	result, err := o.Process(ctx, Request{SessionID: s.ID, Input: "okay"})
	require.NoError(t, err)
	assert.Len(t, result.Questions, 7)
	assert.Equal(t, 1, result.CurrentStep)
	assert.Contains(t, result.Response, "Pneumonia/Acute Respiratory Infection")

	// Step 1: answers are scored and the recommendation is produced.
	result, err = o.Process(ctx, Request{
		SessionID: s.ID,
		Input:     "here are the answers",
		Responses: []string{
			"65 breaths per minute",
			"moderate chest indrawing",
			"frequent grunting",
			"normal color",
			"poor feeding",
		},
		AgeDays: 45,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Screening)
	assert.Equal(t, "high", string(result.Screening.RiskLevel))
	assert.Equal(t, 3, result.CurrentStep)
	assert.Contains(t, result.Response, "Risk Level: High")
	assert.Contains(t, result.Response, "Seek immediate medical attention")

	stored, _ := store.Get(ctx, s.ID)
	require.NotNil(t, stored.ScreeningData["pneumonia_ari"].Result)

	// Step 3: further questions are answered with advice on top of the
	// stored screening result.
	result, err = o.Process(ctx, Request{SessionID: s.ID, Input: "what can we do at home"})
	require.NoError(t, err)
	require.NotNil(t, result.Advice)
	assert.Contains(t, result.Response, "Home care: Offer small frequent feeds.")
}

func TestScreeningWithoutCondition(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrchestrator(llm.NewMockClient(adviceJSON))

	s, _ := store.Create(ctx)
	_, _ = session.SetFlow(ctx, store, s.ID, session.FlowScreening)

	result, err := o.Process(ctx, Request{SessionID: s.ID, Input: "hello"})
	require.NoError(t, err)
	assert.True(t, result.Err)
	assert.Contains(t, result.Response, "I'm not sure which condition")
}

func TestFollowUpFlow(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrchestrator(llm.NewMockClient(adviceJSON))

	s, _ := store.Create(ctx)
	_, _ = session.SetFlow(ctx, store, s.ID, session.FlowFollowUp)

	result, err := o.Process(ctx, Request{SessionID: s.ID, Input: "the medicine finished, now what"})
	require.NoError(t, err)

	require.NotNil(t, result.Advice)
	assert.Contains(t, result.Response, "For ongoing care: Offer small frequent feeds.")
	assert.Equal(t, session.FlowFollowUp, result.FlowType)
}

func TestRedFlagFlowWithoutFlagsRevertsToTriage(t *testing.T) {
	ctx := context.Background()
	o, store := newTestOrchestrator(llm.NewMockClient(triageJSON))

	s, _ := store.Create(ctx)
	_, _ = session.SetFlow(ctx, store, s.ID, session.FlowRedFlag)

	result, err := o.Process(ctx, Request{SessionID: s.ID, Input: "the baby has a cough"})
	require.NoError(t, err)

	require.NotNil(t, result.Triage)
	assert.Equal(t, session.FlowScreening, result.FlowType)
}
