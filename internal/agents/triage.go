// Package agents contains the LLM-backed assistants: triage scoring of a
// free-text symptom description and advice generation. Each agent owns its
// prompt and parses the model's JSON into a typed result.
package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pukaarhealth/pukaar/internal/llm"
)

const triagePrompt = `You are a triage assistant for infant health screening. You must only use screening logic based on observational criteria that are scientifically validated by IMNCI, WHO, and IAP guidelines.

Important: You must not offer a diagnosis. This tool is for screening potential signs only.

Analyze the parent's free-text description and assign a likelihood (0-100%%) to:
- Pneumonia / ARI
- Diarrhea
- Malnutrition
- Neonatal Sepsis
- Neonatal Jaundice
- Looks Normal

Return a JSON response with these percentages, a "response" message for the parent, and a brief explanation. If unrelated (e.g., teething, reflux), output:
{"screenable": false, "other_issue_detected": true, "response": "Please consult a pediatrician for evaluation."}

Parent's description: %s`

// TriageResult is the model's likelihood assessment across the screenable
// conditions. Screenable is nil when the model omitted the field, which
// means the description was screenable.
type TriageResult struct {
	Screenable   *bool   `json:"screenable,omitempty"`
	OtherIssue   bool    `json:"other_issue_detected,omitempty"`
	Response     string  `json:"response,omitempty"`
	Explanation  string  `json:"explanation,omitempty"`
	PneumoniaARI float64 `json:"Pneumonia / ARI"`
	Diarrhea     float64 `json:"Diarrhea"`
	Malnutrition float64 `json:"Malnutrition"`
	Sepsis       float64 `json:"Neonatal Sepsis"`
	Jaundice     float64 `json:"Neonatal Jaundice"`
	LooksNormal  float64 `json:"Looks Normal"`
}

// IsScreenable reports whether the screening flow should continue.
func (t *TriageResult) IsScreenable() bool {
	return t.Screenable == nil || *t.Screenable
}

// Top returns the condition with the highest likelihood as the internal
// condition name, plus its score.
func (t *TriageResult) Top() (string, float64) {
	top, score := "pneumonia_ari", t.PneumoniaARI
	for _, c := range []struct {
		name  string
		score float64
	}{
		{"diarrhea", t.Diarrhea},
		{"malnutrition", t.Malnutrition},
		{"neonatal_sepsis", t.Sepsis},
		{"neonatal_jaundice", t.Jaundice},
	} {
		if c.score > score {
			top, score = c.name, c.score
		}
	}
	return top, score
}

// Triage asks the model to assess a symptom description.
func Triage(ctx context.Context, client llm.Client, input string) (*TriageResult, error) {
	content, err := client.Complete(ctx, fmt.Sprintf(triagePrompt, input))
	if err != nil {
		return nil, fmt.Errorf("triage completion: %w", err)
	}

	raw, ok := llm.ExtractJSON(content)
	if !ok {
		return nil, llm.NewError(client.Name(), llm.ErrorCodeInvalidResponse, "could not extract JSON from response", nil)
	}

	var result TriageResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, llm.NewError(client.Name(), llm.ErrorCodeInvalidResponse, "invalid JSON in response", err)
	}
	return &result, nil
}
