package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pukaarhealth/pukaar/internal/llm"
)

const advicePrompt = `You are a pediatric advice assistant providing evidence-based guidance for infant and child health concerns.

Important: Do not diagnose conditions. Provide only general guidance based on scientifically validated information from reputable medical sources.

For any serious concerns, always recommend consulting a healthcare professional.

Return a JSON response with:
{
    "advice": "General guidance on managing the condition",
    "home_care": "Appropriate home care measures if applicable",
    "when_to_consult": "Clear guidance on when to seek professional help",
    "prevention": "Preventive measures if applicable",
    "references": ["List of medical guidelines or sources used"]
}

Condition: %s

Parent's concern: %s`

// Advice is the model's guidance for a concern.
type Advice struct {
	Advice        string   `json:"advice"`
	HomeCare      string   `json:"home_care,omitempty"`
	WhenToConsult string   `json:"when_to_consult,omitempty"`
	Prevention    string   `json:"prevention,omitempty"`
	References    []string `json:"references,omitempty"`
}

// GetAdvice asks the model for guidance on a concern. The condition may be a
// screenable condition name or a topic like "general", "parenting",
// "emergency", or "follow_up".
func GetAdvice(ctx context.Context, client llm.Client, condition, input string) (*Advice, error) {
	content, err := client.Complete(ctx, fmt.Sprintf(advicePrompt, condition, input))
	if err != nil {
		return nil, fmt.Errorf("advice completion: %w", err)
	}

	raw, ok := llm.ExtractJSON(content)
	if !ok {
		return nil, llm.NewError(client.Name(), llm.ErrorCodeInvalidResponse, "could not extract JSON from response", nil)
	}

	var advice Advice
	if err := json.Unmarshal([]byte(raw), &advice); err != nil {
		return nil, llm.NewError(client.Name(), llm.ErrorCodeInvalidResponse, "invalid JSON in response", err)
	}
	return &advice, nil
}
