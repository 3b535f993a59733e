// Package classify routes a parent's message into one of the conversation
// contexts: screenable medical, non-screenable medical, non-medical,
// follow-up, or consult. It is a pure keyword classifier; precedence between
// rules is fixed and the default is safety-biased toward screening.
package classify

import (
	"fmt"
	"strings"
)

// Context is the classified routing bucket for an utterance.
type Context string

const (
	ContextScreenable    Context = "medical_screenable"
	ContextNonScreenable Context = "medical_non_screenable"
	ContextNonMedical    Context = "non_medical"
	ContextFollowUp      Context = "follow_up"
	ContextConsult       Context = "consult"
)

// Confidence grades how certain the classification is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Result is the classification outcome.
type Result struct {
	Context    Context    `json:"classified_context"`
	Reasoning  string     `json:"reasoning"`
	Confidence Confidence `json:"confidence"`
	// Conditions lists matched screenable conditions, most relevant first.
	Conditions []string `json:"detected_conditions,omitempty"`
	// NextAction and ExpertType hint the caller at the appropriate handler.
	NextAction string `json:"next_action,omitempty"`
	ExpertType string `json:"expert_type,omitempty"`
}

// Classify analyzes an utterance. Precedence, first match wins:
// emergency indicators, follow-up keywords, consult keywords, interrogative
// with no screenable match, screenable taxonomy, non-screenable medical
// taxonomy, non-medical taxonomy, then the screenable low-confidence default.
func Classify(input string) Result {
	lower := strings.ToLower(input)

	if containsAny(lower, emergencyIndicators) {
		return annotate(Result{
			Context:    ContextNonScreenable,
			Reasoning:  "Contains emergency indicators requiring immediate medical attention",
			Confidence: ConfidenceHigh,
		})
	}

	if containsAny(lower, followUpKeywords) {
		return annotate(Result{
			Context:    ContextFollowUp,
			Reasoning:  "Detected follow-up intent",
			Confidence: ConfidenceHigh,
		})
	}

	if containsAny(lower, consultKeywords) {
		return annotate(Result{
			Context:    ContextConsult,
			Reasoning:  "Detected consult/advice intent",
			Confidence: ConfidenceHigh,
		})
	}

	var conditions []string
	for _, sc := range screenableConditions {
		if containsAny(lower, sc.Keywords) {
			conditions = append(conditions, sc.Condition)
		}
	}

	if isQuestion(lower) && len(conditions) == 0 {
		return annotate(Result{
			Context:    ContextConsult,
			Reasoning:  "Message is a question and not a clear screenable symptom",
			Confidence: ConfidenceMedium,
		})
	}

	if len(conditions) > 0 {
		names := make([]string, len(conditions))
		for i, c := range conditions {
			names[i] = strings.ReplaceAll(c, "_", " ")
		}
		return annotate(Result{
			Context:    ContextScreenable,
			Reasoning:  fmt.Sprintf("Mentions %s which can be screened using our system", strings.Join(names, ", ")),
			Confidence: ConfidenceHigh,
			Conditions: conditions,
		})
	}

	if matches := matchAll(lower, nonScreenableMedical); len(matches) > 0 {
		return annotate(Result{
			Context:    ContextNonScreenable,
			Reasoning:  fmt.Sprintf("Medical concerns (%s) outside our screening scope", strings.Join(head(matches, 3), ", ")),
			Confidence: ConfidenceHigh,
			Conditions: matches,
		})
	}

	if matches := matchAll(lower, nonMedicalConcerns); len(matches) > 0 {
		return annotate(Result{
			Context:    ContextNonMedical,
			Reasoning:  fmt.Sprintf("Non-medical parenting concerns (%s)", strings.Join(head(matches, 3), ", ")),
			Confidence: ConfidenceHigh,
			Conditions: matches,
		})
	}

	// Ambiguous input is never silently dropped.
	return annotate(Result{
		Context:    ContextScreenable,
		Reasoning:  "Unclear symptoms - defaulting to medical screening for safety",
		Confidence: ConfidenceLow,
	})
}

func annotate(r Result) Result {
	switch r.Context {
	case ContextScreenable:
		r.NextAction = "Proceed with medical screening using the triage system"
		r.ExpertType = "Medical screening assistant"
	case ContextNonScreenable:
		r.NextAction = "Recommend consultation with an appropriate medical specialist"
		r.ExpertType = "Medical specialist referral"
	case ContextNonMedical:
		r.NextAction = "Provide parenting guidance and behavioral support"
		r.ExpertType = "Parenting consultant"
	case ContextFollowUp:
		r.NextAction = "Continue with follow-up guidance using prior session context"
		r.ExpertType = "Follow-up assistant"
	case ContextConsult:
		r.NextAction = "Provide general advice and recommend professional consultation"
		r.ExpertType = "Pediatric advice assistant"
	}
	return r
}

func isQuestion(lower string) bool {
	trimmed := strings.TrimSpace(lower)
	for _, p := range questionPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func matchAll(text string, phrases []string) []string {
	var out []string
	for _, p := range phrases {
		if strings.Contains(text, p) {
			out = append(out, p)
		}
	}
	return out
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
