// Package redflag identifies signs of pediatric medical emergencies in
// free-text parent messages. Matching is deliberately conservative: a missed
// emergency is the failure mode to avoid, so ambiguity resolves toward
// flagging unless the message carries explicit reassurance.
package redflag

import (
	"sort"
	"strings"
)

// Severity of a detected flag.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// EmergencyAdvice is the fixed recommendation attached to every flag.
const EmergencyAdvice = "Rush to emergency immediately"

// Flag is a single detected emergency indicator. Immutable once created.
type Flag struct {
	Type           string   `json:"type"`
	Trigger        string   `json:"trigger"`
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation"`
}

// Result is the outcome of scanning one utterance.
type Result struct {
	Detected       bool   `json:"red_flag_detected"`
	Trigger        string `json:"trigger,omitempty"`
	Recommendation string `json:"recommended_action,omitempty"`
	Flags          []Flag `json:"flags,omitempty"`
}

// Detect scans an utterance for emergency indicators. The pipeline order is
// fixed: category scan with negation and duration filtering, then the
// emergency-language boost, then reassurance suppression, then a
// high-severity-first sort. Reassurance never overrides a high-severity match.
func Detect(input string) Result {
	lower := strings.ToLower(input)

	var flags []Flag
	for _, cat := range categories {
		for _, pattern := range cat.Patterns {
			idx := strings.Index(lower, pattern)
			if idx < 0 {
				continue
			}
			if negatedAt(lower, idx, pattern) {
				continue
			}
			if broadPhrases[pattern] && !hasDurationCue(lower) {
				continue
			}
			flags = append(flags, Flag{
				Type:           cat.Type,
				Trigger:        pattern,
				Severity:       SeverityHigh,
				Recommendation: EmergencyAdvice,
			})
			break
		}
	}

	if phrase := firstMatch(lower, emergencyLanguage); phrase != "" {
		for _, symptom := range concerningSymptoms {
			if strings.Contains(lower, symptom) {
				flags = append(flags, Flag{
					Type:           "emergency_language_" + symptom,
					Trigger:        "emergency language (" + phrase + ") with " + symptom + " concern",
					Severity:       SeverityMedium,
					Recommendation: EmergencyAdvice,
				})
				break
			}
		}
	}

	if !hasHighSeverity(flags) && isReassured(lower) {
		return Result{}
	}
	if len(flags) == 0 {
		return Result{}
	}

	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].Severity == SeverityHigh && flags[j].Severity != SeverityHigh
	})

	return Result{
		Detected:       true,
		Trigger:        flags[0].Trigger,
		Recommendation: EmergencyAdvice,
		Flags:          flags,
	}
}

// negatedAt reports whether the match at idx is cancelled by a negation word
// immediately before the phrase, or by "not" immediately after it. Words
// inside the phrase itself never count.
func negatedAt(text string, idx int, pattern string) bool {
	before := strings.Fields(text[:idx])
	if len(before) > 0 && negations[before[len(before)-1]] {
		return true
	}
	after := strings.Fields(text[idx+len(pattern):])
	return len(after) > 0 && after[0] == "not"
}

func hasDurationCue(text string) bool {
	for _, cue := range durationCues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

func firstMatch(text string, phrases []string) string {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return p
		}
	}
	return ""
}

func hasHighSeverity(flags []Flag) bool {
	for _, f := range flags {
		if f.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// isReassured reports whether the message contains an un-negated reassuring
// phrase ("playing normally", "no fever", ...).
func isReassured(text string) bool {
	for _, p := range reassurances {
		idx := strings.Index(text, p)
		if idx < 0 {
			continue
		}
		before := strings.Fields(text[:idx])
		if len(before) > 0 && negations[before[len(before)-1]] {
			continue
		}
		return true
	}
	return false
}
