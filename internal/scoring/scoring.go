// Package scoring implements weighted severity scoring for the screenable
// infant conditions. Each condition defines ordered symptom dimensions; a
// caregiver's answers are classified per dimension into a severity level,
// weighted, adjusted for age and symptom interactions, and mapped onto
// age-banded risk thresholds.
package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCondition is returned when a condition name is not in the table.
var ErrUnknownCondition = errors.New("scoring: unknown condition")

// AgeGroup bands drive both the score multiplier and the risk thresholds.
// Younger infants deteriorate faster, so their scores are amplified and
// their thresholds sit lower.
type AgeGroup string

const (
	AgeNeonatal    AgeGroup = "neonatal"     // 0-28 days
	AgeYoungInfant AgeGroup = "young_infant" // 29-90 days
	AgeOlderInfant AgeGroup = "older_infant" // 91+ days
)

// defaultAgeDays is assumed when no age is supplied or extractable.
const defaultAgeDays = 30

// RiskLevel is the banded outcome of a screening score.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "high"
	RiskMedium  RiskLevel = "medium"
	RiskLow     RiskLevel = "low"
	RiskMinimal RiskLevel = "minimal"
)

// Urgency grades how fast care should be sought for a risk level.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
	UrgencyRoutine   Urgency = "routine"
	UrgencyMonitor   Urgency = "monitor"
)

// Thresholds are percentage cutoffs for low/medium/high risk.
type Thresholds struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// QuestionType distinguishes yes/no prompts from free-text ones.
type QuestionType string

const (
	QuestionYesNo       QuestionType = "yes_no"
	QuestionDescriptive QuestionType = "descriptive"
)

// Question is one screening prompt shown to the caregiver.
type Question struct {
	Text string       `json:"question"`
	Type QuestionType `json:"type"`
}

// Recommendation is the care advice derived from a risk level, enriched with
// condition-specific guidance.
type Recommendation struct {
	Action          string `json:"action"`
	Timeframe       string `json:"timeframe"`
	Priority        string `json:"priority"`
	Monitoring      string `json:"monitoring,omitempty"`
	WarningSigns    string `json:"warning_signs,omitempty"`
	ComfortMeasures string `json:"comfort_measures,omitempty"`
}

// Result is the full outcome of scoring one screening.
type Result struct {
	Condition             string            `json:"condition"`
	RiskLevel             RiskLevel         `json:"risk_level"`
	Urgency               Urgency           `json:"urgency"`
	RiskPercent           float64           `json:"risk_percentage"`
	RawScore              float64           `json:"raw_score"`
	MaxScore              float64           `json:"max_possible_score"`
	AgeGroup              AgeGroup          `json:"age_group"`
	AgeMultiplier         float64           `json:"age_multiplier"`
	InteractionMultiplier float64           `json:"interaction_multiplier"`
	ThresholdsUsed        Thresholds        `json:"thresholds_used"`
	Severities            map[string]string `json:"classified_severities"`
	Recommendation        Recommendation    `json:"recommendation"`
}

type severityLevel struct {
	Name     string
	Weight   float64
	Keywords []string
}

type numericLevel struct {
	Above float64
	Level string
}

// dimension is one symptom axis of a condition. Levels are ordered most
// severe first; the last level is the default. When Numeric is set and the
// responses contain a matching measurement, NumericLevels take precedence
// over keyword matching.
type dimension struct {
	Name          string
	Numeric       string
	NumericLevels []numericLevel
	Levels        []severityLevel
}

// interaction multiplies the score when two dimensions are simultaneously in
// dangerous levels. Compound presentations outrank the sum of their parts.
type interaction struct {
	DimA    string
	LevelsA []string
	DimB    string
	LevelsB []string
	Factor  float64
}

type guidance struct {
	Monitoring      string
	WarningSigns    string
	ComfortMeasures string
}

type conditionSpec struct {
	Name         string
	DisplayName  string
	Dimensions   []dimension
	Interactions []interaction
	Thresholds   map[AgeGroup]Thresholds
	Guidance     guidance
	Questions    []Question
}

var baseRecommendations = map[RiskLevel]Recommendation{
	RiskHigh:    {Action: "Seek immediate medical attention", Timeframe: "Within 1-2 hours", Priority: "Emergency"},
	RiskMedium:  {Action: "Consult pediatrician soon", Timeframe: "Within 24 hours", Priority: "High"},
	RiskLow:     {Action: "Schedule routine check-up", Timeframe: "Within 1 week", Priority: "Medium"},
	RiskMinimal: {Action: "Monitor symptoms", Timeframe: "Continue monitoring", Priority: "Low"},
}

// Engine scores screenings against the condition table. The table is built
// once at construction and never mutated, so an Engine is safe for
// concurrent use.
type Engine struct {
	specs map[string]*conditionSpec
	order []string
}

// NewEngine builds the condition table.
func NewEngine() *Engine {
	e := &Engine{specs: make(map[string]*conditionSpec)}
	for _, spec := range conditionTable() {
		e.specs[spec.Name] = spec
		e.order = append(e.order, spec.Name)
	}
	return e
}

// Conditions lists the screenable condition names in table order.
func (e *Engine) Conditions() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// DisplayName returns the human-readable name for a condition.
func (e *Engine) DisplayName(condition string) (string, error) {
	spec, ok := e.specs[condition]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCondition, condition)
	}
	return spec.DisplayName, nil
}

// Questions returns the screening questions for a condition.
func (e *Engine) Questions(condition string) ([]Question, error) {
	spec, ok := e.specs[condition]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCondition, condition)
	}
	out := make([]Question, len(spec.Questions))
	copy(out, spec.Questions)
	return out, nil
}

// Score evaluates a set of caregiver responses for one condition. Responses
// are positional: responses[i] answers the condition's i-th dimension.
// Dimensions without a response are excluded from both the raw score and the
// maximum, so partial answer sets still yield a calibrated percentage.
// ageDays <= 0 means unknown; an age extracted from the responses, or the
// young-infant default, is used instead.
func (e *Engine) Score(condition string, responses []string, ageDays int) (Result, error) {
	spec, ok := e.specs[condition]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCondition, condition)
	}

	lowered := make([]string, len(responses))
	for i, r := range responses {
		lowered[i] = strings.ToLower(r)
	}
	numbers := extractNumbers(lowered)

	age := float64(ageDays)
	if age <= 0 {
		if v, ok := numbers[numericAgeDays]; ok {
			age = v
		} else {
			age = defaultAgeDays
		}
	}
	group, multiplier := ageBand(age)

	severities := make(map[string]string)
	var raw, max float64
	for i, dim := range spec.Dimensions {
		if i >= len(lowered) {
			break
		}
		level := classifyDimension(dim, lowered[i], numbers)
		severities[dim.Name] = level
		raw += dim.weightOf(level)
		max += dim.maxWeight()
	}

	factor := 1.0
	for _, in := range spec.Interactions {
		if levelIn(severities[in.DimA], in.LevelsA) && levelIn(severities[in.DimB], in.LevelsB) {
			factor *= in.Factor
		}
	}

	adjusted := raw * multiplier * factor
	var percent float64
	if max > 0 {
		percent = adjusted / max * 100
		if percent > 100 {
			percent = 100
		}
	}

	thresholds := spec.Thresholds[group]
	risk := riskFor(percent, thresholds)
	rec := baseRecommendations[risk]
	rec.Monitoring = spec.Guidance.Monitoring
	rec.WarningSigns = spec.Guidance.WarningSigns
	rec.ComfortMeasures = spec.Guidance.ComfortMeasures

	return Result{
		Condition:             condition,
		RiskLevel:             risk,
		Urgency:               urgencyFor(risk),
		RiskPercent:           percent,
		RawScore:              raw,
		MaxScore:              max,
		AgeGroup:              group,
		AgeMultiplier:         multiplier,
		InteractionMultiplier: factor,
		ThresholdsUsed:        thresholds,
		Severities:            severities,
		Recommendation:        rec,
	}, nil
}

// classifyDimension resolves a response to a severity level name. A numeric
// measurement, when present, beats keyword matching.
func classifyDimension(dim dimension, response string, numbers map[string]float64) string {
	if dim.Numeric != "" {
		if v, ok := numbers[dim.Numeric]; ok {
			for _, nl := range dim.NumericLevels {
				if v > nl.Above {
					return nl.Level
				}
			}
			return dim.Levels[len(dim.Levels)-1].Name
		}
	}
	for _, lvl := range dim.Levels {
		for _, kw := range lvl.Keywords {
			if strings.Contains(response, kw) {
				return lvl.Name
			}
		}
	}
	return dim.Levels[len(dim.Levels)-1].Name
}

func (d dimension) weightOf(level string) float64 {
	for _, lvl := range d.Levels {
		if lvl.Name == level {
			return lvl.Weight
		}
	}
	return 0
}

func (d dimension) maxWeight() float64 {
	var max float64
	for _, lvl := range d.Levels {
		if lvl.Weight > max {
			max = lvl.Weight
		}
	}
	return max
}

func ageBand(ageDays float64) (AgeGroup, float64) {
	switch {
	case ageDays <= 28:
		return AgeNeonatal, 1.5
	case ageDays <= 90:
		return AgeYoungInfant, 1.3
	default:
		return AgeOlderInfant, 1.0
	}
}

func riskFor(percent float64, t Thresholds) RiskLevel {
	switch {
	case percent >= t.High:
		return RiskHigh
	case percent >= t.Medium:
		return RiskMedium
	case percent >= t.Low:
		return RiskLow
	default:
		return RiskMinimal
	}
}

func urgencyFor(risk RiskLevel) Urgency {
	switch risk {
	case RiskHigh:
		return UrgencyImmediate
	case RiskMedium:
		return UrgencySoon
	case RiskLow:
		return UrgencyRoutine
	default:
		return UrgencyMonitor
	}
}

func levelIn(level string, set []string) bool {
	for _, s := range set {
		if level == s {
			return true
		}
	}
	return false
}
