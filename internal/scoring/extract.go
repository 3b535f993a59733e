package scoring

import (
	"regexp"
	"strconv"
)

// Numeric measurement keys recognized in free-text answers.
const (
	numericRespiratoryRate = "respiratory_rate"
	numericAgeDays         = "age_days"
	numericStoolFrequency  = "stool_frequency"
)

var numericPatterns = map[string][]*regexp.Regexp{
	numericRespiratoryRate: {
		regexp.MustCompile(`(\d+)\s*breaths?\s*per\s*minute`),
		regexp.MustCompile(`(\d+)\s*bpm`),
		regexp.MustCompile(`breathing\s*(\d+)\s*times`),
		regexp.MustCompile(`(\d+)\s*breaths?`),
	},
	numericAgeDays: {
		regexp.MustCompile(`(\d+)\s*days?\s*old`),
		regexp.MustCompile(`age\s*(\d+)\s*days?`),
		regexp.MustCompile(`(\d+)\s*days?\s*of\s*age`),
	},
	numericStoolFrequency: {
		regexp.MustCompile(`(\d+)\s*stools?\s*per\s*day`),
		regexp.MustCompile(`(\d+)\s*times\s*per\s*day`),
		regexp.MustCompile(`(\d+)\s*bowel\s*movements?`),
	},
}

// extractNumbers pulls recognized measurements out of every response.
// For each key the first match across the responses wins.
func extractNumbers(responses []string) map[string]float64 {
	values := make(map[string]float64)
	for _, resp := range responses {
		for key, patterns := range numericPatterns {
			if _, ok := values[key]; ok {
				continue
			}
			for _, re := range patterns {
				m := re.FindStringSubmatch(resp)
				if m == nil {
					continue
				}
				if v, err := strconv.ParseFloat(m[1], 64); err == nil {
					values[key] = v
					break
				}
			}
		}
	}
	return values
}
