// Package training scores a template against user-reviewed extractions and
// suggests which fields need better instructions.
package training

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docfields/internal/entity"
)

const (
	// SuccessThreshold is the success percentage below which a field gets a suggestion.
	SuccessThreshold = 70.0

	DefaultContextChars = 50

	minSamplesForSuggestion = 2
)

// FieldExtraction is the model's value for one field in one sample.
type FieldExtraction struct {
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
	Source     string `json:"source,omitempty"`
}

// Sample is one reviewed document.
type Sample struct {
	ID                string                     `json:"id"`
	FileName          string                     `json:"file_name"`
	Text              string                     `json:"text,omitempty"`
	Extracted         map[string]FieldExtraction `json:"extracted_fields"`
	Corrections       map[string]string          `json:"user_corrections"`
	Reviewed          bool                       `json:"reviewed"`
	OverallConfidence float64                    `json:"overall_confidence"`
}

// Rate counts successful extractions of a field.
type Rate struct {
	Success int `json:"success"`
	Total   int `json:"total"`
}

// Percent is 0 when nothing was counted.
func (r Rate) Percent() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Success) / float64(r.Total) * 100
}

type SuggestionKind string

const (
	SuggestionDescription SuggestionKind = "description"
	SuggestionType        SuggestionKind = "type"
	SuggestionRequired    SuggestionKind = "required"
)

type Suggestion struct {
	FieldKey   string         `json:"field_key"`
	FieldName  string         `json:"field_name"`
	Kind       SuggestionKind `json:"type"`
	Suggestion string         `json:"suggestion"`
	Reason     string         `json:"reason"`
}

type Results struct {
	FieldSuccessRates map[string]Rate `json:"field_success_rates"`
	Suggestions       []Suggestion    `json:"suggestions"`
	AverageConfidence float64         `json:"average_confidence"`
}

// CalculateResults scores every template field over samples. A field counts as
// a success when the model returned a non-blank value and the user either left
// it uncorrected or corrected it to the same value.
func CalculateResults(samples []Sample, tpl *entity.Template) Results {
	res := Results{
		FieldSuccessRates: make(map[string]Rate, len(tpl.Fields)),
		Suggestions:       []Suggestion{},
	}

	var confidence float64
	for _, s := range samples {
		confidence += s.OverallConfidence
		for _, f := range tpl.Fields {
			rate := res.FieldSuccessRates[f.Key]
			rate.Total++
			extracted, ok := s.Extracted[f.Key]
			corrected := s.Corrections[f.Key]
			if ok && strings.TrimSpace(extracted.Value) != "" && (corrected == "" || corrected == extracted.Value) {
				rate.Success++
			}
			res.FieldSuccessRates[f.Key] = rate
		}
	}
	for _, f := range tpl.Fields {
		if _, ok := res.FieldSuccessRates[f.Key]; !ok {
			res.FieldSuccessRates[f.Key] = Rate{}
		}
	}

	for _, f := range tpl.Fields {
		rate := res.FieldSuccessRates[f.Key]
		pct := rate.Percent()
		if pct >= SuccessThreshold || rate.Total < minSamplesForSuggestion {
			continue
		}
		res.Suggestions = append(res.Suggestions, Suggestion{
			FieldKey:   f.Key,
			FieldName:  f.Name,
			Kind:       SuggestionDescription,
			Suggestion: "Try adding more details about where this field appears in the document",
			Reason:     fmt.Sprintf("Only %.0f%% success rate (%d/%d samples)", pct, rate.Success, rate.Total),
		})
	}

	res.AverageConfidence = confidence / float64(max(len(samples), 1))
	return res
}

// FindTextContext returns the first case-insensitive occurrence of value in
// text with up to n characters on either side, marking cut ends with "...".
func FindTextContext(text, value string, n int) (string, bool) {
	if text == "" || value == "" {
		return "", false
	}
	haystack := []rune(strings.ToLower(text))
	needle := []rune(strings.ToLower(value))
	idx := runeIndex(haystack, needle)
	if idx < 0 {
		return "", false
	}

	runes := []rune(text)
	start := max(0, idx-n)
	end := min(len(runes), idx+len(needle)+n)

	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out, true
}

func runeIndex(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if haystack[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
