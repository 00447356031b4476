package llm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
)

// CompileValidationPrompt asks the model whether text is a document of expectedType.
// Only the first few thousand characters are sent.
func CompileValidationPrompt(documentText, expectedType string) string {
	excerpt := TruncateWithMarker(documentText, constants.ValidationTextLimit, "...(truncated)")

	var b strings.Builder
	b.WriteString("You are a document classifier. Analyze the following text and determine:\n\n")
	fmt.Fprintf(&b, "1. Is this a valid %s?\n", expectedType)
	b.WriteString("2. What type of document is this?\n")
	b.WriteString("3. Confidence level (0-100)\n\n")
	b.WriteString("Document text:\n")
	b.WriteString(excerpt)
	b.WriteString("\n\nRespond ONLY with valid JSON:\n{\n")
	b.WriteString("  \"isValid\": true or false,\n")
	fmt.Fprintf(&b, "  \"detectedType\": %q,\n", strings.Join(constants.DocumentTypeLabels, "|"))
	b.WriteString("  \"confidence\": 0-100,\n")
	b.WriteString("  \"reason\": \"brief explanation if not valid\"\n}")
	return b.String()
}

// ValidationVerdict is the classifier's answer after coercion.
type ValidationVerdict struct {
	IsValid      bool
	DetectedType string
	// Score is the confidence as answered, clamped to 0..100. Thresholds compare on it.
	Score        float64
	// Confidence is Score rounded for display.
	Confidence   int
	Reason       string
}

// ParseValidationVerdict decodes a classifier response. isValid must be present;
// confidence is clamped to 0..100.
func ParseValidationVerdict(raw string) (ValidationVerdict, error) {
	obj, err := ParseResponse(raw)
	if err != nil {
		return ValidationVerdict{}, err
	}

	var v ValidationVerdict
	switch t := obj["isValid"].(type) {
	case bool:
		v.IsValid = t
	case string:
		b, perr := strconv.ParseBool(strings.TrimSpace(t))
		if perr != nil {
			return ValidationVerdict{}, &common.ResponseParseError{Raw: raw, Cause: fmt.Errorf("isValid: %w", perr)}
		}
		v.IsValid = b
	default:
		return ValidationVerdict{}, &common.ResponseParseError{Raw: raw, Cause: fmt.Errorf("isValid missing or not a boolean")}
	}

	v.DetectedType, _ = obj["detectedType"].(string)
	v.Reason, _ = obj["reason"].(string)
	if c, ok := numberValue(obj["confidence"]); ok {
		v.Score = clampFloat(c, 0, 100)
		v.Confidence = int(math.Round(v.Score))
	}
	return v, nil
}
