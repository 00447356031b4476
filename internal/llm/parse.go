package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docfields/internal/common"
)

const fence = "```"

// Unfence trims raw and removes a surrounding markdown code fence (``` or ```json).
func Unfence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		// optional language tag, e.g. json
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		})
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, fence) {
		s = strings.TrimSpace(strings.TrimSuffix(s, fence))
	}
	return s
}

// ParseJSON unfences raw and strictly decodes it into v. Numbers decoded into
// interface values are json.Number. Any failure is a *common.ResponseParseError.
func ParseJSON(raw string, v any) error {
	body := Unfence(raw)
	if body == "" {
		return &common.ResponseParseError{Raw: raw, Cause: errors.New("empty response")}
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &common.ResponseParseError{Raw: raw, Cause: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return &common.ResponseParseError{Raw: raw, Cause: errors.New("unexpected data after JSON value")}
	}
	return nil
}

// ParseResponse decodes a model response that must be a JSON object.
func ParseResponse(raw string) (map[string]any, error) {
	var v any
	if err := ParseJSON(raw, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &common.ResponseParseError{Raw: raw, Cause: fmt.Errorf("expected a JSON object, got %T", v)}
	}
	return obj, nil
}

// numberValue reads a loosely typed numeric value (number or numeric string).
func numberValue(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// NumberOr returns v rounded to an int, or def when v is not numeric.
// Magnitudes beyond ±2^53 saturate so the conversion stays defined.
func NumberOr(v any, def int) int {
	f, ok := numberValue(v)
	if !ok || math.IsNaN(f) {
		return def
	}
	return int(math.Round(clampFloat(f, -maxExactInt, maxExactInt)))
}

const maxExactInt = 1 << 53

func clampFloat(f, lo, hi float64) float64 {
	switch {
	case math.IsNaN(f):
		return lo
	case f < lo:
		return lo
	case f > hi:
		return hi
	}
	return f
}
