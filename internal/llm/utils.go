package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// truncateRunes cuts s to at most n runes and reports whether it did.
func truncateRunes(s string, n int) (string, bool) {
	if n <= 0 {
		return "", s != ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// TruncateWithMarker cuts s to n runes and appends marker when something was dropped.
func TruncateWithMarker(s string, n int, marker string) string {
	cut, truncated := truncateRunes(s, n)
	if truncated {
		return cut + marker
	}
	return cut
}

// quoteJSON encodes s as a JSON string literal without HTML escaping.
func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
