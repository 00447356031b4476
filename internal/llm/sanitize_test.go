package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceRecord(t *testing.T) {
	obj, err := ParseResponse(`{"amount": 267.35, "date": " 2024-01-31 ", "paid": true, "note": null, "items": ["a","b"], "extra": "x"}`)
	require.NoError(t, err)

	got, warnings := CoerceRecord([]string{"amount", "date", "paid", "note", "items", "missing"}, obj, nil)
	assert.Equal(t, map[string]string{
		"amount":  "267.35",
		"date":    "2024-01-31",
		"paid":    "true",
		"note":    "",
		"items":   `["a","b"]`,
		"missing": "",
	}, got)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"items"`)
	assert.NotContains(t, got, "extra")
}
