package llm

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docfields/internal/common"
)

func TestUnfence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":"1"}`, `{"a":"1"}`},
		{"json fence", "```json\n{\"a\":\"1\"}\n```", `{"a":"1"}`},
		{"bare fence", "```\n{\"a\":\"1\"}\n```", `{"a":"1"}`},
		{"padded", "  \n```JSON {\"a\":\"1\"}```  \n", `{"a":"1"}`},
		{"no closing fence", "```json\n[1,2]", `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unfence(tt.in))
		})
	}
}

func TestParseResponseFenceRoundTrip(t *testing.T) {
	valid := `{"amount":"267.35","count":3,"paid":true,"note":null}`

	plain, err := ParseResponse(valid)
	require.NoError(t, err)
	fenced, err := ParseResponse("```json\n" + valid + "\n```")
	require.NoError(t, err)
	assert.Equal(t, plain, fenced)

	var std map[string]any
	dec := json.NewDecoder(strings.NewReader(valid))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&std))
	assert.Equal(t, std, plain)
}

func TestParseResponseMalformed(t *testing.T) {
	raw := `Here is the data: {amount: 267.35}`
	_, err := ParseResponse(raw)

	var perr *common.ResponseParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, raw, perr.Raw)
}

func TestParseResponseRejections(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":          "   ",
		"empty fence":    "```json\n```",
		"array":          `[{"a":1}]`,
		"trailing prose": `{"a":"1"} hope this helps`,
		"two objects":    `{"a":"1"}{"b":"2"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse(raw)
			var perr *common.ResponseParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, raw, perr.Raw)
		})
	}
}

func TestParseJSONArray(t *testing.T) {
	var out []map[string]any
	require.NoError(t, ParseJSON("```json\n[{\"suggestedName\":\"Total\"}]\n```", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Total", out[0]["suggestedName"])
}

func TestNumberOr(t *testing.T) {
	assert.Equal(t, 80, NumberOr(json.Number("80"), 50))
	assert.Equal(t, 73, NumberOr("72.6", 50))
	assert.Equal(t, -3, NumberOr(json.Number("-3"), 50))
	assert.Equal(t, 50, NumberOr("high", 50))
	assert.Equal(t, 50, NumberOr(nil, 50))
	assert.Equal(t, 50, NumberOr("NaN", 50))
	assert.Equal(t, 1<<53, NumberOr(json.Number("1e300"), 50))
	assert.Equal(t, -(1 << 53), NumberOr(-1e300, 50))
	assert.Equal(t, 1<<53, NumberOr("+Inf", 50))
}
