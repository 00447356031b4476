package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/extract"
	"github.com/joseph-ayodele/docfields/internal/llm"
)

const unknownFieldName = "Unknown Field"

// Result is the outcome of a discovery run.
type Result struct {
	Fields []entity.DiscoveredField `json:"discovered_fields"`
	// SamplesAnalyzed is the number of samples sent to the model.
	SamplesAnalyzed int      `json:"samples_analyzed"`
	Samples         []Sample `json:"samples"`
	Intent          string   `json:"user_intent"`
}

// Engine proposes a field list from sample documents.
type Engine struct {
	Model         llm.Completer
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewEngine(model llm.Completer, tx extract.TextExtractor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Model: model, TextExtractor: tx, Logger: logger}
}

// Discover asks the model which fields the samples have in common.
//
// Samples without usable text are skipped; fewer than two usable samples fail
// with *common.InsufficientSamplesError before the model is called. Only the
// first ten usable samples are analysed. Result.Samples carries their full text.
func (e *Engine) Discover(ctx context.Context, docs []entity.Document, intent string) (*Result, error) {
	logger := common.LoggerFrom(ctx, e.Logger)

	if strings.TrimSpace(intent) == "" {
		return nil, fmt.Errorf("describe what you want to extract: %w", common.ErrInvalidInput)
	}
	if len(docs) > constants.DiscoveryMaxFiles {
		return nil, fmt.Errorf("at most %d files allowed, got %d: %w", constants.DiscoveryMaxFiles, len(docs), common.ErrInvalidInput)
	}

	samples := e.collectSamples(ctx, logger, docs)
	if len(samples) < constants.DiscoveryMinSamples {
		return nil, &common.InsufficientSamplesError{Got: len(samples), Need: constants.DiscoveryMinSamples}
	}

	promptSamples := make([]Sample, len(samples))
	for i, s := range samples {
		promptSamples[i] = Sample{
			FileName: s.FileName,
			Text:     llm.TruncateWithMarker(s.Text, constants.DiscoverySampleTextLimit, ""),
		}
	}

	logger.Info("discovery.start", "samples", len(samples), "documents", len(docs))
	prompt := CompileDiscoveryPrompt(intent, promptSamples)
	raw, err := e.Model.Complete(ctx, prompt, llm.DiscoveryOptions)
	if err != nil {
		return nil, &common.ExtractionFailedError{Cause: err}
	}

	entries, err := parseEntries(raw)
	if err != nil {
		logger.Warn("discovery.parse_failed", "error", err, "raw", raw)
		llm.Forget(ctx, e.Model, prompt, llm.DiscoveryOptions)
		return nil, &common.ExtractionFailedError{Cause: err, Raw: raw}
	}

	fields := make([]entity.DiscoveredField, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, normalizeEntry(entry, samples))
	}
	if n := len(fields); n < constants.DiscoveryMinFields || n > constants.DiscoveryMaxFields {
		logger.Info("discovery.field_count_out_of_range",
			"fields", n,
			"min", constants.DiscoveryMinFields,
			"max", constants.DiscoveryMaxFields,
		)
	}
	logger.Info("discovery.ok", "fields", len(fields), "samples", len(samples))

	return &Result{
		Fields:          fields,
		SamplesAnalyzed: len(samples),
		Samples:         samples,
		Intent:          strings.TrimSpace(intent),
	}, nil
}

// collectSamples resolves text for documents in order until enough usable
// samples are found.
func (e *Engine) collectSamples(ctx context.Context, logger *slog.Logger, docs []entity.Document) []Sample {
	var out []Sample
	for _, d := range docs {
		if len(out) == constants.DiscoveryMaxSamples {
			break
		}
		text := d.Text
		if strings.TrimSpace(text) == "" && len(d.Content) > 0 && e.TextExtractor != nil {
			res, err := e.TextExtractor.Extract(ctx, d.Content)
			if err != nil {
				logger.Warn("discovery.sample_skipped", "file", d.FileName, "error", err)
				continue
			}
			text = res.Text
		}
		text = strings.TrimSpace(text)
		if text == "" {
			logger.Info("discovery.sample_skipped", "file", d.FileName, "reason", "no text")
			continue
		}
		out = append(out, Sample{FileName: d.FileName, Text: text})
	}
	return out
}

// parseEntries accepts a JSON array of objects, or an object wrapping one under "fields".
func parseEntries(raw string) ([]map[string]any, error) {
	var v any
	if err := llm.ParseJSON(raw, &v); err != nil {
		return nil, err
	}
	if obj, ok := v.(map[string]any); ok {
		v = obj["fields"]
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &common.ResponseParseError{Raw: raw, Cause: errors.New("expected a JSON array of fields")}
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func normalizeEntry(entry map[string]any, samples []Sample) entity.DiscoveredField {
	name := stringValue(entry["suggestedName"])
	if name == "" {
		name = unknownFieldName
	}
	fieldType, _ := constants.CanonicalizeFieldType(stringValue(entry["suggestedType"]))

	return entity.DiscoveredField{
		SuggestedName:        name,
		SuggestedKey:         entity.DeriveKey(name),
		SuggestedType:        fieldType,
		SuggestedDescription: stringValue(entry["suggestedDescription"]),
		FoundInSamples:       clamp(llm.NumberOr(entry["foundInSamples"], 1), 0, len(samples)),
		SampleValues:         sampleValues(entry["sampleValues"], samples),
		Confidence:           clamp(llm.NumberOr(entry["confidence"], constants.DefaultDiscoveryConfidence), 0, 100),
		Enabled:              true,
		FormatOptions:        entity.FormatOptions{}.WithDefaults(),
	}
}

// sampleValues pairs the model's values with samples by position; missing ones are "".
func sampleValues(v any, samples []Sample) []entity.SampleValue {
	list, _ := v.([]any)
	out := make([]entity.SampleValue, len(samples))
	for i, s := range samples {
		out[i] = entity.SampleValue{FileName: s.FileName}
		if i >= len(list) {
			continue
		}
		item := list[i]
		if m, ok := item.(map[string]any); ok {
			item = m["value"]
		}
		out[i].Value = stringValue(item)
	}
	return out
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
