package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/llm"
)

// ParseStage runs the extraction call for a compiled prompt and turns the answer
// into one string per expected key.
type ParseStage struct {
	Model  llm.Completer
	Logger *slog.Logger
}

func NewParseStage(model llm.Completer, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{Model: model, Logger: logger}
}

type parseResult struct {
	Data     map[string]string
	Raw      string
	Warnings []string
}

// Run fails only with *common.ExtractionFailedError.
func (s *ParseStage) Run(ctx context.Context, compiled llm.CompiledPrompt) (parseResult, error) {
	logger := common.LoggerFrom(ctx, s.Logger)

	raw, err := s.Model.Complete(ctx, compiled.Prompt, llm.ExtractionOptions)
	if err != nil {
		return parseResult{}, &common.ExtractionFailedError{Cause: err}
	}

	obj, err := llm.ParseResponse(raw)
	if err != nil {
		logger.Warn("pipeline.parse.failed", "error", err, "raw", raw)
		llm.Forget(ctx, s.Model, compiled.Prompt, llm.ExtractionOptions)
		return parseResult{Raw: raw}, &common.ExtractionFailedError{Cause: err, Raw: raw}
	}

	data, warnings := llm.CoerceRecord(compiled.Keys(), obj, logger)

	violations, err := llm.ValidateAgainstSchema(llm.BuildRecordSchema(compiled.Fields), data)
	if err != nil {
		// the schema is built from the template, so this is a programming error
		logger.Error("pipeline.parse.schema_error", "error", err)
	}
	for _, v := range violations {
		warnings = append(warnings, formatViolation(compiled.Fields, v))
	}
	return parseResult{Data: data, Raw: raw, Warnings: warnings}, nil
}

// RequiredFieldWarnings lists every required field whose value is absent or blank.
func RequiredFieldWarnings(fields []entity.Field, data map[string]string) []string {
	var out []string
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if strings.TrimSpace(data[f.Key]) == "" {
			out = append(out, fmt.Sprintf("Required field %q is missing or empty", f.Name))
		}
	}
	return out
}

func formatViolation(fields []entity.Field, v llm.SchemaViolation) string {
	key := v.Key()
	for _, f := range fields {
		if f.Key == key {
			return fmt.Sprintf("Field %q has an unexpected format: %s", f.Name, v.Message)
		}
	}
	return "Extracted record failed validation: " + v.String()
}
