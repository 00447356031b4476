package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/llm"
)

// ValidateStage asks the model whether a document is of the expected type.
type ValidateStage struct {
	Model  llm.Completer
	Logger *slog.Logger
}

func NewValidateStage(model llm.Completer, logger *slog.Logger) *ValidateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateStage{Model: model, Logger: logger}
}

// Run never fails because the classifier is unavailable: model and parse errors
// produce a degraded verdict. It fails only with *common.DocumentTypeMismatchError
// when the model is confident the document is something else.
func (s *ValidateStage) Run(ctx context.Context, text, expectedType string) (*entity.Validation, error) {
	logger := common.LoggerFrom(ctx, s.Logger)

	prompt := llm.CompileValidationPrompt(text, expectedType)
	raw, err := s.Model.Complete(ctx, prompt, llm.ValidationOptions)
	if err != nil {
		logger.Warn("pipeline.validate.degraded", "reason", "model_error", "error", err)
		return degraded(expectedType, fmt.Sprintf("Document type check unavailable (%v); continuing without it", err)), nil
	}
	verdict, err := llm.ParseValidationVerdict(raw)
	if err != nil {
		logger.Warn("pipeline.validate.degraded", "reason", "parse_error", "error", err, "raw", raw)
		llm.Forget(ctx, s.Model, prompt, llm.ValidationOptions)
		return degraded(expectedType, "Document type check returned an unreadable answer; continuing without it"), nil
	}

	v := &entity.Validation{
		Status:       constants.ValidationStatusValidated,
		IsValid:      verdict.IsValid,
		ExpectedType: expectedType,
		DetectedType: verdict.DetectedType,
		Confidence:   verdict.Confidence,
		Reason:       verdict.Reason,
	}
	if verdict.IsValid {
		logger.Debug("pipeline.validate.ok", "expected", expectedType, "detected", verdict.DetectedType, "confidence", verdict.Confidence)
		return v, nil
	}

	if verdict.Score > constants.MismatchConfidenceThreshold {
		logger.Info("pipeline.validate.rejected",
			"expected", expectedType,
			"detected", verdict.DetectedType,
			"confidence", verdict.Confidence,
		)
		return v, &common.DocumentTypeMismatchError{
			Expected:   expectedType,
			Detected:   verdict.DetectedType,
			Confidence: verdict.Confidence,
			Reason:     verdict.Reason,
		}
	}

	v.Warnings = append(v.Warnings, fmt.Sprintf(
		"Document may not be a %s (detected %s, confidence %d%%)", expectedType, verdict.DetectedType, verdict.Confidence))
	logger.Info("pipeline.validate.low_confidence_mismatch",
		"expected", expectedType,
		"detected", verdict.DetectedType,
		"confidence", verdict.Confidence,
	)
	return v, nil
}

func degraded(expectedType, warning string) *entity.Validation {
	return &entity.Validation{
		Status:       constants.ValidationStatusDegraded,
		IsValid:      true,
		ExpectedType: expectedType,
		Confidence:   constants.DegradedConfidence,
		Warnings:     []string{warning},
	}
}
