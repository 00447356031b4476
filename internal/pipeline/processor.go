package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/extract"
	"github.com/joseph-ayodele/docfields/internal/llm"
)

// PromptRecorder keeps a history of compiled prompts per template.
type PromptRecorder interface {
	SavePromptVersion(ctx context.Context, v entity.PromptVersion) error
}

// ExtractOptions tune a single extraction.
type ExtractOptions struct {
	// ValidateDocumentType runs the classifier before extraction.
	ValidateDocumentType bool
	Prompt               llm.PromptOptions
}

// Outcome is the result of a successful extraction.
type Outcome struct {
	Data          map[string]string  `json:"data"`
	Validation    *entity.Validation `json:"validation,omitempty"`
	Warnings      []string           `json:"warnings,omitempty"`
	PromptVersion string             `json:"prompt_version"`
	RawResponse   string             `json:"-"`
	Duration      time.Duration      `json:"duration_ns"`
}

// Processor runs one document through text resolution, the optional document
// type check, prompt compilation, the model call and post-processing.
type Processor struct {
	Logger   *slog.Logger
	Text     *TextStage
	Validate *ValidateStage
	Parse    *ParseStage
	Recorder PromptRecorder

	now func() time.Time
}

func NewProcessor(logger *slog.Logger, model llm.Completer, tx extract.TextExtractor, recorder PromptRecorder) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:   logger,
		Text:     NewTextStage(tx, logger),
		Validate: NewValidateStage(model, logger),
		Parse:    NewParseStage(model, logger),
		Recorder: recorder,
		now:      time.Now,
	}
}

// Extract processes doc against tpl. tpl is not modified.
//
// Errors: *common.EmptyDocumentError, *common.NoActiveFieldsError,
// *common.DocumentTypeMismatchError and *common.ExtractionFailedError.
func (p *Processor) Extract(ctx context.Context, doc entity.Document, tpl *entity.Template, opts ExtractOptions) (*Outcome, error) {
	logger := common.LoggerFrom(ctx, p.Logger).With("file", doc.FileName, "template_id", tpl.ID)
	start := p.now()

	text, err := p.Text.Run(ctx, doc)
	if err != nil {
		logger.Info("pipeline.extract.no_text", "error", err)
		return nil, err
	}

	promptOpts := opts.Prompt
	promptOpts.CustomInstructions = mergeInstructions(tpl.Instructions, opts.Prompt.CustomInstructions)
	compiled, err := llm.CompileExtractionPrompt(tpl.Fields, text, tpl.DocumentType, &promptOpts)
	if err != nil {
		var nf *common.NoActiveFieldsError
		if errors.As(err, &nf) {
			nf.TemplateID = tpl.ID
		}
		return nil, err
	}

	logger.Info("pipeline.extract.start",
		"fields", len(compiled.Fields),
		"text_len", len(text),
		"validate", opts.ValidateDocumentType,
		"prompt_version", compiled.Version,
	)

	var (
		validation *entity.Validation
		warnings   []string
	)
	if opts.ValidateDocumentType {
		expected := tpl.DocumentType
		if strings.TrimSpace(expected) == "" {
			expected = entity.DefaultDocumentType
		}
		validation, err = p.Validate.Run(ctx, text, expected)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, validation.Warnings...)
	}

	p.recordPrompt(ctx, logger, tpl.ID, compiled)

	res, err := p.Parse.Run(ctx, compiled)
	if err != nil {
		logger.Error("pipeline.extract.failed", "error", err, "elapsed_ms", p.now().Sub(start).Milliseconds())
		return nil, err
	}
	warnings = append(warnings, res.Warnings...)
	warnings = append(warnings, RequiredFieldWarnings(compiled.Fields, res.Data)...)

	out := &Outcome{
		Data:          res.Data,
		Validation:    validation,
		Warnings:      warnings,
		PromptVersion: compiled.Version,
		RawResponse:   res.Raw,
		Duration:      p.now().Sub(start),
	}
	logger.Info("pipeline.extract.ok",
		"warnings", len(warnings),
		"degraded_validation", validation.Degraded(),
		"elapsed_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

func (p *Processor) recordPrompt(ctx context.Context, logger *slog.Logger, templateID string, compiled llm.CompiledPrompt) {
	if p.Recorder == nil || templateID == "" {
		return
	}
	err := p.Recorder.SavePromptVersion(ctx, entity.PromptVersion{
		TemplateID: templateID,
		Version:    compiled.Version,
		Prompt:     compiled.Shape,
		FieldCount: len(compiled.Fields),
		CreatedAt:  p.now().UTC(),
	})
	if err != nil {
		logger.Warn("pipeline.extract.prompt_history_error", "error", err)
	}
}

// mergeInstructions overlays per-call overrides on the template's trained ones.
func mergeInstructions(trained, override map[string]string) map[string]string {
	if len(trained) == 0 {
		return override
	}
	out := maps.Clone(trained)
	maps.Copy(out, override)
	return out
}
