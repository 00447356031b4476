package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/extract"
)

// TextStage resolves the text of a document, extracting it from the raw bytes
// when the caller didn't supply it.
type TextStage struct {
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewTextStage(tx extract.TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{TextExtractor: tx, Logger: logger}
}

// Run returns non-blank text, an *common.EmptyDocumentError, or an
// *common.ExtractionFailedError when the extractor itself fails.
func (s *TextStage) Run(ctx context.Context, doc entity.Document) (string, error) {
	if doc.HasText() {
		return doc.Text, nil
	}
	if len(doc.Content) == 0 {
		return "", &common.EmptyDocumentError{FileName: doc.FileName}
	}
	if s.TextExtractor == nil {
		return "", fmt.Errorf("no text extractor configured for %q: %w", doc.FileName, common.ErrInvalidInput)
	}

	res, err := s.TextExtractor.Extract(ctx, doc.Content)
	if err != nil {
		if errors.Is(err, extract.ErrNoExtractableText) {
			return "", &common.EmptyDocumentError{FileName: doc.FileName, Cause: err}
		}
		return "", &common.ExtractionFailedError{Cause: fmt.Errorf("extract text from %q: %w", doc.FileName, err)}
	}
	for _, w := range res.Warnings {
		s.Logger.Warn("pipeline.text.warning", "file", doc.FileName, "warning", w)
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", &common.EmptyDocumentError{FileName: doc.FileName}
	}
	s.Logger.Debug("pipeline.text.ok", "file", doc.FileName, "pages", res.Pages, "chars", len(res.Text))
	return res.Text, nil
}
