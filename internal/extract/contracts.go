package extract

import (
	"context"
	"errors"
	"time"
)

// ErrNoExtractableText is returned when a document parses but carries no text layer.
var ErrNoExtractableText = errors.New("no extractable text")

// TextExtractor turns raw document bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, content []byte) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text"
	Duration time.Duration
	Warnings []string
}
