package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/docfields/internal/common"
)

var pdfMagic = []byte("%PDF-")

// PDFExtractor reads the text layer of a PDF. Scanned PDFs without one fail
// with ErrNoExtractableText; there is no OCR fallback.
type PDFExtractor struct {
	logger *slog.Logger
}

var _ TextExtractor = (*PDFExtractor)(nil)

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

func (e *PDFExtractor) Extract(ctx context.Context, content []byte) (res TextExtractionResult, err error) {
	logger := common.LoggerFrom(ctx, e.logger)
	start := time.Now()

	if !bytes.HasPrefix(bytes.TrimLeft(content, "\x00\t\r\n "), pdfMagic) {
		return TextExtractionResult{}, fmt.Errorf("not a PDF document: %w", common.ErrInvalidInput)
	}

	// the pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("extract.pdf.panic", "panic", r)
			res = TextExtractionResult{}
			err = fmt.Errorf("read pdf: malformed document: %v", r)
		}
	}()

	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return TextExtractionResult{}, fmt.Errorf("read pdf: %w", err)
	}

	numPages := pdfReader.NumPage()
	var (
		b        strings.Builder
		warnings []string
	)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return TextExtractionResult{}, err
		}
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, err))
			continue
		}
		if b.Len() > 0 && text != "" {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		logger.Info("extract.pdf.empty", "pages", numPages, "warnings", len(warnings))
		return TextExtractionResult{}, fmt.Errorf("pdf has %d page(s) but %w (scanned or image-only?)", numPages, ErrNoExtractableText)
	}

	res = TextExtractionResult{
		Text:     text,
		Pages:    numPages,
		Method:   "pdf-text",
		Duration: time.Since(start),
		Warnings: warnings,
	}
	logger.Debug("extract.pdf.ok",
		"pages", numPages,
		"chars", len(text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
