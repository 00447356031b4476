package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docfields/internal/common"
)

// buildPDF writes a one-page PDF whose content stream is stream.
func buildPDF(stream string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractorReadsTextLayer(t *testing.T) {
	doc := buildPDF("BT /F1 12 Tf 72 720 Td (Invoice 42 Total 267.35) Tj ET")

	res, err := NewPDFExtractor(nil).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Contains(t, res.Text, "Invoice")
	assert.Contains(t, res.Text, "267.35")
}

func TestPDFExtractorNoText(t *testing.T) {
	doc := buildPDF("0 0 m 100 100 l S")

	_, err := NewPDFExtractor(nil).Extract(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoExtractableText))
	assert.Contains(t, err.Error(), "scanned")
}

func TestPDFExtractorRejectsNonPDF(t *testing.T) {
	_, err := NewPDFExtractor(nil).Extract(context.Background(), []byte("hello, plain text"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestPDFExtractorMalformed(t *testing.T) {
	_, err := NewPDFExtractor(nil).Extract(context.Background(), []byte("%PDF-1.4\ngarbage without xref"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read pdf")
}
