package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	// FormatTSV is tab-separated with ="value" cells so spreadsheets keep long
	// numbers as text when pasted.
	FormatTSV Format = "tsv"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatTSV:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown export format %q: %w", s, common.ErrInvalidInput)
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// Options select what goes into an export.
type Options struct {
	IncludeHeaders  bool
	IncludeFilename bool
	// Indices restricts the export to these result positions. Nil means all.
	Indices []int
}

const sheetName = "Results"

// Service renders batch results as spreadsheets. Only successful results are
// exported, one row each, with columns in template field order.
type Service struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, now: time.Now}
}

// Rows builds the table for results: an optional header row, then one row per
// selected successful result. Missing values are empty cells.
func (s *Service) Rows(results []entity.ExtractionResult, tpl *entity.Template, opts Options) ([][]string, error) {
	fields := tpl.EnabledFields()
	selected := selectResults(results, opts.Indices)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no successful results selected: %w", common.ErrInvalidInput)
	}

	var rows [][]string
	if opts.IncludeHeaders {
		header := make([]string, 0, len(fields)+1)
		if opts.IncludeFilename {
			header = append(header, "Filename")
		}
		for _, f := range fields {
			header = append(header, f.Name)
		}
		rows = append(rows, header)
	}
	for _, r := range selected {
		row := make([]string, 0, len(fields)+1)
		if opts.IncludeFilename {
			row = append(row, r.FileName)
		}
		for _, f := range fields {
			row = append(row, r.Data[f.Key])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func selectResults(results []entity.ExtractionResult, indices []int) []entity.ExtractionResult {
	var picked []entity.ExtractionResult
	if indices == nil {
		picked = results
	} else {
		for _, i := range indices {
			if i >= 0 && i < len(results) {
				picked = append(picked, results[i])
			}
		}
	}
	out := make([]entity.ExtractionResult, 0, len(picked))
	for _, r := range picked {
		if r.Status == constants.ResultStatusSuccess && r.Data != nil {
			out = append(out, r)
		}
	}
	return out
}

// Export renders results in format f.
func (s *Service) Export(ctx context.Context, f Format, results []entity.ExtractionResult, tpl *entity.Template, opts Options) ([]byte, error) {
	start := s.now()
	logger := common.LoggerFrom(ctx, s.logger)

	rows, err := s.Rows(results, tpl, opts)
	if err != nil {
		return nil, err
	}

	var out []byte
	switch f {
	case FormatXLSX:
		out, err = renderXLSX(rows, opts.IncludeHeaders)
	case FormatTSV:
		out = renderTSV(rows, opts.IncludeHeaders)
	default:
		out, err = renderCSV(rows)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("export.ok",
		"format", string(f),
		"template_id", tpl.ID,
		"rows", len(rows),
		"elapsed_ms", s.now().Sub(start).Milliseconds(),
	)
	return out, nil
}

// FileName suggests a download name like "standard-invoice_batch_1700000000000.csv".
func (s *Service) FileName(tpl *entity.Template, f Format) string {
	slug := strings.Trim(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, tpl.Name), "-")
	if slug == "" {
		slug = "extraction"
	}
	return fmt.Sprintf("%s_batch_%d.%s", slug, s.now().UnixMilli(), f)
}

func renderCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	return buf.Bytes(), nil
}

var whitespace = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func renderTSV(rows [][]string, headers bool) []byte {
	var b strings.Builder
	for i, row := range rows {
		for j, cell := range row {
			if j > 0 {
				b.WriteByte('\t')
			}
			cell = whitespace.Replace(cell)
			if headers && i == 0 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(`="` + strings.ReplaceAll(cell, `"`, `""`) + `"`)
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func renderXLSX(rows [][]string, headers bool) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	widths := map[int]int{}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			// strings keep ids and amounts exactly as extracted
			if err := f.SetCellStr(sheetName, cell, v); err != nil {
				return nil, err
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(v))
		}
	}

	if headers && len(rows) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err == nil {
			last, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
			_ = f.SetCellStyle(sheetName, "A1", last, style)
		}
	}

	// Widen columns to fit, within reason
	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetColWidth(sheetName, col, col, float64(min(max(w+2, 10), 60)))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
