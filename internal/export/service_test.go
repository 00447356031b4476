package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

func batchResults() []entity.ExtractionResult {
	ok := func(name string, data map[string]string) entity.ExtractionResult {
		return entity.ExtractionResult{FileName: name, Status: constants.ResultStatusSuccess, Data: data}
	}
	return []entity.ExtractionResult{
		ok("a.pdf", map[string]string{"invoiceNo": "INV-1", "invoiceAmount": "267.35", "taxInvoiceDate": "2024-03-01"}),
		{FileName: "broken.pdf", Status: constants.ResultStatusError, Error: "model unavailable"},
		ok("b.pdf", map[string]string{"invoiceNo": `12345678901234567890`, "orderId": `say "hi", ok`}),
	}
}

func exportTemplate() *entity.Template {
	tpl := entity.DefaultTemplate()
	tpl.Fields[0].Enabled = false // Order ID
	return tpl
}

func TestRows(t *testing.T) {
	s := NewService(nil)
	rows, err := s.Rows(batchResults(), exportTemplate(), Options{IncludeHeaders: true, IncludeFilename: true})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Filename", "Invoice NO.", "Tax Invoice Date", "Invoice Amount"},
		{"a.pdf", "INV-1", "2024-03-01", "267.35"},
		{"b.pdf", "12345678901234567890", "", ""},
	}, rows)

	rows, err = s.Rows(batchResults(), exportTemplate(), Options{Indices: []int{1, 2, 7}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"12345678901234567890", "", ""}}, rows)
}

func TestRowsNothingSelected(t *testing.T) {
	_, err := NewService(nil).Rows(batchResults(), exportTemplate(), Options{Indices: []int{1}})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestExportCSV(t *testing.T) {
	tpl := entity.DefaultTemplate()
	out, err := NewService(nil).Export(context.Background(), FormatCSV, batchResults(), tpl, Options{IncludeHeaders: true})
	require.NoError(t, err)
	assert.Equal(t,
		"Order ID,Invoice NO.,Tax Invoice Date,Invoice Amount\n"+
			",INV-1,2024-03-01,267.35\n"+
			"\"say \"\"hi\"\", ok\",12345678901234567890,,\n",
		string(out))
}

func TestExportTSV(t *testing.T) {
	out, err := NewService(nil).Export(context.Background(), FormatTSV, batchResults()[:1], exportTemplate(), Options{IncludeHeaders: true, IncludeFilename: true})
	require.NoError(t, err)
	assert.Equal(t,
		"Filename\tInvoice NO.\tTax Invoice Date\tInvoice Amount\n"+
			"=\"a.pdf\"\t=\"INV-1\"\t=\"2024-03-01\"\t=\"267.35\"\n",
		string(out))
}

func TestExportXLSX(t *testing.T) {
	out, err := NewService(nil).Export(context.Background(), FormatXLSX, batchResults(), exportTemplate(), Options{IncludeHeaders: true})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Invoice NO.", "Tax Invoice Date", "Invoice Amount"}, rows[0])
	assert.Equal(t, "12345678901234567890", rows[2][0], "long ids stay text")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, " xlsx ": FormatXLSX, "tsv": FormatTSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
}

func TestFileName(t *testing.T) {
	s := NewService(nil)
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	assert.Equal(t, "standard-invoice_batch_1700000000000.csv", s.FileName(entity.DefaultTemplate(), FormatCSV))
	assert.Equal(t, "extraction_batch_1700000000000.xlsx", s.FileName(&entity.Template{Name: "!!"}, FormatXLSX))
}
