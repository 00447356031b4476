package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docfields/internal/app"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/discovery"
	"github.com/joseph-ayodele/docfields/internal/entity"
	"github.com/joseph-ayodele/docfields/internal/llm"
	"github.com/joseph-ayodele/docfields/internal/pipeline"
)

const (
	verdictReply   = `{"isValid": true, "detectedType": "invoice", "confidence": 96, "reason": "has a total"}`
	extractReply   = "```json\n{\"orderId\": \"\", \"invoiceNo\": \"INV-9\", \"taxInvoiceDate\": \"2024-01-05\", \"invoiceAmount\": \"12.50\"}\n```"
	discoveryReply = `[
  {"suggestedName": "Supplier", "suggestedType": "text", "foundInSamples": 2, "sampleValues": ["Acme", "Globex"], "confidence": 90},
  {"suggestedName": "Total Due", "suggestedType": "currency", "foundInSamples": 1, "sampleValues": ["10.00"], "confidence": 70}
]`
)

func fakeModel(ctx context.Context, prompt string, _ llm.CompleteOptions) (string, error) {
	switch {
	case strings.HasPrefix(prompt, "You are a document classifier."):
		return verdictReply, nil
	case strings.HasPrefix(prompt, "You are an expert document analyzer."):
		return discoveryReply, nil
	}
	return extractReply, nil
}

// testFactory builds the real app but swaps the model for fakeModel.
func testFactory(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*app.App, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Model = llm.CompleterFunc(fakeModel)
	a.Processor = pipeline.NewProcessor(logger, a.Model, a.Text, a.Templates)
	a.Discovery = discovery.NewEngine(a.Model, a.Text, logger)
	return a, nil
}

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", filepath.Join(dir, "docfields.db"))
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "test-model")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_FILE", "")
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root, e := newRoot(testFactory)
	defer e.close()

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtract_JSON(t *testing.T) {
	dir := setupEnv(t)
	doc := writeFile(t, filepath.Join(dir, "inv.txt"), "TAX INVOICE INV-9 Total 12.50")

	out, _, err := run(t, "extract", doc, "--json")
	require.NoError(t, err)

	var got struct {
		Data       map[string]string  `json:"data"`
		Validation *entity.Validation `json:"validation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "INV-9", got.Data["invoiceNo"])
	assert.Equal(t, "12.50", got.Data["invoiceAmount"])
	assert.Equal(t, "", got.Data["orderId"])
}

func TestExtract_Table(t *testing.T) {
	dir := setupEnv(t)
	doc := writeFile(t, filepath.Join(dir, "inv.txt"), "TAX INVOICE INV-9")

	out, _, err := run(t, "extract", doc, "--no-validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice NO.")
	assert.Contains(t, out, "INV-9")
	assert.NotContains(t, out, "document type:")
}

func TestExtract_UnsupportedFile(t *testing.T) {
	dir := setupEnv(t)
	doc := writeFile(t, filepath.Join(dir, "inv.docx"), "x")

	_, _, err := run(t, "extract", doc)
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestBatch_WritesCSV(t *testing.T) {
	dir := setupEnv(t)
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docs, 0o755))
	writeFile(t, filepath.Join(docs, "a.txt"), "invoice a")
	writeFile(t, filepath.Join(docs, "b.txt"), "invoice b")
	writeFile(t, filepath.Join(docs, "notes.json"), "{}")
	outFile := filepath.Join(dir, "out.csv")

	out, stderr, err := run(t, "batch", docs, "--out", outFile, "-c", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+outFile)
	assert.Contains(t, stderr, "[2/2]")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t,
		"Filename,Order ID,Invoice NO.,Tax Invoice Date,Invoice Amount\n"+
			"a.txt,,INV-9,2024-01-05,12.50\n"+
			"b.txt,,INV-9,2024-01-05,12.50\n",
		string(data))
}

func TestBatch_UnknownOutputFormat(t *testing.T) {
	dir := setupEnv(t)
	doc := writeFile(t, filepath.Join(dir, "a.txt"), "x")

	_, _, err := run(t, "batch", doc, "--out", filepath.Join(dir, "out.pdf"))
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestDiscover_SaveAndActivate(t *testing.T) {
	dir := setupEnv(t)
	a := writeFile(t, filepath.Join(dir, "a.txt"), "Acme invoice total 10.00")
	b := writeFile(t, filepath.Join(dir, "b.txt"), "Globex invoice")

	out, _, err := run(t, "discover", a, b, "--intent", "Supplier invoices", "--save", "--activate")
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzed 2 samples, 2 fields")
	assert.Contains(t, out, "supplier")
	assert.Contains(t, out, "saved template")

	out, _, err = run(t, "templates", "list")
	require.NoError(t, err)
	var activeLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "*") {
			activeLine = line
		}
	}
	assert.Contains(t, activeLine, "Supplier invoices")
	assert.Contains(t, activeLine, "2/2")
}

func TestDiscover_RequiresIntent(t *testing.T) {
	dir := setupEnv(t)
	a := writeFile(t, filepath.Join(dir, "a.txt"), "x")

	_, _, err := run(t, "discover", a)
	require.Error(t, err)
}

func TestTemplates_ImportExportRoundTrip(t *testing.T) {
	dir := setupEnv(t)
	src := writeFile(t, filepath.Join(dir, "bills.yaml"), `
id: ignored
name: Utility Bills
document_type: bill
fields:
  - name: Account Number
    type: text
    required: true
    enabled: true
  - name: Amount Due
    type: currency
    enabled: true
`)

	out, _, err := run(t, "templates", "import", src)
	require.NoError(t, err)
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 2)
	id := fields[1]
	assert.NotEqual(t, "ignored", id)

	exported := filepath.Join(dir, "out.yaml")
	_, _, err = run(t, "templates", "export", id, "-o", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)

	var tpl entity.Template
	require.NoError(t, yaml.Unmarshal(data, &tpl))
	assert.Equal(t, id, tpl.ID)
	assert.Equal(t, "Utility Bills", tpl.Name)
	require.Len(t, tpl.Fields, 2)
	assert.Equal(t, "accountNumber", tpl.Fields[0].Key)
	assert.Equal(t, "amountDue", tpl.Fields[1].Key)

	out, _, err = run(t, "templates", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "name: Utility Bills")

	_, _, err = run(t, "templates", "use", id)
	require.NoError(t, err)
	_, _, err = run(t, "templates", "delete", id)
	require.NoError(t, err)

	_, _, err = run(t, "templates", "show", id)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestTemplates_DefaultIsReadOnly(t *testing.T) {
	setupEnv(t)
	_, _, err := run(t, "templates", "delete", entity.DefaultTemplateID)
	require.ErrorIs(t, err, common.ErrForbidden)
}

func TestDBHealth(t *testing.T) {
	setupEnv(t)
	out, _, err := run(t, "db", "health")
	require.NoError(t, err)
	assert.Equal(t, "DB health: OK (sqlite3, 1 templates)\n", out)
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("DB_DRIVER", "oracle")

	_, _, err := run(t, "templates", "list")
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestText_PassesThroughTextFiles(t *testing.T) {
	dir := setupEnv(t)
	doc := writeFile(t, filepath.Join(dir, "a.md"), "# Invoice\nTotal 5")

	out, _, err := run(t, "text", doc)
	require.NoError(t, err)
	assert.Equal(t, "# Invoice\nTotal 5\n", out)
}

func TestText_BrokenPDF(t *testing.T) {
	dir := setupEnv(t)
	doc := writeFile(t, filepath.Join(dir, "a.pdf"), "not a pdf")

	_, _, err := run(t, "text", doc)
	require.Error(t, err)
}
