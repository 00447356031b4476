package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

// PromptOptions narrow or adjust the extraction prompt.
type PromptOptions struct {
	// EnabledFields restricts extraction to these keys on top of each field's
	// own Enabled flag. Nil means no extra restriction.
	EnabledFields map[string]bool
	// CustomInstructions replace a field's description, keyed by field key.
	CustomInstructions map[string]string
	StrictMode         bool
}

// DocumentTextPlaceholder stands in for the document body in CompiledPrompt.Shape.
const DocumentTextPlaceholder = "{{document_text}}"

// CompiledPrompt is the output of CompileExtractionPrompt. Shape is the same
// prompt with the document text replaced by DocumentTextPlaceholder; Version
// identifies Shape, so every document run through one template configuration
// shares a version.
type CompiledPrompt struct {
	Prompt  string
	Shape   string
	Version string
	Fields  []entity.Field
}

// Keys returns the expected response keys in prompt order.
func (c CompiledPrompt) Keys() []string {
	keys := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		keys[i] = f.Key
	}
	return keys
}

// ActiveFields filters fields down to what will be asked of the model.
func ActiveFields(fields []entity.Field, opts *PromptOptions) []entity.Field {
	out := make([]entity.Field, 0, len(fields))
	for _, f := range fields {
		if !f.Enabled {
			continue
		}
		if opts != nil && opts.EnabledFields != nil && !opts.EnabledFields[f.Key] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// CompileExtractionPrompt renders the extraction prompt for the active fields.
// Output depends only on its arguments.
func CompileExtractionPrompt(fields []entity.Field, documentText, documentType string, opts *PromptOptions) (CompiledPrompt, error) {
	active := ActiveFields(fields, opts)
	if len(active) == 0 {
		return CompiledPrompt{}, &common.NoActiveFieldsError{}
	}
	if strings.TrimSpace(documentType) == "" {
		documentType = entity.DefaultDocumentType
	}

	shape := renderExtractionPrompt(active, DocumentTextPlaceholder, documentType, opts)
	return CompiledPrompt{
		Prompt:  renderExtractionPrompt(active, documentText, documentType, opts),
		Shape:   shape,
		Version: promptVersion(shape, len(active)),
		Fields:  active,
	}, nil
}

func renderExtractionPrompt(active []entity.Field, documentText, documentType string, opts *PromptOptions) string {
	var b strings.Builder
	b.WriteString("You are an expert document data extractor. Analyze the following ")
	b.WriteString(documentType)
	b.WriteString(" text and extract these specific fields:\n\n")

	for i, f := range active {
		description := f.Description
		if opts != nil {
			if custom := opts.CustomInstructions[f.Key]; custom != "" {
				description = custom
			}
		}
		fmt.Fprintf(&b, "%d. %s", i+1, f.Name)
		if f.Required {
			b.WriteString(" [REQUIRED]")
		}
		b.WriteString(": ")
		b.WriteString(description)
		b.WriteString(typeHint(f))
		b.WriteString("\n")
	}

	b.WriteString("\nDocument text:\n")
	b.WriteString(documentText)
	b.WriteString("\n\nPlease respond ONLY with a valid JSON object in this exact format (no additional text or markdown):\n")
	b.WriteString(jsonSkeleton(active))
	b.WriteString("\n\n")
	b.WriteString(extractionRules)
	if opts != nil && opts.StrictMode {
		b.WriteString("\n- If unsure, return empty string rather than guessing")
	}
	return b.String()
}

const extractionRules = `CRITICAL RULES:
- For currency/amount fields: Return ONLY the decimal number (e.g., "267.35" not "S$267.35", "USD 267.35", or "SGD 267.35")
- For date fields: Use YYYY-MM-DD format
- For number fields: Extract numeric value only
- If a field cannot be found, use an empty string ""
- Be precise and extract exact values from the document
- Focus on accuracy over speed`

func typeHint(f entity.Field) string {
	opts := f.FormatOptions.WithDefaults()
	switch f.Type {
	case constants.FieldTypeDate:
		return fmt.Sprintf(" (format as %s)", opts.DateFormat)
	case constants.FieldTypeCurrency:
		switch opts.CurrencyFormat {
		case constants.CurrencyFormatWithSymbol:
			symbol := opts.CurrencySymbol
			if symbol == "" {
				symbol = constants.DefaultCurrencySymbol
			}
			return fmt.Sprintf(" (include currency symbol: %s267.35)", symbol)
		case constants.CurrencyFormatWithCode:
			return " (include currency code: USD 267.35 or SGD 267.35)"
		default:
			return " (IMPORTANT: Extract ONLY the numeric decimal value, NO currency symbols. Example: '267.35' not 'S$267.35')"
		}
	case constants.FieldTypeNumber:
		if opts.NumberFormat == constants.NumberFormatWithCommas {
			return " (format with commas: 1,234.56)"
		}
		return " (extract as numeric value only)"
	}
	return ""
}

// jsonSkeleton renders {"key": "extracted <name>"} in field order, two-space indented.
func jsonSkeleton(fields []entity.Field) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range fields {
		b.WriteString("  ")
		b.WriteString(quoteJSON(f.Key))
		b.WriteString(": ")
		b.WriteString(quoteJSON("extracted " + strings.ToLower(f.Name)))
		if i < len(fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// promptVersion is a content hash plus the active field count, e.g. "v1a2b3c4d5e6f-4f".
func promptVersion(prompt string, fieldCount int) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("v%s-%df", hex.EncodeToString(sum[:])[:12], fieldCount)
}
