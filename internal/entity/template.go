package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
)

const (
	DefaultTemplateID   = "default"
	DefaultDocumentType = "document"
)

// Template is an ordered set of fields describing what to pull out of one kind of document.
type Template struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description,omitempty"`
	DocumentType string    `json:"document_type" yaml:"document_type"`
	Fields       []Field   `json:"fields" yaml:"fields"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at,omitempty"`

	// Instructions holds trained per-field prompt overrides keyed by field key.
	Instructions map[string]string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
}

// DefaultTemplate returns a fresh copy of the built-in invoice template.
func DefaultTemplate() *Template {
	return &Template{
		ID:           DefaultTemplateID,
		Name:         "Standard Invoice",
		Description:  "Default invoice extraction with 4 standard fields",
		DocumentType: "invoice",
		Fields: []Field{
			{
				ID:          "field-1",
				Name:        "Order ID",
				Key:         "orderId",
				Description: "Order or booking reference number",
				Type:        constants.FieldTypeText,
				Enabled:     true,
			},
			{
				ID:          "field-2",
				Name:        "Invoice NO.",
				Key:         "invoiceNo",
				Description: "Invoice number or ID",
				Type:        constants.FieldTypeText,
				Required:    true,
				Enabled:     true,
			},
			{
				ID:            "field-3",
				Name:          "Tax Invoice Date",
				Key:           "taxInvoiceDate",
				Description:   "Invoice date in YYYY-MM-DD format",
				Type:          constants.FieldTypeDate,
				Required:      true,
				Enabled:       true,
				FormatOptions: FormatOptions{DateFormat: constants.DateFormatISO},
			},
			{
				ID:            "field-4",
				Name:          "Invoice Amount",
				Key:           "invoiceAmount",
				Description:   "Total invoice amount (decimal only, no currency symbols)",
				Type:          constants.FieldTypeCurrency,
				Required:      true,
				Enabled:       true,
				FormatOptions: FormatOptions{CurrencyFormat: constants.CurrencyFormatDecimal},
			},
		},
	}
}

// IsDefault reports whether t is the built-in template.
func (t *Template) IsDefault() bool {
	return t.ID == DefaultTemplateID
}

// EnabledFields returns the enabled fields in template order.
func (t *Template) EnabledFields() []Field {
	out := make([]Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// FieldByKey looks up a field by key.
func (t *Template) FieldByKey(key string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func (t *Template) keysExcept(skip int) map[string]bool {
	taken := make(map[string]bool, len(t.Fields))
	for i, f := range t.Fields {
		if i != skip {
			taken[f.Key] = true
		}
	}
	return taken
}

// AddField appends f, deriving its key from the name and suffixing it if taken.
func (t *Template) AddField(f Field) Field {
	f.Key = UniqueKey(DeriveKey(f.Name), t.keysExcept(-1))
	f.FormatOptions = f.FormatOptions.WithDefaults()
	t.Fields = append(t.Fields, f)
	return f
}

// SetFieldName renames the field at index i and re-derives its key.
func (t *Template) SetFieldName(i int, name string) error {
	if i < 0 || i >= len(t.Fields) {
		return fmt.Errorf("field index %d out of range: %w", i, common.ErrInvalidInput)
	}
	t.Fields[i].Name = name
	t.Fields[i].Key = UniqueKey(DeriveKey(name), t.keysExcept(i))
	return nil
}

// Clone returns a deep copy so callers can edit without touching a shared template.
func (t *Template) Clone() *Template {
	c := *t
	c.Fields = append([]Field(nil), t.Fields...)
	if t.Instructions != nil {
		c.Instructions = make(map[string]string, len(t.Instructions))
		for k, v := range t.Instructions {
			c.Instructions[k] = v
		}
	}
	return &c
}

// Validate checks names, types, formats and key uniqueness.
func (t *Template) Validate() error {
	v := common.NewValidator()
	v.Field("name", t.Name, common.Required, common.MaxLength(100))
	v.Field("document_type", t.DocumentType, common.MaxLength(50))

	seen := make(map[string]bool, len(t.Fields))
	for i, f := range t.Fields {
		prefix := fmt.Sprintf("fields[%d].", i)
		v.Field(prefix+"name", f.Name, common.Required)
		v.Field(prefix+"key", f.Key, common.Required)
		v.Field(prefix+"type", string(f.Type), common.Required, common.OneOf(constants.FieldTypesAsStrings()...))
		if f.FormatOptions.DateFormat != "" && !f.FormatOptions.DateFormat.Valid() {
			v.Add(prefix+"format_options.date_format", f.FormatOptions.DateFormat, "unknown date format")
		}
		if f.FormatOptions.CurrencyFormat != "" && !f.FormatOptions.CurrencyFormat.Valid() {
			v.Add(prefix+"format_options.currency_format", f.FormatOptions.CurrencyFormat, "unknown currency format")
		}
		if f.FormatOptions.NumberFormat != "" && !f.FormatOptions.NumberFormat.Valid() {
			v.Add(prefix+"format_options.number_format", f.FormatOptions.NumberFormat, "unknown number format")
		}
		if seen[f.Key] {
			v.Add(prefix+"key", f.Key, "duplicate key")
		}
		seen[f.Key] = true
	}
	return v.Err()
}

// Normalize trims names and fills in a document type and missing keys.
func (t *Template) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	if strings.TrimSpace(t.DocumentType) == "" {
		t.DocumentType = DefaultDocumentType
	}
	for i := range t.Fields {
		t.Fields[i].Name = strings.TrimSpace(t.Fields[i].Name)
		if t.Fields[i].Key == "" {
			t.Fields[i].Key = UniqueKey(DeriveKey(t.Fields[i].Name), t.keysExcept(i))
		}
	}
}
