package entity

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/docfields/constants"
)

// FormatOptions tune how a field's value should be rendered by the model.
type FormatOptions struct {
	DateFormat     constants.DateFormat     `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	CurrencyFormat constants.CurrencyFormat `json:"currency_format,omitempty" yaml:"currency_format,omitempty"`
	CurrencySymbol string                   `json:"currency_symbol,omitempty" yaml:"currency_symbol,omitempty"`
	NumberFormat   constants.NumberFormat   `json:"number_format,omitempty" yaml:"number_format,omitempty"`
}

// WithDefaults fills unset options with the formats a fresh field starts with.
func (o FormatOptions) WithDefaults() FormatOptions {
	if o.DateFormat == "" {
		o.DateFormat = constants.DateFormatISO
	}
	if o.CurrencyFormat == "" {
		o.CurrencyFormat = constants.CurrencyFormatDecimal
	}
	if o.NumberFormat == "" {
		o.NumberFormat = constants.NumberFormatPlain
	}
	return o
}

// Field is one named value a template asks the model to extract.
type Field struct {
	ID            string              `json:"id" yaml:"id,omitempty"`
	Name          string              `json:"name" yaml:"name"`
	Key           string              `json:"key" yaml:"key"`
	Description   string              `json:"description" yaml:"description,omitempty"`
	Type          constants.FieldType `json:"type" yaml:"type"`
	Required      bool                `json:"required" yaml:"required"`
	Enabled       bool                `json:"enabled" yaml:"enabled"`
	FormatOptions FormatOptions       `json:"format_options" yaml:"format_options,omitempty"`
}

// UnmarshalJSON treats a missing "enabled" as true.
func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field
	p := plain{Enabled: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = Field(p)
	return nil
}

// UnmarshalYAML treats a missing "enabled" as true.
func (f *Field) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain Field
	p := plain{Enabled: true}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*f = Field(p)
	return nil
}

// DeriveKey turns a display name into a camelCase key: "Tax Invoice Date" becomes
// "taxInvoiceDate". Only ASCII letters and digits survive; a run of anything else
// capitalises the character after it, except at the start, so the first letter
// is always lower case. A name with no usable characters yields "field".
func DeriveKey(name string) string {
	var b strings.Builder
	upperNext := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z':
			if upperNext && b.Len() > 0 {
				r -= 'a' - 'A'
			}
			b.WriteRune(r)
			upperNext = false
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			upperNext = false
		default:
			upperNext = true
		}
	}
	if b.Len() == 0 {
		return "field"
	}
	return b.String()
}

// UniqueKey returns key, or key suffixed with 2, 3, ... until it is not in taken.
func UniqueKey(key string, taken map[string]bool) string {
	if !taken[key] {
		return key
	}
	for n := 2; ; n++ {
		candidate := key + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}
