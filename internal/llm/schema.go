package llm

import (
	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

// BuildRecordSchema returns a JSON Schema (draft 2020-12 subset) for a coerced
// extraction record: every active key present, every value a string that is
// either empty or shaped like the field's configured format.
func BuildRecordSchema(fields []entity.Field) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		prop := map[string]any{"type": "string"}
		if p := valuePattern(f); p != "" {
			prop["pattern"] = `^$|` + p
		}
		props[f.Key] = prop
		required = append(required, f.Key)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func valuePattern(f entity.Field) string {
	opts := f.FormatOptions.WithDefaults()
	switch f.Type {
	case constants.FieldTypeDate:
		switch opts.DateFormat {
		case constants.DateFormatDMY, constants.DateFormatMDY:
			return `^\d{2}/\d{2}/\d{4}$`
		case constants.DateFormatYMDSlash:
			return `^\d{4}/\d{2}/\d{2}$`
		default:
			return `^\d{4}-\d{2}-\d{2}$`
		}
	case constants.FieldTypeCurrency:
		if opts.CurrencyFormat == constants.CurrencyFormatDecimal {
			return `^-?\d+(\.\d+)?$`
		}
	case constants.FieldTypeNumber:
		if opts.NumberFormat == constants.NumberFormatWithCommas {
			return `^-?\d{1,3}(,\d{3})*(\.\d+)?$|^-?\d+(\.\d+)?$`
		}
		return `^-?\d+(\.\d+)?$`
	}
	return ""
}
