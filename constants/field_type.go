package constants

import (
	"strings"
)

type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeCurrency FieldType = "currency"
)

var allFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeDate,
	FieldTypeCurrency,
}

// FieldTypesAsStrings returns the accepted field type names in declaration order.
func FieldTypesAsStrings() []string {
	result := make([]string, len(allFieldTypes))
	for i, t := range allFieldTypes {
		result[i] = string(t)
	}
	return result
}

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	for _, ft := range allFieldTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// CanonicalizeFieldType maps loose model output ("Amount", "money", "DATE") onto a
// known field type. Unknown input falls back to text.
func CanonicalizeFieldType(input string) (FieldType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return FieldTypeText, false
	}

	// synonyms map
	synonyms := map[string]FieldType{
		"string":   FieldTypeText,
		"money":    FieldTypeCurrency,
		"amount":   FieldTypeCurrency,
		"price":    FieldTypeCurrency,
		"integer":  FieldTypeNumber,
		"int":      FieldTypeNumber,
		"float":    FieldTypeNumber,
		"decimal":  FieldTypeNumber,
		"datetime": FieldTypeDate,
	}
	if ft, ok := synonyms[normalized]; ok {
		return ft, true
	}

	for _, ft := range allFieldTypes {
		if normalized == string(ft) {
			return ft, true
		}
	}
	return FieldTypeText, false
}

type DateFormat string

const (
	DateFormatISO      DateFormat = "YYYY-MM-DD"
	DateFormatDMY      DateFormat = "DD/MM/YYYY"
	DateFormatMDY      DateFormat = "MM/DD/YYYY"
	DateFormatYMDSlash DateFormat = "YYYY/MM/DD"
)

func (f DateFormat) Valid() bool {
	switch f {
	case DateFormatISO, DateFormatDMY, DateFormatMDY, DateFormatYMDSlash:
		return true
	}
	return false
}

type CurrencyFormat string

const (
	CurrencyFormatDecimal    CurrencyFormat = "decimal"
	CurrencyFormatWithSymbol CurrencyFormat = "with-symbol"
	CurrencyFormatWithCode   CurrencyFormat = "with-code"
)

func (f CurrencyFormat) Valid() bool {
	switch f {
	case CurrencyFormatDecimal, CurrencyFormatWithSymbol, CurrencyFormatWithCode:
		return true
	}
	return false
}

type NumberFormat string

const (
	NumberFormatPlain      NumberFormat = "plain"
	NumberFormatWithCommas NumberFormat = "with-commas"
)

func (f NumberFormat) Valid() bool {
	return f == NumberFormatPlain || f == NumberFormatWithCommas
}

// DefaultCurrencySymbol is used by with-symbol currency fields that don't name one.
const DefaultCurrencySymbol = "$"
