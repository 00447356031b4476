package entity

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces", "Tax Invoice Date", "taxInvoiceDate"},
		{"trailing punctuation", "Invoice NO.", "invoiceNo"},
		{"acronym", "Order ID", "orderId"},
		{"leading junk", "  --Total Amount", "totalAmount"},
		{"digits", "Line 2 total", "line2Total"},
		{"separator runs", "ship__to   address", "shipToAddress"},
		{"already camel", "invoiceNumber", "invoicenumber"},
		{"non ascii dropped", "Montant TTC €", "montantTtc"},
		{"empty", "", "field"},
		{"only symbols", "#$%", "field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveKey(tt.in))
		})
	}
}

func TestDeriveKeyIsDeterministic(t *testing.T) {
	for _, name := range []string{"Invoice Amount", "Vendor's Tax ID", "x"} {
		first := DeriveKey(name)
		for i := 0; i < 5; i++ {
			require.Equal(t, first, DeriveKey(name))
		}
	}
}

func TestUniqueKey(t *testing.T) {
	taken := map[string]bool{"total": true, "total2": true}
	assert.Equal(t, "total3", UniqueKey("total", taken))
	assert.Equal(t, "amount", UniqueKey("amount", taken))
}

func TestTemplateFieldEditing(t *testing.T) {
	tpl := &Template{Name: "Receipts", DocumentType: "receipt"}
	a := tpl.AddField(Field{Name: "Total", Type: constants.FieldTypeCurrency, Enabled: true})
	b := tpl.AddField(Field{Name: "total", Type: constants.FieldTypeNumber, Enabled: true})

	assert.Equal(t, "total", a.Key)
	assert.Equal(t, "total2", b.Key)
	assert.Equal(t, constants.DateFormatISO, b.FormatOptions.DateFormat)

	require.NoError(t, tpl.SetFieldName(1, "Grand Total"))
	assert.Equal(t, "grandTotal", tpl.Fields[1].Key)

	// renaming onto an existing key gets suffixed
	require.NoError(t, tpl.SetFieldName(1, "TOTAL"))
	assert.Equal(t, "total2", tpl.Fields[1].Key)

	err := tpl.SetFieldName(5, "nope")
	assert.True(t, errors.Is(err, common.ErrInvalidInput))
}

func TestTemplateValidate(t *testing.T) {
	require.NoError(t, DefaultTemplate().Validate())

	bad := DefaultTemplate()
	bad.Fields[1].Key = "orderId"
	bad.Fields[2].Type = "timestamp"
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Contains(t, err.Error(), "duplicate key")
	assert.Contains(t, err.Error(), "fields[2].type")
}

func TestFieldEnabledDefaultsTrue(t *testing.T) {
	var f Field
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Total","key":"total","type":"currency"}`), &f))
	assert.True(t, f.Enabled)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"Total","key":"total","type":"currency","enabled":false}`), &f))
	assert.False(t, f.Enabled)

	var y Field
	require.NoError(t, yaml.Unmarshal([]byte("name: Total\nkey: total\ntype: currency\n"), &y))
	assert.True(t, y.Enabled)
}

func TestCloneIsIndependent(t *testing.T) {
	orig := DefaultTemplate()
	orig.Instructions = map[string]string{"orderId": "look near the top"}
	c := orig.Clone()
	c.Fields[0].Name = "changed"
	c.Instructions["orderId"] = "changed"

	assert.Equal(t, "Order ID", orig.Fields[0].Name)
	assert.Equal(t, "look near the top", orig.Instructions["orderId"])
}
