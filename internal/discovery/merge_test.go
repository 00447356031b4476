package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

func existingTemplate() *entity.Template {
	return &entity.Template{
		ID:           "tpl-9",
		Name:         "Bookings",
		DocumentType: "invoice",
		Fields: []entity.Field{
			{
				ID:          "f-1",
				Name:        "Invoice No",
				Key:         "invoiceNo",
				Description: "My own description",
				Type:        constants.FieldTypeText,
				Enabled:     false,
			},
			{
				ID:            "f-2",
				Name:          "Paid On",
				Key:           "paymentDate",
				Type:          constants.FieldTypeDate,
				Enabled:       true,
				FormatOptions: entity.FormatOptions{DateFormat: constants.DateFormatDMY},
			},
			{
				ID:      "f-3",
				Name:    "Notes",
				Key:     "notes",
				Type:    constants.FieldTypeText,
				Enabled: true,
			},
		},
	}
}

func discovered(name string, found, confidence int, values ...string) entity.DiscoveredField {
	sv := make([]entity.SampleValue, len(values))
	for i, v := range values {
		sv[i] = entity.SampleValue{FileName: "s.pdf", Value: v}
	}
	return entity.DiscoveredField{
		SuggestedName:        name,
		SuggestedKey:         entity.DeriveKey(name),
		SuggestedType:        constants.FieldTypeCurrency,
		SuggestedDescription: "model description",
		FoundInSamples:       found,
		SampleValues:         sv,
		Confidence:           confidence,
		Enabled:              true,
	}
}

func TestMergePreservesUserEdits(t *testing.T) {
	tpl := existingTemplate()
	merged := Merge(tpl, []entity.DiscoveredField{discovered("Invoice No", 3, 80, "A1", "A2", "A3")}, MergeOptions{})

	require.Len(t, merged, 3)
	got := merged[0]
	assert.Equal(t, "f-1", got.ID)
	assert.Equal(t, "invoiceNo", got.SuggestedKey)
	assert.Equal(t, "Invoice No", got.SuggestedName)
	assert.Equal(t, "My own description", got.SuggestedDescription)
	assert.Equal(t, constants.FieldTypeText, got.SuggestedType)
	assert.False(t, got.Enabled)
	assert.Equal(t, 80, got.Confidence)
	assert.Equal(t, 3, got.FoundInSamples)
	assert.Len(t, got.SampleValues, 3)
}

func TestMergeKeepsUnmatchedFieldsWithZeroedEvidence(t *testing.T) {
	tpl := existingTemplate()
	merged := Merge(tpl, nil, MergeOptions{})

	require.Len(t, merged, len(tpl.Fields))
	for i, m := range merged {
		assert.Equal(t, tpl.Fields[i].ID, m.ID)
		assert.Equal(t, tpl.Fields[i].Key, m.SuggestedKey)
		assert.Equal(t, tpl.Fields[i].Enabled, m.Enabled)
		assert.Equal(t, tpl.Fields[i].FormatOptions, m.FormatOptions)
		assert.Zero(t, m.FoundInSamples)
		assert.NotNil(t, m.SampleValues)
		assert.Empty(t, m.SampleValues)
		assert.Equal(t, constants.DefaultDiscoveryConfidence, m.Confidence)
	}
}

func TestMergeKeyMatchBeatsNameMatch(t *testing.T) {
	tpl := existingTemplate()
	byName := discovered("Paid On", 1, 40)
	byKey := discovered("Payment Date", 2, 90)
	require.Equal(t, "paymentDate", byKey.SuggestedKey)

	merged := Merge(tpl, []entity.DiscoveredField{byName, byKey}, MergeOptions{})
	assert.Equal(t, 90, merged[1].Confidence)
	assert.Equal(t, 2, merged[1].FoundInSamples)
	assert.Equal(t, "Paid On", merged[1].SuggestedName)
	assert.Equal(t, constants.DateFormatDMY, merged[1].FormatOptions.DateFormat)
}

func TestMergeDropsNewFieldsByDefault(t *testing.T) {
	tpl := existingTemplate()
	merged := Merge(tpl, []entity.DiscoveredField{discovered("Vendor", 2, 70)}, MergeOptions{})
	require.Len(t, merged, 3)
	for _, m := range merged {
		assert.NotEqual(t, "vendor", m.SuggestedKey)
	}
}

func TestMergeIncludeNew(t *testing.T) {
	tpl := existingTemplate()
	clash := discovered("Notes!", 1, 60)
	clash.SuggestedName = "Note(s)"
	vendor := discovered("Vendor", 2, 70)

	merged := Merge(tpl, []entity.DiscoveredField{vendor, clash, discovered("Notes 2", 1, 10)}, MergeOptions{IncludeNew: true})

	require.Len(t, merged, 5)
	assert.Equal(t, 60, merged[2].Confidence)
	assert.Equal(t, "vendor", merged[3].SuggestedKey)
	assert.Empty(t, merged[3].ID)
	assert.Equal(t, "notes2", merged[4].SuggestedKey)
}

func TestMergeIncludeNewDeduplicatesKeys(t *testing.T) {
	tpl := existingTemplate()
	a := discovered("Vendor", 2, 70)
	b := discovered("Vendor", 1, 30)
	b.SuggestedName = "VENDOR"

	merged := Merge(tpl, []entity.DiscoveredField{a, b}, MergeOptions{IncludeNew: true})
	require.Len(t, merged, 5)
	assert.Equal(t, "vendor", merged[3].SuggestedKey)
	assert.Equal(t, "vendor2", merged[4].SuggestedKey)
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	tpl := existingTemplate()
	d := discovered("Invoice No", 1, 80, "A1")
	merged := Merge(tpl, []entity.DiscoveredField{d}, MergeOptions{})
	merged[0].SampleValues[0].Value = "changed"
	assert.Equal(t, "A1", d.SampleValues[0].Value)
}
