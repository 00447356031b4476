package discovery

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

var buildTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestBuildTemplateFromFreshDiscovery(t *testing.T) {
	fields := []entity.DiscoveredField{
		discovered("Booking Number", 3, 95),
		discovered("Total", 2, 80),
		discovered("Booking Number", 1, 20),
	}
	fields[1].Enabled = false
	fields[1].SuggestedType = "bogus"

	intent := strings.Repeat("Extract booking data from hotel invoices ", 3)
	tpl, err := BuildTemplate(nil, fields, intent, 3, buildTime)
	require.NoError(t, err)

	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, strings.TrimSpace(intent[:50]), tpl.Name)
	assert.Equal(t, "Discovered 3 fields (2 enabled) from 3 samples", tpl.Description)
	assert.Equal(t, entity.DefaultDocumentType, tpl.DocumentType)
	assert.Equal(t, buildTime, tpl.CreatedAt)
	assert.Equal(t, buildTime, tpl.UpdatedAt)

	require.Len(t, tpl.Fields, 3)
	assert.True(t, tpl.Fields[0].Required, "found in every sample")
	assert.False(t, tpl.Fields[1].Required)
	assert.False(t, tpl.Fields[1].Enabled, "disabled fields are kept")
	assert.Equal(t, constants.FieldTypeText, tpl.Fields[1].Type)
	assert.Equal(t, "bookingNumber", tpl.Fields[0].Key)
	assert.Equal(t, "bookingNumber2", tpl.Fields[2].Key)
	assert.NotEqual(t, tpl.Fields[0].ID, tpl.Fields[2].ID)
	assert.Equal(t, constants.CurrencyFormatDecimal, tpl.Fields[0].FormatOptions.CurrencyFormat)
}

func TestBuildTemplateFallbackName(t *testing.T) {
	tpl, err := BuildTemplate(nil, []entity.DiscoveredField{discovered("A", 1, 50)}, "  ", 2, buildTime)
	require.NoError(t, err)
	assert.Equal(t, "Custom Extraction", tpl.Name)
}

func TestBuildTemplateFromMergedEdit(t *testing.T) {
	existing := existingTemplate()
	existing.CreatedAt = buildTime.Add(-time.Hour)
	existing.Instructions = map[string]string{"notes": "only the first line"}

	merged := Merge(existing, []entity.DiscoveredField{discovered("Invoice No", 2, 80)}, MergeOptions{})
	tpl, err := BuildTemplate(existing, merged, "ignored intent", 2, buildTime)
	require.NoError(t, err)

	assert.Equal(t, "tpl-9", tpl.ID)
	assert.Equal(t, "Bookings", tpl.Name)
	assert.Equal(t, "invoice", tpl.DocumentType)
	assert.Equal(t, existing.CreatedAt, tpl.CreatedAt)
	assert.Equal(t, buildTime, tpl.UpdatedAt)
	assert.Equal(t, existing.Instructions, tpl.Instructions)

	require.Len(t, tpl.Fields, 3)
	for i, f := range tpl.Fields {
		assert.Equal(t, existing.Fields[i].ID, f.ID)
		assert.Equal(t, existing.Fields[i].Key, f.Key)
		assert.Equal(t, existing.Fields[i].Enabled, f.Enabled)
	}
	assert.True(t, tpl.Fields[0].Required)
	assert.False(t, tpl.Fields[2].Required)

	tpl.Instructions["notes"] = "changed"
	assert.Equal(t, "only the first line", existing.Instructions["notes"])
}

func TestBuildTemplateNeedsAnEnabledField(t *testing.T) {
	f := discovered("A", 1, 50)
	f.Enabled = false
	_, err := BuildTemplate(existingTemplate(), []entity.DiscoveredField{f}, "x", 1, buildTime)
	var nf *common.NoActiveFieldsError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "tpl-9", nf.TemplateID)
}
