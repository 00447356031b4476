package discovery

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

const (
	fallbackTemplateName = "Custom Extraction"
	templateNameLimit    = 50
)

// BuildTemplate turns reviewed discovery fields into a template. Disabled
// fields are kept. A field is required when it was found in every sample.
// With existing set, the template keeps its id, name, description, document
// type, creation time and trained instructions, and field ids carried by
// the discovered fields are reused.
func BuildTemplate(existing *entity.Template, fields []entity.DiscoveredField, intent string, sampleCount int, now time.Time) (*entity.Template, error) {
	enabled := 0
	for _, f := range fields {
		if f.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		nf := &common.NoActiveFieldsError{}
		if existing != nil {
			nf.TemplateID = existing.ID
		}
		return nil, nf
	}

	tpl := &entity.Template{
		ID:           uuid.NewString(),
		Name:         templateName(intent),
		DocumentType: entity.DefaultDocumentType,
		CreatedAt:    now,
	}
	if existing != nil {
		base := existing.Clone()
		tpl.ID = base.ID
		tpl.Name = base.Name
		tpl.Description = base.Description
		tpl.DocumentType = base.DocumentType
		tpl.CreatedAt = base.CreatedAt
		tpl.Instructions = base.Instructions
	}
	if tpl.Description == "" {
		tpl.Description = fmt.Sprintf("Discovered %d fields (%d enabled) from %d samples", len(fields), enabled, sampleCount)
	}
	if strings.TrimSpace(tpl.DocumentType) == "" {
		tpl.DocumentType = entity.DefaultDocumentType
	}
	tpl.UpdatedAt = now

	taken := make(map[string]bool, len(fields))
	tpl.Fields = make([]entity.Field, 0, len(fields))
	for _, d := range fields {
		name := strings.TrimSpace(d.SuggestedName)
		if name == "" {
			name = unknownFieldName
		}
		key := d.SuggestedKey
		if key == "" {
			key = entity.DeriveKey(name)
		}
		key = entity.UniqueKey(key, taken)
		taken[key] = true

		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		fieldType := d.SuggestedType
		if !fieldType.Valid() {
			fieldType = constants.FieldTypeText
		}

		tpl.Fields = append(tpl.Fields, entity.Field{
			ID:            id,
			Name:          name,
			Key:           key,
			Description:   d.SuggestedDescription,
			Type:          fieldType,
			Required:      sampleCount > 0 && d.FoundInSamples == sampleCount,
			Enabled:       d.Enabled,
			FormatOptions: d.FormatOptions.WithDefaults(),
		})
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func templateName(intent string) string {
	intent = strings.TrimSpace(intent)
	if intent == "" {
		return fallbackTemplateName
	}
	if utf8.RuneCountInString(intent) > templateNameLimit {
		intent = strings.TrimSpace(string([]rune(intent)[:templateNameLimit]))
	}
	return intent
}
