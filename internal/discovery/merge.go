package discovery

import (
	"slices"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

// MergeOptions controls how rediscovered fields are reconciled with a template.
type MergeOptions struct {
	// IncludeNew appends rediscovered fields that match no existing field.
	// By default they are dropped and the result mirrors the existing template.
	IncludeNew bool
}

// Merge overlays a rediscovery run on an existing template's fields, in
// template order. Every existing field is kept with its identity untouched;
// only FoundInSamples, SampleValues and Confidence come from the new run.
// A field is matched by key first, then by exact name. Existing fields that
// were not rediscovered get zeroed evidence and the default confidence.
func Merge(existing *entity.Template, rediscovered []entity.DiscoveredField, opts MergeOptions) []entity.DiscoveredField {
	var fields []entity.Field
	if existing != nil {
		fields = existing.Fields
	}

	used := make([]bool, len(rediscovered))
	out := make([]entity.DiscoveredField, 0, len(fields))
	for _, f := range fields {
		merged := entity.DiscoveredField{
			ID:                   f.ID,
			SuggestedName:        f.Name,
			SuggestedKey:         f.Key,
			SuggestedType:        f.Type,
			SuggestedDescription: f.Description,
			Enabled:              f.Enabled,
			FormatOptions:        f.FormatOptions,
			SampleValues:         []entity.SampleValue{},
			Confidence:           constants.DefaultDiscoveryConfidence,
		}
		if i := matchIndex(f, rediscovered); i >= 0 {
			used[i] = true
			r := rediscovered[i]
			merged.FoundInSamples = r.FoundInSamples
			merged.SampleValues = slices.Clone(r.SampleValues)
			merged.Confidence = r.Confidence
		}
		out = append(out, merged)
	}

	if !opts.IncludeNew {
		return out
	}
	taken := make(map[string]bool, len(out))
	for _, d := range out {
		taken[d.SuggestedKey] = true
	}
	for i, r := range rediscovered {
		if used[i] {
			continue
		}
		r.ID = ""
		r.SuggestedKey = entity.UniqueKey(r.SuggestedKey, taken)
		r.SampleValues = slices.Clone(r.SampleValues)
		taken[r.SuggestedKey] = true
		out = append(out, r)
	}
	return out
}

func matchIndex(f entity.Field, rediscovered []entity.DiscoveredField) int {
	if i := slices.IndexFunc(rediscovered, func(d entity.DiscoveredField) bool {
		return d.SuggestedKey == f.Key
	}); i >= 0 {
		return i
	}
	return slices.IndexFunc(rediscovered, func(d entity.DiscoveredField) bool {
		return d.SuggestedName == f.Name
	})
}
