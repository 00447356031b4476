package entity

import "github.com/joseph-ayodele/docfields/constants"

// SampleValue is what the model saw for a field in one sample document.
type SampleValue struct {
	FileName string `json:"file_name" yaml:"file_name"`
	Value    string `json:"value" yaml:"value"`
}

// DiscoveredField is a field proposed by discovery, or an existing field
// annotated with rediscovery evidence. ID is set only for the latter.
type DiscoveredField struct {
	ID                   string              `json:"id,omitempty"`
	SuggestedName        string              `json:"suggested_name"`
	SuggestedKey         string              `json:"suggested_key"`
	SuggestedType        constants.FieldType `json:"suggested_type"`
	SuggestedDescription string              `json:"suggested_description"`
	FoundInSamples       int                 `json:"found_in_samples"`
	SampleValues         []SampleValue       `json:"sample_values"`
	Confidence           int                 `json:"confidence"`
	Enabled              bool                `json:"enabled"`
	FormatOptions        FormatOptions       `json:"format_options"`
}
