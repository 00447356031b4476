package entity

import "time"

// PromptVersion is one compiled prompt recorded against a template.
type PromptVersion struct {
	TemplateID string    `json:"template_id"`
	Version    string    `json:"version"`
	Prompt     string    `json:"prompt"`
	FieldCount int       `json:"field_count"`
	CreatedAt  time.Time `json:"created_at"`
}
