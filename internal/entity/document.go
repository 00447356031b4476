package entity

import "strings"

// Document is one uploaded file. Either Content (raw PDF bytes) or Text may be
// set; Text wins when both are.
type Document struct {
	FileName string `json:"file_name"`
	Content  []byte `json:"-"`
	Text     string `json:"text,omitempty"`
}

func (d Document) HasText() bool {
	return strings.TrimSpace(d.Text) != ""
}
