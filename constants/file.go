package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for extraction and discovery.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// PDFContentType is the only upload content type accepted by the API.
const PDFContentType = "application/pdf"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether a file extension (with or without the dot) may be processed.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
