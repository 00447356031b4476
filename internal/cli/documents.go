package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joseph-ayodele/docfields/constants"
	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/entity"
)

var textExts = []string{"txt", "md"}

// readDocument loads a PDF as raw content, or a .txt/.md file as text.
func readDocument(path string) (entity.Document, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsAllowedExt(ext) && !slices.Contains(textExts, ext) {
		return entity.Document{}, fmt.Errorf("%s: unsupported file type: %w", path, common.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	doc := entity.Document{FileName: filepath.Base(path)}
	if slices.Contains(textExts, ext) {
		doc.Text = string(data)
	} else {
		doc.Content = data
	}
	return doc, nil
}

// collectDocuments expands directories into their supported files, sorted by
// name, and reads everything.
func collectDocuments(paths []string) ([]entity.Document, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, de := range entries {
			if de.IsDir() || strings.HasPrefix(de.Name(), ".") {
				continue
			}
			ext := constants.NormalizeExt(filepath.Ext(de.Name()))
			if constants.IsAllowedExt(ext) || slices.Contains(textExts, ext) {
				files = append(files, filepath.Join(p, de.Name()))
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no documents found: %w", common.ErrInvalidInput)
	}

	docs := make([]entity.Document, 0, len(files))
	for _, f := range files {
		doc, err := readDocument(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
