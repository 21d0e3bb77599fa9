package integration

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FileEnumerator lists documents that can be selected as targets.
type FileEnumerator interface {
	ListDocuments() ([]string, error)
}

type markdownEnumerator struct {
	vault string
}

// NewFileEnumerator returns a FileEnumerator listing the Markdown files of
// vault as slash-separated relative paths.
func NewFileEnumerator(vault string) FileEnumerator {
	return &markdownEnumerator{vault: vault}
}

// ListDocuments walks the vault, skipping dot-directories such as .git or
// .obsidian, and returns the sorted .md paths.
func (m *markdownEnumerator) ListDocuments() ([]string, error) {
	var docs []string
	err := filepath.WalkDir(m.vault, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != m.vault && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			rel, err := filepath.Rel(m.vault, path)
			if err != nil {
				return err
			}
			docs = append(docs, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents in %s: %w", m.vault, err)
	}
	sort.Strings(docs)
	return docs, nil
}
