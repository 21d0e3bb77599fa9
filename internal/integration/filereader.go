package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileReader reads vault-relative files from disk.
type FileReader struct {
	vault string
}

// NewFileReader creates a FileReader rooted at vault.
func NewFileReader(vault string) *FileReader {
	return &FileReader{vault: vault}
}

// ReadFile returns the text of path. Relative paths resolve against the vault.
func (r *FileReader) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(ResolvePath(r.vault, path))
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}

// ResolvePath turns a vault-relative slash path into an OS path.
func ResolvePath(vault, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(vault, filepath.FromSlash(path))
}

// RelativePath turns an OS path under vault into the slash-separated form
// used in target_files. Paths outside the vault are returned cleaned and
// absolute.
func RelativePath(vault, path string) string {
	absVault, err := filepath.Abs(vault)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(absVault, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(absPath)
	}
	return filepath.ToSlash(rel)
}
