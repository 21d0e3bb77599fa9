package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/donewatch/pkg/models"
	"gopkg.in/yaml.v3"
)

// StateStore persists observed Done sequences between separate 'check'
// invocations. The long-running watcher keeps state in memory only.
type StateStore interface {
	LoadState() (map[string][]models.TaskRecord, error)
	SaveState(states map[string][]models.TaskRecord) error
}

type fileStateStore struct {
	path string
}

// NewStateStore creates a StateStore backed by a YAML file at path.
func NewStateStore(path string) StateStore {
	return &fileStateStore{path: path}
}

type stateFile struct {
	Version string                         `yaml:"version"`
	Files   map[string][]models.TaskRecord `yaml:"files"`
}

// LoadState returns the stored sequences. A missing file yields an empty map.
func (s *fileStateStore) LoadState() (map[string][]models.TaskRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]models.TaskRecord{}, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var f stateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing state file: %w", err)
	}
	if f.Files == nil {
		f.Files = map[string][]models.TaskRecord{}
	}
	return f.Files, nil
}

// SaveState overwrites the state file.
func (s *fileStateStore) SaveState(states map[string][]models.TaskRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("saving state: creating directory: %w", err)
	}

	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	defer func() { _ = unlock() }()

	data, err := yaml.Marshal(stateFile{Version: "1.0", Files: states})
	if err != nil {
		return fmt.Errorf("saving state: marshalling: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("saving state: writing %s: %w", s.path, err)
	}
	return nil
}
