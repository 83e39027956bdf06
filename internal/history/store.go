package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is the snapshot log file name inside a history directory.
const DefaultFileName = "coverage_history.json"

// ErrNoPath is returned by a FileStore without a path.
var ErrNoPath = errors.New("history file path is empty")

type historyFile struct {
	Snapshots []Snapshot `json:"snapshots"`
}

// FileStore persists the snapshot log as a JSON document.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored snapshots, oldest first. A missing file is an
// empty log.
func (s *FileStore) Load() ([]Snapshot, error) {
	if s.path == "" {
		return nil, ErrNoPath
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to read history file %s: %w", s.path, err)
	}

	var hf historyFile
	if err := json.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", s.path, err)
	}
	if hf.Snapshots == nil {
		hf.Snapshots = []Snapshot{}
	}
	return hf.Snapshots, nil
}

// Save writes snapshots, oldest first. The file is replaced through a
// rename so a crash never leaves it half written.
func (s *FileStore) Save(snapshots []Snapshot) error {
	if s.path == "" {
		return ErrNoPath
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	if snapshots == nil {
		snapshots = []Snapshot{}
	}
	data, err := json.MarshalIndent(historyFile{Snapshots: snapshots}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace history file %s: %w", s.path, err)
	}
	return nil
}
