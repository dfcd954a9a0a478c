// Package prefs implements [parley.PreferenceStore] backed by a small
// JSON file, so the model selection survives across runs without the
// core logic touching the filesystem directly.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parleyhq/parley"
)

// Interface compliance check.
var _ parley.PreferenceStore = (*FileStore)(nil)

type payload struct {
	Model string `json:"model"`
}

// FileStore persists preferences at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path. The file is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// ModelPreference returns the persisted model selection, if any.
// A missing or unreadable file reads as no preference.
func (s *FileStore) ModelPreference() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil || p.Model == "" {
		return "", false
	}
	return p.Model, true
}

// SetModelPreference persists a new model selection atomically.
func (s *FileStore) SetModelPreference(model string) error {
	data, err := json.MarshalIndent(payload{Model: model}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal preference: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
