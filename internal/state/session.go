// Package state keeps small pieces of client state outside the conversation
// database.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type sessionFile struct {
	SessionID string    `yaml:"session_id"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// SessionFile stores the last chat session id in a YAML file.
type SessionFile struct {
	path string
	mu   sync.Mutex
}

func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

func (s *SessionFile) Path() string {
	return s.path
}

// Load returns the stored session id, or "" when there is none.
func (s *SessionFile) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session file: %w", err)
	}

	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to parse session file: %w", err)
	}
	return f.SessionID, nil
}

// Save replaces the stored session id. The file is written to a temporary
// name first and renamed into place.
func (s *SessionFile) Save(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(sessionFile{SessionID: sessionID, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode session file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Clear removes the stored session id. A missing file is not an error.
func (s *SessionFile) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
