package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jasperwreed/pixel-chat/internal/watcher"
)

// Validator provides methods for validating CLI inputs
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConversationID checks that id looks like a stored conversation id
func (v *Validator) ValidateConversationID(id string) error {
	if id == "" {
		return fmt.Errorf("--id flag is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid conversation id %q: %w", id, err)
	}
	return nil
}

// ValidateDirectory checks if a directory path is valid
func (v *Validator) ValidateDirectory(path string) error {
	if path == "" {
		return nil // Empty path is allowed, will use default
	}

	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("invalid directory: %w", err)
	}

	if !stat.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	return nil
}

// ValidateFile checks if a file path is valid and exists
func (v *Validator) ValidateFile(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file not found: %w", err)
	}

	if stat.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	return nil
}

// ValidateImage checks that path is an existing file with an image extension
func (v *Validator) ValidateImage(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if !watcher.IsImage(path) {
		return fmt.Errorf("not a supported image type: %s", filepath.Ext(path))
	}
	return nil
}

// ResolvePath resolves a path to an absolute path, expanding a leading ~/
func (v *Validator) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "." {
		return os.Getwd()
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
	}

	if filepath.IsAbs(path) {
		return path, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return filepath.Join(cwd, path), nil
}
