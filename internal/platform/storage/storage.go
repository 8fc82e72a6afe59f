// Package storage manages the pipeline output directory. All writers go
// through WriteFile so readers never observe a partially written file.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store is a handle on one output directory.
type Store struct {
	logger *slog.Logger
	root   string
}

// NewStore creates the output directory if needed and returns a handle on it.
func NewStore(logger *slog.Logger, root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("output path cannot be empty")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", root, err)
	}

	return &Store{
		logger: logger,
		root:   root,
	}, nil
}

// Root returns the output directory path.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute location of a named output file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, name)
}

// WriteFile writes data to name atomically: the bytes go to a temp file in
// the same directory which is then renamed over the target.
func (s *Store) WriteFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.root, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	s.logger.Debug("wrote output file", "file", name, "bytes", len(data))
	return nil
}

// ReadFile returns the contents of a named output file.
func (s *Store) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Stat reports file metadata for a named output file. Callers use the
// modification time to detect a newer run.
func (s *Store) Stat(name string) (os.FileInfo, error) {
	return os.Stat(s.Path(name))
}
