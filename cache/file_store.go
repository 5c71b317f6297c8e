package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"flipclock/models"
)

// FileStore persists the cached payload as {"weather": ..., "timestamp": ...}
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored record. It returns nil, nil when the file does not exist.
func (s *FileStore) Load() (*models.CachedWeather, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var record models.CachedWeather
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", s.path, err)
	}
	if len(record.Weather) == 0 {
		return nil, nil
	}
	return &record, nil
}

// Save replaces the file atomically through a temporary file in the same directory
func (s *FileStore) Save(record models.CachedWeather) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}
