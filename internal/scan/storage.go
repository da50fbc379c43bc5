package scan

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for photo storage operations.
type Storage interface {
	// Save saves a photo and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves a photo by path
	Get(path string) ([]byte, error)

	// Delete removes a photo
	Delete(path string) error
}

// LocalStorage implements the Storage interface using the local filesystem.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating photo directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save saves a photo to local storage.
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing photo: %w", err)
	}
	return filename, nil
}

// Get retrieves a photo from local storage.
func (l *LocalStorage) Get(path string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	return data, nil
}

// Delete removes a photo from local storage.
func (l *LocalStorage) Delete(path string) error {
	fullPath := filepath.Join(l.basePath, path)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting photo: %w", err)
	}
	return nil
}
