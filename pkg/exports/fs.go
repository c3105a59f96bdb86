package exports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileArchive keeps exports under a local directory.
type FileArchive struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileArchive creates the directory if needed.
func NewFileArchive(baseDir string) (*FileArchive, error) {
	//nolint:gosec // G301: shared export directory
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure export dir: %w", err)
	}
	return &FileArchive{baseDir: baseDir}, nil
}

func (s *FileArchive) Put(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefixed, raw := contentHash(data)
	path := filepath.Join(s.baseDir, objectKey("", raw))

	if _, err := os.Stat(path); err == nil {
		return prefixed, nil
	}

	tmpPath := path + ".tmp"
	//nolint:gosec // G306: exports are readable by the service group
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to commit export: %w", err)
	}
	return prefixed, nil
}

func (s *FileArchive) Get(_ context.Context, hash string) ([]byte, error) {
	raw, err := parseHash(hash)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.baseDir, objectKey("", raw))) //nolint:gosec // hash validated as hex
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	return data, err
}

func (s *FileArchive) Exists(_ context.Context, hash string) (bool, error) {
	raw, err := parseHash(hash)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(filepath.Join(s.baseDir, objectKey("", raw)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
