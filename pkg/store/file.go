package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	perrors "github.com/matzehuels/panegrid/pkg/errors"
	"github.com/matzehuels/panegrid/pkg/registry"
)

const layoutExt = ".json"

// FileStore is a file-based layout store for CLI use.
// Layouts are stored as JSON files in a data directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based layout store.
// If baseDir is empty, it defaults to $XDG_DATA_HOME/panegrid/layouts or
// ~/.local/share/panegrid/layouts.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "create layout dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

// DefaultDir returns the default layout directory.
func DefaultDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "panegrid", "layouts"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "panegrid", "layouts"), nil
}

// Dir returns the directory layouts are stored in.
func (s *FileStore) Dir() string { return s.baseDir }

func (s *FileStore) layoutPath(layout string) (string, error) {
	if err := perrors.ValidateLayoutName(layout); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, layout+layoutExt), nil
}

func (s *FileStore) Load(ctx context.Context, layout string) (registry.Snapshot, error) {
	path, err := s.layoutPath(layout)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return registry.Snapshot{}, nil
		}
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "read layout file")
	}
	return decode(layout, data)
}

func (s *FileStore) Save(ctx context.Context, layout string, snap registry.Snapshot) error {
	path, err := s.layoutPath(layout)
	if err != nil {
		return err
	}
	data, err := encode(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write then rename so readers never observe a partial file.
	tmp, err := os.CreateTemp(s.baseDir, "."+layout+"-*.tmp")
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "create temp layout file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "write layout file")
	}
	if err := tmp.Close(); err != nil {
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "write layout file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "replace layout file")
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, layout string) error {
	path, err := s.layoutPath(layout)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "remove layout file")
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeStoreUnavailable, err, "read layout dir")
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, layoutExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, layoutExt))
	}
	slices.Sort(names)
	return names, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
