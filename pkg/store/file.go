package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/snapshot"
)

// FileStore keeps the snapshot in a single JSON or TOML file chosen by
// extension. A missing file is an empty snapshot. Every write goes through a
// temporary file and a rename.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// NewFileStore creates a store for the snapshot file at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: empty path")
	}
	if _, err := snapshot.FormatFromPath(path); err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Snapshot(ctx context.Context) ([]hierarchy.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

func (s *FileStore) Move(ctx context.Context, intent hierarchy.Intent) ([]hierarchy.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, err := s.read()
	if err != nil {
		return nil, err
	}
	out, err := apply(ctx, nodes, intent)
	if err != nil {
		return nil, err
	}
	if err := snapshot.WriteFile(s.path, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FileStore) Replace(ctx context.Context, nodes []hierarchy.Node) error {
	if err := hierarchy.Validate(nodes); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.WriteFile(s.path, nodes)
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) read() ([]hierarchy.Node, error) {
	nodes, err := snapshot.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return nodes, err
}

var _ Store = (*FileStore)(nil)
