package store

import (
	"context"
	"sync"

	"github.com/matzehuels/placetree/pkg/hierarchy"
)

// MemoryStore keeps the snapshot in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes []hierarchy.Node
}

// NewMemoryStore returns a store holding a copy of nodes.
func NewMemoryStore(nodes []hierarchy.Node) (*MemoryStore, error) {
	if err := hierarchy.Validate(nodes); err != nil {
		return nil, err
	}
	return &MemoryStore{nodes: hierarchy.Clone(nodes)}, nil
}

func (s *MemoryStore) Snapshot(ctx context.Context) ([]hierarchy.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return hierarchy.Clone(s.nodes), nil
}

func (s *MemoryStore) Move(ctx context.Context, intent hierarchy.Intent) ([]hierarchy.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := apply(ctx, s.nodes, intent)
	if err != nil {
		return nil, err
	}
	s.nodes = out
	return hierarchy.Clone(out), nil
}

func (s *MemoryStore) Replace(ctx context.Context, nodes []hierarchy.Node) error {
	if err := hierarchy.Validate(nodes); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = hierarchy.Clone(nodes)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
