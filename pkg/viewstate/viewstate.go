// Package viewstate persists which rows of a tree view are expanded.
//
// State is stored through a [cache.Cache] as a small versioned JSON document:
//
//	{"version": 2, "expanded": ["house"], "known": ["hall", "house"], "parents": ["house"]}
//
// Known and parents let a reloaded tracker tell which nodes arrived since the
// view was saved. Version 1 documents carry only the expanded ids and are
// still read. A missing, corrupt or unknown-version entry is treated as "no
// saved state", so the view falls back to its defaults instead of failing.
// Ids that no longer exist in the snapshot are harmless: [hierarchy.Flatten]
// ignores them.
package viewstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/placetree/pkg/cache"
	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/observability"
)

// Version is the current schema version.
const Version = 2

const versionExpandedOnly = 1

const keyType = "viewstate"

// State is the persisted document.
type State struct {
	Version  int      `json:"version"`
	Expanded []string `json:"expanded"`
	Known    []string `json:"known,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

// Store loads and saves expansion sets.
type Store struct {
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewStore returns a Store backed by c. A nil keyer selects the default key
// scheme; a zero ttl keeps entries forever.
func NewStore(c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Store {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Store{cache: c, keyer: keyer, ttl: ttl}
}

// Load returns the saved expansion set for scope. ok is false when nothing
// usable was saved.
func (s *Store) Load(ctx context.Context, scope string) (hierarchy.Expansion, bool, error) {
	cp, ok, err := s.LoadCheckpoint(ctx, scope)
	return cp.Expanded, ok, err
}

// LoadCheckpoint returns the saved tracker state for scope. Known and Parents
// are empty for version 1 documents.
func (s *Store) LoadCheckpoint(ctx context.Context, scope string) (hierarchy.Checkpoint, bool, error) {
	data, hit, err := s.cache.Get(ctx, s.keyer.ViewStateKey(scope))
	if err != nil {
		return hierarchy.Checkpoint{}, false, fmt.Errorf("load view state: %w", err)
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return hierarchy.Checkpoint{}, false, nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil || (st.Version != Version && st.Version != versionExpandedOnly) {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return hierarchy.Checkpoint{}, false, nil
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	cp := hierarchy.Checkpoint{Expanded: hierarchy.NewExpansion(st.Expanded...)}
	if st.Version == Version {
		cp.Known, cp.Parents = st.Known, st.Parents
	}
	return cp, true, nil
}

// Save stores e for scope without any node history.
func (s *Store) Save(ctx context.Context, scope string, e hierarchy.Expansion) error {
	return s.SaveCheckpoint(ctx, scope, hierarchy.Checkpoint{Expanded: e})
}

// SaveTracker stores t's expansion set together with the nodes it has seen.
func (s *Store) SaveTracker(ctx context.Context, scope string, t *hierarchy.ExpansionTracker) error {
	return s.SaveCheckpoint(ctx, scope, t.Checkpoint())
}

// SaveCheckpoint stores cp for scope.
func (s *Store) SaveCheckpoint(ctx context.Context, scope string, cp hierarchy.Checkpoint) error {
	ids := cp.Expanded.IDs()
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(State{Version: Version, Expanded: ids, Known: cp.Known, Parents: cp.Parents})
	if err != nil {
		return fmt.Errorf("encode view state: %w", err)
	}
	if err := s.cache.Set(ctx, s.keyer.ViewStateKey(scope), data, s.ttl); err != nil {
		return fmt.Errorf("save view state: %w", err)
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}

// Reset forgets the saved state for scope.
func (s *Store) Reset(ctx context.Context, scope string) error {
	if err := s.cache.Delete(ctx, s.keyer.ViewStateKey(scope)); err != nil {
		return fmt.Errorf("reset view state: %w", err)
	}
	return nil
}

// Tracker returns an expansion tracker resumed from the saved state, if any.
// Its next Sync expands nodes that arrived after the state was saved.
func (s *Store) Tracker(ctx context.Context, scope string) (*hierarchy.ExpansionTracker, error) {
	t := hierarchy.NewExpansionTracker()
	cp, ok, err := s.LoadCheckpoint(ctx, scope)
	if err != nil {
		return t, err
	}
	if ok {
		t.Resume(cp)
	}
	return t, nil
}
