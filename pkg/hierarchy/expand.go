package hierarchy

import (
	"maps"
	"slices"
)

// Expansion is the set of node ids whose children are shown. The nil value
// is an empty, read-only set.
type Expansion map[string]struct{}

// NewExpansion returns a set holding ids.
func NewExpansion(ids ...string) Expansion {
	e := make(Expansion, len(ids))
	for _, id := range ids {
		e[id] = struct{}{}
	}
	return e
}

// ExpandAll returns a set holding every node that has at least one child.
func ExpandAll(nodes []Node) Expansion {
	idx := newIndex(nodes)
	e := make(Expansion)
	for _, n := range nodes {
		if idx.hasChildren(n.ID) {
			e[n.ID] = struct{}{}
		}
	}
	return e
}

// Has reports whether id is expanded.
func (e Expansion) Has(id string) bool {
	_, ok := e[id]
	return ok
}

// Add marks id as expanded.
func (e Expansion) Add(id string) { e[id] = struct{}{} }

// Remove collapses id.
func (e Expansion) Remove(id string) { delete(e, id) }

// Toggle flips id and reports whether it is now expanded.
func (e Expansion) Toggle(id string) bool {
	if e.Has(id) {
		delete(e, id)
		return false
	}
	e[id] = struct{}{}
	return true
}

// IDs returns the expanded ids in sorted order.
func (e Expansion) IDs() []string {
	return slices.Sorted(maps.Keys(e))
}

// Clone returns an independent copy.
func (e Expansion) Clone() Expansion {
	out := make(Expansion, len(e))
	maps.Copy(out, e)
	return out
}

// ExpansionTracker keeps the expansion set in step with successive snapshots.
//
// The first [ExpansionTracker.Sync] expands every node with children so the
// initial view is not fully collapsed, unless a persisted set was restored.
// Later syncs only ever add: a parent that gains its first child is
// expanded, a parent that already had children keeps whatever state the user
// chose, and newly arrived nodes that bring children are expanded. Nothing is
// ever collapsed by a sync.
type ExpansionTracker struct {
	expanded Expansion
	known    map[string]bool
	parents  map[string]bool // nodes that had children in the last snapshot
	loaded   bool
	restored bool
}

// NewExpansionTracker returns a tracker that has not seen any snapshot yet.
func NewExpansionTracker() *ExpansionTracker {
	return &ExpansionTracker{
		expanded: make(Expansion),
		known:    make(map[string]bool),
		parents:  make(map[string]bool),
	}
}

// Restore seeds the tracker with a persisted set. The next first-load Sync
// keeps it instead of expanding everything.
func (t *ExpansionTracker) Restore(e Expansion) {
	t.expanded = e.Clone()
	t.restored = true
}

// Checkpoint is what a tracker needs to carry its history across processes:
// the expansion set, the ids it has seen and the nodes that had children in
// the last synced snapshot.
type Checkpoint struct {
	Expanded Expansion
	Known    []string
	Parents  []string
}

// Checkpoint captures the tracker's state. Known and Parents are sorted.
func (t *ExpansionTracker) Checkpoint() Checkpoint {
	return Checkpoint{
		Expanded: t.expanded.Clone(),
		Known:    slices.Sorted(maps.Keys(t.known)),
		Parents:  slices.Sorted(maps.Keys(t.parents)),
	}
}

// Resume continues from a checkpoint, so the next Sync reports only nodes
// that arrived since it was taken. A checkpoint without known ids is treated
// like [ExpansionTracker.Restore].
func (t *ExpansionTracker) Resume(cp Checkpoint) {
	t.Restore(cp.Expanded)
	if len(cp.Known) == 0 {
		return
	}
	t.known = make(map[string]bool, len(cp.Known))
	for _, id := range cp.Known {
		t.known[id] = true
	}
	t.parents = make(map[string]bool, len(cp.Parents))
	for _, id := range cp.Parents {
		t.parents[id] = true
	}
	t.loaded = true
}

// Sync records a new snapshot and updates the expansion set.
func (t *ExpansionTracker) Sync(nodes []Node) {
	idx := newIndex(nodes)
	defer t.recordParents(idx)
	if !t.loaded {
		if !t.restored {
			for _, n := range nodes {
				if idx.hasChildren(n.ID) {
					t.expanded.Add(n.ID)
				}
			}
		}
		for _, n := range nodes {
			t.known[n.ID] = true
		}
		t.loaded = true
		return
	}

	for _, n := range nodes {
		if t.known[n.ID] {
			continue
		}
		t.known[n.ID] = true
		if n.ParentID != "" && !t.parents[n.ParentID] {
			t.expanded.Add(n.ParentID)
		}
		if idx.hasChildren(n.ID) {
			t.expanded.Add(n.ID)
		}
	}
}

func (t *ExpansionTracker) recordParents(idx *index) {
	t.parents = make(map[string]bool, len(idx.children))
	for id := range idx.children {
		t.parents[id] = true
	}
}

// Expanded returns the live expansion set.
func (t *ExpansionTracker) Expanded() Expansion { return t.expanded }

// Toggle flips a node and reports whether it is now expanded.
func (t *ExpansionTracker) Toggle(id string) bool { return t.expanded.Toggle(id) }

// Expand opens a node.
func (t *ExpansionTracker) Expand(id string) { t.expanded.Add(id) }

// Collapse closes a node.
func (t *ExpansionTracker) Collapse(id string) { t.expanded.Remove(id) }

// ExpandAll opens every node with children in nodes.
func (t *ExpansionTracker) ExpandAll(nodes []Node) {
	for id := range ExpandAll(nodes) {
		t.expanded.Add(id)
	}
}

// CollapseAll closes everything.
func (t *ExpansionTracker) CollapseAll() { t.expanded = make(Expansion) }
