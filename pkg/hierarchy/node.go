package hierarchy

import (
	"github.com/matzehuels/placetree/pkg/errors"
)

// Metadata stores arbitrary key-value pairs attached to a node. The engine
// only reads [MetaKeyType] and [MetaKeyIcon]; everything else is carried
// through untouched.
type Metadata map[string]any

// MetaKeyType is the metadata key a node's kind is derived from.
const MetaKeyType = "type"

// Node is one location in the hierarchy.
//
// The zero value is not usable: ID must be set. An empty ParentID is the
// top-level sentinel. Whether a top-level node is the whole-property root or
// simply unassigned is decided by ExplicitRoot.
type Node struct {
	ID           string   // Unique, opaque identifier
	Name         string   // Display name
	ParentID     string   // Parent node id, "" for top level
	ExplicitRoot bool     // Canonical whole-property root (at most one)
	Meta         Metadata // Opaque metadata; kind comes from Meta["type"]
	EntityIDs    []string // Opaque payload
	Modules      Metadata // Opaque per-module configuration
}

// Kind returns the node's normalized kind derived from its metadata.
func (n Node) Kind() Kind {
	raw, _ := n.Meta[MetaKeyType].(string)
	return NormalizeKind(raw)
}

// IsTopLevel reports whether the node has no parent.
func (n Node) IsTopLevel() bool { return n.ParentID == "" }

// Bucket returns the sibling bucket the node currently belongs to.
func (n Node) Bucket() Bucket { return BucketOf(n.ParentID, n.ExplicitRoot) }

// Bucket identifies a group of siblings. Nodes in the same bucket are ordered
// by their position in the snapshot slice.
type Bucket string

// Top-level buckets. The explicit root never shares a bucket with unassigned
// top-level nodes.
const (
	BucketExplicitRoot Bucket = "top:root"
	BucketUnassigned   Bucket = "top:unassigned"
)

// BucketOf returns the sibling bucket for a node placed under parentID.
// It is the single definition of "same siblings" used by [Flatten],
// [Resolve] and [ApplyMove].
func BucketOf(parentID string, explicitRoot bool) Bucket {
	switch {
	case parentID != "":
		return Bucket("parent:" + parentID)
	case explicitRoot:
		return BucketExplicitRoot
	default:
		return BucketUnassigned
	}
}

// Find returns the first node with the given id.
func Find(nodes []Node, id string) (Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// ExplicitRoot returns the snapshot's explicit root, if any.
func ExplicitRoot(nodes []Node) (Node, bool) {
	for _, n := range nodes {
		if n.ExplicitRoot {
			return n, true
		}
	}
	return Node{}, false
}

// Children returns the ids of the direct children of id in sibling order.
func Children(nodes []Node, id string) []string {
	var out []string
	for _, n := range nodes {
		if n.ParentID == id && id != "" {
			out = append(out, n.ID)
		}
	}
	return out
}

// HasChildren reports whether any node names id as its parent.
func HasChildren(nodes []Node, id string) bool {
	if id == "" {
		return false
	}
	for _, n := range nodes {
		if n.ParentID == id {
			return true
		}
	}
	return false
}

// SiblingIndex returns the position of nodeID among the other members of its
// bucket, counting only siblings that precede it in the slice. This is the
// index [ApplyMove] expects to put the node back where it is.
func SiblingIndex(nodes []Node, nodeID string) (int, bool) {
	pos := -1
	for i, n := range nodes {
		if n.ID == nodeID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return 0, false
	}
	bucket := nodes[pos].Bucket()
	k := 0
	for _, n := range nodes[:pos] {
		if n.Bucket() == bucket {
			k++
		}
	}
	return k, true
}

// Clone returns a copy of the snapshot slice. Node values are copied;
// metadata maps and payload slices are shared.
func Clone(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	return out
}

// Validate checks snapshot integrity and returns nil if valid.
// It verifies that:
//
//  1. Every id is non-empty and unique
//  2. At most one node is the explicit root, and it has no parent
//  3. No node is its own ancestor
//
// Dangling parent references are allowed: such nodes are orphans and are
// skipped by traversals. Cycle detection runs in O(N) using white/gray/black
// colouring along parent chains.
func Validate(nodes []Node) error {
	seen := make(map[string]bool, len(nodes))
	var root string
	for _, n := range nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidID, "location id must not be empty")
		}
		if seen[n.ID] {
			return errors.New(errors.ErrCodeDuplicateID, "duplicate location id %q", n.ID)
		}
		seen[n.ID] = true
		if !n.ExplicitRoot {
			continue
		}
		if root != "" {
			return errors.New(errors.ErrCodeInvalidSnapshot, "more than one explicit root: %q and %q", root, n.ID)
		}
		if n.ParentID != "" {
			return errors.New(errors.ErrCodeInvalidSnapshot, "explicit root %q must not have a parent", n.ID)
		}
		root = n.ID
	}
	return detectCycles(nodes)
}

func detectCycles(nodes []Node) error {
	const (
		white = iota
		gray
		black
	)

	parent := make(map[string]string, len(nodes))
	for _, n := range nodes {
		parent[n.ID] = n.ParentID
	}

	color := make(map[string]int, len(nodes))
	for _, n := range nodes {
		if color[n.ID] != white {
			continue
		}
		var chain []string
		id := n.ID
		for id != "" {
			if _, ok := parent[id]; !ok {
				break
			}
			if color[id] == gray {
				return errors.New(errors.ErrCodeInvalidSnapshot, "parent chain of %q contains a cycle", n.ID)
			}
			if color[id] == black {
				break
			}
			color[id] = gray
			chain = append(chain, id)
			id = parent[id]
		}
		for _, c := range chain {
			color[c] = black
		}
	}
	return nil
}

// index is a per-call lookup over a snapshot. Positions refer to the slice
// it was built from; duplicate ids resolve to their first occurrence.
type index struct {
	nodes    []Node
	pos      map[string]int
	children map[string][]int
}

func newIndex(nodes []Node) *index {
	idx := &index{
		nodes:    nodes,
		pos:      make(map[string]int, len(nodes)),
		children: make(map[string][]int),
	}
	for i, n := range nodes {
		if _, dup := idx.pos[n.ID]; !dup {
			idx.pos[n.ID] = i
		}
		if n.ParentID != "" {
			idx.children[n.ParentID] = append(idx.children[n.ParentID], i)
		}
	}
	return idx
}

func (x *index) node(id string) (Node, bool) {
	i, ok := x.pos[id]
	if !ok {
		return Node{}, false
	}
	return x.nodes[i], true
}

func (x *index) hasChildren(id string) bool { return len(x.children[id]) > 0 }
