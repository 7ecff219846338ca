// Package hierarchy is the location tree engine: a pure, synchronous transform
// over an in-memory snapshot of location nodes.
//
// # Overview
//
// A snapshot is one flat, order-significant slice of [Node] values. Parent-child
// structure is encoded by [Node.ParentID] and sibling order by position in the
// slice: the siblings of a node are all nodes sharing its bucket (see
// [BucketOf]), in slice order. There is no separate order field, so every
// mutation must place nodes deliberately.
//
// The package provides four things:
//
//   - A type policy ([AllowedParents], [IsParentAllowed]) over normalized kinds
//     ([NormalizeKind]) plus the special floor rule ([FloorParent]).
//   - Move validation ([CheckMove], [CanMove]) with cycle prevention
//     ([IsDescendant]) and the non-leaf rule: a node with children may be
//     reordered among its siblings but never reparented.
//   - A depth-annotated, expansion-aware linearization ([Flatten]) that doubles
//     as the coordinate space of a drag-and-drop list.
//   - Drop resolution ([Resolve]) from drag-library indices and pointer
//     geometry to a (parent, sibling index) target, and [ApplyMove] to commit it
//     while keeping subtrees contiguous.
//
// # Basic Usage
//
//	rows := hierarchy.Flatten(nodes, expanded)
//	target := hierarchy.Resolve(hierarchy.ResolveInput{
//	    Rows:      rows,
//	    Nodes:     nodes,
//	    DraggedID: "top-shelf",
//	    ParentID:  "pantry-shelf",
//	    NewIndex:  5,
//	    Context:   &hierarchy.DropContext{RelatedID: "living-room"},
//	})
//	if err := hierarchy.CheckMove(nodes, "top-shelf", target.ParentID); err != nil {
//	    // policy refusal: restore the previous arrangement
//	}
//	nodes, _ = hierarchy.ApplyMove(nodes, "top-shelf", target.ParentID, target.SiblingIndex)
//
// # Malformed Snapshots
//
// Every traversal carries a visited set. Dangling parent references make a node
// an orphan: it is never emitted by [Flatten] and never reached by ancestor
// walks, but nothing panics or loops. Use [Validate] to report such problems.
//
// # Concurrency
//
// Functions never mutate their inputs and hold no state, so they are safe to
// call from multiple goroutines on the same snapshot. [ExpansionTracker] is not
// safe for concurrent use.
package hierarchy
