package hierarchy

import (
	"github.com/matzehuels/placetree/pkg/errors"
)

// CanMove reports whether nodeID may be placed under newParentID.
// An empty newParentID means top level.
func CanMove(nodes []Node, nodeID, newParentID string) bool {
	return CheckMove(nodes, nodeID, newParentID) == nil
}

// CheckMove validates placing nodeID under newParentID and returns nil when
// the move is legal. Otherwise it returns an *errors.Error whose code names
// the first failing rule, in this order:
//
//  1. ErrCodeSelfParent: the node would become its own parent
//  2. ErrCodeCycle: the new parent lies inside the node's subtree
//  3. ErrCodeNotFound: node or parent is missing from the snapshot;
//     ErrCodeExplicitRootTarget: the parent is the explicit root (only a floor
//     may name it, see [FloorParent])
//  4. ErrCodeNonLeafReparent: the node has children and the parent changes
//  5. ErrCodeKindMismatch: the kind policy forbids the destination
//
// Reordering within the current parent always passes rule 4, so a node with
// children can still move among its siblings.
func CheckMove(nodes []Node, nodeID, newParentID string) error {
	if newParentID == nodeID {
		return errors.New(errors.ErrCodeSelfParent, "%q cannot be its own parent", nodeID)
	}

	idx := newIndex(nodes)
	if newParentID != "" && idx.isDescendant(nodeID, newParentID) {
		return errors.New(errors.ErrCodeCycle, "%q is inside the subtree of %q", newParentID, nodeID)
	}

	node, ok := idx.node(nodeID)
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "location %q not found", nodeID)
	}
	kind := node.Kind()

	var parent Node
	if newParentID != "" {
		if parent, ok = idx.node(newParentID); !ok {
			return errors.New(errors.ErrCodeNotFound, "parent location %q not found", newParentID)
		}
		if parent.ExplicitRoot && kind != KindFloor {
			return errors.New(errors.ErrCodeExplicitRootTarget, "%q cannot be used as a parent", newParentID)
		}
	}

	if idx.hasChildren(nodeID) && newParentID != node.ParentID {
		return errors.New(errors.ErrCodeNonLeafReparent, "%q has children and can only be reordered", nodeID)
	}

	switch {
	case kind == KindFloor:
		return checkFloor(nodes, node, newParentID, parent)
	case kind.IsWrapper():
		if newParentID != "" {
			return errors.New(errors.ErrCodeKindMismatch, "%s %q must stay at top level", kind, nodeID)
		}
		return nil
	}

	dest := KindRoot
	if newParentID != "" {
		dest = parent.Kind()
	}
	if !IsParentAllowed(kind, dest) {
		return errors.New(errors.ErrCodeKindMismatch, "%s %q cannot be placed under %s %q", kind, nodeID, dest, newParentID)
	}
	return nil
}

// checkFloor applies the special floor rule: the top-level slot of a floor is
// the explicit root when one exists, never the bare sentinel. Buildings
// remain valid floor parents as in the policy table.
func checkFloor(nodes []Node, node Node, newParentID string, parent Node) error {
	want := FloorParent(nodes)
	if newParentID == want {
		return nil
	}
	if newParentID != "" && !parent.ExplicitRoot && parent.Kind() == KindBuilding {
		return nil
	}
	if newParentID == "" {
		return errors.New(errors.ErrCodeKindMismatch, "floor %q must be placed under the explicit root %q", node.ID, want)
	}
	return errors.New(errors.ErrCodeKindMismatch, "floor %q cannot be placed under %s %q", node.ID, parent.Kind(), newParentID)
}

// Reason returns a short user-facing sentence explaining why a move was
// refused. Errors that are not refusals get a generic sentence.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeSelfParent:
		return "A location cannot be placed inside itself."
	case errors.ErrCodeCycle:
		return "A location cannot be moved into one of its own sub-locations."
	case errors.ErrCodeNotFound:
		return "The location no longer exists."
	case errors.ErrCodeExplicitRootTarget:
		return "Only floors can be placed directly under the property root."
	case errors.ErrCodeNonLeafReparent:
		return "Locations that contain other locations can only be reordered."
	case errors.ErrCodeKindMismatch:
		return "This kind of location cannot be placed there."
	}
	return "The move could not be applied."
}
