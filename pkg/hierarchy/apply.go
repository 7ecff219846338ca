package hierarchy

import (
	"github.com/matzehuels/placetree/pkg/errors"
)

// ApplyMove returns a new snapshot with nodeID placed under newParentID at
// position newSiblingIndex among its new siblings. The input is not modified.
//
// The node travels with its whole subtree as one contiguous block. Inside the
// block nodes keep their relative order and their parent references; only the
// moved node's ParentID changes. The index counts siblings other than the
// moved node and is clamped to the valid range. Placement in the slice:
//
//   - before the sibling currently at newSiblingIndex;
//   - right after the last sibling and its descendants when the index equals
//     the sibling count;
//   - right after the parent node when the destination has no children yet,
//     or at the end for an empty top-level bucket.
//
// ApplyMove trusts its caller: run [CheckMove] first.
func ApplyMove(nodes []Node, nodeID, newParentID string, newSiblingIndex int) ([]Node, error) {
	idx := newIndex(nodes)
	pos, ok := idx.pos[nodeID]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "location %q not found", nodeID)
	}
	block := idx.subtree(nodeID)

	moved := make([]Node, 0, len(block))
	remaining := make([]Node, 0, len(nodes))
	for i, n := range nodes {
		if !block[n.ID] {
			remaining = append(remaining, n)
			continue
		}
		if i == pos {
			n.ParentID = newParentID
		}
		moved = append(moved, n)
	}

	dest := BucketOf(newParentID, nodes[pos].ExplicitRoot)
	var siblings []int
	parentAt := -1
	for i, n := range remaining {
		if n.Bucket() == dest {
			siblings = append(siblings, i)
		}
		if newParentID != "" && parentAt < 0 && n.ID == newParentID {
			parentAt = i
		}
	}

	k := clamp(newSiblingIndex, 0, len(siblings))
	var at int
	switch {
	case k < len(siblings):
		at = siblings[k]
	case len(siblings) > 0:
		at = blockEnd(remaining, siblings[len(siblings)-1])
	case parentAt >= 0:
		at = parentAt + 1
	default:
		at = len(remaining)
	}

	out := make([]Node, 0, len(nodes))
	out = append(out, remaining[:at]...)
	out = append(out, moved...)
	out = append(out, remaining[at:]...)
	return out, nil
}

// Move validates and applies a relocation in one step. Refusals are returned
// as *errors.Error values (see [CheckMove]) and leave nodes untouched.
func Move(nodes []Node, nodeID, newParentID string, newSiblingIndex int) ([]Node, error) {
	if err := CheckMove(nodes, nodeID, newParentID); err != nil {
		return nil, err
	}
	return ApplyMove(nodes, nodeID, newParentID, newSiblingIndex)
}

// blockEnd returns the slice position just past the last node of the subtree
// rooted at nodes[i].
func blockEnd(nodes []Node, i int) int {
	sub := newIndex(nodes).subtree(nodes[i].ID)
	end := i + 1
	for j := i + 1; j < len(nodes); j++ {
		if sub[nodes[j].ID] {
			end = j + 1
		}
	}
	return end
}
