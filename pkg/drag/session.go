// Package drag models one drag-and-drop gesture over a flattened location
// tree.
//
// A gesture is an explicit sequence of calls on a [Session]:
//
//	s, err := drag.Begin(nodes, expanded, "kitchen")
//	s.Preview(drag.PreviewEvent{RelatedID: "hallway"})   // any number of times
//	res := s.End(ctx, drag.EndEvent{NewIndex: 4})        // or s.Cancel()
//
// Preview is pure: it only records the latest neighbour hint and reports
// where a drop there would land and whether it would be allowed. An End
// without its own context falls back to that hint. End resolves the drop with
// [hierarchy.Resolve], validates it and returns exactly one [Outcome]. A drop
// that lands where the node already was is a no-op, indistinguishable from a
// cancel. Sessions are not safe for concurrent use.
package drag

import (
	"context"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/observability"
)

// Outcome is the result class of a finished gesture.
type Outcome int

const (
	// OutcomeNoOp means nothing changes: the drop was cancelled or landed on
	// the node's current position.
	OutcomeNoOp Outcome = iota
	// OutcomeRejected means the policy refused the move. The caller restores
	// the pre-drag arrangement and may show Result.Reason.
	OutcomeRejected
	// OutcomeCommit means Result.Intent should be persisted.
	OutcomeCommit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoOp:
		return "noop"
	case OutcomeRejected:
		return "rejected"
	case OutcomeCommit:
		return "commit"
	}
	return "unknown"
}

// PreviewEvent is the neighbour hint reported while the pointer moves.
// Pointer geometry is optional; without it the drop resolves as a sibling of
// the related row.
type PreviewEvent struct {
	RelatedID       string   `json:"related_id"`
	WillInsertAfter bool     `json:"will_insert_after"`
	PointerX        *float64 `json:"pointer_x,omitempty"`
	RelatedLeftX    *float64 `json:"related_left_x,omitempty"`
}

func (ev PreviewEvent) dropContext() *hierarchy.DropContext {
	if ev.RelatedID == "" {
		return nil
	}
	return &hierarchy.DropContext{
		RelatedID:       ev.RelatedID,
		WillInsertAfter: ev.WillInsertAfter,
		PointerX:        ev.PointerX,
		RelatedLeftX:    ev.RelatedLeftX,
	}
}

// EndEvent is the drop reported by the drag library. Indexes refer to the
// session's rows with the dragged subtree removed. A nil Context falls back
// to the last preview hint.
type EndEvent struct {
	OldIndex int                    `json:"old_index"`
	NewIndex int                    `json:"new_index"`
	Context  *hierarchy.DropContext `json:"context,omitempty"`
}

// Result describes a finished gesture.
type Result struct {
	Outcome Outcome
	// Target is the resolved destination (set for every outcome of End).
	Target hierarchy.Target
	// Intent is set for OutcomeCommit.
	Intent hierarchy.Intent
	// Err is the refusal for OutcomeRejected.
	Err error
	// Reason is a user-facing sentence for OutcomeRejected.
	Reason string
}

// Session is one active drag.
type Session struct {
	nodes   []hierarchy.Node
	rows    []hierarchy.Row
	dragged hierarchy.Node
	origin  hierarchy.Target
	hint    *PreviewEvent
	done    bool
}

// Begin starts a drag of draggedID over the view built from nodes and
// expanded. The snapshot is copied; later changes to nodes do not affect the
// session.
func Begin(nodes []hierarchy.Node, expanded hierarchy.Expansion, draggedID string) (*Session, error) {
	dragged, ok := hierarchy.Find(nodes, draggedID)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "location %q not found", draggedID)
	}
	idx, _ := hierarchy.SiblingIndex(nodes, draggedID)
	snap := hierarchy.Clone(nodes)
	return &Session{
		nodes:   snap,
		rows:    hierarchy.Flatten(snap, expanded),
		dragged: dragged,
		origin:  hierarchy.Target{ParentID: dragged.ParentID, SiblingIndex: idx},
	}, nil
}

// Rows returns the pre-drag view the session indexes into.
func (s *Session) Rows() []hierarchy.Row { return s.rows }

// Dragged returns the node being dragged.
func (s *Session) Dragged() hierarchy.Node { return s.dragged }

// Origin returns the dragged node's pre-drag position.
func (s *Session) Origin() hierarchy.Target { return s.origin }

// Active reports whether End or Cancel has not been called yet.
func (s *Session) Active() bool { return !s.done }

// Preview records ev as the latest neighbour hint and resolves where a drop
// there would land. ok reports whether it would be accepted; the origin
// always is. Preview never changes the snapshot or finishes the session.
func (s *Session) Preview(ev PreviewEvent) (t hierarchy.Target, ok bool) {
	if s.done {
		return hierarchy.Target{}, false
	}
	s.hint = &ev
	t = s.resolve(-1, ev.dropContext())
	return t, t == s.origin || hierarchy.CanMove(s.nodes, s.dragged.ID, t.ParentID)
}

// End finishes the gesture.
func (s *Session) End(ctx context.Context, ev EndEvent) Result {
	if s.done {
		return Result{Outcome: OutcomeNoOp, Err: errors.New(errors.ErrCodeInvalidInput, "drag session already finished")}
	}
	s.done = true

	dc := ev.Context
	if dc == nil && s.hint != nil {
		dc = s.hint.dropContext()
	}
	t := s.resolve(ev.NewIndex, dc)
	observability.Move().OnResolve(ctx, s.dragged.ID, t.ParentID, t.SiblingIndex)

	if t == s.origin {
		return Result{Outcome: OutcomeNoOp, Target: t}
	}
	if err := hierarchy.CheckMove(s.nodes, s.dragged.ID, t.ParentID); err != nil {
		observability.Move().OnMoveRejected(ctx, s.dragged.ID, t.ParentID, err)
		return Result{Outcome: OutcomeRejected, Target: t, Err: err, Reason: hierarchy.Reason(err)}
	}
	return Result{Outcome: OutcomeCommit, Target: t, Intent: hierarchy.NewIntent(s.dragged.ID, t)}
}

// Cancel abandons the gesture. It is indistinguishable from a no-op drop.
func (s *Session) Cancel() Result {
	s.done = true
	return Result{Outcome: OutcomeNoOp, Target: s.origin}
}

// resolve runs the resolver and canonicalizes the parent. A negative
// newIndex keeps the node where it is when no neighbour decides otherwise.
func (s *Session) resolve(newIndex int, dc *hierarchy.DropContext) hierarchy.Target {
	if newIndex < 0 {
		newIndex = s.originRow()
	}
	t := hierarchy.Resolve(hierarchy.ResolveInput{
		Rows:      s.rows,
		Nodes:     s.nodes,
		DraggedID: s.dragged.ID,
		ParentID:  s.dragged.ParentID,
		NewIndex:  newIndex,
		Context:   dc,
	})
	t.ParentID = hierarchy.CanonicalParent(s.nodes, s.dragged.ID, t.ParentID)
	return t
}

// originRow is the dragged row's index in the rows that remain once its
// subtree is removed, which equals its index in the full rows.
func (s *Session) originRow() int {
	if i := hierarchy.RowIndex(s.rows, s.dragged.ID); i >= 0 {
		return i
	}
	return len(s.rows)
}
