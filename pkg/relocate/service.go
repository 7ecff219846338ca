// Package relocate submits location moves to a store.
//
// [Service] is shared by the CLI and the HTTP API. It validates every intent
// against a fresh snapshot, serializes moves of the same location so two
// relocations of one node run one at a time end to end, and reports each
// outcome through the logger and [observability.Move] hooks.
package relocate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/placetree/pkg/drag"
	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/observability"
	"github.com/matzehuels/placetree/pkg/store"
)

// Result is a persisted move.
type Result struct {
	Intent   hierarchy.Intent
	Nodes    []hierarchy.Node // refreshed snapshot returned by the store
	Duration time.Duration
}

// DropResult is the outcome of [Service.Drop]. Applied is set only when the
// gesture committed and the store accepted the move.
type DropResult struct {
	Gesture drag.Result
	Applied *Result
}

// Service validates and persists moves.
type Service struct {
	Store  store.Store
	Logger *log.Logger

	locks keyedMutex
}

// NewService creates a service over st. A nil logger discards output.
func NewService(st store.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Service{Store: st, Logger: logger}
}

// Snapshot returns the store's current snapshot.
func (s *Service) Snapshot(ctx context.Context) ([]hierarchy.Node, error) {
	nodes, err := s.Store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return nodes, nil
}

// Check validates moving locationID under parentID without persisting
// anything. The parent is canonicalized first, so a top-level floor
// resolves to the explicit root. It returns the parent that would be used.
func (s *Service) Check(ctx context.Context, locationID, parentID string) (string, error) {
	nodes, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	parentID = hierarchy.CanonicalParent(nodes, locationID, parentID)
	return parentID, hierarchy.CheckMove(nodes, locationID, parentID)
}

// Move builds an intent for locationID and submits it.
func (s *Service) Move(ctx context.Context, locationID, parentID string, siblingIndex int) (*Result, error) {
	if err := errors.ValidateLocationID(locationID); err != nil {
		return nil, err
	}
	if siblingIndex < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sibling index must not be negative")
	}
	nodes, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	parentID = hierarchy.CanonicalParent(nodes, locationID, parentID)
	return s.Submit(ctx, hierarchy.NewIntent(locationID, hierarchy.Target{ParentID: parentID, SiblingIndex: siblingIndex}))
}

// Submit persists intent. Moves of the same location are serialized; each
// one is re-validated against the snapshot current at that moment.
func (s *Service) Submit(ctx context.Context, intent hierarchy.Intent) (*Result, error) {
	unlock := s.locks.lock(intent.LocationID)
	defer unlock()

	start := time.Now()
	logger := s.Logger.With("intent", intent.ID, "location", intent.LocationID)

	nodes, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if err := hierarchy.CheckMove(nodes, intent.LocationID, intent.ParentID); err != nil {
		logger.Warn("move refused", "parent", intent.ParentID, "reason", errors.GetCode(err))
		observability.Move().OnMoveRejected(ctx, intent.LocationID, intent.ParentID, err)
		return nil, err
	}

	out, err := s.Store.Move(ctx, intent)
	if err != nil {
		logger.Error("store rejected move", "error", err)
		observability.Move().OnMoveRejected(ctx, intent.LocationID, intent.ParentID, err)
		return nil, fmt.Errorf("persist move: %w", err)
	}

	res := &Result{Intent: intent, Nodes: out, Duration: time.Since(start)}
	logger.Info("moved location",
		"parent", intent.ParentID,
		"index", intent.SiblingIndex,
		"duration", res.Duration)
	observability.Move().OnMoveApplied(ctx, intent.LocationID, intent.ParentID, intent.SiblingIndex, res.Duration)
	return res, nil
}

// Drop replays a finished drag gesture against the current snapshot and
// submits the resulting intent when the gesture commits.
func (s *Service) Drop(ctx context.Context, draggedID string, expanded hierarchy.Expansion, ev drag.EndEvent) (*DropResult, error) {
	nodes, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := drag.Begin(nodes, expanded, draggedID)
	if err != nil {
		return nil, err
	}

	gesture := sess.End(ctx, ev)
	out := &DropResult{Gesture: gesture}
	s.Logger.Debug("resolved drop",
		"location", draggedID,
		"outcome", gesture.Outcome,
		"parent", gesture.Target.ParentID,
		"index", gesture.Target.SiblingIndex)
	if gesture.Outcome != drag.OutcomeCommit {
		return out, nil
	}

	applied, err := s.Submit(ctx, gesture.Intent)
	if err != nil {
		return out, err
	}
	out.Applied = applied
	return out, nil
}
