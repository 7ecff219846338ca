package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/matzehuels/placetree/pkg/buildinfo"
	"github.com/matzehuels/placetree/pkg/drag"
	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/snapshot"
)

// =============================================================================
// Payloads
// =============================================================================

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status    string         `json:"status"`
	Build     buildinfo.Info `json:"build"`
	Locations int            `json:"locations"`
}

// RowResponse is one line of the flattened tree.
type RowResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ParentID     string `json:"parent_id,omitempty"`
	Kind         string `json:"kind"`
	Icon         string `json:"icon"`
	Depth        int    `json:"depth"`
	HasChildren  bool   `json:"has_children"`
	IsExpanded   bool   `json:"is_expanded"`
	ExplicitRoot bool   `json:"is_explicit_root,omitempty"`
}

// TreeResponse is returned by the /tree endpoints.
type TreeResponse struct {
	Rows     []RowResponse `json:"rows"`
	Expanded []string      `json:"expanded"`
}

// ToggleRequest is the body of POST /tree/toggle. A nil Expanded flips the
// row.
type ToggleRequest struct {
	ID       string `json:"id"`
	Expanded *bool  `json:"expanded,omitempty"`
}

// CheckRequest is the body of POST /moves/check.
type CheckRequest struct {
	LocationID string `json:"location_id"`
	ParentID   string `json:"parent_id"`
}

// CheckResponse reports whether a move would be accepted. ParentID is the
// canonical parent the move would use.
type CheckResponse struct {
	Allowed  bool        `json:"allowed"`
	ParentID string      `json:"parent_id"`
	Code     errors.Code `json:"code,omitempty"`
	Reason   string      `json:"reason,omitempty"`
}

// MoveRequest is the body of POST /moves.
type MoveRequest struct {
	LocationID   string `json:"location_id"`
	ParentID     string `json:"parent_id"`
	SiblingIndex int    `json:"sibling_index"`
}

// MoveResponse carries the applied intent and the refreshed snapshot in its
// wire format.
type MoveResponse struct {
	Intent   hierarchy.Intent `json:"intent"`
	Snapshot json.RawMessage  `json:"snapshot"`
}

// DropRequest is the body of POST /drops. Expanded lists the rows that were
// open when the drag began; when omitted the client's saved view is used.
type DropRequest struct {
	DraggedID string   `json:"dragged_id"`
	Expanded  []string `json:"expanded,omitempty"`
	drag.EndEvent
}

// DropResponse describes the gesture outcome. Snapshot is set when a move was
// applied.
type DropResponse struct {
	Outcome  string            `json:"outcome"`
	Target   hierarchy.Target  `json:"target"`
	Intent   *hierarchy.Intent `json:"intent,omitempty"`
	Code     errors.Code       `json:"code,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Snapshot json.RawMessage   `json:"snapshot,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Build: buildinfo.Get()}
	nodes, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.logger.Warn("health check: snapshot unavailable", "error", err)
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Locations = len(nodes)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := snapshot.Write(w, nodes, snapshot.FormatJSON); err != nil {
		s.logger.Error("write snapshot", "error", err)
	}
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var expanded hierarchy.Expansion
	switch q, ok := r.URL.Query()["expanded"]; {
	case ok && len(q) == 1 && q[0] == "all":
		expanded = hierarchy.ExpandAll(nodes)
	case ok:
		expanded = hierarchy.NewExpansion(splitIDs(q)...)
	default:
		t, err := s.tracker(r, nodes)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		expanded = t.Expanded()
	}
	writeJSON(w, http.StatusOK, treeResponse(nodes, expanded))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	nodes, err := s.svc.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, ok := hierarchy.Find(nodes, req.ID); !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "location %q not found", req.ID))
		return
	}

	t, err := s.tracker(r, nodes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	switch {
	case req.Expanded == nil:
		t.Toggle(req.ID)
	case *req.Expanded:
		t.Expand(req.ID)
	default:
		t.Collapse(req.ID)
	}
	if err := s.saveView(r, t); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, treeResponse(nodes, t.Expanded()))
}

func (s *Server) handleResetView(w http.ResponseWriter, r *http.Request) {
	scope, err := clientScope(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.views.Reset(r.Context(), scope); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := errors.ValidateLocationID(req.LocationID); err != nil {
		s.writeError(w, r, err)
		return
	}

	parent, err := s.svc.Check(r.Context(), req.LocationID, req.ParentID)
	resp := CheckResponse{Allowed: err == nil, ParentID: parent}
	if err != nil {
		if !errors.IsRefusal(err) && !errors.Is(err, errors.ErrCodeNotFound) {
			s.writeError(w, r, err)
			return
		}
		resp.Code = errors.GetCode(err)
		resp.Reason = hierarchy.Reason(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Move(r.Context(), req.LocationID, req.ParentID, req.SiblingIndex)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.syncView(r, res.Nodes, res.Intent.ParentID)

	data, err := snapshot.Marshal(res.Nodes, snapshot.FormatJSON)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{Intent: res.Intent, Snapshot: data})
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := errors.ValidateLocationID(req.DraggedID); err != nil {
		s.writeError(w, r, err)
		return
	}

	expanded := hierarchy.NewExpansion(req.Expanded...)
	if req.Expanded == nil {
		nodes, err := s.svc.Snapshot(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		t, err := s.tracker(r, nodes)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		expanded = t.Expanded()
	}

	out, err := s.svc.Drop(r.Context(), req.DraggedID, expanded, req.EndEvent)
	if err != nil && (out == nil || !errors.IsRefusal(err)) {
		s.writeError(w, r, err)
		return
	}

	g := out.Gesture
	resp := DropResponse{Outcome: g.Outcome.String(), Target: g.Target}
	switch {
	case err != nil:
		// The snapshot changed between resolving and persisting.
		resp.Outcome = drag.OutcomeRejected.String()
		resp.Code = errors.GetCode(err)
		resp.Reason = hierarchy.Reason(err)
	case g.Outcome == drag.OutcomeRejected:
		resp.Code = errors.GetCode(g.Err)
		resp.Reason = g.Reason
	case out.Applied != nil:
		intent := out.Applied.Intent
		resp.Intent = &intent
		s.syncView(r, out.Applied.Nodes, intent.ParentID)
		data, err := snapshot.Marshal(out.Applied.Nodes, snapshot.FormatJSON)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Snapshot = data
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   errors.ErrCodeUnsupported,
		Message: "method " + r.Method + " not allowed",
		Status:  http.StatusMethodNotAllowed,
	})
}

// =============================================================================
// View State
// =============================================================================

// tracker loads the client's saved view and syncs it with nodes.
func (s *Server) tracker(r *http.Request, nodes []hierarchy.Node) (*hierarchy.ExpansionTracker, error) {
	scope, err := clientScope(r)
	if err != nil {
		return nil, err
	}
	t, err := s.views.Tracker(r.Context(), scope)
	if err != nil {
		// A broken cache must not take the tree down.
		s.logger.Warn("load view state", "scope", scope, "error", err)
		t = hierarchy.NewExpansionTracker()
	}
	t.Sync(nodes)
	return t, nil
}

func (s *Server) saveView(r *http.Request, t *hierarchy.ExpansionTracker) error {
	scope, err := clientScope(r)
	if err != nil {
		return err
	}
	return s.views.SaveTracker(r.Context(), scope, t)
}

// syncView opens parentID in the client's saved view so a moved row stays
// visible. Failures are logged only.
func (s *Server) syncView(r *http.Request, nodes []hierarchy.Node, parentID string) {
	t, err := s.tracker(r, nodes)
	if err != nil {
		return
	}
	if parentID != "" {
		t.Expand(parentID)
	}
	if err := s.saveView(r, t); err != nil {
		s.logger.Warn("save view state", "error", err)
	}
}

func treeResponse(nodes []hierarchy.Node, expanded hierarchy.Expansion) TreeResponse {
	rows := hierarchy.Flatten(nodes, expanded)
	out := TreeResponse{Rows: make([]RowResponse, len(rows)), Expanded: expanded.IDs()}
	if out.Expanded == nil {
		out.Expanded = []string{}
	}
	for i, row := range rows {
		out.Rows[i] = RowResponse{
			ID:           row.Node.ID,
			Name:         row.Node.Name,
			ParentID:     row.Node.ParentID,
			Kind:         row.Node.Kind().String(),
			Icon:         row.Node.Icon(),
			Depth:        row.Depth,
			HasChildren:  row.HasChildren,
			IsExpanded:   row.IsExpanded,
			ExplicitRoot: row.Node.ExplicitRoot,
		}
	}
	return out
}

// splitIDs accepts both ?expanded=a&expanded=b and ?expanded=a,b.
func splitIDs(values []string) []string {
	var out []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}
