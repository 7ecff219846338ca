package cli

import (
	"context"
	"errors"

	"github.com/matzehuels/placetree/pkg/cache"
	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/relocate"
	"github.com/matzehuels/placetree/pkg/store"
	"github.com/matzehuels/placetree/pkg/viewstate"
)

// workspace bundles what most commands need: the relocation service, the
// current snapshot and the saved tree view.
type workspace struct {
	svc     *relocate.Service
	store   store.Store
	views   *viewstate.Store
	scope   string
	cache   cache.Cache
	nodes   []hierarchy.Node
	tracker *hierarchy.ExpansionTracker
}

func (c *CLI) openWorkspace(ctx context.Context) (*workspace, error) {
	svc, st, err := c.openService(ctx)
	if err != nil {
		return nil, err
	}
	views, scope, cc, err := c.openViews(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	w := &workspace{svc: svc, store: st, views: views, scope: scope, cache: cc}

	w.tracker, err = views.Tracker(ctx, scope)
	if err != nil {
		c.Logger.Warn("view state unreadable, using defaults", "error", err)
	}
	if err := w.refresh(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// refresh reloads the snapshot and folds it into the tracker.
func (w *workspace) refresh(ctx context.Context) error {
	nodes, err := w.svc.Snapshot(ctx)
	if err != nil {
		return err
	}
	w.nodes = nodes
	w.tracker.Sync(nodes)
	return nil
}

// rows flattens the snapshot with the tracked expansion.
func (w *workspace) rows() []hierarchy.Row {
	return hierarchy.Flatten(w.nodes, w.tracker.Expanded())
}

func (w *workspace) saveView(ctx context.Context) error {
	return w.views.SaveTracker(ctx, w.scope, w.tracker)
}

// Close releases the store and the cache.
func (w *workspace) Close() error {
	return errors.Join(w.store.Close(), w.cache.Close())
}
