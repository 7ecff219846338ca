package viewstate

import (
	"context"
	"testing"

	"github.com/matzehuels/placetree/pkg/cache"
	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/observability"
)

func newStore(t *testing.T) (*Store, cache.Cache) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(c, nil, 0), c
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	if _, ok, err := s.Load(ctx, "home.json"); ok || err != nil {
		t.Fatalf("Load(empty) = ok %v, err %v", ok, err)
	}

	if err := s.Save(ctx, "home.json", hierarchy.NewExpansion("house", "kitchen")); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Load(ctx, "home.json")
	if err != nil || !ok {
		t.Fatalf("Load() = ok %v, err %v", ok, err)
	}
	if !got.Has("house") || !got.Has("kitchen") || len(got) != 2 {
		t.Errorf("Load() = %v", got.IDs())
	}

	if _, ok, _ := s.Load(ctx, "other.json"); ok {
		t.Error("scopes should not share state")
	}

	if err := s.Reset(ctx, "home.json"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load(ctx, "home.json"); ok {
		t.Error("state survived Reset")
	}
}

func TestCorruptOrForeignVersionFallsBack(t *testing.T) {
	ctx := context.Background()
	s, c := newStore(t)
	key := cache.NewDefaultKeyer().ViewStateKey("home.json")

	for _, raw := range []string{`{"version":`, `{"version": 99, "expanded": ["a"]}`} {
		if err := c.Set(ctx, key, []byte(raw), 0); err != nil {
			t.Fatal(err)
		}
		if _, ok, err := s.Load(ctx, "home.json"); ok || err != nil {
			t.Errorf("Load(%s) = ok %v, err %v, want silent miss", raw, ok, err)
		}
	}
}

func TestTrackerRestoresSavedState(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	nodes := []hierarchy.Node{
		{ID: "house", Meta: hierarchy.Metadata{"type": "building"}},
		{ID: "floor", ParentID: "house", Meta: hierarchy.Metadata{"type": "floor"}},
		{ID: "hall", ParentID: "floor"},
	}

	fresh, err := s.Tracker(ctx, "home.json")
	if err != nil {
		t.Fatal(err)
	}
	fresh.Sync(nodes)
	if !fresh.Expanded().Has("floor") {
		t.Error("first load without saved state should expand everything")
	}

	if err := s.Save(ctx, "home.json", hierarchy.NewExpansion("house")); err != nil {
		t.Fatal(err)
	}
	restored, err := s.Tracker(ctx, "home.json")
	if err != nil {
		t.Fatal(err)
	}
	restored.Sync(nodes)
	if restored.Expanded().Has("floor") || !restored.Expanded().Has("house") {
		t.Errorf("restored state = %v, want [house]", restored.Expanded().IDs())
	}
}

func TestReloadedTrackerExpandsNewArrivals(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	nodes := []hierarchy.Node{
		{ID: "house", Meta: hierarchy.Metadata{"type": "building"}},
		{ID: "hall", ParentID: "house", Meta: hierarchy.Metadata{"type": "floor"}},
	}

	first, err := s.Tracker(ctx, "home.json")
	if err != nil {
		t.Fatal(err)
	}
	first.Sync(nodes)
	first.Collapse("house")
	if err := s.SaveTracker(ctx, "home.json", first); err != nil {
		t.Fatal(err)
	}

	nodes = append(nodes,
		hierarchy.Node{ID: "shed", Meta: hierarchy.Metadata{"type": "building"}},
		hierarchy.Node{ID: "bench", ParentID: "shed"},
		hierarchy.Node{ID: "stairs", ParentID: "hall"},
	)
	reloaded, err := s.Tracker(ctx, "home.json")
	if err != nil {
		t.Fatal(err)
	}
	reloaded.Sync(nodes)

	tests := []struct {
		id   string
		want bool
	}{
		{"shed", true},   // arrived with a child
		{"hall", true},   // gained its first child
		{"house", false}, // collapsed before saving
	}
	for _, tt := range tests {
		if got := reloaded.Expanded().Has(tt.id); got != tt.want {
			t.Errorf("%s expanded = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestVersionOneStateStillLoads(t *testing.T) {
	ctx := context.Background()
	s, c := newStore(t)
	key := cache.NewDefaultKeyer().ViewStateKey("home.json")
	if err := c.Set(ctx, key, []byte(`{"version": 1, "expanded": ["house"]}`), 0); err != nil {
		t.Fatal(err)
	}

	cp, ok, err := s.LoadCheckpoint(ctx, "home.json")
	if err != nil || !ok {
		t.Fatalf("LoadCheckpoint() = ok %v, err %v", ok, err)
	}
	if !cp.Expanded.Has("house") || len(cp.Known) != 0 {
		t.Errorf("checkpoint = %+v", cp)
	}
}

func TestSaveTrackerWritesHistory(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	tr := hierarchy.NewExpansionTracker()
	tr.Sync([]hierarchy.Node{{ID: "house"}, {ID: "hall", ParentID: "house"}})
	if err := s.SaveTracker(ctx, "home.json", tr); err != nil {
		t.Fatal(err)
	}
	cp, ok, err := s.LoadCheckpoint(ctx, "home.json")
	if err != nil || !ok {
		t.Fatalf("LoadCheckpoint() = ok %v, err %v", ok, err)
	}
	if len(cp.Known) != 2 || len(cp.Parents) != 1 || cp.Parents[0] != "house" {
		t.Errorf("checkpoint = %+v", cp)
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }

func TestCacheHooks(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	s, _ := newStore(t)
	_, _, _ = s.Load(ctx, "x")
	_ = s.Save(ctx, "x", hierarchy.NewExpansion("a"))
	_, _, _ = s.Load(ctx, "x")

	if hooks.misses != 1 || hooks.sets != 1 || hooks.hits != 1 {
		t.Errorf("hooks = %+v", hooks)
	}
}

func TestNullCacheNeverRestores(t *testing.T) {
	ctx := context.Background()
	s := NewStore(cache.NewNullCache(), cache.NewScopedKeyer(nil, "client:a:"), 0)
	if err := s.Save(ctx, "x", hierarchy.NewExpansion("a")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load(ctx, "x"); ok {
		t.Error("null cache should never restore")
	}
}
