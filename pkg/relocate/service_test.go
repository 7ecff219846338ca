package relocate

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/placetree/pkg/drag"
	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/observability"
	"github.com/matzehuels/placetree/pkg/store"
)

func loc(id, parent, kind string) hierarchy.Node {
	return hierarchy.Node{ID: id, Name: id, ParentID: parent, Meta: hierarchy.Metadata{"type": kind}}
}

func house() []hierarchy.Node {
	return []hierarchy.Node{
		{ID: "property", Name: "Property", ExplicitRoot: true},
		loc("main-floor", "property", "floor"),
		loc("kitchen", "main-floor", "area"),
		loc("pantry", "kitchen", "subarea"),
		loc("living-room", "main-floor", "area"),
		loc("attic", "", "floor"),
		loc("garden", "", "grounds"),
	}
}

func newService(t *testing.T) (*Service, *bytes.Buffer) {
	t.Helper()
	st, err := store.NewMemoryStore(house())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	return NewService(st, logger), &buf
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	svc, logs := newService(t)

	res, err := svc.Move(ctx, "pantry", "living-room", 0)
	if err != nil {
		t.Fatalf("Move() error: %v", err)
	}
	if res.Intent.ID == "" || res.Intent.ParentID != "living-room" {
		t.Errorf("Intent = %+v", res.Intent)
	}
	if p, _ := hierarchy.Find(res.Nodes, "pantry"); p.ParentID != "living-room" {
		t.Errorf("pantry parent = %q", p.ParentID)
	}
	if !strings.Contains(logs.String(), "moved location") {
		t.Errorf("missing log line:\n%s", logs.String())
	}
}

func TestMoveInputValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.Move(ctx, "", "kitchen", 0); !errors.Is(err, errors.ErrCodeInvalidID) {
		t.Errorf("Move(empty id) = %v", err)
	}
	if _, err := svc.Move(ctx, "pantry", "kitchen", -1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Move(negative index) = %v", err)
	}
	if _, err := svc.Move(ctx, "kitchen", "kitchen", 0); !errors.Is(err, errors.ErrCodeSelfParent) {
		t.Errorf("Move(self) = %v", err)
	}
}

func TestCheckCanonicalizesFloor(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	parent, err := svc.Check(ctx, "attic", "")
	if err != nil || parent != "property" {
		t.Errorf("Check(attic, \"\") = %q, %v, want property", parent, err)
	}

	res, err := svc.Move(ctx, "attic", "", 5)
	if err != nil {
		t.Fatalf("Move(attic) error: %v", err)
	}
	assertChildren(t, res.Nodes, "property", []string{"main-floor", "attic"})

	if _, err := svc.Check(ctx, "garden", "property"); !errors.Is(err, errors.ErrCodeExplicitRootTarget) {
		t.Errorf("Check(garden, property) = %v", err)
	}
}

func assertChildren(t *testing.T, nodes []hierarchy.Node, id string, want []string) {
	t.Helper()
	got := hierarchy.Children(nodes, id)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Children(%s) = %v, want %v", id, got, want)
	}
}

type recordingHooks struct {
	observability.NoopMoveHooks
	mu                          sync.Mutex
	resolved, rejected, applied int
}

func (h *recordingHooks) OnResolve(context.Context, string, string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolved++
}

func (h *recordingHooks) OnMoveRejected(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejected++
}

func (h *recordingHooks) OnMoveApplied(context.Context, string, string, int, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.applied++
}

func TestDrop(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetMoveHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	svc, _ := newService(t)
	nodes, _ := svc.Snapshot(ctx)
	expanded := hierarchy.ExpandAll(nodes)

	// No-op: living-room dropped after kitchen's subtree.
	res, err := svc.Drop(ctx, "living-room", expanded, drag.EndEvent{
		Context: &hierarchy.DropContext{RelatedID: "kitchen", WillInsertAfter: true},
	})
	if err != nil || res.Gesture.Outcome != drag.OutcomeNoOp || res.Applied != nil {
		t.Errorf("no-op drop = %+v, %v", res, err)
	}

	// Rejected: kitchen has children and cannot leave main-floor.
	res, err = svc.Drop(ctx, "kitchen", expanded, drag.EndEvent{
		Context: &hierarchy.DropContext{RelatedID: "garden"},
	})
	if err != nil || res.Gesture.Outcome != drag.OutcomeRejected {
		t.Errorf("rejected drop = %+v, %v", res, err)
	}

	// Commit: pantry nests under living-room.
	res, err = svc.Drop(ctx, "pantry", expanded, drag.EndEvent{
		Context: &hierarchy.DropContext{RelatedID: "living-room", PointerX: ptr(90), RelatedLeftX: ptr(40)},
	})
	if err != nil || res.Gesture.Outcome != drag.OutcomeCommit || res.Applied == nil {
		t.Fatalf("commit drop = %+v, %v", res, err)
	}
	assertChildren(t, res.Applied.Nodes, "living-room", []string{"pantry"})

	if hooks.resolved != 3 || hooks.rejected != 1 || hooks.applied != 1 {
		t.Errorf("hooks resolved=%d rejected=%d applied=%d", hooks.resolved, hooks.rejected, hooks.applied)
	}

	if _, err := svc.Drop(ctx, "ghost", expanded, drag.EndEvent{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Drop(ghost) = %v", err)
	}
}

func ptr(f float64) *float64 { return &f }

// slowStore counts concurrent Move calls per location.
type slowStore struct {
	store.Store
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *slowStore) Move(ctx context.Context, intent hierarchy.Intent) ([]hierarchy.Node, error) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		m := s.maxSeen.Load()
		if n <= m || s.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return s.Store.Move(ctx, intent)
}

func TestSubmitSerializesPerLocation(t *testing.T) {
	ctx := context.Background()
	mem, _ := store.NewMemoryStore(house())
	st := &slowStore{Store: mem}
	svc := NewService(st, nil)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parent := "kitchen"
			if i%2 == 0 {
				parent = "living-room"
			}
			_, _ = svc.Move(ctx, "pantry", parent, 0)
		}()
	}
	wg.Wait()

	if got := st.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent moves of one location = %d, want 1", got)
	}
	if svc.locks.size() != 0 {
		t.Errorf("lock table leaked %d entries", svc.locks.size())
	}
}

func TestSubmitRevalidatesAgainstFreshSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	stale := hierarchy.NewIntent("living-room", hierarchy.Target{ParentID: "pantry"})
	if _, err := svc.Move(ctx, "pantry", "living-room", 0); err != nil {
		t.Fatal(err)
	}
	// pantry now lives under living-room, so the stale intent would create a cycle.
	if _, err := svc.Submit(ctx, stale); !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("Submit(stale) = %v, want CYCLE", err)
	}
}

func TestKeyedMutexDistinctKeys(t *testing.T) {
	var k keyedMutex
	a := k.lock("a")
	done := make(chan struct{})
	go func() {
		b := k.lock("b")
		b()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
	a()
	if k.size() != 0 {
		t.Errorf("size = %d after release", k.size())
	}
}
