package hierarchy

import (
	"testing"
)

func TestExpansion(t *testing.T) {
	e := NewExpansion("b", "a")
	if !e.Has("a") || e.Has("c") {
		t.Fatal("Has mismatch")
	}
	if e.Toggle("a") {
		t.Error("Toggle(a) should collapse")
	}
	if !e.Toggle("c") {
		t.Error("Toggle(c) should expand")
	}
	assertIDs(t, "IDs", e.IDs(), []string{"b", "c"})

	c := e.Clone()
	c.Remove("b")
	if !e.Has("b") {
		t.Error("Clone shares storage with the original")
	}

	var none Expansion
	if none.Has("a") {
		t.Error("nil expansion should be empty")
	}
}

func TestExpandAll(t *testing.T) {
	assertIDs(t, "ExpandAll", ExpandAll(house()).IDs(),
		[]string{"house", "kitchen", "main-floor", "pantry", "pantry-shelf"})
}

func TestTrackerFirstSyncExpandsAll(t *testing.T) {
	tr := NewExpansionTracker()
	tr.Sync(house())
	assertIDs(t, "expanded", tr.Expanded().IDs(),
		[]string{"house", "kitchen", "main-floor", "pantry", "pantry-shelf"})
}

func TestTrackerRestoredStateWins(t *testing.T) {
	tr := NewExpansionTracker()
	tr.Restore(NewExpansion("house"))
	tr.Sync(house())
	assertIDs(t, "expanded", tr.Expanded().IDs(), []string{"house"})
}

func TestTrackerLaterSyncs(t *testing.T) {
	nodes := house()
	tr := NewExpansionTracker()
	tr.Sync(nodes)
	tr.Collapse("kitchen")

	// Same snapshot again: user choice survives.
	tr.Sync(nodes)
	if tr.Expanded().Has("kitchen") {
		t.Fatal("resync reopened a collapsed node")
	}

	// A new child under an existing parent leaves the parent as the user left it.
	nodes = append(nodes, node("spoon-drawer", "kitchen", KindSubarea))
	tr.Sync(nodes)
	if tr.Expanded().Has("kitchen") {
		t.Error("kitchen already had children and should stay collapsed")
	}

	// First child of a leaf expands the new parent.
	nodes = append(nodes, node("sofa-corner", "living-room", KindSubarea))
	tr.Sync(nodes)
	if !tr.Expanded().Has("living-room") {
		t.Error("living-room gained its first child and should expand")
	}

	// A new node arriving with children is expanded.
	nodes = append(nodes, node("shed", "", KindBuilding), node("bench", "shed", KindSubarea))
	tr.Sync(nodes)
	if !tr.Expanded().Has("shed") {
		t.Error("new parent shed should be expanded")
	}
}

func TestTrackerNeverCollapses(t *testing.T) {
	tr := NewExpansionTracker()
	tr.Sync(house())
	tr.Sync([]Node{node("house", "", KindBuilding)})
	if !tr.Expanded().Has("main-floor") {
		t.Error("sync removed an expanded id")
	}

	tr.CollapseAll()
	if len(tr.Expanded()) != 0 {
		t.Error("CollapseAll left ids behind")
	}
	tr.ExpandAll(house())
	if !tr.Expanded().Has("pantry") {
		t.Error("ExpandAll missed pantry")
	}
	if tr.Toggle("pantry") {
		t.Error("Toggle should collapse pantry")
	}
	tr.Expand("garden")
	if !tr.Expanded().Has("garden") {
		t.Error("Expand(garden) had no effect")
	}
}

func TestTrackerResumeSeesOnlyNewNodes(t *testing.T) {
	nodes := house()
	first := NewExpansionTracker()
	first.Sync(nodes)
	first.Collapse("kitchen")
	cp := first.Checkpoint()

	nodes = append(nodes,
		node("shed", "", KindBuilding), node("bench", "shed", KindSubarea),
		node("sofa-corner", "living-room", KindSubarea))

	next := NewExpansionTracker()
	next.Resume(cp)
	next.Sync(nodes)
	for _, id := range []string{"shed", "living-room"} {
		if !next.Expanded().Has(id) {
			t.Errorf("%s should expand after resume", id)
		}
	}
	if next.Expanded().Has("kitchen") {
		t.Error("resume reopened a collapsed node")
	}
}

func TestTrackerResumeWithoutHistory(t *testing.T) {
	tr := NewExpansionTracker()
	tr.Resume(Checkpoint{Expanded: NewExpansion("house")})
	tr.Sync(house())
	assertIDs(t, "expanded", tr.Expanded().IDs(), []string{"house"})
}

func TestTrackerCheckpoint(t *testing.T) {
	tr := NewExpansionTracker()
	tr.Sync([]Node{node("house", "", KindBuilding), node("hall", "house", KindFloor)})
	cp := tr.Checkpoint()
	assertIDs(t, "known", cp.Known, []string{"hall", "house"})
	assertIDs(t, "parents", cp.Parents, []string{"house"})
	assertIDs(t, "expanded", cp.Expanded.IDs(), []string{"house"})
}
