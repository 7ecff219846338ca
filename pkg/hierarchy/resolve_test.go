package hierarchy

import (
	"testing"
)

func expandedRows(nodes []Node) []Row {
	return Flatten(nodes, ExpandAll(nodes))
}

func TestResolveSiblingOfRelatedRow(t *testing.T) {
	nodes := house()
	got := Resolve(ResolveInput{
		Rows:      expandedRows(nodes),
		Nodes:     nodes,
		DraggedID: "top-shelf",
		ParentID:  "pantry-shelf",
		NewIndex:  5,
		Context:   &DropContext{RelatedID: "living-room"},
	})
	want := Target{ParentID: "main-floor", SiblingIndex: 1}
	if got != want {
		t.Fatalf("Resolve() = %+v, want %+v", got, want)
	}
	if err := CheckMove(nodes, "top-shelf", got.ParentID); err != nil {
		t.Fatalf("CheckMove() = %v", err)
	}

	out, err := ApplyMove(nodes, "top-shelf", got.ParentID, got.SiblingIndex)
	if err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "Children(main-floor)", Children(out, "main-floor"), []string{"kitchen", "top-shelf", "living-room"})
}

func TestResolveWithoutGeometryNeverNests(t *testing.T) {
	nodes := house()
	tests := []struct {
		name        string
		related     string
		insertAfter bool
		want        Target
	}{
		{"before an expanded parent", "kitchen", false, Target{ParentID: "main-floor", SiblingIndex: 0}},
		{"after an expanded parent", "kitchen", true, Target{ParentID: "main-floor", SiblingIndex: 1}},
		{"after a leaf", "living-room", true, Target{ParentID: "main-floor", SiblingIndex: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(ResolveInput{
				Rows:      expandedRows(nodes),
				Nodes:     nodes,
				DraggedID: "top-shelf",
				ParentID:  "pantry-shelf",
				NewIndex:  5,
				Context:   &DropContext{RelatedID: tt.related, WillInsertAfter: tt.insertAfter},
			})
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveOutdentFromParent(t *testing.T) {
	nodes, err := ApplyMove(house(), "top-shelf", "living-room", 0)
	if err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "after first move", ids(nodes), []string{
		"house", "main-floor", "kitchen", "pantry", "pantry-shelf", "living-room", "top-shelf", "garden",
	})

	got := Resolve(ResolveInput{
		Rows:      expandedRows(nodes),
		Nodes:     nodes,
		DraggedID: "top-shelf",
		ParentID:  "living-room",
		NewIndex:  6,
		Context:   &DropContext{RelatedID: "living-room", WillInsertAfter: true},
	})
	want := Target{ParentID: "main-floor", SiblingIndex: 2}
	if got != want {
		t.Fatalf("Resolve() = %+v, want %+v", got, want)
	}

	out, err := Move(nodes, "top-shelf", got.ParentID, got.SiblingIndex)
	if err != nil {
		t.Fatal(err)
	}
	assertIDs(t, "Children(main-floor)", Children(out, "main-floor"), []string{"kitchen", "living-room", "top-shelf"})
}

func TestResolvePointerGeometry(t *testing.T) {
	nodes := house()
	tests := []struct {
		name    string
		pointer float64
		want    Target
	}{
		{"right of indentation nests", 80, Target{ParentID: "living-room", SiblingIndex: 0}},
		{"just past tolerance nests", 50.5, Target{ParentID: "living-room", SiblingIndex: 0}},
		{"at tolerance stays sibling", 50, Target{ParentID: "main-floor", SiblingIndex: 1}},
		{"left of indentation stays sibling", 12, Target{ParentID: "main-floor", SiblingIndex: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(ResolveInput{
				Rows:      expandedRows(nodes),
				Nodes:     nodes,
				DraggedID: "top-shelf",
				ParentID:  "pantry-shelf",
				Context: &DropContext{
					RelatedID:    "living-room",
					PointerX:     ptr(tt.pointer),
					RelatedLeftX: ptr(40),
				},
			})
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolveHalfGeometryIsIgnored(t *testing.T) {
	nodes := house()
	got := Resolve(ResolveInput{
		Rows:      expandedRows(nodes),
		DraggedID: "top-shelf",
		ParentID:  "pantry-shelf",
		Context:   &DropContext{RelatedID: "living-room", PointerX: ptr(500)},
	})
	if want := (Target{ParentID: "main-floor", SiblingIndex: 1}); got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

func TestResolveNextToFloor(t *testing.T) {
	nodes := append(house(), node("upper-floor", "house", KindFloor))
	rows := expandedRows(nodes)

	tests := []struct {
		name    string
		dragged string
		parent  string
		ctx     *DropContext
		want    Target
	}{
		{
			name:    "non-floor nests under floor",
			dragged: "garden",
			ctx:     &DropContext{RelatedID: "main-floor"},
			want:    Target{ParentID: "main-floor", SiblingIndex: 2},
		},
		{
			name:    "pointer at floor level makes a sibling",
			dragged: "garden",
			ctx:     &DropContext{RelatedID: "main-floor", PointerX: ptr(45), RelatedLeftX: ptr(40)},
			want:    Target{ParentID: "house", SiblingIndex: 0},
		},
		{
			name:    "floor becomes sibling of floor",
			dragged: "upper-floor",
			parent:  "house",
			ctx:     &DropContext{RelatedID: "main-floor", WillInsertAfter: true},
			want:    Target{ParentID: "house", SiblingIndex: 1},
		},
		{
			name:    "floor before floor",
			dragged: "upper-floor",
			parent:  "house",
			ctx:     &DropContext{RelatedID: "main-floor", PointerX: ptr(300), RelatedLeftX: ptr(0)},
			want:    Target{ParentID: "house", SiblingIndex: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(ResolveInput{
				Rows:      rows,
				Nodes:     nodes,
				DraggedID: tt.dragged,
				ParentID:  tt.parent,
				Context:   tt.ctx,
			})
			if got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolvePositionalFallback(t *testing.T) {
	nodes := house()
	rows := expandedRows(nodes)

	tests := []struct {
		name     string
		newIndex int
		ctx      *DropContext
		want     int
	}{
		{"before first sibling", 2, nil, 0},
		{"after kitchen subtree", 6, nil, 1},
		{"index past end clamps", 100, nil, 1},
		{"negative index clamps", -3, nil, 0},
		{"empty related id", 6, &DropContext{}, 1},
		{"stale related id", 6, &DropContext{RelatedID: "ghost"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(ResolveInput{
				Rows:      rows,
				Nodes:     nodes,
				DraggedID: "living-room",
				ParentID:  "main-floor",
				NewIndex:  tt.newIndex,
				Context:   tt.ctx,
			})
			want := Target{ParentID: "main-floor", SiblingIndex: tt.want}
			if got != want {
				t.Errorf("Resolve() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestResolveIgnoresRelatedInsideDraggedSubtree(t *testing.T) {
	nodes := house()
	got := Resolve(ResolveInput{
		Rows:      expandedRows(nodes),
		Nodes:     nodes,
		DraggedID: "pantry",
		ParentID:  "kitchen",
		NewIndex:  3,
		Context:   &DropContext{RelatedID: "top-shelf", PointerX: ptr(500), RelatedLeftX: ptr(0)},
	})
	if want := (Target{ParentID: "kitchen", SiblingIndex: 0}); got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}

func TestResolveNestOntoCollapsedRow(t *testing.T) {
	nodes := house()
	rows := Flatten(nodes, NewExpansion("house", "main-floor"))
	in := ResolveInput{
		Rows:      rows,
		DraggedID: "garden",
		Context:   &DropContext{RelatedID: "kitchen", PointerX: ptr(100), RelatedLeftX: ptr(40)},
	}

	in.Nodes = nodes
	if got := Resolve(in); got != (Target{ParentID: "kitchen", SiblingIndex: 1}) {
		t.Errorf("with snapshot: Resolve() = %+v, want kitchen/1", got)
	}

	in.Nodes = nil
	if got := Resolve(in); got != (Target{ParentID: "kitchen", SiblingIndex: 0}) {
		t.Errorf("rows only: Resolve() = %+v, want kitchen/0", got)
	}
}

func TestResolveTopLevelSibling(t *testing.T) {
	nodes := house()
	got := Resolve(ResolveInput{
		Rows:      expandedRows(nodes),
		Nodes:     nodes,
		DraggedID: "top-shelf",
		ParentID:  "pantry-shelf",
		Context:   &DropContext{RelatedID: "garden", WillInsertAfter: true},
	})
	if want := (Target{ParentID: "", SiblingIndex: 2}); got != want {
		t.Errorf("Resolve() = %+v, want %+v", got, want)
	}
}
