package hierarchy

import (
	"slices"
	"testing"
)

func node(id, parent string, kind Kind) Node {
	return Node{ID: id, Name: id, ParentID: parent, Meta: Metadata{MetaKeyType: string(kind)}}
}

func root(id string) Node {
	return Node{ID: id, Name: id, ExplicitRoot: true, Meta: Metadata{}}
}

// house is the six-level chain house→main-floor→kitchen→pantry→pantry-shelf→
// top-shelf with living-room next to kitchen and a separate garden.
func house() []Node {
	return []Node{
		node("house", "", KindBuilding),
		node("main-floor", "house", KindFloor),
		node("kitchen", "main-floor", KindArea),
		node("pantry", "kitchen", KindSubarea),
		node("pantry-shelf", "pantry", KindSubarea),
		node("top-shelf", "pantry-shelf", KindSubarea),
		node("living-room", "main-floor", KindArea),
		node("garden", "", KindGrounds),
	}
}

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func rowIDs(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Node.ID
	}
	return out
}

func bucketIDs(nodes []Node, b Bucket) []string {
	var out []string
	for _, n := range nodes {
		if n.Bucket() == b {
			out = append(out, n.ID)
		}
	}
	return out
}

func ptr(f float64) *float64 { return &f }

func assertIDs(t *testing.T, label string, got, want []string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}
