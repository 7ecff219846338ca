package dot

import (
	"strings"
	"testing"

	"github.com/matzehuels/placetree/pkg/hierarchy"
)

func loc(id, parent, kind string) hierarchy.Node {
	return hierarchy.Node{ID: id, Name: strings.ToUpper(id), ParentID: parent, Meta: hierarchy.Metadata{"type": kind}}
}

func sample() []hierarchy.Node {
	return []hierarchy.Node{
		{ID: "property", Name: "Property", ExplicitRoot: true},
		loc("ground", "property", "floor"),
		loc("kitchen", "ground", "area"),
		loc("drawer", "kitchen", "subarea"),
		loc("yard", "", "grounds"),
	}
}

func TestToDOT(t *testing.T) {
	out := ToDOT(sample(), Options{})

	for _, want := range []string{
		"digraph locations {",
		"rankdir=TB;",
		`"property" -> "ground";`,
		`"kitchen" -> "drawer";`,
		`label="KITCHEN"`,
		"peripheries=2",
		"shape=tab",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ToDOT missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `-> "yard"`) {
		t.Error("top-level node should have no incoming edge")
	}
}

func TestToDOTRespectsExpansion(t *testing.T) {
	out := ToDOT(sample(), Options{Expanded: hierarchy.NewExpansion("property"), Direction: "lr"})

	if !strings.Contains(out, "rankdir=LR;") {
		t.Error("direction not applied")
	}
	if strings.Contains(out, `"kitchen"`) {
		t.Error("collapsed descendants should be hidden")
	}
	if !strings.Contains(out, `"ground" [`) || !strings.Contains(out, "penwidth=2") {
		t.Errorf("collapsed parent should be drawn and marked:\n%s", out)
	}
}

func TestToDOTDetailed(t *testing.T) {
	nodes := sample()
	nodes[2].Meta["icon"] = "mdi:stove"
	out := ToDOT(nodes, Options{Detailed: true})
	if !strings.Contains(out, `KITCHEN\nkind: area\nicon: mdi:stove`) {
		t.Errorf("detailed label missing:\n%s", out)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 120.50 80.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 120.50 80.00" width="120" height="80"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if string(normalizeViewBox([]byte("<svg>"))) != "<svg>" {
		t.Error("input without viewBox should be unchanged")
	}
}
