package hierarchy_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/placetree/pkg/hierarchy"
)

func loc(id, parent, kind string) hierarchy.Node {
	return hierarchy.Node{ID: id, Name: id, ParentID: parent, Meta: hierarchy.Metadata{"type": kind}}
}

func Example() {
	nodes := []hierarchy.Node{
		loc("house", "", "building"),
		loc("ground-floor", "house", "floor"),
		loc("kitchen", "ground-floor", "area"),
		loc("hallway", "ground-floor", "area"),
	}

	for _, r := range hierarchy.Flatten(nodes, hierarchy.ExpandAll(nodes)) {
		fmt.Printf("%s%s\n", strings.Repeat("  ", r.Depth), r.Node.Name)
	}
	// Output:
	// house
	//   ground-floor
	//     kitchen
	//     hallway
}

func ExampleResolve() {
	nodes := []hierarchy.Node{
		loc("house", "", "building"),
		loc("ground-floor", "house", "floor"),
		loc("kitchen", "ground-floor", "area"),
		loc("hallway", "ground-floor", "area"),
		loc("drawer", "kitchen", "subarea"),
	}
	rows := hierarchy.Flatten(nodes, hierarchy.ExpandAll(nodes))

	target := hierarchy.Resolve(hierarchy.ResolveInput{
		Rows:      rows,
		Nodes:     nodes,
		DraggedID: "drawer",
		ParentID:  "kitchen",
		Context:   &hierarchy.DropContext{RelatedID: "hallway", WillInsertAfter: true},
	})
	fmt.Println(target.ParentID, target.SiblingIndex)
	// Output: ground-floor 2
}

func ExampleCheckMove() {
	nodes := []hierarchy.Node{
		loc("house", "", "building"),
		loc("ground-floor", "house", "floor"),
		loc("kitchen", "ground-floor", "area"),
		loc("drawer", "kitchen", "subarea"),
	}

	err := hierarchy.CheckMove(nodes, "kitchen", "drawer")
	fmt.Println(hierarchy.Reason(err))
	// Output: A location cannot be moved into one of its own sub-locations.
}

func ExampleMove() {
	nodes := []hierarchy.Node{
		loc("garage", "", "area"),
		loc("shelf", "", "subarea"),
	}

	out, err := hierarchy.Move(nodes, "shelf", "garage", 0)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(hierarchy.Children(out, "garage"))
	// Output: [shelf]
}
