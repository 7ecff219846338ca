package hierarchy

// Row is one line of the flattened view.
type Row struct {
	Node        Node
	Depth       int  // 0 for top-level nodes
	HasChildren bool // any node names this one as parent
	IsExpanded  bool // the node's id is in the expansion set
}

// Flatten linearizes the forest into the view sequence used for rendering and
// as the drag library's index space.
//
// The traversal is pre-order depth first, starting from every top-level node in
// snapshot order. Children are visited in snapshot order, and only below
// expanded nodes. Orphans (dangling parents) are never reached. Calling
// Flatten twice with the same inputs yields identical rows.
func Flatten(nodes []Node, expanded Expansion) []Row {
	idx := newIndex(nodes)
	rows := make([]Row, 0, len(nodes))
	visited := make(map[string]bool, len(nodes))

	var walk func(i, depth int)
	walk = func(i, depth int) {
		n := nodes[i]
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true

		kids := idx.children[n.ID]
		open := expanded.Has(n.ID)
		rows = append(rows, Row{
			Node:        n,
			Depth:       depth,
			HasChildren: len(kids) > 0,
			IsExpanded:  open,
		})
		if !open {
			return
		}
		for _, k := range kids {
			walk(k, depth+1)
		}
	}

	for i, n := range nodes {
		if n.ParentID == "" {
			walk(i, 0)
		}
	}
	return rows
}

// RowIndex returns the position of id in rows, or -1.
func RowIndex(rows []Row, id string) int {
	for i, r := range rows {
		if r.Node.ID == id {
			return i
		}
	}
	return -1
}
