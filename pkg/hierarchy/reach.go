package hierarchy

// IsDescendant reports whether candidateID lies below ancestorID.
//
// A node is never its own descendant. The walk follows candidate's parent
// chain upward and stops at a dangling parent or at a node already visited, so
// it terminates on corrupt snapshots that contain cycles.
func IsDescendant(nodes []Node, ancestorID, candidateID string) bool {
	if ancestorID == candidateID {
		return false
	}
	idx := newIndex(nodes)
	return idx.isDescendant(ancestorID, candidateID)
}

func (x *index) isDescendant(ancestorID, candidateID string) bool {
	if ancestorID == candidateID {
		return false
	}
	n, ok := x.node(candidateID)
	if !ok {
		return false
	}
	visited := map[string]bool{candidateID: true}
	for cur := n.ParentID; cur != ""; {
		if cur == ancestorID {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		p, ok := x.node(cur)
		if !ok {
			return false
		}
		cur = p.ParentID
	}
	return false
}

// Descendants returns the ids of every node below id, breadth first, with
// siblings in snapshot order. The result excludes id itself.
func Descendants(nodes []Node, id string) []string {
	return newIndex(nodes).descendants(id)
}

func (x *index) descendants(id string) []string {
	var out []string
	visited := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, i := range x.children[cur] {
			child := x.nodes[i].ID
			if visited[child] {
				continue
			}
			visited[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// Subtree returns the set made of id and all of its descendants.
func Subtree(nodes []Node, id string) map[string]bool {
	return newIndex(nodes).subtree(id)
}

func (x *index) subtree(id string) map[string]bool {
	set := map[string]bool{id: true}
	for _, d := range x.descendants(id) {
		set[d] = true
	}
	return set
}
