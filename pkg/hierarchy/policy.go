package hierarchy

import "slices"

// parentPolicy lists, per kind, the kinds allowed in the parent position.
// Kinds missing from the table fall back to defaultParents.
var parentPolicy = map[Kind][]Kind{
	KindFloor:    {KindRoot, KindBuilding},
	KindBuilding: {KindRoot},
	KindGrounds:  {KindRoot},
	KindSubarea:  {KindRoot, KindFloor, KindArea, KindBuilding, KindGrounds, KindSubarea},
}

var defaultParents = []Kind{KindRoot, KindFloor, KindArea, KindBuilding, KindGrounds}

// AllowedParents returns the parent kinds a node of kind k may live under.
// [KindRoot] stands for top level. The result is a fresh slice and does not
// depend on any snapshot.
func AllowedParents(k Kind) []Kind {
	if parents, ok := parentPolicy[k]; ok {
		return slices.Clone(parents)
	}
	return slices.Clone(defaultParents)
}

// IsParentAllowed reports whether parentKind is in [AllowedParents] of k.
func IsParentAllowed(k, parentKind Kind) bool {
	if parents, ok := parentPolicy[k]; ok {
		return slices.Contains(parents, parentKind)
	}
	return slices.Contains(defaultParents, parentKind)
}

// FloorParent returns the parent id every top-level floor must use: the
// explicit root's id when the snapshot has one, otherwise "" (top level).
func FloorParent(nodes []Node) string {
	if root, ok := ExplicitRoot(nodes); ok {
		return root.ID
	}
	return ""
}

// CanonicalParent rewrites a top-level target for floors. When the snapshot
// has an explicit root, dropping a floor at top level means placing it under
// that root, which is the only way a move reaches the explicit root.
// Every other combination is returned unchanged.
func CanonicalParent(nodes []Node, nodeID, parentID string) string {
	if parentID != "" {
		return parentID
	}
	n, ok := Find(nodes, nodeID)
	if !ok || n.ExplicitRoot || n.Kind() != KindFloor {
		return parentID
	}
	return FloorParent(nodes)
}
