package hierarchy

import "strings"

// Kind is the normalized category of a location node.
type Kind string

// Recognized node kinds.
const (
	KindFloor    Kind = "floor"
	KindArea     Kind = "area"
	KindBuilding Kind = "building"
	KindGrounds  Kind = "grounds"
	KindSubarea  Kind = "subarea"
)

// KindRoot is the top-level sentinel used in parent positions of the policy
// table. No node ever has this kind.
const KindRoot Kind = "root"

// legacyKinds maps deprecated kind strings onto the current enumeration.
var legacyKinds = map[string]Kind{
	"room": KindArea,
}

// Kinds returns every node kind in canonical order.
func Kinds() []Kind {
	return []Kind{KindFloor, KindArea, KindBuilding, KindGrounds, KindSubarea}
}

// NormalizeKind maps a raw kind string from node metadata onto the closed kind
// enumeration. Matching is case-insensitive and ignores surrounding space.
// Legacy aliases and unknown or empty values normalize to [KindArea].
func NormalizeKind(raw string) Kind {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch k := Kind(s); k {
	case KindFloor, KindArea, KindBuilding, KindGrounds, KindSubarea:
		return k
	}
	if k, ok := legacyKinds[s]; ok {
		return k
	}
	return KindArea
}

// IsWrapper reports whether nodes of this kind are top-level wrappers
// (buildings and grounds).
func (k Kind) IsWrapper() bool {
	return k == KindBuilding || k == KindGrounds
}

func (k Kind) String() string { return string(k) }
