package hierarchy

// MetaKeyIcon is the metadata key holding an explicit icon override.
const MetaKeyIcon = "icon"

var kindIcons = map[Kind]string{
	KindRoot:     "mdi:home",
	KindBuilding: "mdi:office-building",
	KindGrounds:  "mdi:pine-tree",
	KindFloor:    "mdi:layers",
	KindArea:     "mdi:texture-box",
	KindSubarea:  "mdi:select-group",
}

var kindGlyphs = map[Kind]string{
	KindRoot:     "⌂",
	KindBuilding: "▣",
	KindGrounds:  "♣",
	KindFloor:    "≡",
	KindArea:     "□",
	KindSubarea:  "▫",
}

// KindIcon returns the default Material Design icon name for a kind.
func KindIcon(k Kind) string {
	if icon, ok := kindIcons[k]; ok {
		return icon
	}
	return kindIcons[KindArea]
}

// KindGlyph returns a single-cell terminal glyph for a kind.
func KindGlyph(k Kind) string {
	if g, ok := kindGlyphs[k]; ok {
		return g
	}
	return kindGlyphs[KindArea]
}

// Icon returns the node's icon: the metadata override when present, the
// root icon for the explicit root, and the kind's default otherwise.
func (n Node) Icon() string {
	if icon, ok := n.Meta[MetaKeyIcon].(string); ok && icon != "" {
		return icon
	}
	if n.ExplicitRoot {
		return kindIcons[KindRoot]
	}
	return KindIcon(n.Kind())
}
