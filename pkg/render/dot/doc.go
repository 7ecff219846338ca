// Package dot renders a location hierarchy as a Graphviz diagram.
//
// # Usage
//
// Convert a snapshot to DOT source, then render it to SVG:
//
//	src := dot.ToDOT(nodes, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//
// Locations appear as boxes connected parent to child. Shapes and fills
// follow the location kind; the explicit root is drawn with a double
// outline. Only rows visible under [Options.Expanded] are drawn, so an export
// matches what the tree view shows. A nil expansion draws everything.
//
// # Options
//
//   - Expanded: which parents show their children
//   - Detailed: add kind and metadata lines to each label
//   - Direction: Graphviz rankdir, "TB" by default
package dot
