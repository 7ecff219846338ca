package dot

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/placetree/pkg/hierarchy"
)

// Options configures diagram generation.
type Options struct {
	// Expanded selects visible rows. Nil means every parent is expanded.
	Expanded hierarchy.Expansion
	// Detailed includes the kind and metadata in node labels.
	Detailed bool
	// Direction is the Graphviz rankdir (TB, LR, BT, RL).
	Direction string
}

var kindStyles = map[hierarchy.Kind]string{
	hierarchy.KindBuilding: `shape=box3d, fillcolor="#dbe9f6"`,
	hierarchy.KindGrounds:  `shape=box, style="rounded,filled", fillcolor="#d9f0d3"`,
	hierarchy.KindFloor:    `shape=tab, fillcolor="#fdf2d0"`,
	hierarchy.KindArea:     `shape=box, style="rounded,filled", fillcolor=white`,
	hierarchy.KindSubarea:  `shape=box, style="rounded,filled,dashed", fillcolor="#f4f4f4"`,
}

// ToDOT converts a snapshot to Graphviz DOT source.
func ToDOT(nodes []hierarchy.Node, opts Options) string {
	expanded := opts.Expanded
	if expanded == nil {
		expanded = hierarchy.ExpandAll(nodes)
	}
	dir := strings.ToUpper(opts.Direction)
	if dir == "" {
		dir = "TB"
	}

	rows := hierarchy.Flatten(nodes, expanded)
	visible := make(map[string]bool, len(rows))
	for _, r := range rows {
		visible[r.Node.ID] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph locations {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, r := range rows {
		attrs := fmtAttrs(r, fmtLabel(r.Node, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", r.Node.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, r := range rows {
		if p := r.Node.ParentID; p != "" && visible[p] {
			fmt.Fprintf(&buf, "  %q -> %q;\n", p, r.Node.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n hierarchy.Node, detailed bool) string {
	label := n.Name
	if label == "" {
		label = n.ID
	}
	if !detailed {
		return label
	}

	parts := []string{"kind: " + n.Kind().String()}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if k == hierarchy.MetaKeyType {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(r hierarchy.Row, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case r.Node.ExplicitRoot:
		attrs = append(attrs, "shape=house", "peripheries=2", "fillcolor=\"#ececec\"")
	default:
		attrs = append(attrs, kindStyles[r.Node.Kind()])
	}
	if r.HasChildren && !r.IsExpanded {
		attrs = append(attrs, "penwidth=2", "color=\"#888888\"")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the drawing starts at the origin
// and carries explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
