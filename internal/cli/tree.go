package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/placetree/pkg/hierarchy"
)

// =============================================================================
// Tree Rendering
// =============================================================================

var kindColors = map[hierarchy.Kind]lipgloss.Color{
	hierarchy.KindBuilding: colorBlue,
	hierarchy.KindGrounds:  colorGreen,
	hierarchy.KindFloor:    colorCyan,
	hierarchy.KindArea:     colorWhite,
	hierarchy.KindSubarea:  colorGray,
}

const (
	markerExpanded  = "▾"
	markerCollapsed = "▸"
	markerLeaf      = " "
	indentUnit      = "  "
)

// treeOptions controls how rows are drawn.
type treeOptions struct {
	showIDs bool
}

// rowMarker is the disclosure triangle of a row.
func rowMarker(r hierarchy.Row) string {
	switch {
	case !r.HasChildren:
		return markerLeaf
	case r.IsExpanded:
		return markerExpanded
	}
	return markerCollapsed
}

// rowGlyph is the kind glyph, with the root glyph for the explicit root.
func rowGlyph(n hierarchy.Node) string {
	if n.ExplicitRoot {
		return hierarchy.KindGlyph(hierarchy.KindRoot)
	}
	return hierarchy.KindGlyph(n.Kind())
}

// renderRow draws one row without styling the whole line.
func renderRow(r hierarchy.Row, opts treeOptions) string {
	n := r.Node
	color, ok := kindColors[n.Kind()]
	if !ok || n.ExplicitRoot {
		color = colorYellow
	}
	glyph := lipgloss.NewStyle().Foreground(color).Render(rowGlyph(n))

	name := n.Name
	if name == "" {
		name = n.ID
	}
	line := strings.Repeat(indentUnit, r.Depth) + StyleDim.Render(rowMarker(r)) + " " + glyph + " " + StyleValue.Render(name)
	if opts.showIDs {
		line += " " + StyleDim.Render(fmt.Sprintf("(%s · %s)", n.ID, kindLabel(n)))
	}
	return line
}

// renderTree draws rows one per line.
func renderTree(rows []hierarchy.Row, opts treeOptions) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(renderRow(r, opts))
		b.WriteByte('\n')
	}
	return b.String()
}

func kindLabel(n hierarchy.Node) string {
	if n.ExplicitRoot {
		return "root"
	}
	return n.Kind().String()
}

// =============================================================================
// Commands
// =============================================================================

// treeCommand creates the "tree" command.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		all     bool
		showIDs bool
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the location hierarchy",
		Long: `Print the location hierarchy as an indented tree.

Rows open and closed with "placetree expand" and "placetree collapse" stay
that way between runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			rows := ws.rows()
			if all {
				rows = hierarchy.Flatten(ws.nodes, hierarchy.ExpandAll(ws.nodes))
			}
			if len(rows) == 0 {
				printInfo("No locations in %s", c.storeLabel())
				return nil
			}
			fmt.Fprint(c.Out, renderTree(rows, treeOptions{showIDs: showIDs}))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "show every row regardless of the saved view")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "show location ids and kinds")
	return cmd
}

// expandCommand creates the "expand" command.
func (c *CLI) expandCommand() *cobra.Command {
	return c.viewCommand("expand", "Open rows of the tree view", func(t *hierarchy.ExpansionTracker, nodes []hierarchy.Node, id string) {
		if id == "" {
			t.ExpandAll(nodes)
			return
		}
		t.Expand(id)
	})
}

// collapseCommand creates the "collapse" command.
func (c *CLI) collapseCommand() *cobra.Command {
	return c.viewCommand("collapse", "Close rows of the tree view", func(t *hierarchy.ExpansionTracker, _ []hierarchy.Node, id string) {
		if id == "" {
			t.CollapseAll()
			return
		}
		t.Collapse(id)
	})
}

// viewCommand builds expand and collapse. apply receives "" for --all.
func (c *CLI) viewCommand(name, short string, apply func(*hierarchy.ExpansionTracker, []hierarchy.Node, string)) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   name + " [location...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("%s: name at least one location or pass --all", name)
			}
			ws, err := c.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			if all {
				apply(ws.tracker, ws.nodes, "")
			}
			for _, id := range args {
				if _, ok := hierarchy.Find(ws.nodes, id); !ok {
					return fmt.Errorf("%s: location %q not found", name, id)
				}
				apply(ws.tracker, ws.nodes, id)
			}
			if err := ws.saveView(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprint(c.Out, renderTree(ws.rows(), treeOptions{}))
			return nil
		},
		ValidArgsFunction: c.completeLocations,
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "apply to every row")
	return cmd
}

// completeLocations offers location ids for shell completion.
func (c *CLI) completeLocations(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	svc, st, err := c.openService(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer st.Close()
	nodes, err := svc.Snapshot(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, n := range nodes {
		if strings.HasPrefix(n.ID, toComplete) {
			out = append(out, n.ID+"\t"+n.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
