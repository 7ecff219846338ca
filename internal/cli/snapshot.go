package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/render/dot"
	"github.com/matzehuels/placetree/pkg/snapshot"
)

// Export formats beyond the snapshot formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// exportFormats lists every value accepted by export --format.
func exportFormats() []string {
	out := []string{formatDOT, formatSVG}
	for _, f := range snapshot.Formats() {
		out = append(out, string(f))
	}
	return out
}

// =============================================================================
// validate
// =============================================================================

// snapshotStats summarizes a snapshot for the validate command.
type snapshotStats struct {
	total   int
	byKind  map[hierarchy.Kind]int
	root    string
	orphans []string
	depth   int
}

func collectStats(nodes []hierarchy.Node) snapshotStats {
	st := snapshotStats{total: len(nodes), byKind: make(map[hierarchy.Kind]int)}
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	for _, n := range nodes {
		st.byKind[n.Kind()]++
		if n.ExplicitRoot {
			st.root = n.ID
		}
		if n.ParentID != "" && !ids[n.ParentID] {
			st.orphans = append(st.orphans, n.ID)
		}
	}
	for _, r := range hierarchy.Flatten(nodes, hierarchy.ExpandAll(nodes)) {
		if r.Depth+1 > st.depth {
			st.depth = r.Depth + 1
		}
	}
	return st
}

func renderStats(st snapshotStats) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	var rows [][]string
	for _, k := range hierarchy.Kinds() {
		rows = append(rows, []string{k.String(), strconv.Itoa(st.byKind[k])})
	}
	rows = append(rows, []string{"total", strconv.Itoa(st.total)})

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Kind", "Count").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return StyleNumber
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// validateCommand creates the "validate" command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a snapshot for integrity problems",
		Long: `Check a snapshot for empty or duplicate ids, more than one property root
and cycles in parent chains.

Without a file the configured store is checked. Locations whose parent is
missing are reported but are not an error; they are hidden from the tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				nodes  []hierarchy.Node
				source string
				err    error
			)
			if len(args) == 1 {
				source = args[0]
				nodes, err = snapshot.ReadFile(source)
			} else {
				source = c.storeLabel()
				svc, st, openErr := c.openService(cmd.Context())
				if openErr != nil {
					return openErr
				}
				defer st.Close()
				nodes, err = svc.Snapshot(cmd.Context())
			}
			if err != nil {
				printError("%s is not a valid snapshot", source)
				return err
			}

			stats := collectStats(nodes)
			printSuccess("%s is valid", source)
			printKeyValue("root", valueOr(stats.root, "none"))
			printKeyValue("depth", strconv.Itoa(stats.depth))
			fmt.Fprintln(c.Out, renderStats(stats))
			if len(stats.orphans) > 0 {
				printWarning("%d locations have a missing parent and are hidden: %s",
					len(stats.orphans), strings.Join(stats.orphans, ", "))
			}
			return nil
		},
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// =============================================================================
// import / export
// =============================================================================

// importCommand creates the "import" command.
func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the store contents with a snapshot file",
		Long:  `Replace the store contents with a JSON or TOML snapshot file. The file is validated first; an invalid file leaves the store untouched.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog := newProgress(c.Logger)
			nodes, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			svc, st, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			if err := svc.Store.Replace(cmd.Context(), nodes); err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			prog.done(fmt.Sprintf("Imported %d locations", len(nodes)))
			printSuccess("Imported %s", args[0])
			printFile(c.storeLabel())
			return nil
		},
	}
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		format    string
		output    string
		detailed  bool
		direction string
		useView   bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the hierarchy as JSON, TOML, DOT or SVG",
		Long: `Write the hierarchy as a snapshot (json, toml) or a diagram (dot, svg).

Without --output the result goes to stdout. The format defaults to the
output file's extension, then to json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if format == "" {
				format = formatFromOutput(output)
			}

			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			var expanded hierarchy.Expansion
			if useView {
				expanded = ws.tracker.Expanded()
			}
			data, err := exportBytes(ctx, ws.nodes, format, dot.Options{
				Expanded:  expanded,
				Detailed:  detailed,
				Direction: direction,
			})
			if err != nil {
				return err
			}

			if output == "" {
				_, err := c.Out.Write(data)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Exported %d locations", len(ws.nodes))
			printFile(output)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "", "output format: "+strings.Join(exportFormats(), ", "))
	f.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	f.BoolVar(&detailed, "detailed", false, "include kinds and metadata in diagram labels")
	f.StringVar(&direction, "direction", "TB", "diagram direction: TB, LR, BT or RL")
	f.BoolVar(&useView, "view", false, "diagram only the rows open in the saved tree view")
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return exportFormats(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func formatFromOutput(output string) string {
	if output == "" {
		return string(snapshot.FormatJSON)
	}
	switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), "."); ext {
	case formatDOT, "gv":
		return formatDOT
	case formatSVG:
		return formatSVG
	}
	if f, err := snapshot.FormatFromPath(output); err == nil {
		return string(f)
	}
	return string(snapshot.FormatJSON)
}

// exportBytes renders nodes in format. SVG rendering runs behind a spinner.
func exportBytes(ctx context.Context, nodes []hierarchy.Node, format string, opts dot.Options) ([]byte, error) {
	switch strings.ToLower(format) {
	case formatDOT:
		return []byte(dot.ToDOT(nodes, opts)), nil
	case formatSVG:
		spin := startSpinner(ctx, "Rendering SVG...")
		defer spin.Stop()
		return dot.RenderSVG(dot.ToDOT(nodes, opts))
	}
	f, err := snapshot.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return snapshot.Marshal(nodes, f)
}
