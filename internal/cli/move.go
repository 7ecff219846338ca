package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/placetree/pkg/drag"
	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

// ErrRefused is returned by commands after they have printed a refused move.
// main exits with status 2 without printing it again.
var ErrRefused = fmt.Errorf("move refused")

// parentArg reads the optional parent argument. "" and "-" mean top level.
func parentArg(args []string) string {
	if len(args) < 2 || args[1] == "-" {
		return ""
	}
	return args[1]
}

func parentLabel(id string) string {
	if id == "" {
		return "top level"
	}
	return id
}

// checkCommand creates the "check" command.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <location> [parent]",
		Short: "Check whether a location may move under a parent",
		Long: `Check whether a location may move under a parent without changing anything.

Omit the parent, or pass "-", to check a move to the top level. A floor moved
to the top level is placed under the property root when one exists.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeLocations,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, st, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			parent, err := svc.Check(cmd.Context(), args[0], parentArg(args))
			switch {
			case err == nil:
				printSuccess("%s can move under %s", args[0], StyleHighlight.Render(parentLabel(parent)))
				return nil
			case errors.IsRefusal(err) || errors.Is(err, errors.ErrCodeNotFound):
				printError("%s cannot move under %s", args[0], parentLabel(parent))
				printDetail("%s (%s)", hierarchy.Reason(err), errors.GetCode(err))
				return ErrRefused
			}
			return err
		},
	}
}

// moveCommand creates the "move" command.
func (c *CLI) moveCommand() *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "move <location> [parent]",
		Short: "Move a location under a new parent",
		Long: `Move a location, with everything inside it, under a new parent.

Omit the parent, or pass "-", to move to the top level. --index is the
position among the new siblings; by default the location goes last.
Locations that contain other locations can only be reordered under their
current parent.`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: c.completeLocations,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			id := args[0]
			parent := hierarchy.CanonicalParent(ws.nodes, id, parentArg(args))
			if index < 0 {
				index = siblingCount(ws.nodes, id, parent)
			}

			res, err := ws.svc.Move(ctx, id, parent, index)
			if err != nil {
				if errors.IsRefusal(err) || errors.Is(err, errors.ErrCodeNotFound) {
					printError("%s", hierarchy.Reason(err))
					printDetail("%s", errors.UserMessage(err))
					return ErrRefused
				}
				return err
			}

			printSuccess("Moved %s under %s at position %d", id, StyleHighlight.Render(parentLabel(res.Intent.ParentID)), res.Intent.SiblingIndex)
			printDetail("intent %s (%s)", res.Intent.ID, res.Duration.Round(time.Microsecond))
			ws.nodes = res.Nodes
			ws.tracker.Sync(res.Nodes)
			if res.Intent.ParentID != "" {
				ws.tracker.Expand(res.Intent.ParentID)
			}
			if err := ws.saveView(ctx); err != nil {
				c.Logger.Warn("save view state", "error", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", -1, "position among the new siblings (default: last)")
	return cmd
}

// siblingCount counts the children of parentID other than id, which is the
// index that appends id at the end.
func siblingCount(nodes []hierarchy.Node, id, parentID string) int {
	n, ok := hierarchy.Find(nodes, id)
	if !ok {
		return 0
	}
	bucket := hierarchy.BucketOf(parentID, n.ExplicitRoot)
	count := 0
	for _, m := range nodes {
		if m.ID != id && m.Bucket() == bucket {
			count++
		}
	}
	return count
}

// dropCommand creates the "drop" command.
func (c *CLI) dropCommand() *cobra.Command {
	var (
		related  string
		after    bool
		newIndex int
		pointerX float64
		leftX    float64
		all      bool
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "drop <location>",
		Short: "Replay a drag-and-drop gesture against the tree view",
		Long: `Replay a drag-and-drop gesture against the current tree view.

--new-index is the drop position in the view with the dragged rows removed.
--related names the row the location was dropped next to and --after says it
landed below that row. --pointer-x and --related-left-x give the horizontal
pointer position and the related row's indentation; a pointer to the right of
the row nests the location inside it.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeLocations,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			expanded := ws.tracker.Expanded()
			if all {
				expanded = hierarchy.ExpandAll(ws.nodes)
			}
			ev := drag.EndEvent{NewIndex: newIndex}
			if related != "" {
				ev.Context = &hierarchy.DropContext{RelatedID: related, WillInsertAfter: after}
				if cmd.Flags().Changed("pointer-x") && cmd.Flags().Changed("related-left-x") {
					ev.Context.PointerX = &pointerX
					ev.Context.RelatedLeftX = &leftX
				}
			}

			if dryRun {
				sess, err := drag.Begin(ws.nodes, expanded, args[0])
				if err != nil {
					return err
				}
				return c.reportGesture(args[0], sess.End(ctx, ev))
			}

			out, err := ws.svc.Drop(ctx, args[0], expanded, ev)
			if err != nil {
				if errors.IsRefusal(err) {
					printError("%s", hierarchy.Reason(err))
					return ErrRefused
				}
				return err
			}
			if err := c.reportGesture(args[0], out.Gesture); err != nil {
				return err
			}
			if out.Applied != nil {
				ws.nodes = out.Applied.Nodes
				ws.tracker.Sync(out.Applied.Nodes)
				if p := out.Applied.Intent.ParentID; p != "" {
					ws.tracker.Expand(p)
				}
				if err := ws.saveView(ctx); err != nil {
					c.Logger.Warn("save view state", "error", err)
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&related, "related", "", "row the location was dropped next to")
	f.BoolVar(&after, "after", false, "the drop landed below the related row")
	f.IntVar(&newIndex, "new-index", 0, "drop index in the view without the dragged rows")
	f.Float64Var(&pointerX, "pointer-x", 0, "horizontal pointer position")
	f.Float64Var(&leftX, "related-left-x", 0, "left edge of the related row's content")
	f.BoolVarP(&all, "all", "a", false, "drag over the fully expanded view")
	f.BoolVar(&dryRun, "dry-run", false, "resolve the gesture without moving anything")
	return cmd
}

func (c *CLI) reportGesture(id string, g drag.Result) error {
	switch g.Outcome {
	case drag.OutcomeNoOp:
		printInfo("%s stays where it is", id)
	case drag.OutcomeRejected:
		printError("%s", g.Reason)
		printDetail("target: %s at %d (%s)", parentLabel(g.Target.ParentID), g.Target.SiblingIndex, errors.GetCode(g.Err))
		return ErrRefused
	case drag.OutcomeCommit:
		printSuccess("%s → %s at position %d", id, StyleHighlight.Render(parentLabel(g.Target.ParentID)), g.Target.SiblingIndex)
	}
	return nil
}
