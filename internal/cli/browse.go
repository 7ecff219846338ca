package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/placetree/pkg/drag"
	"github.com/matzehuels/placetree/pkg/hierarchy"
	"github.com/matzehuels/placetree/pkg/relocate"
)

// Browse styles
var (
	browseCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	browseDropOK      = lipgloss.NewStyle().Foreground(colorGreen)
	browseDropBad     = lipgloss.NewStyle().Foreground(colorRed)
)

// rowWidth is the virtual pixel width of one indentation level, used to
// synthesize pointer geometry for keyboard drops.
const rowWidth = 2 * hierarchy.Epsilon

// =============================================================================
// BrowseModel - Interactive tree with keyboard moves
// =============================================================================

// browseModel is the bubbletea model behind "placetree browse".
//
// In normal mode the cursor walks the visible rows. Pressing m picks up the
// row under the cursor: the view then lists the rows that remain without the
// dragged subtree, the cursor marks the row the drop lands after, and tab
// toggles nesting inside that row.
type browseModel struct {
	ctx     context.Context
	svc     *relocate.Service
	nodes   []hierarchy.Node
	tracker *hierarchy.ExpansionTracker
	rows    []hierarchy.Row
	cursor  int
	offset  int
	height  int

	sess      *drag.Session
	moving    []hierarchy.Row // drop candidates while a row is picked up
	dropAt    int             // insert after moving[dropAt]; -1 is before the first row
	nest      bool
	target    hierarchy.Target
	dropOK    bool
	busy      bool
	viewDirty bool

	status    string
	statusBad bool
}

// moveDoneMsg reports the result of a submitted intent.
type moveDoneMsg struct {
	res *relocate.Result
	err error
}

func newBrowseModel(ctx context.Context, svc *relocate.Service, nodes []hierarchy.Node, tracker *hierarchy.ExpansionTracker) *browseModel {
	m := &browseModel{ctx: ctx, svc: svc, nodes: nodes, tracker: tracker, height: 20}
	m.refreshRows()
	return m
}

func (m *browseModel) Init() tea.Cmd { return nil }

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	case moveDoneMsg:
		return m.moveDone(msg), nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.sess != nil {
			return m.updateMoving(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m *browseModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.setCursor(m.cursor - 1)
	case "down", "j":
		m.setCursor(m.cursor + 1)
	case "right", "l":
		if r, ok := m.current(); ok && r.HasChildren && !r.IsExpanded {
			m.tracker.Expand(r.Node.ID)
			m.viewChanged(r.Node.ID)
		}
	case "left", "h":
		r, ok := m.current()
		if !ok {
			break
		}
		if r.HasChildren && r.IsExpanded {
			m.tracker.Collapse(r.Node.ID)
			m.viewChanged(r.Node.ID)
		} else if i := hierarchy.RowIndex(m.rows, r.Node.ParentID); i >= 0 {
			m.setCursor(i)
		}
	case " ", "enter":
		if r, ok := m.current(); ok && r.HasChildren {
			m.tracker.Toggle(r.Node.ID)
			m.viewChanged(r.Node.ID)
		}
	case "m":
		m.pickUp()
	}
	return m, nil
}

func (m *browseModel) updateMoving(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.sess.Cancel()
		m.endMove("Move cancelled", false)
	case "up", "k":
		if m.dropAt > -1 {
			m.dropAt--
			if m.dropAt < 0 {
				m.nest = false
			}
			m.previewDrop()
		}
	case "down", "j":
		if m.dropAt < len(m.moving)-1 {
			m.dropAt++
			m.previewDrop()
		}
	case "tab", "right", "left":
		if m.dropAt >= 0 {
			m.nest = !m.nest
			m.previewDrop()
		}
	case "enter":
		return m, m.drop()
	}
	return m, nil
}

// pickUp starts a keyboard drag of the row under the cursor.
func (m *browseModel) pickUp() {
	r, ok := m.current()
	if !ok {
		return
	}
	sess, err := drag.Begin(m.nodes, m.tracker.Expanded(), r.Node.ID)
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.sess = sess

	subtree := make(map[string]bool)
	subtree[r.Node.ID] = true
	m.moving = m.moving[:0]
	for _, row := range sess.Rows() {
		if subtree[row.Node.ParentID] {
			subtree[row.Node.ID] = true
			continue
		}
		if !subtree[row.Node.ID] {
			m.moving = append(m.moving, row)
		}
	}
	// Start on the row that was above the dragged one.
	m.dropAt = m.cursor - 1
	m.nest = false
	m.previewDrop()
	m.setStatus("Moving "+r.Node.Name+": ↑/↓ position, tab nest, ⏎ drop, esc cancel", false)
}

// preview converts the keyboard drop position into the hint a pointer would
// have produced.
func (m *browseModel) preview() drag.PreviewEvent {
	if len(m.moving) == 0 {
		return drag.PreviewEvent{}
	}
	if m.dropAt < 0 {
		return drag.PreviewEvent{RelatedID: m.moving[0].Node.ID}
	}
	related := m.moving[m.dropAt]
	left := float64(related.Depth) * rowWidth
	pointer := left
	if m.nest {
		pointer = left + rowWidth
	}
	return drag.PreviewEvent{
		RelatedID:       related.Node.ID,
		WillInsertAfter: true,
		PointerX:        &pointer,
		RelatedLeftX:    &left,
	}
}

func (m *browseModel) previewDrop() {
	m.target, m.dropOK = m.sess.Preview(m.preview())
}

// drop finishes the gesture at the last previewed position and submits a
// committed intent.
func (m *browseModel) drop() tea.Cmd {
	res := m.sess.End(m.ctx, drag.EndEvent{NewIndex: m.dropAt + 1})
	switch res.Outcome {
	case drag.OutcomeNoOp:
		m.endMove("Nothing moved", false)
		return nil
	case drag.OutcomeRejected:
		m.endMove(res.Reason, true)
		return nil
	}

	m.busy = true
	svc, ctx, intent := m.svc, m.ctx, res.Intent
	return func() tea.Msg {
		out, err := svc.Submit(ctx, intent)
		return moveDoneMsg{res: out, err: err}
	}
}

func (m *browseModel) moveDone(msg moveDoneMsg) *browseModel {
	m.busy = false
	if msg.err != nil {
		m.endMove(hierarchy.Reason(msg.err), true)
		return m
	}
	intent := msg.res.Intent
	m.nodes = msg.res.Nodes
	m.tracker.Sync(m.nodes)
	if intent.ParentID != "" {
		m.tracker.Expand(intent.ParentID)
	}
	m.viewDirty = true
	m.endMove(fmt.Sprintf("Moved %s under %s", intent.LocationID, parentLabel(intent.ParentID)), false)
	if i := hierarchy.RowIndex(m.rows, intent.LocationID); i >= 0 {
		m.setCursor(i)
	}
	return m
}

func (m *browseModel) endMove(status string, bad bool) {
	m.sess = nil
	m.moving = nil
	m.refreshRows()
	m.setStatus(status, bad)
}

// =============================================================================
// State Helpers
// =============================================================================

func (m *browseModel) refreshRows() {
	m.rows = hierarchy.Flatten(m.nodes, m.tracker.Expanded())
	m.setCursor(m.cursor)
}

// viewChanged rebuilds rows after an expansion change and keeps the cursor
// on id.
func (m *browseModel) viewChanged(id string) {
	m.viewDirty = true
	m.refreshRows()
	if i := hierarchy.RowIndex(m.rows, id); i >= 0 {
		m.setCursor(i)
	}
}

func (m *browseModel) current() (hierarchy.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return hierarchy.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *browseModel) setCursor(i int) {
	if i >= len(m.rows) {
		i = len(m.rows) - 1
	}
	if i < 0 {
		i = 0
	}
	m.cursor = i
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *browseModel) setStatus(s string, bad bool) {
	m.status, m.statusBad = s, bad
}

// =============================================================================
// View
// =============================================================================

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Locations"))
	b.WriteString("\n")
	if m.sess != nil {
		b.WriteString(browseDimStyle.Render("↑/↓ position  tab nest  ⏎ drop  esc cancel"))
	} else {
		b.WriteString(browseDimStyle.Render("↑/↓ navigate  ←/→ collapse/expand  m move  q quit"))
	}
	b.WriteString("\n\n")

	if m.sess != nil {
		m.viewMoving(&b)
	} else {
		m.viewRows(&b)
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.statusBad {
			b.WriteString(styleIconError.Render(iconError) + " " + m.status)
		} else {
			b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.status)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *browseModel) viewRows(b *strings.Builder) {
	if len(m.rows) == 0 {
		b.WriteString(browseDimStyle.Render("  no locations"))
		b.WriteString("\n")
		return
	}
	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		line := renderRow(m.rows[i], treeOptions{})
		if i == m.cursor {
			b.WriteString(browseCursorStyle.Render("▸ ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(browseDimStyle.Render(fmt.Sprintf("\n  [%d/%d]", m.cursor+1, len(m.rows))))
	b.WriteString("\n")
}

func (m *browseModel) viewMoving(b *strings.Builder) {
	dragged := m.sess.Dragged()
	marker := browseDropOK.Render(iconSuccess)
	if !m.dropOK {
		marker = browseDropBad.Render(iconError)
	}
	depth := 0
	if m.dropAt >= 0 {
		depth = m.moving[m.dropAt].Depth
		if m.nest {
			depth++
		}
	}
	insert := "  " + strings.Repeat(indentUnit, depth) + marker + " " +
		browseCursorStyle.Render(dragged.Name) + " " +
		browseDimStyle.Render(fmt.Sprintf("→ %s at %d", parentLabel(m.target.ParentID), m.target.SiblingIndex))

	if m.dropAt < 0 {
		b.WriteString(insert + "\n")
	}
	for i, r := range m.moving {
		b.WriteString("  " + renderRow(r, treeOptions{}) + "\n")
		if i == m.dropAt {
			b.WriteString(insert + "\n")
		}
	}
}

// =============================================================================
// Command
// =============================================================================

// browseCommand creates the "browse" command.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and rearrange locations interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			m := newBrowseModel(ctx, ws.svc, ws.nodes, ws.tracker)
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			if bm, ok := final.(*browseModel); ok && bm.viewDirty {
				if err := ws.saveView(ctx); err != nil {
					c.Logger.Warn("save view state", "error", err)
				}
			}
			return nil
		},
	}
}
