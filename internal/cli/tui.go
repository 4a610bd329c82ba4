package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/rulemaker/pkg/diagram"
	"github.com/matzehuels/rulemaker/pkg/editor"
	errs "github.com/matzehuels/rulemaker/pkg/errors"
)

// nudge is how far H/J/K/L move the selected step.
const nudge = 20.0

var (
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
	listMarkedStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	inputStyle        = lipgloss.NewStyle().Foreground(colorWhite).Underline(true)
)

var roleStyles = map[diagram.Role]lipgloss.Style{
	diagram.RoleStart: lipgloss.NewStyle().Foreground(colorGreen),
	diagram.RoleEnd:   lipgloss.NewStyle().Foreground(colorRed),
	diagram.RoleSub:   lipgloss.NewStyle().Foreground(colorYellow),
	diagram.RoleMain:  lipgloss.NewStyle().Foreground(colorWhite),
}

type inputMode int

const (
	modeNormal inputMode = iota
	modeRename
	modeConfirmQuit
)

// EditorModel is the bubbletea model of `rulemaker edit`. Every key maps
// onto one editor.Session operation; refusals are shown on the status line.
type EditorModel struct {
	ctx     context.Context
	session *editor.Session
	store   *editor.StateStore // nil disables state persistence

	rows   []string // step ids in display order
	cursor int
	offset int
	height int
	marked string // first step of a pending swap

	mode   inputMode
	input  string
	status string
	failed bool
}

// NewEditorModel wraps an open session.
func NewEditorModel(ctx context.Context, s *editor.Session, store *editor.StateStore) EditorModel {
	m := EditorModel{ctx: ctx, session: s, store: store, height: 15}
	m.refresh()
	if sel := s.Selected(); sel != "" {
		m.cursor = max(slices.Index(m.rows, sel), 0)
	} else if len(m.rows) > 0 {
		_ = s.Select(m.rows[0])
	}
	return m
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-10, 5)
		m.scroll()
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeRename:
			return m.updateRename(msg)
		case modeConfirmQuit:
			if s := msg.String(); s == "q" || s == "y" || s == "ctrl+c" {
				return m.quit()
			}
			m.mode = modeNormal
			m.setStatus("", nil)
			return m, nil
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m EditorModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session
	sel := s.Selected()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if s.Dirty() {
			m.mode = modeConfirmQuit
			m.setStatus("Unsaved changes. Press q again to quit without saving.", nil)
			return m, nil
		}
		return m.quit()
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "a":
		m.apply(func() error {
			step, err := s.AddStep(sel)
			if err == nil {
				m.setStatus("Added "+step.ID, nil)
			}
			return err
		})
	case "A":
		m.apply(func() error {
			step, err := s.AddStep("")
			if err == nil {
				m.setStatus("Added unconnected "+step.ID, nil)
			}
			return err
		})
	case "s":
		m.apply(func() error {
			step, err := s.AddSubStep(sel)
			if err == nil {
				m.setStatus("Added sub-step "+step.ID, nil)
			}
			return err
		})
	case "d", "delete":
		m.apply(func() error {
			err := s.RemoveStep(sel)
			if err == nil {
				m.setStatus("Removed "+sel, nil)
			}
			return err
		})
	case "r":
		if sel != "" {
			m.mode = modeRename
			m.input = sel
			m.setStatus("", nil)
		}
	case "m":
		m.marked = sel
		m.setStatus("Marked "+sel+" for swap", nil)
	case "x":
		if m.marked == "" {
			m.setStatus("Mark a step with m first", nil)
			break
		}
		a := m.marked
		m.marked = ""
		m.apply(func() error {
			err := s.SwapSteps(a, sel)
			if err == nil {
				m.setStatus("Swapped "+a+" and "+sel, nil)
			}
			return err
		})
	case "p":
		m.jump(s.Previous())
	case "n":
		m.jump(s.Next())
	case "b":
		if s.Back() {
			m.syncCursor()
		}
	case "H", "J", "K", "L":
		m.apply(func() error { return m.nudge(msg.String()) })
	case "R":
		s.Rearrange()
		m.refresh()
		m.setStatus("Rearranged", nil)
	case "ctrl+s", "w":
		m.save()
	case "v":
		problems, err := s.Validate()
		switch {
		case err != nil:
			m.setStatus("", err)
		case len(problems) == 0:
			m.setStatus("No problems found", nil)
		default:
			m.setStatus("", errs.New(errs.ErrCodeInvalidInput, "%s", strings.Join(problems, "; ")))
		}
	}
	return m, nil
}

func (m EditorModel) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		old := m.session.Selected()
		m.mode = modeNormal
		m.apply(func() error {
			err := m.session.RenameStep(old, m.input)
			if err == nil {
				m.setStatus("Renamed "+old+" "+iconArrow+" "+m.input, nil)
			}
			return err
		})
	case tea.KeyEsc:
		m.mode = modeNormal
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// apply runs a session operation and refreshes the view. Refusals leave
// the rule unchanged and are shown on the status line.
func (m *EditorModel) apply(op func() error) {
	if err := op(); err != nil {
		m.setStatus("", err)
		return
	}
	m.refresh()
	m.syncCursor()
}

func (m *EditorModel) nudge(key string) error {
	sel := m.session.Selected()
	d := m.session.Layout()
	rect, ok := d.Rect(sel)
	if !ok {
		return errs.New(errs.ErrCodeStepNotFound, "Node with ID '%s' not found.", sel)
	}
	// Overrides are given before normalisation.
	x, y := rect.X-d.Offset.X, rect.Y-d.Offset.Y
	switch key {
	case "H":
		x -= nudge
	case "L":
		x += nudge
	case "K":
		y -= nudge
	case "J":
		y += nudge
	}
	return m.session.MoveStep(sel, x, y)
}

func (m *EditorModel) save() {
	s := m.session
	path := s.Path()
	if path == "" {
		m.setStatus("", errs.New(errs.ErrCodeInvalidInput, "No file to save to; use --output"))
		return
	}
	if err := save(s, path); err != nil {
		m.setStatus("", err)
		return
	}
	if err := m.saveState(); err != nil {
		m.setStatus("", err)
		return
	}
	m.setStatus("Saved "+path, nil)
}

func (m *EditorModel) saveState() error {
	if m.store == nil {
		return nil
	}
	return m.session.SaveState(m.ctx, m.store)
}

func (m EditorModel) quit() (tea.Model, tea.Cmd) {
	if err := m.saveState(); err != nil {
		loggerFromContext(m.ctx).Warn("could not save editor state", "error", err)
	}
	return m, tea.Quit
}

func (m *EditorModel) jump(ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := m.session.Select(ids[0]); err != nil {
		m.setStatus("", err)
		return
	}
	m.syncCursor()
}

func (m *EditorModel) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.rows)-1)
	_ = m.session.Select(m.rows[m.cursor])
	m.scroll()
}

// syncCursor moves the cursor onto the session's selection.
func (m *EditorModel) syncCursor() {
	if i := slices.Index(m.rows, m.session.Selected()); i >= 0 {
		m.cursor = i
	} else {
		m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
		if len(m.rows) > 0 {
			_ = m.session.Select(m.rows[m.cursor])
		}
	}
	m.scroll()
}

func (m *EditorModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// refresh orders rows by position: left to right, then top to bottom.
func (m *EditorModel) refresh() {
	d := m.session.Layout()
	nodes := slices.Clone(d.Nodes)
	slices.SortStableFunc(nodes, func(a, b diagram.Node) int {
		if a.Rect.X != b.Rect.X {
			if a.Rect.X < b.Rect.X {
				return -1
			}
			return 1
		}
		switch {
		case a.Rect.Y < b.Rect.Y:
			return -1
		case a.Rect.Y > b.Rect.Y:
			return 1
		}
		return 0
	})
	rows := make([]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, n.ID)
	}
	m.rows = rows
}

func (m *EditorModel) setStatus(msg string, err error) {
	m.failed = err != nil
	if err != nil {
		msg = errs.UserMessage(err)
	}
	m.status = msg
}

func (m EditorModel) View() string {
	var b strings.Builder
	s := m.session
	r := s.Rule()
	if r == nil {
		return StyleError.Render("No rule is currently loaded") + "\n"
	}

	title := StyleTitle.Render("Rule " + r.ID)
	if s.Dirty() {
		title += StyleWarning.Render(" *")
	}
	b.WriteString(title)
	if s.Path() != "" {
		b.WriteString("  " + listDimStyle.Render(s.Path()))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select  a add  A add free  s sub-step  d remove  r rename  m/x swap  p/n/b navigate  HJKL move  R rearrange  v validate  w save  q quit"))
	b.WriteString("\n\n")

	d := s.Layout()
	end := min(m.offset+m.height, len(m.rows))
	rows := [][]string{}
	for i := m.offset; i < end; i++ {
		node, _ := d.Node(m.rows[i])
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		next := ""
		if step := r.FindStep(node.ID); step != nil {
			next = strings.Join(step.NextStepIDs, ", ")
		}
		rows = append(rows, []string{
			cursor,
			node.ID,
			roleStyles[node.Role].Render(string(node.Role)),
			node.Side,
			fmt.Sprintf("%.0f, %.0f", node.Rect.X, node.Rect.Y),
			next,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Step", "Role", "Side", "Position", "Next").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			idx := m.offset + row
			switch {
			case idx == m.cursor:
				return listSelectedStyle
			case idx < len(m.rows) && m.rows[idx] == m.marked:
				return listMarkedStyle
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d connectors", m.cursor+1, len(m.rows), len(d.Edges))))
	b.WriteString("\n\n")

	switch {
	case m.mode == modeRename:
		b.WriteString("Rename " + s.Selected() + " to: " + inputStyle.Render(m.input+" "))
	case m.failed:
		b.WriteString(StyleError.Render(iconError + " " + m.status))
	case m.status != "":
		b.WriteString(StyleSuccess.Render(m.status))
	}
	for _, w := range d.Warnings {
		b.WriteString("\n" + StyleWarning.Render(iconWarning+" "+w))
	}
	b.WriteString("\n")
	return b.String()
}
