package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/session"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listMarkedStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// CycleListModel - Interactive cycle browser
// =============================================================================

// CycleEntry is one cycle with its suggested resolution.
type CycleEntry struct {
	Kind       session.Kind
	Suggestion cycles.Suggestion
}

// CycleListModel is the bubbletea model for browsing cycles and marking the
// ones to resolve.
type CycleListModel struct {
	Entries []CycleEntry
	Cursor  int
	Height  int
	Offset  int
	Marked  map[int]bool
	// Apply is set when the user confirmed with enter.
	Apply bool
}

// NewCycleListModel creates a new cycle list model.
func NewCycleListModel(entries []CycleEntry) CycleListModel {
	return CycleListModel{
		Entries: entries,
		Height:  12,
		Marked:  make(map[int]bool),
	}
}

// Chosen returns the entries to resolve: the marked ones, or the one under
// the cursor when nothing is marked. It is empty unless Apply is set.
func (m CycleListModel) Chosen() []CycleEntry {
	if !m.Apply || len(m.Entries) == 0 {
		return nil
	}
	var out []CycleEntry
	for i, e := range m.Entries {
		if m.Marked[i] {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		out = append(out, m.Entries[m.Cursor])
	}
	return out
}

func (m CycleListModel) Init() tea.Cmd {
	return nil
}

func (m CycleListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "space", "x":
			if len(m.Entries) > 0 {
				m.Marked[m.Cursor] = !m.Marked[m.Cursor]
			}
		case "enter":
			if len(m.Entries) == 0 {
				return m, tea.Quit
			}
			m.Apply = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m CycleListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Cycles"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  x mark  ⏎ resolve  q quit"))
	b.WriteString("\n\n")

	if len(m.Entries) == 0 {
		b.WriteString(listNormalStyle.Render("  No cycles found."))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Entries))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := m.Entries[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := " "
		if m.Marked[i] {
			mark = iconSuccess
		}
		rows = append(rows, []string{cursor + mark, string(e.Kind), formatCycle(e.Suggestion.Cycle),
			e.Suggestion.Strategy.String(), e.Suggestion.Remove.String()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "Cycle", "Strategy", "Remove").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			idx := m.Offset + row
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case m.Marked[idx]:
				return listMarkedStyle
			case col == 2:
				return listNormalStyle
			}
			return listDimStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listNormalStyle.Render("  " + m.Entries[m.Cursor].Suggestion.Reason))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]  %d marked", m.Cursor+1, len(m.Entries), m.markedCount())))

	return b.String()
}

func (m CycleListModel) markedCount() int {
	n := 0
	for _, v := range m.Marked {
		if v {
			n++
		}
	}
	return n
}
