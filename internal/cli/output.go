package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a table in the CLI style. Rows flagged by hot are drawn in
// the warning color.
func newTable(hot func(row int) bool, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle.Padding(0, 1)
			case hot != nil && hot(row):
				return base.Foreground(colorYellow)
			case col == 0:
				return base.Foreground(colorWhite)
			}
			return base.Foreground(colorGray)
		})
}

// formatChain joins ids with arrows.
func formatChain(ids []string) string {
	return strings.Join(ids, " "+iconArrow+" ")
}

// formatCycle draws a cycle closed on its first node.
func formatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return formatChain(append(append([]string(nil), cycle...), cycle[0]))
}

func fmtFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// heading writes a section title.
func heading(w io.Writer, title string) {
	fmt.Fprintln(w, StyleTitle.Render(title))
}
