package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - values
	colorGreen  = lipgloss.Color("35")  // Green - feasible
	colorRed    = lipgloss.Color("167") // Soft red - infeasible
	colorGray   = lipgloss.Color("245") // Gray - headers
	colorDim    = lipgloss.Color("240") // Dim gray - borders
	headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// newTable builds a bordered table. statusCol, when not negative, colors
// cells equal to "yes" green and other values red.
func newTable(headers []string, rows [][]string, statusCol int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == statusCol && row >= 0 && row < len(rows) {
				if rows[row][col] == "yes" {
					return cellStyle.Foreground(colorGreen)
				}
				return cellStyle.Foreground(colorRed)
			}
			if col == 0 {
				return cellStyle.Foreground(colorCyan)
			}
			return cellStyle
		})
}
