package cliui

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders rows under headers with a rounded border, styled for w. Rows
// shorter than the header are padded with empty cells.
func Table(w io.Writer, headers []string, rows [][]string) string {
	r := NewRenderer(w)
	headerStyle := r.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Padding(0, 1)
	cellStyle := r.NewStyle().Padding(0, 1)
	borderStyle := r.NewStyle().Foreground(lipgloss.Color("238"))

	padded := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(headers) {
			row = append(row, make([]string, len(headers)-len(row))...)
		}
		padded = append(padded, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(padded...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.String()
}

// ProgressBar renders a fixed-width text bar for fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	fraction = max(0, min(1, fraction))

	filled := int(fraction * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
