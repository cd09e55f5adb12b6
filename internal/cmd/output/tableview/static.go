package tableview

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/dealerops/dealerctl/internal/theme"
)

const noRecordsMessage = "No records to display."

// PageFooter describes the current page, e.g. "Page 2 of 3 · 24 records".
func PageFooter(g Grid) string {
	current, total := g.PageIndicator()
	noun := "records"
	if g.FilteredCount() == 1 {
		noun = "record"
	}
	footer := fmt.Sprintf("Page %d of %d · %d %s", current, total, g.FilteredCount(), noun)
	if g.Filter() != "" {
		footer += fmt.Sprintf(" matching %q", g.Filter())
	}
	return footer
}

// headers returns the column labels with the sort direction marked.
func headers(g Grid) []string {
	sortState := g.Sort()
	out := make([]string, 0, len(g.columns))
	for _, c := range g.columns {
		label := c.Label
		if c.Key == sortState.Key {
			switch sortState.Direction {
			case SortAscending:
				label += " ▲"
			case SortDescending:
				label += " ▼"
			}
		}
		out = append(out, label)
	}
	return out
}

func pageMatrix(g Grid) [][]string {
	records := g.PageRecords()
	matrix := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(g.columns))
		for j, c := range g.columns {
			row[j] = g.Cell(r, c)
		}
		matrix[i] = row
	}
	return matrix
}

func buildTable(headerRow []string, matrix [][]string, widthLimit int, styles table.Styles) table.Model {
	widths, _ := calculateColumnWidths(headerRow, matrix, widthLimit)
	columns := make([]table.Column, len(headerRow))
	for i, h := range headerRow {
		columns[i] = table.Column{Title: h, Width: widths[i]}
	}
	rows := make([]table.Row, len(matrix))
	for i, cells := range matrix {
		row := make(table.Row, len(cells))
		for j, cell := range cells {
			row[j] = truncateCell(cell, widths[j])
		}
		rows[i] = row
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithStyles(styles),
		table.WithKeyMap(tableKeyMap()),
	)
	tbl.SetHeight(len(rows) + 1)
	return tbl
}

// RenderStatic writes the current page of g as a bordered table followed by
// the page footer.
func RenderStatic(out io.Writer, g Grid, title string) error {
	if out == nil {
		return errors.New("tableview: output stream is not available")
	}

	palette := theme.Current()
	tableStyle := newTableBoxStyle(palette)
	width, _, _ := resolveTerminal(out)
	frameWidth, _ := tableStyle.GetFrameSize()

	var sections []string
	if title != "" {
		sections = append(sections, title)
	}

	if g.FilteredCount() == 0 {
		sections = append(sections, noRecordsMessage)
	} else {
		styles := newTableStyles(palette)
		styles.Selected = styles.Cell
		headerRow := headers(g)
		padding := lipgloss.Width(styles.Cell.Render("")) * len(headerRow)
		tbl := buildTable(headerRow, pageMatrix(g), width-frameWidth-padding, styles)
		tbl.Blur()
		sections = append(sections, borderedTableView(tableStyle, tbl.View(), styles.Selected))
	}
	sections = append(sections, PageFooter(g))

	_, err := fmt.Fprintln(out, lipgloss.JoinVertical(lipgloss.Left, sections...))
	return err
}
