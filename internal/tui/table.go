package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Alignment defines text alignment in a column.
type Alignment int

// Alignment constants.
const (
	AlignLeft Alignment = iota
	AlignRight
)

// TableColumn defines a column in a table. A zero Width sizes the column to
// its widest cell.
type TableColumn struct {
	Name     string
	Width    int
	MaxWidth int
	Align    Alignment
}

// Table buffers rows and renders them with columns aligned by display
// width, so wide runes and styled cells line up.
type Table struct {
	w       io.Writer
	header  lipgloss.Style
	columns []TableColumn
	rows    [][]string
}

// NewTable creates a new table with the given columns.
func NewTable(w io.Writer, columns ...TableColumn) *Table {
	return &Table{w: w, header: NewOutputStyles().Header, columns: columns}
}

// AddRow appends a row. Cells may contain ANSI styling.
func (t *Table) AddRow(values ...string) {
	t.rows = append(t.rows, values)
}

// Render writes the header and every row.
func (t *Table) Render() {
	widths := t.widths()

	cells := make([]string, len(t.columns))
	for i, col := range t.columns {
		cells[i] = pad(col.Name, widths[i], col.Align)
	}
	_, _ = fmt.Fprintln(t.w, t.header.Render(strings.Join(cells, "  ")))

	for _, row := range t.rows {
		for i, col := range t.columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			cells[i] = pad(Truncate(value, widths[i]), widths[i], col.Align)
		}
		_, _ = fmt.Fprintln(t.w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func (t *Table) widths() []int {
	widths := make([]int, len(t.columns))
	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		widths[i] = runewidth.StringWidth(col.Name)
		for _, row := range t.rows {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
		if col.MaxWidth > 0 {
			widths[i] = min(widths[i], col.MaxWidth)
		}
	}
	return widths
}

// Truncate shortens s to width display cells, ending with "…". Styled
// strings are left alone.
func Truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width || strings.Contains(s, "\x1b") {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func pad(s string, width int, align Alignment) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if align == AlignRight {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
