package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tableGap = 2

// Table aligns rows of cells into borderless columns. Cell widths are
// measured with lipgloss so styled (ANSI-escaped) cells line up too.
type Table struct {
	cols   int
	rows   [][]string
	widths []int
}

func NewTable(cols int) *Table {
	return &Table{cols: cols, widths: make([]int, cols)}
}

// AddRow appends a row. Extra cells are dropped, missing ones are blank.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, t.cols)
	for i := 0; i < t.cols && i < len(cells); i++ {
		row[i] = cells[i]
		if w := lipgloss.Width(cells[i]); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

func (t *Table) String() string {
	var sb strings.Builder
	gap := strings.Repeat(" ", tableGap)
	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(gap)
			}
			sb.WriteString(cell)
			if i < t.cols-1 {
				sb.WriteString(strings.Repeat(" ", t.widths[i]-lipgloss.Width(cell)))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// List renders an indented bullet list.
type List struct {
	items []string
}

func NewList() *List {
	return &List{}
}

func (l *List) Add(item string) {
	l.items = append(l.items, item)
}

func (l *List) String() string {
	var sb strings.Builder
	for _, item := range l.items {
		sb.WriteString("  • ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return sb.String()
}
