// Package table renders ASCII tables for terminal output.
package table

import (
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// width returns the number of visible characters in s.
func width(s string) int {
	return utf8.RuneCountInString(stripAnsi(s))
}

// Table accumulates rows and writes them with borders on Render.
type Table struct {
	w               io.Writer
	header          []string
	rows            [][]string
	alignment       []Alignment
	headerAlignment []Alignment
}

func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

func (t *Table) WithColumnAlignment(alignment []Alignment) *Table {
	t.alignment = alignment
	return t
}

func (t *Table) WithHeaderAlignment(alignment []Alignment) *Table {
	t.headerAlignment = alignment
	return t
}

func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

func (t *Table) columnWidths() []int {
	count := len(t.header)
	for _, row := range t.rows {
		if len(row) > count {
			count = len(row)
		}
	}
	widths := make([]int, count)
	measure := func(row []string) {
		for i, cell := range row {
			if w := width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func pad(s string, w int, align Alignment) string {
	gap := w - width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}

func alignmentAt(alignment []Alignment, i int) Alignment {
	if i < len(alignment) {
		return alignment[i]
	}
	return AlignLeft
}

func (t *Table) Render() error {
	widths := t.columnWidths()
	var sb strings.Builder
	separator := func() {
		sb.WriteByte('+')
		for _, w := range widths {
			sb.WriteString(strings.Repeat("-", w+2))
			sb.WriteByte('+')
		}
		sb.WriteByte('\n')
	}
	line := func(row []string, alignment []Alignment) {
		sb.WriteByte('|')
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteByte(' ')
			sb.WriteString(pad(cell, w, alignmentAt(alignment, i)))
			sb.WriteString(" |")
		}
		sb.WriteByte('\n')
	}

	separator()
	if len(t.header) > 0 {
		line(t.header, t.headerAlignment)
		separator()
	}
	for _, row := range t.rows {
		line(row, t.alignment)
	}
	separator()
	_, err := io.WriteString(t.w, sb.String())
	return err
}
