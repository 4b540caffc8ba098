package table

import (
	"fmt"
	"strings"
)

// Markdown renders the first n rows as a Markdown table. A negative n renders
// every row. Row labels are shown when the table has them.
func (t *Table) Markdown(n int) string {
	if n < 0 || n > t.rows {
		n = t.rows
	}
	var b strings.Builder
	labels := t.index != nil
	header := t.Columns()
	if labels {
		header = append([]string{""}, header...)
	}
	b.WriteString("| " + strings.Join(escapeAll(header), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")
	for r := 0; r < n; r++ {
		cells := make([]string, 0, len(header))
		if labels {
			cells = append(cells, t.index[r])
		}
		for c := range t.cols {
			cells = append(cells, t.cols[c][r].String())
		}
		b.WriteString("| " + strings.Join(escapeAll(cells), " | ") + " |\n")
	}
	if n < t.rows {
		fmt.Fprintf(&b, "\n_%d of %d rows shown_\n", n, t.rows)
	}
	return b.String()
}

// String is a short shape summary.
func (t *Table) String() string {
	return fmt.Sprintf("Table[%d rows x %d cols]", t.rows, len(t.schema))
}

func escapeAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(c, "|", "\\|")
	}
	return out
}
