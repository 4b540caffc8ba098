package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders a compact report suitable for the console or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Name)
	}
	if r.Processed > 0 && r.Processed < r.Rows {
		fmt.Fprintf(&b, "Rows: ~%d (processed %d)\n", r.Rows, r.Processed)
	} else {
		fmt.Fprintf(&b, "Rows: %d\n", r.Rows)
	}
	fmt.Fprintf(&b, "Columns: %d\n\n", len(r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case "numeric":
			fmt.Fprintf(&b, ": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
			if c.OutlierThreshold > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
				if c.OutliersMaxAbsZ > 0 {
					fmt.Fprintf(&b, " (max |z|≈%.2f)", c.OutliersMaxAbsZ)
				}
			}
		case "categorical", "boolean":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
				}
				if c.Unique > len(c.TopValues) {
					fmt.Fprintf(&b, "; unique=%d", c.Unique)
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(": e.g. ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)\n", g.Key, g.Size)
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				fmt.Fprintf(&b, "  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max)
			}
		}
	}

	hasGCorr := false
	for _, g := range r.Groups {
		if len(g.CorrPairs) > 0 {
			hasGCorr = true
			break
		}
	}
	if hasGCorr {
		b.WriteString("\n[PER-GROUP CORRELATIONS]\n")
		for _, g := range r.Groups {
			if len(g.CorrPairs) == 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s:\n", g.Key)
			pairs := g.CorrPairs
			if len(pairs) > 8 {
				pairs = pairs[:8]
			}
			for _, p := range pairs {
				fmt.Fprintf(&b, "  • %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
			}
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		pairs := r.Corr.Pairs()
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = safeVal(safeName(c.Name))
		}
		b.WriteString("| " + strings.Join(names, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat(" --- |", len(r.Cols)) + "\n")
		for _, row := range r.Samples {
			cells := make([]string, len(r.Cols))
			for i := range r.Cols {
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				cells[i] = safeVal(val)
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}

// Pairs lists the upper triangle of the matrix ordered by |r| descending.
func (m *CorrMatrix) Pairs() []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sortPairs(pairs)
	return pairs
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
