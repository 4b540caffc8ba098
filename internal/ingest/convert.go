package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/edakit/internal/table"
)

// fromRecords turns raw string records into a table. The first record is the
// header unless opt.Names is set. Short rows are padded with missing cells.
func fromRecords(records [][]string, opt Options) (*table.Table, error) {
	var header []string
	data := records
	if len(opt.Names) > 0 {
		header = append([]string(nil), opt.Names...)
	} else {
		if len(records) == 0 {
			return table.New(nil, nil)
		}
		header = normalizeHeader(records[0])
		data = records[1:]
	}
	if opt.MaxRows > 0 && len(data) > opt.MaxRows {
		data = data[:opt.MaxRows]
	}

	width := len(header)
	raw := make([][]string, width)
	for c := range raw {
		raw[c] = make([]string, len(data))
	}
	for r, rec := range data {
		if len(rec) > width {
			extra := rec[width:]
			if !allBlank(extra) {
				return nil, fmt.Errorf("row %d has %d fields, header has %d", r+1, len(rec), width)
			}
			rec = rec[:width]
		}
		for c, cell := range rec {
			raw[c][r] = cell
		}
	}

	markers := make(map[string]bool, len(opt.MissingMarkers))
	for _, m := range opt.MissingMarkers {
		markers[m] = true
	}
	cols := make([][]table.Value, width)
	for c := range raw {
		cols[c] = inferColumn(raw[c], markers, opt)
	}
	return table.New(header, cols)
}

// normalizeHeader trims names, names blank header cells "Unnamed: i" and
// suffixes duplicates with ".1", ".2", ... skipping names already in use.
func normalizeHeader(rec []string) []string {
	out := make([]string, len(rec))
	seen := map[string]int{}
	for i, h := range rec {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// inferColumn picks one kind per column: int, then float, then bool, then
// text. Blank cells and markers are missing in every kind.
func inferColumn(cells []string, markers map[string]bool, opt Options) []table.Value {
	out := make([]table.Value, len(cells))
	missing := make([]bool, len(cells))
	allInt, allNum, allBool := true, true, true
	nonEmpty := false
	for r, cell := range cells {
		s := strings.TrimSpace(cell)
		if s == "" || markers[s] {
			missing[r] = true
			continue
		}
		nonEmpty = true
		if allInt {
			if _, ok := parseInt(s, opt); !ok {
				allInt = false
			}
		}
		if allNum {
			if _, ok := parseFloat(s, opt); !ok {
				allNum = false
			}
		}
		if allBool {
			if _, ok := parseBool(s); !ok {
				allBool = false
			}
		}
	}
	if !nonEmpty {
		return out
	}
	for r, cell := range cells {
		if missing[r] {
			continue
		}
		s := strings.TrimSpace(cell)
		switch {
		case allInt:
			n, _ := parseInt(s, opt)
			out[r] = table.Int(n)
		case allNum:
			f, _ := parseFloat(s, opt)
			out[r] = table.Float(f)
		case allBool:
			b, _ := parseBool(s)
			out[r] = table.Bool(b)
		default:
			out[r] = table.Text(s)
		}
	}
	return out
}

// ParseCell converts a single cell using the same rules as column inference
// applied to one value.
func ParseCell(s string, opt Options) table.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return table.Missing()
	}
	for _, m := range opt.MissingMarkers {
		if s == m {
			return table.Missing()
		}
	}
	if n, ok := parseInt(s, opt); ok {
		return table.Int(n)
	}
	if f, ok := parseFloat(s, opt); ok {
		return table.Float(f)
	}
	return table.Text(s)
}

func normalizeNumber(s string, opt Options) (string, bool) {
	dec := opt.decimal()
	if opt.ThousandsSeparator != 0 && opt.ThousandsSeparator != dec {
		s = strings.ReplaceAll(s, string(opt.ThousandsSeparator), "")
	}
	if dec != '.' {
		if strings.ContainsRune(s, '.') {
			return "", false
		}
		s = strings.ReplaceAll(s, string(dec), ".")
	}
	return s, true
}

func parseInt(s string, opt Options) (int64, bool) {
	s, ok := normalizeNumber(s, opt)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func parseFloat(s string, opt Options) (float64, bool) {
	s, ok := normalizeNumber(s, opt)
	if !ok {
		return 0, false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
