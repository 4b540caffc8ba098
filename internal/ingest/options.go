// Package ingest loads delimited text and XLSX workbooks into tables and
// writes them back out.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Options controls how a file is turned into a table.
type Options struct {
	// Delimiter for delimited text. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// DecimalSeparator is '.' (default) or ','.
	DecimalSeparator rune
	// ThousandsSeparator is stripped from numbers when set. Never inferred,
	// so values such as "18.00.00" stay text.
	ThousandsSeparator rune
	// Names supplies column names for files without a header row. When set,
	// the first record is data.
	Names []string
	// MissingMarkers are cell values read as Missing in addition to blanks.
	MissingMarkers []string
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Sheet selects a workbook sheet; empty means the first sheet.
	Sheet string
}

// DefaultOptions returns comma-separated, dot-decimal, header-first options.
func DefaultOptions() Options {
	return Options{Delimiter: ',', DecimalSeparator: '.'}
}

func (o Options) delimiterFor(path string) rune {
	if o.Delimiter != 0 {
		return o.Delimiter
	}
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

func (o Options) decimal() rune {
	if o.DecimalSeparator == 0 {
		return '.'
	}
	return o.DecimalSeparator
}

// ParseDelimiter maps a flag value such as "comma", ";" or "tab" to a rune.
// Empty input is 0, meaning auto.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ";", "semicolon":
		return ';', nil
	case "\\t", "tab", "\t":
		return '\t', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("invalid delimiter %q (use comma|semicolon|tab|pipe)", s)
}

// ParseDecimal maps "." / "dot" and "," / "comma" to a decimal separator rune.
func ParseDecimal(s string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", ".", "dot", "period":
		return '.', nil
	case ",", "comma":
		return ',', nil
	}
	return 0, fmt.Errorf("invalid decimal separator %q (use dot|comma)", s)
}

// ParseThousands maps a flag value to a thousands separator; empty is none.
func ParseThousands(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case ".", "dot", "period":
		return '.', nil
	case " ", "space":
		return ' ', nil
	}
	return 0, fmt.Errorf("invalid thousands separator %q (use none|comma|dot|space)", s)
}
