package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/edakit/internal/table"
)

// ReadFile loads path as a workbook when it ends in .xlsx and as delimited
// text otherwise.
func ReadFile(path string, opt Options) (*table.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, opt)
	}
	return ReadCSV(path, opt)
}

// ReadCSV reads a delimited text file.
func ReadCSV(path string, opt Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = opt.delimiterFor(path)
	}
	t, err := Read(f, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Read parses delimited text from r.
func Read(r io.Reader, opt Options) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = opt.delimiterFor("")

	var records [][]string
	limit := opt.MaxRows
	if limit > 0 && len(opt.Names) == 0 {
		limit++ // header
	}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return fromRecords(records, opt)
}

// WriteCSV writes t with a header row. Missing values are empty cells.
func WriteCSV(w io.Writer, t *table.Table, delim rune) error {
	if t == nil {
		return table.ErrNilTable
	}
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for c, v := range t.Row(r) {
			if v.IsMissing() {
				rec[c] = ""
				continue
			}
			rec[c] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t to path.
func WriteCSVFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, t, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
