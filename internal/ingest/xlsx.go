package ingest

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/edakit/internal/table"
)

// ReadXLSX reads one sheet of a workbook (opt.Sheet, or the first sheet).
// Cells are read as displayed text and then inferred like delimited input.
func ReadXLSX(path string, opt Options) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx %s: workbook has no sheets", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	slog.Debug("xlsx sheet loaded", slog.String("sheet", sheet), slog.Int("rows", len(rows)))
	if opt.DecimalSeparator == 0 {
		opt.DecimalSeparator = '.'
	}
	return fromRecords(rows, opt)
}

// SheetNames lists the sheets of a workbook in order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// WriteXLSX writes t to a new workbook with a single sheet. Numbers and
// booleans are stored as typed cells; missing values are left empty.
func WriteXLSX(path, sheet string, t *table.Table) error {
	if t == nil {
		return table.ErrNilTable
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	for c, name := range t.Columns() {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header %q: %w", name, err)
		}
	}
	for r := 0; r < t.NumRows(); r++ {
		for c, v := range t.Row(r) {
			if v.IsMissing() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func cellValue(v table.Value) interface{} {
	switch v.Kind() {
	case table.KindInt:
		n, _ := v.Int()
		return n
	case table.KindFloat:
		f, _ := v.Float()
		return f
	case table.KindBool:
		b, _ := v.BoolValue()
		return b
	}
	return v.String()
}
