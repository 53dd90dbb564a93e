package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pep299/trends-dashboard/internal/trend"
)

const (
	// SheetName is the worksheet holding the trends data.
	SheetName = "Tendencias"

	dateHeader      = "Fecha"
	interestPrefix  = "Interés: "
	interestCaption = "Interés relativo (0-100)"
)

// WriteXLSX writes a single-sheet workbook: a header row ("Fecha",
// "Interés: <keyword>"...), an annotation row explaining the scale, then one
// row per time point with numeric scores.
func WriteXLSX(w io.Writer, t *trend.Table) error {
	if t.Empty() {
		return ErrEmptyTable
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	header := []any{dateHeader}
	caption := []any{dateHeader}
	for _, kw := range t.Keywords {
		header = append(header, interestPrefix+kw)
		caption = append(caption, interestCaption)
	}
	if err := setRow(f, 1, header); err != nil {
		return err
	}
	if err := setRow(f, 2, caption); err != nil {
		return err
	}

	layout := indexLayout(t)
	for i, ts := range t.Index {
		row := make([]any, 0, len(t.Keywords)+1)
		row = append(row, ts.UTC().Format(layout))
		for k := range t.Keywords {
			row = append(row, t.Series[k][i])
		}
		if err := setRow(f, i+3, row); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(t.Keywords) + 1)
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", last, 22); err != nil {
		return fmt.Errorf("setting column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}

// ReadXLSX parses a workbook produced by WriteXLSX.
func ReadXLSX(r io.Reader) (*trend.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", SheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("reading sheet %s: missing header", SheetName)
	}

	data := rows[1:]
	if len(data) > 0 && len(data[0]) > 0 && data[0][0] == dateHeader {
		data = data[1:]
	}
	return parseRows(rows[0][1:], data, interestPrefix)
}
