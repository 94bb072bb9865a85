package local

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
)

// SheetName is the sheet written by WriteXLSX.
const SheetName = "Transactions"

// ReadXLSX reads the first sheet of a workbook. The first row is the header.
func ReadXLSX(r io.Reader) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("read header: sheet %q is empty", sheet)
	}

	header := normalizeHeader(grid[0])
	rows := make([]dataset.Row, 0, len(grid)-1)
	for i, rec := range grid[1:] {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d columns, header has %d", i+2, len(rec), len(header))
		}
		rows = append(rows, toRow(header, rec))
	}
	return dataset.New(header, rows), nil
}

// WriteXLSX writes the dataset into a single-sheet workbook. Cells are written
// as text so codes and amounts keep their exact digits.
func WriteXLSX(w io.Writer, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	for i, col := range ds.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, col); err != nil {
			return err
		}
	}
	for r, rec := range records(ds) {
		for c, v := range rec {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(SheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
