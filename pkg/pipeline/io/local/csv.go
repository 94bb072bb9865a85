package local

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
)

// ReadCSV reads a CSV with a header row into a dataset.
//
// Every cell is kept as text; empty cells become absent values.
func ReadCSV(r io.Reader) (*dataset.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = normalizeHeader(header)

	var rows []dataset.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d columns, header has %d", len(rows)+2, len(rec), len(header))
		}
		rows = append(rows, toRow(header, rec))
	}
	return dataset.New(header, rows), nil
}

// WriteCSV writes the dataset with its column order, one record per row.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	for _, rec := range records(ds) {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		out[i] = col
	}
	return out
}

func toRow(header, rec []string) dataset.Row {
	row := make(dataset.Row, len(header))
	for i, col := range header {
		if i >= len(rec) || rec[i] == "" {
			row[col] = nil
			continue
		}
		row[col] = rec[i]
	}
	return row
}

func records(ds *dataset.Dataset) [][]string {
	out := make([][]string, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		rec := make([]string, len(ds.Columns))
		for i, col := range ds.Columns {
			rec[i] = dataset.FormatValue(row[col])
		}
		out = append(out, rec)
	}
	return out
}
