package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
)

// Format is a supported tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatForPath picks the format from the file extension. Anything other
// than .xlsx is treated as CSV.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// File loads and stores a dataset at a local path.
type File struct {
	Path string
}

// Load reads the dataset from Path.
func (f File) Load(_ context.Context) (*dataset.Dataset, error) {
	in, err := os.Open(f.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "open input %s", f.Path)
	}
	defer func() {
		_ = in.Close()
	}()

	var ds *dataset.Dataset
	switch FormatForPath(f.Path) {
	case FormatXLSX:
		ds, err = ReadXLSX(in)
	default:
		ds, err = ReadCSV(in)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read input %s", f.Path)
	}
	return ds, nil
}

// Store writes the dataset to Path, replacing any existing file.
func (f File) Store(_ context.Context, ds *dataset.Dataset) error {
	out, err := os.Create(f.Path)
	if err != nil {
		return eris.Wrapf(err, "create output %s", f.Path)
	}
	defer func() {
		_ = out.Close()
	}()

	switch FormatForPath(f.Path) {
	case FormatXLSX:
		err = WriteXLSX(out, ds)
	default:
		err = WriteCSV(out, ds)
	}
	if err != nil {
		return eris.Wrapf(err, "write output %s", f.Path)
	}
	if err := out.Close(); err != nil {
		return eris.Wrapf(err, "close output %s", f.Path)
	}
	return nil
}
