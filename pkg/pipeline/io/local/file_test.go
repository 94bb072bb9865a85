package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/transaction-enricher/pkg/pipeline/io/local"
)

func TestFormatForPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, local.FormatXLSX, local.FormatForPath("/tmp/batch.XLSX"))
	assert.Equal(t, local.FormatCSV, local.FormatForPath("batch.csv"))
	assert.Equal(t, local.FormatCSV, local.FormatForPath("batch"))
}

func TestFile_LoadStoreAcrossFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("transaction_id,vat\ntx-1,DE1\n"), 0o644))

	ctx := context.Background()
	ds, err := local.File{Path: csvPath}.Load(ctx)
	require.NoError(t, err)

	xlsxPath := filepath.Join(dir, "out.xlsx")
	require.NoError(t, local.File{Path: xlsxPath}.Store(ctx, ds))

	back, err := local.File{Path: xlsxPath}.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, back.Columns)
	assert.Equal(t, "DE1", back.Rows[0]["vat"])
}

func TestFile_LoadMissing(t *testing.T) {
	t.Parallel()

	_, err := local.File{Path: filepath.Join(t.TempDir(), "nope.csv")}.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input")
}
