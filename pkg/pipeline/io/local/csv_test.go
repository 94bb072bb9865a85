package local_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/io/local"
)

func TestReadCSV(t *testing.T) {
	t.Run("keeps cells as text", func(t *testing.T) {
		in := "transaction_id,merchant_category_code,transaction_amount\ntx-1,0742,12.50\n"
		ds, err := local.ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Equal(t, 1, ds.Len())
		assert.Equal(t, []string{"transaction_id", "merchant_category_code", "transaction_amount"}, ds.Columns)
		assert.Equal(t, "0742", ds.Rows[0]["merchant_category_code"])
		assert.Equal(t, "12.50", ds.Rows[0]["transaction_amount"])
	})

	t.Run("empty and short rows are absent", func(t *testing.T) {
		in := "a,b,c\n1,,\n2\n"
		ds, err := local.ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Equal(t, 2, ds.Len())
		assert.False(t, ds.Rows[0].Present("b"))
		assert.False(t, ds.Rows[1].Present("c"))
		assert.Equal(t, "2", ds.Rows[1]["a"])
	})

	t.Run("header is trimmed and BOM stripped", func(t *testing.T) {
		in := "\uFEFF transaction_id , merchant_name\ntx,acme\n"
		ds, err := local.ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, []string{"transaction_id", "merchant_name"}, ds.Columns)
	})

	t.Run("too many columns errors", func(t *testing.T) {
		_, err := local.ReadCSV(strings.NewReader("a\n1,2\n"))
		assert.Error(t, err)
	})

	t.Run("empty input errors", func(t *testing.T) {
		_, err := local.ReadCSV(strings.NewReader(""))
		assert.Error(t, err)
	})
}

func TestWriteCSV(t *testing.T) {
	ds := dataset.New(
		[]string{"transaction_id", "enrichment_status", "fraud_flagged", "location_lat"},
		[]dataset.Row{
			{"transaction_id": "tx-1", "enrichment_status": "success", "fraud_flagged": false, "location_lat": 52.5},
			{"transaction_id": "tx-2", "enrichment_status": "skipped"},
		},
	)

	var buf bytes.Buffer
	require.NoError(t, local.WriteCSV(&buf, ds))

	want := "transaction_id,enrichment_status,fraud_flagged,location_lat\n" +
		"tx-1,success,False,52.5\n" +
		"tx-2,skipped,,\n"
	assert.Equal(t, want, buf.String())
}

func TestCSVRoundTripPreservesOrder(t *testing.T) {
	in := "transaction_id,merchant_name\nc,3\na,1\nb,2\n"
	ds, err := local.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, local.WriteCSV(&buf, ds))
	assert.Equal(t, in, buf.String())
}
