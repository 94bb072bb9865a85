package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shpitdev/transaction-enricher/internal/app"
	"github.com/shpitdev/transaction-enricher/internal/enrich"
	"github.com/shpitdev/transaction-enricher/internal/mockapi"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
	localio "github.com/shpitdev/transaction-enricher/pkg/pipeline/io/local"
)

const inputCSV = `transaction_id,merchant_name,transaction_type,merchant_category_code,merchant_city,transaction_amount
tx-1,Corner Shop,CARD_TRANSACTION,5411,Berlin,12.50
tx-2,,CARD_TRANSACTION,5411,Berlin,1.00
tx-3,Bad Type,WIRE,,,3
`

func fastPolicy() enrich.Policy {
	return enrich.Policy{
		MaxAttempts:    3,
		RateLimitWait:  5 * time.Millisecond,
		RetryWait:      5 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
	}
}

func setup(t *testing.T, input string) (*mockapi.Server, app.Options) {
	t.Helper()

	srv := mockapi.New()
	srv.RequireToken("secret")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(input), 0o644))

	return srv, app.Options{
		InputPath:  in,
		OutputPath: filepath.Join(dir, "out.csv"),
		Endpoint:   ts.URL + "/enrich",
		Token:      "secret",
		Workers:    2,
		Policy:     fastPolicy(),
	}
}

func load(t *testing.T, path string) *dataset.Dataset {
	t.Helper()
	ds, err := localio.File{Path: path}.Load(context.Background())
	require.NoError(t, err)
	return ds
}

func TestRun_EndToEndAgainstMock(t *testing.T) {
	t.Parallel()

	srv, opts := setup(t, inputCSV)

	sum, err := app.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 2, sum.Skipped)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tx-1", calls[0].TransactionID)
	assert.Equal(t, "Token secret", calls[0].Authorization)
	assert.Equal(t, "12.50", calls[0].Payload["transaction_amount"])

	out := load(t, opts.OutputPath)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []string{
		"transaction_id", "merchant_name", "transaction_type", "merchant_category_code",
		"merchant_city", "transaction_amount", "enrichment_status", "enrichment_error",
	}, out.Columns[:8])
	assert.True(t, out.HasColumn("clean_name"))
	assert.True(t, out.HasColumn("all_categories"))

	assert.Equal(t, "success", out.Rows[0]["enrichment_status"])
	assert.Equal(t, "Corner Shop", out.Rows[0]["clean_name"])
	assert.Equal(t, "Groceries;Food & Drink", out.Rows[0]["all_categories"])
	assert.Equal(t, "Berlin", out.Rows[0]["location_city"])
	assert.Equal(t, "False", out.Rows[0]["fraud_flagged"])

	assert.Equal(t, "skipped", out.Rows[1]["enrichment_status"])
	assert.Equal(t, "Validation failed: Missing required field: merchant_name", out.Rows[1]["enrichment_error"])
	assert.Equal(t, "skipped", out.Rows[2]["enrichment_status"])
}

func TestRun_ResumesFromPreviousOutput(t *testing.T) {
	t.Parallel()

	srv, opts := setup(t, inputCSV)
	srv.Script("tx-1", mockapi.Step{Status: http.StatusServiceUnavailable, Body: "down"})

	sum, err := app.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	first := load(t, opts.OutputPath)
	assert.Equal(t, "error", first.Rows[0]["enrichment_status"])
	assert.Equal(t, "503 down", first.Rows[0]["enrichment_error"])

	// Feed the output back in: the failed row is retried and now succeeds.
	opts.InputPath = opts.OutputPath
	sum, err = app.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 2, srv.CallsFor("tx-1"))

	second := load(t, opts.OutputPath)
	assert.Equal(t, "success", second.Rows[0]["enrichment_status"])
	assert.False(t, second.Rows[0].Present("enrichment_error"))

	// A third pass has nothing left to send for tx-1.
	sum, err = app.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.AlreadyDone)
	assert.Equal(t, 2, srv.CallsFor("tx-1"))
}

func TestRun_RetriesRateLimitAndTransportFailures(t *testing.T) {
	t.Parallel()

	input := "transaction_id,merchant_name,transaction_type\nok,A,INVOICE\nexhausted,B,INVOICE\n"
	srv, opts := setup(t, input)
	srv.Script("ok", mockapi.Step{Status: http.StatusTooManyRequests}, mockapi.Step{Drop: true})
	srv.Script("exhausted",
		mockapi.Step{Status: http.StatusTooManyRequests},
		mockapi.Step{Status: http.StatusTooManyRequests},
		mockapi.Step{Status: http.StatusTooManyRequests},
	)

	sum, err := app.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 3, srv.CallsFor("ok"))
	assert.Equal(t, 3, srv.CallsFor("exhausted"))

	out := load(t, opts.OutputPath)
	assert.Equal(t, "success", out.Rows[0]["enrichment_status"])
	assert.Equal(t, "max retries reached", out.Rows[1]["enrichment_error"])
}

func TestRun_AssignsMissingIDs(t *testing.T) {
	t.Parallel()

	input := "merchant_name,transaction_type\nA,INVOICE\n"
	srv, opts := setup(t, input)

	_, err := app.Run(context.Background(), opts)
	require.NoError(t, err)

	out := load(t, opts.OutputPath)
	id := out.Rows[0].Text("transaction_id")
	assert.Len(t, id, 36)
	require.Len(t, srv.Calls(), 1)
	assert.Equal(t, id, srv.Calls()[0].TransactionID)
}

func TestRun_XLSXRoundTrip(t *testing.T) {
	t.Parallel()

	srv, opts := setup(t, inputCSV)
	opts.OutputPath = filepath.Join(filepath.Dir(opts.OutputPath), "out.xlsx")

	_, err := app.Run(context.Background(), opts)
	require.NoError(t, err)

	out := load(t, opts.OutputPath)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, "5411", out.Rows[0]["merchant_category_code"])
	assert.Equal(t, "success", out.Rows[0]["enrichment_status"])
	assert.Len(t, srv.Calls(), 1)
}

func TestRun_WrongTokenRecordsHTTPError(t *testing.T) {
	t.Parallel()

	_, opts := setup(t, inputCSV)
	opts.Token = "wrong"

	sum, err := app.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	out := load(t, opts.OutputPath)
	assert.Equal(t, "401 unauthorized", out.Rows[0]["enrichment_error"])
}

func TestRun_MissingInput(t *testing.T) {
	t.Parallel()

	_, opts := setup(t, inputCSV)
	opts.InputPath = filepath.Join(t.TempDir(), "missing.csv")

	_, err := app.Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load input")
	_, statErr := os.Stat(opts.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_CancelledStillWritesOutput(t *testing.T) {
	t.Parallel()

	_, opts := setup(t, inputCSV)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := app.Run(ctx, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context canceled")

	out := load(t, opts.OutputPath)
	assert.Equal(t, 3, out.Len())
	assert.True(t, out.HasColumn("enrichment_status"))
}
