// Package pipeline drives one enrichment pass over a transaction dataset.
package pipeline

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/shpitdev/transaction-enricher/internal/transaction"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/core"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/redact"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/worker"
)

// RowProcessor turns one row into an outcome. Implementations must not
// mutate the row they are given.
type RowProcessor interface {
	Process(ctx context.Context, row dataset.Row) transaction.Outcome
}

type Options struct {
	Workers      int
	RateLimitRPS float64
}

// Summary counts what one pass did.
type Summary struct {
	Total       int
	Dispatched  int
	Succeeded   int
	Failed      int
	Skipped     int
	AlreadyDone int
}

type Coordinator struct {
	processor RowProcessor
	opts      Options
}

func NewCoordinator(processor RowProcessor, opts Options) *Coordinator {
	return &Coordinator{processor: processor, opts: opts}
}

type task struct {
	index int
	row   dataset.Row
}

// Run processes every row whose status is not success and merges each
// outcome back into ds as it completes. Rows already marked success are left
// untouched.
//
// When ctx is cancelled, rows not yet dispatched keep their previous state and
// Run returns the context error together with the partial summary.
func (c *Coordinator) Run(ctx context.Context, ds *dataset.Dataset) (Summary, error) {
	transaction.EnsureStateColumns(ds)

	sum := Summary{Total: ds.Len()}
	tasks := make([]task, 0, ds.Len())
	for i, row := range ds.Rows {
		if transaction.StatusOf(row) == transaction.StatusSuccess {
			zap.L().Debug("row already enriched", zap.String("transaction_id", transaction.ID(row)))
			sum.AlreadyDone++
			continue
		}
		// Workers get their own copy; only the collector writes to ds.
		tasks = append(tasks, task{index: i, row: row.Clone()})
	}

	zap.L().Info("starting enrichment pass",
		zap.Int("rows", sum.Total),
		zap.Int("eligible", len(tasks)),
		zap.Int("already_done", sum.AlreadyDone),
	)

	proc := core.ProcessFunc[task, transaction.Outcome](func(ctx context.Context, t task) (transaction.Outcome, error) {
		return c.processor.Process(ctx, t.row), nil
	})

	_, err := worker.ProcessAllWithCallback(ctx, tasks, proc.Process,
		func(res worker.Result[task, transaction.Outcome]) error {
			out := res.Output
			if res.Err != nil {
				msg := redact.Truncate(res.Err.Error(), 1024)
				out = transaction.Outcome{
					RowID:       transaction.ID(res.Input.row),
					Status:      transaction.StatusError,
					ErrorDetail: &msg,
				}
				zap.L().Error("row processing failed unexpectedly",
					zap.String("transaction_id", out.RowID),
					zap.Error(res.Err),
				)
			}
			Merge(ds, res.Input.index, out)
			sum.Dispatched++
			sum.record(out)
			return nil
		},
		worker.Options{Workers: c.opts.Workers, RateLimitRPS: c.opts.RateLimitRPS},
	)

	zap.L().Info("enrichment pass finished",
		zap.Int("dispatched", sum.Dispatched),
		zap.Int("success", sum.Succeeded),
		zap.Int("error", sum.Failed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("already_done", sum.AlreadyDone),
	)
	return sum, err
}

func (s *Summary) record(out transaction.Outcome) {
	fields := []zap.Field{zap.String("transaction_id", out.RowID)}
	if out.ErrorDetail != nil {
		fields = append(fields, zap.String("detail", *out.ErrorDetail))
	}
	switch out.Status {
	case transaction.StatusSuccess:
		s.Succeeded++
		zap.L().Info("row enriched", fields...)
	case transaction.StatusSkipped:
		s.Skipped++
		zap.L().Warn("row skipped", fields...)
	default:
		s.Failed++
		zap.L().Warn("row enrichment failed", fields...)
	}
}

// Merge writes out into row idx of ds: status first, then the error detail
// (cleared when nil), then the enrichment fields. Columns new to the dataset
// are appended in sorted key order.
func Merge(ds *dataset.Dataset, idx int, out transaction.Outcome) {
	ds.Set(idx, transaction.ColumnStatus, string(out.Status))
	if out.ErrorDetail != nil {
		ds.Set(idx, transaction.ColumnError, *out.ErrorDetail)
	} else {
		ds.Set(idx, transaction.ColumnError, nil)
	}

	keys := make([]string, 0, len(out.Fields))
	for k := range out.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ds.Set(idx, k, out.Fields[k])
	}
}
