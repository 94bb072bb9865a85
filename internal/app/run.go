package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/shpitdev/transaction-enricher/internal/config"
	"github.com/shpitdev/transaction-enricher/internal/enrich"
	"github.com/shpitdev/transaction-enricher/internal/pipeline"
	"github.com/shpitdev/transaction-enricher/internal/transaction"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/core"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/dataset"
	localio "github.com/shpitdev/transaction-enricher/pkg/pipeline/io/local"
)

// Options configures one enrichment run.
type Options struct {
	InputPath    string
	OutputPath   string
	Endpoint     string
	Token        string
	Workers      int
	RateLimitRPS float64

	// Policy overrides the client's retry policy; zero fields keep defaults.
	Policy enrich.Policy
}

// OptionsFromConfig maps loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		InputPath:    cfg.Input,
		OutputPath:   cfg.Output,
		Endpoint:     cfg.URL,
		Token:        cfg.Token,
		Workers:      cfg.Workers,
		RateLimitRPS: cfg.RateLimitRPS,
	}
}

// Run loads the input file, enriches every row not yet marked success and
// writes the merged dataset to the output file.
//
// The output is written even when the pass is interrupted, so a later run
// resumes from the recorded state.
func Run(ctx context.Context, opts Options) (pipeline.Summary, error) {
	client := enrich.NewHTTPClient(opts.Endpoint, opts.Token, enrich.WithPolicy(opts.Policy))
	return run(ctx,
		localio.File{Path: opts.InputPath},
		localio.File{Path: opts.OutputPath},
		enrich.NewProcessor(client),
		pipeline.Options{Workers: opts.Workers, RateLimitRPS: opts.RateLimitRPS},
	)
}

func run(
	ctx context.Context,
	in core.InputAdapter[*dataset.Dataset],
	out core.OutputAdapter[*dataset.Dataset],
	processor pipeline.RowProcessor,
	opts pipeline.Options,
) (pipeline.Summary, error) {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run", runID))
	start := time.Now()

	ds, err := in.Load(ctx)
	if err != nil {
		return pipeline.Summary{}, eris.Wrap(err, "load input")
	}
	log.Info("loaded input", zap.Int("rows", ds.Len()), zap.Int("columns", len(ds.Columns)))

	if n := transaction.AssignMissingIDs(ds, nil); n > 0 {
		log.Warn("assigned generated transaction ids", zap.Int("rows", n))
	}

	sum, runErr := pipeline.NewCoordinator(processor, opts).Run(ctx, ds)

	// A cancelled ctx must not prevent persisting the progress made so far.
	if err := out.Store(context.WithoutCancel(ctx), ds); err != nil {
		return sum, eris.Wrap(err, "store output")
	}
	log.Info("wrote output",
		zap.Int("rows", ds.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if runErr != nil {
		return sum, eris.Wrap(runErr, "enrichment pass interrupted")
	}
	return sum, nil
}
