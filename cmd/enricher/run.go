package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shpitdev/transaction-enricher/internal/app"
	"github.com/shpitdev/transaction-enricher/internal/config"
	"github.com/shpitdev/transaction-enricher/internal/pipeline"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := configFrom(ctx)
	if cfg == nil {
		return usageError{err: fmt.Errorf("configuration not loaded")}
	}

	zap.L().Info("starting run",
		zap.String("input", cfg.Input),
		zap.String("output", cfg.Output),
		zap.String("url", cfg.URL),
		zap.Int("workers", cfg.Workers),
	)

	sum, err := app.Run(ctx, app.OptionsFromConfig(cfg))
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

func printSummary(w io.Writer, sum pipeline.Summary) {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(w, "Processed %d rows\n", sum.Total)
	_, _ = color.New(color.FgGreen).Fprintf(w, "  success:      %d\n", sum.Succeeded)
	_, _ = color.New(color.FgRed).Fprintf(w, "  error:        %d\n", sum.Failed)
	_, _ = color.New(color.FgYellow).Fprintf(w, "  skipped:      %d\n", sum.Skipped)
	_, _ = fmt.Fprintf(w, "  already done: %d\n", sum.AlreadyDone)
}
