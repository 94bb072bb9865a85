package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shpitdev/transaction-enricher/internal/config"
	"github.com/shpitdev/transaction-enricher/pkg/pipeline/worker"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "enricher",
		Short: "Batch transaction enrichment",
		Long: "Reads a CSV or XLSX file of transactions, validates each row, sends valid rows to the " +
			"enrichment API and writes the merged result. Rows already marked success are not resent, " +
			"so an output file can be fed back in to resume.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enrich a transaction file",
		Example: "  enricher run --input transactions.csv --output enriched.xlsx \\\n" +
			"    --url https://api.example.com/enrich --token $ENRICHER_TOKEN",
		Args: usageArgs(cobra.NoArgs),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return usageError{err: err}
			}
			if err := config.InitLogger(cfg.Log); err != nil {
				return usageError{err: err}
			}
			if err := cfg.Validate(); err != nil {
				return usageError{err: err}
			}
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
		RunE: runEnrich,
	}

	f := cmd.Flags()
	f.String("config", "", "Config file path (default ./enricher.yaml when present)")
	f.String("input", "", "Input CSV or XLSX file (env: ENRICHER_INPUT)")
	f.String("output", "", "Output CSV or XLSX file (env: ENRICHER_OUTPUT)")
	f.String("url", "", "Enrichment endpoint URL (env: ENRICHER_URL)")
	f.String("token", "", "API token sent as 'Authorization: Token <token>' (env: ENRICHER_TOKEN)")
	f.Int("workers", worker.DefaultWorkers, "Number of concurrent workers (env: ENRICHER_WORKERS)")
	f.Float64("rate-limit-rps", 0, "Global request rate limit (RPS), 0 disables (env: ENRICHER_RATE_LIMIT_RPS)")
	f.String("log-level", "info", "Log level: debug, info, warn, error (env: ENRICHER_LOG_LEVEL)")
	f.String("log-format", "console", "Log format: console or json (env: ENRICHER_LOG_FORMAT)")
	return cmd
}
