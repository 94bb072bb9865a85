package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shpitdev/transaction-enricher/internal/config"
	"github.com/shpitdev/transaction-enricher/internal/mockapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		addr     string
		token    string
		scenario string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "mock-enricher",
		Short: "Serve a local stand-in for the transaction enrichment API",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return config.InitLogger(config.LogConfig{Level: logLevel, Format: "console"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := buildServer(token, scenario)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), addr, srv.Handler())
		},
		PostRun: func(cmd *cobra.Command, args []string) {
			_ = zap.L().Sync()
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", envOr("MOCK_ENRICHER_ADDR", ":8099"), "Listen address (env: MOCK_ENRICHER_ADDR)")
	f.StringVar(&token, "token", os.Getenv("MOCK_ENRICHER_TOKEN"), "Required API token; empty disables the check (env: MOCK_ENRICHER_TOKEN)")
	f.StringVar(&scenario, "scenario", "", "YAML file with scripted responses per transaction")
	f.StringVar(&logLevel, "log-level", "info", "Log level")
	return cmd
}

func buildServer(token, scenarioPath string) (*mockapi.Server, error) {
	srv := mockapi.New()
	if scenarioPath != "" {
		sc, err := mockapi.LoadScenarioFile(scenarioPath)
		if err != nil {
			return nil, err
		}
		srv.Apply(sc)
	}
	// The flag wins over the scenario's token.
	if token != "" {
		srv.RequireToken(token)
	}
	return srv, nil
}

func serve(ctx context.Context, addr string, h http.Handler) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("mock-enricher listening", zap.String("addr", addr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		zap.L().Info("shutting down")
		return hs.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
