package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/astrocat/atelscan/internal/fetch"
	"github.com/astrocat/atelscan/internal/logger"
	"github.com/astrocat/atelscan/internal/web"
	"github.com/astrocat/atelscan/pkg/atelscan"
	"github.com/astrocat/atelscan/pkg/atelscan/config"
	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/store/sqlite"
)

var configPath string

func main() {
	// Missing .env is fine, environment may be set elsewhere.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "atelscan",
		Short:         "Astronomer's Telegram bulletin importer and search service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(serveCmd(), importCmd(), importAllCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		if env := os.Getenv("ATELSCAN_CONFIG"); env != "" {
			configPath = env
		}
	}
	if configPath == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(configPath)
}

// buildEngine wires the store and fetcher behind an engine. The caller
// must Close the engine when done.
func buildEngine(ctx context.Context, cfg config.Config, log *slog.Logger) (*atelscan.Engine, error) {
	st, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	client := fetch.New(cfg.SourceBaseURL,
		fetch.WithTimeout(cfg.FetchTimeout.Std()),
		fetch.WithRateLimit(cfg.RateLimit),
	)

	return atelscan.New(atelscan.Options{
		Store:   st,
		Fetcher: client,
		Logger:  log,
	}), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.New("atelscan", cfg.LogLevel)

			engine, err := buildEngine(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer engine.Close()

			srv := &http.Server{
				Addr:              cfg.BindAddr,
				Handler:           web.NewServer(engine, log).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", cfg.BindAddr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <report-number>",
		Short: "Import a single bulletin by number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			num, err := strconv.Atoi(args[0])
			if err != nil || num <= 0 {
				return fmt.Errorf("report number must be a positive integer, got %q", args[0])
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			engine, err := buildEngine(cmd.Context(), cfg, logger.New("atelscan", cfg.LogLevel))
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.ImportReport(cmd.Context(), num); err != nil {
				if errors.Is(err, internalerr.ErrReportExists) {
					fmt.Fprintf(cmd.OutOrStdout(), "report %d already imported\n", num)
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported report %d\n", num)
			return nil
		},
	}
}

func importAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-all",
		Short: "Import every new bulletin from the last imported number",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			engine, err := buildEngine(cmd.Context(), cfg, logger.New("atelscan", cfg.LogLevel))
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sum, err := engine.ImportAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %s: imported %d, skipped %d, failed %d, next %d\n",
				sum.Batch, sum.Imported, sum.Skipped, sum.Failed, sum.Next)
			return nil
		},
	}
}
