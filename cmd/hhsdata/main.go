package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/markmk/hospital-data-pipeline/internal/config"
	"github.com/markmk/hospital-data-pipeline/internal/db"
	"github.com/markmk/hospital-data-pipeline/internal/loader"
	"github.com/markmk/hospital-data-pipeline/internal/normalize"
	"github.com/markmk/hospital-data-pipeline/internal/report"
	"github.com/markmk/hospital-data-pipeline/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hhsdata",
		Short:         "Hospital capacity and quality data pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(initDBCmd())
	rootCmd.AddCommand(loadWeeklyCmd())
	rootCmd.AddCommand(loadQualityCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads config, builds the logger, and opens the pool. Every
// subcommand goes through here so a bad environment fails the same way
// everywhere.
func setup(ctx context.Context) (*pgxpool.Pool, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	logger := newLogger(cfg)

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, logger, fmt.Errorf("connect to database: %w", err)
	}
	return pool, logger, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}
	return logger
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the pipeline schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, logger, err := setup(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.InitSchema(ctx, pool); err != nil {
				return err
			}
			logger.Info().Msg("schema created")
			return nil
		},
	}
}

func loadWeeklyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-weekly <csv-file>",
		Short: "Load a weekly capacity extract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, logger, err := setup(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			result, err := loader.NewWeekly(pool, logger).Load(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Loaded %d facts from %d rows (%d hospitals added, %d locations added, %d rejected)\n",
				result.FactsInserted, result.RowsRead,
				result.HospitalsInserted, result.LocationsInserted, len(result.Rejected))
			return nil
		},
	}
}

func loadQualityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-quality <yyyy-mm-dd> <csv-file>",
		Short: "Load a quality-rating extract dated with its release date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ratingDate, err := normalize.Date(args[0])
			if err != nil {
				return fmt.Errorf("rating date: %w", err)
			}

			ctx := context.Background()
			pool, logger, err := setup(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			result, err := loader.NewQuality(pool, logger).Load(ctx, ratingDate, args[1])
			if err != nil {
				return err
			}

			fmt.Printf("Loaded %d ratings from %d rows (%d hospitals backfilled)\n",
				result.FactsInserted, result.RowsRead, result.HospitalsBackfilled)
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <yyyy-mm-dd>",
		Short: "Print the capacity summary for the week on or before a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asOf, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return fmt.Errorf("report date: %w", err)
			}

			ctx := context.Background()
			pool, logger, err := setup(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			return report.New(pool).Render(ctx, os.Stdout, asOf, logger)
		},
	}
}
