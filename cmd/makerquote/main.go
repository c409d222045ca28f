package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/makerquote/internal/apperr"
	"github.com/Simplici0/makerquote/internal/config"
	"github.com/Simplici0/makerquote/internal/db"
	"github.com/Simplici0/makerquote/internal/logging"
	"github.com/Simplici0/makerquote/internal/migrations"
	"github.com/Simplici0/makerquote/internal/seed"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "makerquote",
	Short: "Price 3D print jobs for the maker marketplace",
	Long: `makerquote prices 3D print jobs: platform fee, bed rental, filament,
post-processing, quantity discounts, rush surcharges and the maker payout.

Examples:
  makerquote serve
  makerquote quote --material PLA_STANDARD --grams 125
  makerquote quote --material PETG --volume 80 --quantity 10 --emergency --json`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for rejected input and 1 for everything else.
func exitCode(err error) int {
	if apperr.KindOf(err) == apperr.KindInvalidInput {
		return 2
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(quoteCmd)
}

// app holds what every database-backed command needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	db     *sql.DB
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	lc := cfg.Logging
	if verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return logger, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: database}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *app) migrate() error {
	if err := migrations.Up(a.db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	version, err := migrations.Version(a.db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	a.logger.Info("database migrated", zap.Int64("version", version), zap.String("path", a.cfg.DBPath))
	return nil
}

func (a *app) seed(ctx context.Context) error {
	stats, err := seed.Run(ctx, a.db)
	if err != nil {
		return fmt.Errorf("seed materials: %w", err)
	}
	a.logger.Info("materials seeded", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))
	return nil
}
