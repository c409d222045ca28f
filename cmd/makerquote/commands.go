package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/makerquote/internal/config"
	"github.com/Simplici0/makerquote/internal/metrics"
	"github.com/Simplici0/makerquote/internal/quote"
	"github.com/Simplici0/makerquote/internal/store"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quote HTTP API",
	Long: `Run the quote HTTP API on PORT.

In development (APP_ENV=development) migrations and the material seed run
on startup. Elsewhere run "makerquote migrate" and "makerquote seed" first.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return a.migrate()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Mirror the material rate table into the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return a.seed(cmd.Context())
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.IsDev() {
		if err := a.migrate(); err != nil {
			return err
		}
		if err := a.seed(ctx); err != nil {
			return err
		}
	}

	quotes := store.NewQuotes(a.db)
	collector := metrics.New()
	srv := &server{
		quotes:      quote.NewService(quotes, policyFrom(a.cfg), a.cfg.QuoteTTL, collector, a.logger),
		materials:   quotes,
		metrics:     collector,
		logger:      a.logger,
		corsOrigins: a.cfg.CORSOrigins,
	}

	httpServer := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("addr", httpServer.Addr), zap.String("env", a.cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func policyFrom(cfg config.Config) quote.Policy {
	return quote.Policy{
		MinFilamentCost:          cfg.MinFilamentCost,
		MaxQuantity:              cfg.MaxQuantity,
		MaxGrams:                 cfg.MaxGrams,
		MaxPrintHours:            cfg.MaxPrintHours,
		MaxPostProcessingMinutes: cfg.MaxPostProcessingMinutes,
	}
}

var quoteOpts struct {
	material   string
	quality    string
	grams      float64
	volume     float64
	quantity   int
	emergency  bool
	rushRate   float64
	ppTier     string
	ppMinutes  float64
	printHours float64
	title      string
	jsonOutput bool
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a print job offline",
	Long: `Price a print job without a database or server.

The job mass comes from --grams or, failing that, from --volume (cm3) and
the material density.

Examples:
  makerquote quote --material PLA_STANDARD --grams 125
  makerquote quote --material PETG_CF --volume 40 --quantity 25
  makerquote quote --material TPU --grams 300 --emergency --rush-rate 0.2 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuote(cmd, cmd.OutOrStdout())
	},
}

func init() {
	f := quoteCmd.Flags()
	f.StringVarP(&quoteOpts.material, "material", "m", "", "material code (PLA_STANDARD, PETG, ...)")
	f.StringVar(&quoteOpts.quality, "quality", "standard", "print quality (draft, standard, fine)")
	f.Float64VarP(&quoteOpts.grams, "grams", "g", 0, "filament mass per unit in grams")
	f.Float64Var(&quoteOpts.volume, "volume", 0, "model volume per unit in cm3")
	f.IntVarP(&quoteOpts.quantity, "quantity", "q", 1, "number of units")
	f.BoolVar(&quoteOpts.emergency, "emergency", false, "rush delivery")
	f.Float64Var(&quoteOpts.rushRate, "rush-rate", 0, "rush surcharge rate (default 0.15)")
	f.StringVar(&quoteOpts.ppTier, "pp-tier", "", "post-processing tier (standard, advanced)")
	f.Float64Var(&quoteOpts.ppMinutes, "pp-minutes", 0, "post-processing minutes per unit")
	f.Float64Var(&quoteOpts.printHours, "print-hours", 0, "print time per unit in hours (estimated when unset)")
	f.StringVar(&quoteOpts.title, "title", "", "quote title")
	f.BoolVar(&quoteOpts.jsonOutput, "json", false, "print the result as JSON")
	_ = quoteCmd.MarkFlagRequired("material")
}

func runQuote(cmd *cobra.Command, out io.Writer) error {
	req := quoteRequestFromFlags(cmd)

	cfg := config.Load()
	input, err := policyFrom(cfg).Validate(req)
	if err != nil {
		return err
	}

	result, err := quote.Price(input)
	if err != nil {
		return err
	}
	if quoteOpts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(newResultView(result))
	}

	now := time.Now().UTC()
	q := quote.Quote{
		ID:        "offline",
		CreatedAt: now,
		ExpiresAt: now.Add(cfg.QuoteTTL),
		Request:   req,
		Grams:     input.Grams,
		Result:    result,
	}
	_, err = io.WriteString(out, quote.RenderText(q, now))
	return err
}

func quoteRequestFromFlags(cmd *cobra.Command) quote.QuoteRequest {
	flags := cmd.Flags()
	req := quote.QuoteRequest{
		Material:      quoteOpts.material,
		Quality:       quoteOpts.quality,
		Quantity:      quoteOpts.quantity,
		DeliverySpeed: "standard",
		Title:         quoteOpts.title,
	}
	if quoteOpts.emergency {
		req.DeliverySpeed = "emergency"
	}
	if flags.Changed("grams") {
		g := quoteOpts.grams
		req.Grams = &g
	} else if flags.Changed("volume") {
		req.FileMetadata = &quote.FileMetadata{VolumeCM3: quoteOpts.volume}
	}
	if flags.Changed("rush-rate") {
		r := quoteOpts.rushRate
		req.RushRate = &r
	}
	if flags.Changed("print-hours") {
		h := quoteOpts.printHours
		req.PrintTimeHours = &h
	}
	if quoteOpts.ppTier != "" {
		req.PostProcessing = &quote.PostProcessingRequest{Tier: quoteOpts.ppTier, Minutes: quoteOpts.ppMinutes}
	}
	return req
}
