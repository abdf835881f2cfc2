// Command nearspace runs the near-space batch pipeline: it parses the IGRA
// sounding archive and the AERONET monthly products, computes monthly and
// seasonal stability metrics, merges the aerosol series, and writes the CSV
// tables consumed by the charting workflow.
//
// Configuration comes from environment variables (optionally via a .env
// file), with command-line flags taking precedence:
//
//	nearspace -igra data/USM00072403-data.txt -out outputs
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/near-space-pipeline/internal/config"
	"github.com/couchcryptid/near-space-pipeline/internal/observability"
	"github.com/couchcryptid/near-space-pipeline/internal/pipeline"
)

func main() {
	// A missing .env file is fine; explicit env vars and flags still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.IGRAFile, "igra", cfg.IGRAFile, "path to the IGRA sounding archive")
	flag.StringVar(&cfg.AODFile, "aod", cfg.AODFile, "path to the AERONET monthly AOD file")
	flag.StringVar(&cfg.SDAFile, "sda", cfg.SDAFile, "path to the AERONET monthly SDA file")
	flag.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "output directory for the CSV tables")
	flag.StringVar(&cfg.ArchiveDB, "archive-db", cfg.ArchiveDB, "optional SQLite archive path")
	flag.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "optional prometheus textfile-collector export path")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, logger, metrics, clockwork.NewRealClock())
	if err := p.Run(ctx); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}
