// Package pipeline orchestrates the near-space batch run: parse the sounding
// archive, derive per-sounding stability indicators, aggregate monthly and
// seasonally, parse and merge the aerosol products, join the two monthly
// series, and write the output tables.
//
// All aggregates are computed before any file is written, so a failure in any
// stage leaves the output directory untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/near-space-pipeline/internal/aeronet"
	"github.com/couchcryptid/near-space-pipeline/internal/aggregate"
	"github.com/couchcryptid/near-space-pipeline/internal/config"
	"github.com/couchcryptid/near-space-pipeline/internal/domain"
	"github.com/couchcryptid/near-space-pipeline/internal/igra"
	"github.com/couchcryptid/near-space-pipeline/internal/observability"
	"github.com/couchcryptid/near-space-pipeline/internal/output"
	"github.com/couchcryptid/near-space-pipeline/internal/store"
)

// ErrEmptyInput reports an input file that produced no usable records at all.
// Individual malformed records are skipped; an entirely empty input is fatal.
var ErrEmptyInput = errors.New("input produced no records")

// Pipeline runs the batch job described by its configuration.
type Pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// New creates a Pipeline.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger, metrics: metrics, clock: clock}
}

// Run executes the pipeline once. The context is consulted between stages;
// a cancelled context aborts before the next stage starts.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.clock.Now()

	records, err := p.extractStability(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	monthly, seasonal := p.aggregateStability(records)

	aerosol, err := p.extractAerosol(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	combo := aggregate.WindowFrom(aggregate.Combine(monthly, aerosol), p.cfg.ComboStart)

	// Every aggregate is ready; only now touch the filesystem.
	if err := p.writeOutputs(monthly, seasonal, aerosol, combo); err != nil {
		return err
	}
	if err := p.archive(monthly, seasonal, aerosol, combo); err != nil {
		return err
	}

	if p.cfg.MetricsTextfile != "" {
		if err := p.metrics.WriteTextfile(p.cfg.MetricsTextfile); err != nil {
			// Metrics export is ancillary; a failed export must not fail a
			// run whose outputs are already in place.
			p.logger.Warn("metrics textfile export failed", "path", p.cfg.MetricsTextfile, "error", err)
		}
	}

	p.logger.Info("run complete",
		"generated_at", p.clock.Now().UTC(),
		"duration", p.clock.Since(start),
		"monthly_rows", len(monthly),
		"seasonal_rows", len(seasonal),
		"aerosol_rows", len(aerosol),
		"combo_rows", len(combo),
	)
	return nil
}

// extractStability parses the sounding archive and derives one stability
// record per sounding.
func (p *Pipeline) extractStability(ctx context.Context) ([]domain.StabilityRecord, error) {
	stageStart := p.clock.Now()
	parser := igra.NewParser(p.logger)

	var records []domain.StabilityRecord
	stats, err := parser.ParseFile(p.cfg.IGRAFile, func(s domain.Sounding) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := domain.ComputeStability(s, p.cfg.Stability)
		if rec.ThetaGradient == nil {
			p.metrics.StabilityMissing.WithLabelValues("theta_gradient").Inc()
		}
		if rec.RH850 == nil {
			p.metrics.StabilityMissing.WithLabelValues("rh850").Inc()
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sounding extraction: %w", err)
	}

	p.metrics.SoundingsParsed.Add(float64(stats.Soundings))
	p.metrics.SoundingsSkipped.Add(float64(stats.Skipped))
	p.metrics.StageDuration.WithLabelValues("extract_soundings").Observe(p.clock.Since(stageStart).Seconds())

	if len(records) == 0 {
		return nil, fmt.Errorf("sounding archive %s: %w", p.cfg.IGRAFile, ErrEmptyInput)
	}

	p.logger.Info("soundings extracted",
		"file", p.cfg.IGRAFile, "soundings", stats.Soundings, "skipped", stats.Skipped)
	return records, nil
}

func (p *Pipeline) aggregateStability(records []domain.StabilityRecord) ([]domain.MonthlyStabilitySummary, []domain.SeasonalStabilitySummary) {
	stageStart := p.clock.Now()
	monthly := aggregate.Monthly(records)
	seasonal := aggregate.Seasonal(records)
	p.metrics.StageDuration.WithLabelValues("aggregate_soundings").Observe(p.clock.Since(stageStart).Seconds())
	return monthly, seasonal
}

// extractAerosol parses both AERONET products and merges them.
func (p *Pipeline) extractAerosol(ctx context.Context) ([]domain.AerosolMonthlyRecord, error) {
	stageStart := p.clock.Now()

	aod, err := aeronet.ParseAODFile(p.cfg.AODFile)
	if err != nil {
		return nil, fmt.Errorf("aerosol extraction: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sda, err := aeronet.ParseSDAFile(p.cfg.SDAFile)
	if err != nil {
		return nil, fmt.Errorf("aerosol extraction: %w", err)
	}

	if len(aod) == 0 {
		return nil, fmt.Errorf("AOD file %s: %w", p.cfg.AODFile, ErrEmptyInput)
	}
	if len(sda) == 0 {
		return nil, fmt.Errorf("SDA file %s: %w", p.cfg.SDAFile, ErrEmptyInput)
	}

	p.metrics.AerosolRows.WithLabelValues("aod").Add(float64(len(aod)))
	p.metrics.AerosolRows.WithLabelValues("sda").Add(float64(len(sda)))

	merged := aeronet.Merge(aod, sda)
	p.metrics.StageDuration.WithLabelValues("extract_aerosol").Observe(p.clock.Since(stageStart).Seconds())

	p.logger.Info("aerosol products merged",
		"aod_rows", len(aod), "sda_rows", len(sda), "merged_rows", len(merged))
	return merged, nil
}

func (p *Pipeline) writeOutputs(
	monthly []domain.MonthlyStabilitySummary,
	seasonal []domain.SeasonalStabilitySummary,
	aerosol []domain.AerosolMonthlyRecord,
	combo []domain.MergedMonthlyRecord,
) error {
	stageStart := p.clock.Now()

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := output.WriteMonthly(p.cfg.OutputDir, monthly); err != nil {
		return err
	}
	p.metrics.RowsWritten.WithLabelValues(output.MonthlyMetricsFile).Add(float64(len(monthly)))

	if err := output.WriteSeasonal(p.cfg.OutputDir, seasonal); err != nil {
		return err
	}
	p.metrics.RowsWritten.WithLabelValues(output.SeasonalMetricsFile).Add(float64(len(seasonal)))

	if err := output.WriteAerosol(p.cfg.OutputDir, aerosol); err != nil {
		return err
	}
	p.metrics.RowsWritten.WithLabelValues(output.AerosolMetricsFile).Add(float64(len(aerosol)))

	if err := output.WriteCombo(p.cfg.OutputDir, combo); err != nil {
		return err
	}
	p.metrics.RowsWritten.WithLabelValues(output.ComboFile).Add(float64(len(combo)))

	p.metrics.StageDuration.WithLabelValues("write_outputs").Observe(p.clock.Since(stageStart).Seconds())
	return nil
}

// archive persists the aggregates to the SQLite archive when configured.
func (p *Pipeline) archive(
	monthly []domain.MonthlyStabilitySummary,
	seasonal []domain.SeasonalStabilitySummary,
	aerosol []domain.AerosolMonthlyRecord,
	combo []domain.MergedMonthlyRecord,
) error {
	if p.cfg.ArchiveDB == "" {
		return nil
	}

	a, err := store.Open(p.cfg.ArchiveDB)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Save(monthly, seasonal, aerosol, combo); err != nil {
		return fmt.Errorf("archive save: %w", err)
	}
	p.logger.Info("archive updated", "path", p.cfg.ArchiveDB)
	return nil
}
