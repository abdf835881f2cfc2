// Package store persists the aggregate tables to a SQLite archive.
//
// The archive is a convenience for the charting workflow: it carries the
// extra derived fields (θ850, height difference, observation days, per-field
// counts) that the fixed CSV schemas leave out. Each run replaces the tables
// wholesale, matching the pipeline's regenerate-everything discipline.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/couchcryptid/near-space-pipeline/internal/domain"
)

// Archive wraps the SQLite connection.
type Archive struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS monthly_metrics (
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	theta_gradient_median REAL,
	theta_gradient_iqr REAL,
	rh850_median REAL,
	theta850_median REAL,
	height_diff_median REAL,
	n_soundings INTEGER NOT NULL,
	n_theta INTEGER NOT NULL,
	n_rh INTEGER NOT NULL,
	PRIMARY KEY (year, month)
);
CREATE TABLE IF NOT EXISTS seasonal_metrics (
	season_year INTEGER NOT NULL,
	season TEXT NOT NULL,
	theta_gradient_median REAL,
	theta_gradient_iqr REAL,
	rh850_median REAL,
	theta850_median REAL,
	height_diff_median REAL,
	n_soundings INTEGER NOT NULL,
	n_theta INTEGER NOT NULL,
	n_rh INTEGER NOT NULL,
	PRIMARY KEY (season_year, season)
);
CREATE TABLE IF NOT EXISTS aerosol_monthly (
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	aod_fine REAL,
	aod_coarse REAL,
	aod_total REAL,
	fine_fraction REAL,
	obs_days INTEGER,
	PRIMARY KEY (year, month)
);
CREATE TABLE IF NOT EXISTS monthly_combo (
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	theta_gradient_median REAL,
	rh850_median REAL,
	aod_fine REAL,
	aod_coarse REAL,
	fine_fraction REAL,
	PRIMARY KEY (year, month)
);
`

// Open opens (creating if necessary) the archive at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close releases the underlying connection.
func (a *Archive) Close() error { return a.db.Close() }

// Save replaces all four tables with the given run's aggregates in a single
// transaction, so a failed save never leaves the archive half-updated.
func (a *Archive) Save(
	monthly []domain.MonthlyStabilitySummary,
	seasonal []domain.SeasonalStabilitySummary,
	aerosol []domain.AerosolMonthlyRecord,
	combo []domain.MergedMonthlyRecord,
) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"monthly_metrics", "seasonal_metrics", "aerosol_monthly", "monthly_combo"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, r := range monthly {
		_, err := tx.Exec(
			`INSERT INTO monthly_metrics VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Key.Year, int(r.Key.Month),
			r.ThetaGradientMedian, r.ThetaGradientIQR, r.RH850Median,
			r.Theta850Median, r.HeightDiffMedian,
			r.Soundings, r.ThetaCount, r.RHCount,
		)
		if err != nil {
			return fmt.Errorf("insert monthly_metrics: %w", err)
		}
	}

	for _, r := range seasonal {
		_, err := tx.Exec(
			`INSERT INTO seasonal_metrics VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.Year, string(r.Season),
			r.ThetaGradientMedian, r.ThetaGradientIQR, r.RH850Median,
			r.Theta850Median, r.HeightDiffMedian,
			r.Soundings, r.ThetaCount, r.RHCount,
		)
		if err != nil {
			return fmt.Errorf("insert seasonal_metrics: %w", err)
		}
	}

	for _, r := range aerosol {
		_, err := tx.Exec(
			`INSERT INTO aerosol_monthly VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Key.Year, int(r.Key.Month),
			r.FineAOD, r.CoarseAOD, r.TotalAOD, r.FineFraction, r.ObsDays,
		)
		if err != nil {
			return fmt.Errorf("insert aerosol_monthly: %w", err)
		}
	}

	for _, r := range combo {
		_, err := tx.Exec(
			`INSERT INTO monthly_combo VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.Key.Year, int(r.Key.Month),
			r.ThetaGradientMedian, r.RH850Median,
			r.FineAOD, r.CoarseAOD, r.FineFraction,
		)
		if err != nil {
			return fmt.Errorf("insert monthly_combo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive transaction: %w", err)
	}
	return nil
}
