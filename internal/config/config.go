// Package config holds the pipeline settings, populated from environment
// variables with defaults matching the repository's data layout.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/near-space-pipeline/internal/domain"
)

// Config holds all pipeline settings.
type Config struct {
	// Input files.
	IGRAFile string
	AODFile  string
	SDAFile  string

	// Output.
	OutputDir       string
	ArchiveDB       string // optional SQLite archive; empty disables
	MetricsTextfile string // optional textfile-collector export; empty disables

	// Stability calculation reference levels.
	Stability domain.StabilityConfig

	// First month kept in the combined table (the analysis window start).
	ComboStart domain.MonthKey

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		IGRAFile:        envOrDefault("IGRA_FILE", "data/USM00072403-data.txt"),
		AODFile:         envOrDefault("AOD_FILE", "data/AOD/AOD20/MONTHLY/19930101_20251101_Dushanbe.lev20"),
		SDAFile:         envOrDefault("SDA_FILE", "data/SDA/SDA20/MONTHLY/19930101_20251101_Dushanbe.ONEILL_lev20"),
		OutputDir:       envOrDefault("OUTPUT_DIR", "outputs"),
		ArchiveDB:       os.Getenv("ARCHIVE_DB"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
	}

	stability := domain.DefaultStabilityConfig()
	var err error
	if stability.LowPressure, err = envFloat("PRESSURE_LOW_HPA", stability.LowPressure); err != nil {
		return nil, err
	}
	if stability.HighPressure, err = envFloat("PRESSURE_HIGH_HPA", stability.HighPressure); err != nil {
		return nil, err
	}
	if stability.RHPressure, err = envFloat("PRESSURE_RH_HPA", stability.RHPressure); err != nil {
		return nil, err
	}
	if stability.Tolerance, err = envFloat("PRESSURE_TOLERANCE_HPA", stability.Tolerance); err != nil {
		return nil, err
	}
	cfg.Stability = stability

	comboStart, err := parseMonth(envOrDefault("COMBO_START_MONTH", "2010-01"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMBO_START_MONTH: %w", err)
	}
	cfg.ComboStart = comboStart

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that flag overrides could also break.
func (c *Config) Validate() error {
	if c.IGRAFile == "" {
		return errors.New("IGRA_FILE is required")
	}
	if c.AODFile == "" {
		return errors.New("AOD_FILE is required")
	}
	if c.SDAFile == "" {
		return errors.New("SDA_FILE is required")
	}
	if c.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	s := c.Stability
	if s.LowPressure <= 0 || s.HighPressure <= 0 || s.RHPressure <= 0 {
		return errors.New("reference pressures must be positive")
	}
	if s.HighPressure >= s.LowPressure {
		return errors.New("PRESSURE_HIGH_HPA must be above PRESSURE_LOW_HPA in the atmosphere (numerically smaller)")
	}
	if s.Tolerance < 0 {
		return errors.New("PRESSURE_TOLERANCE_HPA must not be negative")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// parseMonth parses a "YYYY-MM" month key.
func parseMonth(s string) (domain.MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return domain.MonthKey{}, err
	}
	return domain.MonthKey{Year: t.Year(), Month: t.Month()}, nil
}
