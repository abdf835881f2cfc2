// Package output serializes the aggregate tables to CSV.
//
// Every table is comma-separated UTF-8 with a fixed header row, one row per
// key in ascending order. Missing values are written as the empty string —
// never "0", "NA" or "NaN". Files are written to a temporary name in the
// destination directory and renamed into place, so a failed run never leaves
// a partial CSV behind.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/near-space-pipeline/internal/domain"
)

// Output file names, fixed by the downstream charting workflow.
const (
	MonthlyMetricsFile  = "igra_monthly_metrics.csv"
	SeasonalMetricsFile = "igra_seasonal_metrics.csv"
	AerosolMetricsFile  = "aeronet_monthly_metrics.csv"
	ComboFile           = "near_space_monthly_combo.csv"
)

var (
	monthlyHeader  = []string{"year", "month", "theta_gradient_median", "theta_gradient_iqr", "rh850_median", "n_soundings"}
	seasonalHeader = []string{"season_year", "season", "theta_gradient_median", "theta_gradient_iqr", "rh850_median", "n_soundings"}
	aerosolHeader  = []string{"year", "month", "aod_fine", "aod_coarse", "aod_total", "fine_fraction"}
	comboHeader    = []string{"year", "month", "theta_gradient_median", "rh850_median", "aod_fine", "aod_coarse", "fine_fraction"}
)

// WriteMonthly writes igra_monthly_metrics.csv into dir.
func WriteMonthly(dir string, rows []domain.MonthlyStabilitySummary) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Key.Year),
			strconv.Itoa(int(r.Key.Month)),
			formatOptional(r.ThetaGradientMedian),
			formatOptional(r.ThetaGradientIQR),
			formatOptional(r.RH850Median),
			strconv.Itoa(r.Soundings),
		})
	}
	return writeCSV(dir, MonthlyMetricsFile, monthlyHeader, records)
}

// WriteSeasonal writes igra_seasonal_metrics.csv into dir.
func WriteSeasonal(dir string, rows []domain.SeasonalStabilitySummary) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Year),
			string(r.Season),
			formatOptional(r.ThetaGradientMedian),
			formatOptional(r.ThetaGradientIQR),
			formatOptional(r.RH850Median),
			strconv.Itoa(r.Soundings),
		})
	}
	return writeCSV(dir, SeasonalMetricsFile, seasonalHeader, records)
}

// WriteAerosol writes aeronet_monthly_metrics.csv into dir.
func WriteAerosol(dir string, rows []domain.AerosolMonthlyRecord) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Key.Year),
			strconv.Itoa(int(r.Key.Month)),
			formatOptional(r.FineAOD),
			formatOptional(r.CoarseAOD),
			formatOptional(r.TotalAOD),
			formatOptional(r.FineFraction),
		})
	}
	return writeCSV(dir, AerosolMetricsFile, aerosolHeader, records)
}

// WriteCombo writes near_space_monthly_combo.csv into dir.
func WriteCombo(dir string, rows []domain.MergedMonthlyRecord) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.Itoa(r.Key.Year),
			strconv.Itoa(int(r.Key.Month)),
			formatOptional(r.ThetaGradientMedian),
			formatOptional(r.RH850Median),
			formatOptional(r.FineAOD),
			formatOptional(r.CoarseAOD),
			formatOptional(r.FineFraction),
		})
	}
	return writeCSV(dir, ComboFile, comboHeader, records)
}

// ReadMonthly reads a file written by WriteMonthly back into summaries.
// Only the fields present in the CSV schema are populated.
func ReadMonthly(path string) ([]domain.MonthlyStabilitySummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: missing header row", path)
	}

	rows := make([]domain.MonthlyStabilitySummary, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(monthlyHeader) {
			return nil, fmt.Errorf("read %s: row has %d fields, want %d", path, len(rec), len(monthlyHeader))
		}
		year, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("read %s: year: %w", path, err)
		}
		month, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("read %s: month: %w", path, err)
		}
		soundings, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("read %s: n_soundings: %w", path, err)
		}
		rows = append(rows, domain.MonthlyStabilitySummary{
			Key:                 domain.MonthKey{Year: year, Month: time.Month(month)},
			ThetaGradientMedian: domain.FloatOrMissing(rec[2]),
			ThetaGradientIQR:    domain.FloatOrMissing(rec[3]),
			RH850Median:         domain.FloatOrMissing(rec[4]),
			Soundings:           soundings,
		})
	}
	return rows, nil
}

// formatOptional renders an optional value, empty when missing. The shortest
// round-tripping decimal representation is used so re-reading a table yields
// bit-identical values.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// writeCSV writes header+records to dir/name via a temporary file and rename.
func writeCSV(dir, name string, header []string, records [][]string) error {
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s rows: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("rename %s into place: %w", name, err)
	}
	return nil
}
