package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/near-space-pipeline/internal/domain"
)

func readRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteMonthly(t *testing.T) {
	dir := t.TempDir()
	rows := []domain.MonthlyStabilitySummary{
		{
			Key:                 domain.MonthKey{Year: 2015, Month: time.July},
			ThetaGradientMedian: domain.Float(4.25),
			ThetaGradientIQR:    domain.Float(1.5),
			RH850Median:         domain.Float(42),
			Soundings:           31,
		},
		{
			Key:       domain.MonthKey{Year: 2015, Month: time.August},
			Soundings: 2, // all derived fields missing
		},
	}

	require.NoError(t, WriteMonthly(dir, rows))

	records := readRecords(t, filepath.Join(dir, MonthlyMetricsFile))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"year", "month", "theta_gradient_median", "theta_gradient_iqr", "rh850_median", "n_soundings"}, records[0])
	assert.Equal(t, []string{"2015", "7", "4.25", "1.5", "42", "31"}, records[1])
	assert.Equal(t, []string{"2015", "8", "", "", "", "2"}, records[2], "missing values serialize as empty fields")
}

func TestWriteSeasonal(t *testing.T) {
	dir := t.TempDir()
	rows := []domain.SeasonalStabilitySummary{
		{Year: 2015, Season: domain.DJF, ThetaGradientMedian: domain.Float(6.1), ThetaGradientIQR: domain.Float(0.4), Soundings: 88},
	}

	require.NoError(t, WriteSeasonal(dir, rows))

	records := readRecords(t, filepath.Join(dir, SeasonalMetricsFile))
	require.Len(t, records, 2)
	assert.Equal(t, []string{"season_year", "season", "theta_gradient_median", "theta_gradient_iqr", "rh850_median", "n_soundings"}, records[0])
	assert.Equal(t, []string{"2015", "DJF", "6.1", "0.4", "", "88"}, records[1])
}

func TestWriteAerosolAndCombo(t *testing.T) {
	dir := t.TempDir()
	key := domain.MonthKey{Year: 2015, Month: time.July}

	require.NoError(t, WriteAerosol(dir, []domain.AerosolMonthlyRecord{
		{Key: key, FineAOD: domain.Float(0.1), CoarseAOD: domain.Float(0.2), TotalAOD: domain.Float(0.32), FineFraction: domain.Float(0.3125)},
	}))
	require.NoError(t, WriteCombo(dir, []domain.MergedMonthlyRecord{
		{Key: key, ThetaGradientMedian: domain.Float(4.0), FineAOD: domain.Float(0.1)},
	}))

	aerosol := readRecords(t, filepath.Join(dir, AerosolMetricsFile))
	require.Len(t, aerosol, 2)
	assert.Equal(t, []string{"year", "month", "aod_fine", "aod_coarse", "aod_total", "fine_fraction"}, aerosol[0])
	assert.Equal(t, []string{"2015", "7", "0.1", "0.2", "0.32", "0.3125"}, aerosol[1])

	combo := readRecords(t, filepath.Join(dir, ComboFile))
	require.Len(t, combo, 2)
	assert.Equal(t, []string{"year", "month", "theta_gradient_median", "rh850_median", "aod_fine", "aod_coarse", "fine_fraction"}, combo[0])
	assert.Equal(t, []string{"2015", "7", "4", "", "0.1", "", ""}, combo[1])
}

func TestMonthlyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := []domain.MonthlyStabilitySummary{
		{
			Key:                 domain.MonthKey{Year: 2013, Month: time.January},
			ThetaGradientMedian: domain.Float(3.141592653589793),
			ThetaGradientIQR:    domain.Float(0.1),
			RH850Median:         domain.Float(55.5),
			Soundings:           17,
		},
		{
			Key:       domain.MonthKey{Year: 2013, Month: time.February},
			Soundings: 3,
		},
	}

	require.NoError(t, WriteMonthly(dir, want))
	got, err := ReadMonthly(filepath.Join(dir, MonthlyMetricsFile))
	require.NoError(t, err)

	assert.Equal(t, want, got, "write-then-read must reproduce identical values")
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteMonthly(dir, nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, MonthlyMetricsFile, entries[0].Name())
	assert.False(t, strings.Contains(entries[0].Name(), ".tmp"))
}

func TestWriteToMissingDirFails(t *testing.T) {
	err := WriteMonthly("/does/not/exist", nil)
	require.Error(t, err)
}
