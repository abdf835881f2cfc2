// Package aeronet parses AERONET Level 2.0 monthly data products and merges
// the direct-sun AOD table with the SDA fine/coarse split.
//
// Both products share the same layout: a free-text metadata preamble, then a
// comma-separated header row whose first column is "Month", then one data row
// per month keyed like "2011-JAN". Missing values are written as -999
// (typically -999.000000).
package aeronet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/near-space-pipeline/internal/domain"
)

// AERONET missing-data sentinel.
var aeronetSentinels = []float64{-999}

// Column names as they appear in the Level 2.0 monthly products.
// τ_total is taken from the direct-sun product; the SDA file's own
// Total_AOD_500nm[tau_a] and eta columns are not read.
const (
	colMonth     = "Month"
	colTotalAOD  = "AOD_500nm"
	colObsDays   = "NUM_DAYS[AOD_500nm]"
	colFineAOD   = "Fine_Mode_AOD_500nm[tau_f]"
	colCoarseAOD = "Coarse_Mode_AOD_500nm[tau_c]"
)

// AODRow is one month from the direct-sun AOD product.
type AODRow struct {
	Key      domain.MonthKey
	TotalAOD *float64
	ObsDays  *int
}

// SDARow is one month from the spectral-deconvolution product.
type SDARow struct {
	Key       domain.MonthKey
	FineAOD   *float64
	CoarseAOD *float64
}

// ParseAODFile reads the total-column AOD monthly product.
func ParseAODFile(path string) ([]AODRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open AOD file: %w", err)
	}
	defer f.Close()
	return ParseAOD(f, path)
}

// ParseAOD reads the total-column AOD monthly product from r.
func ParseAOD(r io.Reader, path string) ([]AODRow, error) {
	table, err := readTable(r, path)
	if err != nil {
		return nil, err
	}

	rows := make([]AODRow, 0, len(table.rows))
	for _, rec := range table.rows {
		key, ok := parseMonthKey(table.get(rec, colMonth))
		if !ok {
			continue // annual-summary and other non-month rows
		}
		row := AODRow{
			Key:      key,
			TotalAOD: domain.FloatOrMissing(table.get(rec, colTotalAOD), aeronetSentinels...),
		}
		if d := domain.FloatOrMissing(table.get(rec, colObsDays), aeronetSentinels...); d != nil {
			days := int(*d)
			row.ObsDays = &days
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseSDAFile reads the spectral-deconvolution monthly product.
func ParseSDAFile(path string) ([]SDARow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open SDA file: %w", err)
	}
	defer f.Close()
	return ParseSDA(f, path)
}

// ParseSDA reads the spectral-deconvolution monthly product from r.
func ParseSDA(r io.Reader, path string) ([]SDARow, error) {
	table, err := readTable(r, path)
	if err != nil {
		return nil, err
	}

	rows := make([]SDARow, 0, len(table.rows))
	for _, rec := range table.rows {
		key, ok := parseMonthKey(table.get(rec, colMonth))
		if !ok {
			continue
		}
		rows = append(rows, SDARow{
			Key:       key,
			FineAOD:   domain.FloatOrMissing(table.get(rec, colFineAOD), aeronetSentinels...),
			CoarseAOD: domain.FloatOrMissing(table.get(rec, colCoarseAOD), aeronetSentinels...),
		})
	}
	return rows, nil
}

// Merge inner-joins the two products on month key and derives the fine-mode
// fraction. A month must appear in both files to be emitted; the fraction is
// missing unless both τ_f and τ_total are present and τ_total is positive
// (never a division by zero). Output is in ascending month order.
func Merge(aod []AODRow, sda []SDARow) []domain.AerosolMonthlyRecord {
	sdaByKey := make(map[domain.MonthKey]SDARow, len(sda))
	for _, row := range sda {
		sdaByKey[row.Key] = row
	}

	merged := make([]domain.AerosolMonthlyRecord, 0, len(aod))
	for _, a := range aod {
		s, ok := sdaByKey[a.Key]
		if !ok {
			continue
		}
		rec := domain.AerosolMonthlyRecord{
			Key:       a.Key,
			TotalAOD:  a.TotalAOD,
			ObsDays:   a.ObsDays,
			FineAOD:   s.FineAOD,
			CoarseAOD: s.CoarseAOD,
		}
		if s.FineAOD != nil && a.TotalAOD != nil && *a.TotalAOD > 0 {
			rec.FineFraction = domain.Float(*s.FineAOD / *a.TotalAOD)
		}
		merged = append(merged, rec)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Key.Compare(merged[j].Key) < 0
	})
	return merged
}

// table is a parsed delimited data block with name-addressable columns.
type table struct {
	columns map[string]int
	rows    [][]string
}

// get returns the named column of rec, or "" when the column is absent.
func (t *table) get(rec []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// readTable skips the metadata preamble, locates the header row (the first
// line whose leading field is "Month"), and parses the remaining lines as CSV.
// A file with no header row or no data rows is systemically broken.
func readTable(r io.Reader, path string) (*table, error) {
	scanner := bufio.NewScanner(r)

	var header string
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if first, _, _ := strings.Cut(line, ","); strings.TrimSpace(first) == colMonth {
			header = line
			found = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !found {
		return nil, fmt.Errorf("aeronet: %s: no %q header row found", path, colMonth)
	}

	var rest strings.Builder
	rest.WriteString(header)
	rest.WriteByte('\n')
	for scanner.Scan() {
		rest.WriteString(scanner.Text())
		rest.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	reader := csv.NewReader(strings.NewReader(rest.String()))
	reader.FieldsPerRecord = -1 // AERONET rows may trail off after the last populated column
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("aeronet: %s: %w", path, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("aeronet: %s: header row with no data rows", path)
	}
	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.TrimSpace(name)] = i
	}
	return &table{columns: columns, rows: records[1:]}, nil
}

// parseMonthKey decodes AERONET month keys like "2011-JAN". Rows whose Month
// column is not in that form (e.g. climatology summary rows) report ok=false.
func parseMonthKey(s string) (domain.MonthKey, bool) {
	s = strings.TrimSpace(s)
	yearPart, monthPart, ok := strings.Cut(s, "-")
	if !ok || len(monthPart) != 3 {
		return domain.MonthKey{}, false
	}
	normalized := strings.ToUpper(monthPart[:1]) + strings.ToLower(monthPart[1:])
	t, err := time.Parse("2006-Jan", yearPart+"-"+normalized)
	if err != nil {
		return domain.MonthKey{}, false
	}
	return domain.MonthKey{Year: t.Year(), Month: t.Month()}, true
}
