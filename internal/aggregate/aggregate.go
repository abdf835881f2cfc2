// Package aggregate groups per-sounding stability records into monthly and
// seasonal summaries and joins the sounding series with the aerosol series.
//
// All statistics are computed over non-missing values only; a group where a
// field has zero non-missing contributions emits that field as missing.
// Quantiles use linear interpolation between order statistics.
package aggregate

import (
	"math"
	"sort"

	"github.com/couchcryptid/near-space-pipeline/internal/domain"
)

// Monthly groups stability records by calendar month, ascending.
func Monthly(records []domain.StabilityRecord) []domain.MonthlyStabilitySummary {
	groups := make(map[domain.MonthKey][]domain.StabilityRecord)
	for _, rec := range records {
		key := domain.MonthKeyOf(rec.Time)
		groups[key] = append(groups[key], rec)
	}

	summaries := make([]domain.MonthlyStabilitySummary, 0, len(groups))
	for key, group := range groups {
		st := groupStats(group)
		summaries = append(summaries, domain.MonthlyStabilitySummary{
			Key:                 key,
			ThetaGradientMedian: st.thetaMed,
			ThetaGradientIQR:    st.thetaIQR,
			RH850Median:         st.rhMed,
			Theta850Median:      st.theta850Med,
			HeightDiffMedian:    st.heightDiffMed,
			Soundings:           st.soundings,
			ThetaCount:          st.thetaCount,
			RHCount:             st.rhCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Key.Compare(summaries[j].Key) < 0
	})
	return summaries
}

// Seasonal groups stability records by season-year, ascending. December
// counts toward the following year's DJF.
func Seasonal(records []domain.StabilityRecord) []domain.SeasonalStabilitySummary {
	type seasonKey struct {
		year   int
		season domain.Season
	}
	groups := make(map[seasonKey][]domain.StabilityRecord)
	for _, rec := range records {
		year, season := domain.SeasonYearOf(rec.Time)
		k := seasonKey{year, season}
		groups[k] = append(groups[k], rec)
	}

	summaries := make([]domain.SeasonalStabilitySummary, 0, len(groups))
	for key, group := range groups {
		st := groupStats(group)
		summaries = append(summaries, domain.SeasonalStabilitySummary{
			Year:                key.year,
			Season:              key.season,
			ThetaGradientMedian: st.thetaMed,
			ThetaGradientIQR:    st.thetaIQR,
			RH850Median:         st.rhMed,
			Theta850Median:      st.theta850Med,
			HeightDiffMedian:    st.heightDiffMed,
			Soundings:           st.soundings,
			ThetaCount:          st.thetaCount,
			RHCount:             st.rhCount,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return domain.CompareSeasons(summaries[i].Year, summaries[i].Season,
			summaries[j].Year, summaries[j].Season) < 0
	})
	return summaries
}

// stabilityStats holds the statistics shared by monthly and seasonal groups.
type stabilityStats struct {
	thetaMed, thetaIQR, rhMed, theta850Med, heightDiffMed *float64
	soundings, thetaCount, rhCount                        int
}

func groupStats(group []domain.StabilityRecord) stabilityStats {
	theta := collect(group, func(r domain.StabilityRecord) *float64 { return r.ThetaGradient })
	rh := collect(group, func(r domain.StabilityRecord) *float64 { return r.RH850 })
	theta850 := collect(group, func(r domain.StabilityRecord) *float64 { return r.Theta850 })
	heightDiff := collect(group, func(r domain.StabilityRecord) *float64 { return r.HeightDiff })

	return stabilityStats{
		thetaMed:      median(theta),
		thetaIQR:      iqr(theta),
		rhMed:         median(rh),
		theta850Med:   median(theta850),
		heightDiffMed: median(heightDiff),
		soundings:     len(group),
		thetaCount:    len(theta),
		rhCount:       len(rh),
	}
}

// Combine outer-joins the monthly stability and aerosol series on month key:
// one row per month present in at least one input, fields from the absent
// side left missing, ascending order. The result is independent of input
// record order.
func Combine(stability []domain.MonthlyStabilitySummary, aerosol []domain.AerosolMonthlyRecord) []domain.MergedMonthlyRecord {
	byKey := make(map[domain.MonthKey]*domain.MergedMonthlyRecord)

	for _, s := range stability {
		byKey[s.Key] = &domain.MergedMonthlyRecord{
			Key:                 s.Key,
			ThetaGradientMedian: s.ThetaGradientMedian,
			RH850Median:         s.RH850Median,
		}
	}
	for _, a := range aerosol {
		row, ok := byKey[a.Key]
		if !ok {
			row = &domain.MergedMonthlyRecord{Key: a.Key}
			byKey[a.Key] = row
		}
		row.FineAOD = a.FineAOD
		row.CoarseAOD = a.CoarseAOD
		row.FineFraction = a.FineFraction
	}

	merged := make([]domain.MergedMonthlyRecord, 0, len(byKey))
	for _, row := range byKey {
		merged = append(merged, *row)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Key.Compare(merged[j].Key) < 0
	})
	return merged
}

// WindowFrom drops merged rows before the given month. The combiner itself
// never windows; this is the caller-level cut applied from configuration.
func WindowFrom(rows []domain.MergedMonthlyRecord, start domain.MonthKey) []domain.MergedMonthlyRecord {
	out := rows[:0:0]
	for _, row := range rows {
		if row.Key.Compare(start) >= 0 {
			out = append(out, row)
		}
	}
	return out
}

// collect gathers the non-missing values of one field.
func collect(group []domain.StabilityRecord, get func(domain.StabilityRecord) *float64) []float64 {
	var values []float64
	for _, rec := range group {
		if v := get(rec); v != nil {
			values = append(values, *v)
		}
	}
	return values
}

// median returns the 50th percentile, or missing for an empty input.
func median(values []float64) *float64 {
	return quantileOrMissing(values, 0.5)
}

// iqr returns the 75th−25th percentile spread, or missing for an empty input.
func iqr(values []float64) *float64 {
	q75 := quantileOrMissing(values, 0.75)
	q25 := quantileOrMissing(values, 0.25)
	if q75 == nil || q25 == nil {
		return nil
	}
	return domain.Float(*q75 - *q25)
}

func quantileOrMissing(values []float64, q float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return domain.Float(quantile(sorted, q))
}

// quantile computes the q-th quantile of sorted values with linear
// interpolation between the two nearest order statistics.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
