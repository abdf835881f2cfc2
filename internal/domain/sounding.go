package domain

import "time"

// SoundingLevel is one observation within a launch. All measurement fields
// are optional; nil means the archive reported a missing-data sentinel.
type SoundingLevel struct {
	MajorType        int      // IGRA LVLTYP1: 1 standard, 2 other pressure, 3 non-pressure
	Pressure         *float64 // hPa
	Height           *float64 // geopotential height, m
	Temperature      *float64 // °C
	RelativeHumidity *float64 // %
}

// Sounding is a single balloon launch: station, launch time, and the observed
// levels in file order (ascending height / descending pressure).
type Sounding struct {
	StationID string
	Time      time.Time
	Levels    []SoundingLevel
}

// StabilityRecord holds the per-sounding derived quantities. Individual
// fields are missing when the levels they need were absent or sentinel.
type StabilityRecord struct {
	Time time.Time

	ThetaGradient *float64 // θ(high ref) − θ(low ref), K
	Theta850      *float64 // θ at the 850 hPa band, K
	RH850         *float64 // relative humidity at the 850 hPa band, %
	Height925     *float64 // geopotential height of the low reference, m
	HeightDiff    *float64 // height(high ref) − height(low ref), m
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf returns the key for t's calendar month.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Compare orders month keys chronologically: -1 if k is before other,
// 0 if equal, +1 if after.
func (k MonthKey) Compare(other MonthKey) int {
	switch {
	case k.Year != other.Year:
		if k.Year < other.Year {
			return -1
		}
		return 1
	case k.Month != other.Month:
		if k.Month < other.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// MonthlyStabilitySummary aggregates stability records over one calendar month.
type MonthlyStabilitySummary struct {
	Key MonthKey

	ThetaGradientMedian *float64
	ThetaGradientIQR    *float64
	RH850Median         *float64
	Theta850Median      *float64
	HeightDiffMedian    *float64

	// Soundings counts every record in the month; the per-field counts track
	// how many of those carried a non-missing value, since theta and RH
	// availability differ sounding to sounding.
	Soundings  int
	ThetaCount int
	RHCount    int
}

// SeasonalStabilitySummary aggregates stability records over one season-year.
type SeasonalStabilitySummary struct {
	Year   int
	Season Season

	ThetaGradientMedian *float64
	ThetaGradientIQR    *float64
	RH850Median         *float64
	Theta850Median      *float64
	HeightDiffMedian    *float64

	Soundings  int
	ThetaCount int
	RHCount    int
}

// AerosolMonthlyRecord is the merged AERONET view of one month: total optical
// depth from the direct-sun AOD product, fine/coarse split from the SDA
// product, and the derived fine-mode fraction.
type AerosolMonthlyRecord struct {
	Key MonthKey

	FineAOD      *float64 // τ_f at 500 nm
	CoarseAOD    *float64 // τ_c at 500 nm
	TotalAOD     *float64 // τ_total at 500 nm, from the AOD product
	FineFraction *float64 // τ_f / τ_total, nil unless both present and τ_total > 0

	ObsDays *int // days with observations contributing to the AOD monthly mean
}

// MergedMonthlyRecord joins the stability and aerosol monthly series on the
// month key. Either side may be entirely missing (outer join).
type MergedMonthlyRecord struct {
	Key MonthKey

	ThetaGradientMedian *float64
	RH850Median         *float64
	FineAOD             *float64
	CoarseAOD           *float64
	FineFraction        *float64
}
