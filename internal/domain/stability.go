package domain

import "math"

// kappa is R/cp for dry air, the exponent in Poisson's equation.
const kappa = 0.2854

// StabilityConfig carries the reference pressure levels used by
// ComputeStability. Passing it explicitly (rather than reading package
// globals) lets runs and tests vary the levels independently.
type StabilityConfig struct {
	LowPressure  float64 // hPa, lower reference level (higher pressure), e.g. 925
	HighPressure float64 // hPa, upper reference level, e.g. 700
	RHPressure   float64 // hPa, level for the humidity indicator, e.g. 850
	Tolerance    float64 // hPa, max distance for nearest-level matching
}

// DefaultStabilityConfig returns the reference levels used by the Dushanbe
// near-space analysis: a 925→700 hPa gradient with humidity at 850 hPa.
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		LowPressure:  925,
		HighPressure: 700,
		RHPressure:   850,
		Tolerance:    5,
	}
}

// PotentialTemperature converts a temperature observation to potential
// temperature (K) via Poisson's equation.
func PotentialTemperature(tempC, pressureHPa float64) float64 {
	tempK := tempC + 273.15
	return tempK * math.Pow(1000.0/pressureHPa, kappa)
}

// ComputeStability derives the per-sounding stability indicators. Each output
// field is independently missing when the level it needs is absent within the
// tolerance band or carries a sentinel value. Levels are never interpolated.
func ComputeStability(s Sounding, cfg StabilityConfig) StabilityRecord {
	rec := StabilityRecord{Time: s.Time}

	low := nearestLevel(s.Levels, cfg.LowPressure, cfg.Tolerance)
	high := nearestLevel(s.Levels, cfg.HighPressure, cfg.Tolerance)
	rh := nearestLevel(s.Levels, cfg.RHPressure, cfg.Tolerance)

	if low != nil && high != nil && low.Temperature != nil && high.Temperature != nil {
		thetaLow := PotentialTemperature(*low.Temperature, *low.Pressure)
		thetaHigh := PotentialTemperature(*high.Temperature, *high.Pressure)
		rec.ThetaGradient = Float(thetaHigh - thetaLow)
	}
	if rh != nil && rh.Temperature != nil {
		rec.Theta850 = Float(PotentialTemperature(*rh.Temperature, *rh.Pressure))
	}
	if rh != nil && rh.RelativeHumidity != nil {
		rec.RH850 = rh.RelativeHumidity
	}
	if low != nil && low.Height != nil {
		rec.Height925 = low.Height
	}
	if low != nil && high != nil && low.Height != nil && high.Height != nil {
		rec.HeightDiff = Float(*high.Height - *low.Height)
	}

	return rec
}

// nearestLevel returns the level whose pressure is closest to target within
// tolerance hPa, or nil when no level qualifies. Levels without a pressure
// reading never match.
func nearestLevel(levels []SoundingLevel, target, tolerance float64) *SoundingLevel {
	var best *SoundingLevel
	bestDist := math.Inf(1)
	for i := range levels {
		lvl := &levels[i]
		if lvl.Pressure == nil {
			continue
		}
		dist := math.Abs(*lvl.Pressure - target)
		if dist <= tolerance && dist < bestDist {
			best = lvl
			bestDist = dist
		}
	}
	return best
}
