package domain

import (
	"strconv"
	"strings"
)

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 { return &v }

// FloatOrMissing parses s as a float64, returning nil for empty strings,
// unparseable input, and any value equal to one of the given sentinels.
// Both IGRA (-8888/-9999) and AERONET (-999) missing-data conventions are
// handled through this single function so the two parsers cannot drift apart.
func FloatOrMissing(s string, sentinels ...float64) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	for _, sentinel := range sentinels {
		if v == sentinel {
			return nil
		}
	}
	return &v
}

// ScaleOptional divides an optional value by factor, preserving missing.
// IGRA stores temperature and relative humidity in tenths.
func ScaleOptional(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v / factor
	return &scaled
}
