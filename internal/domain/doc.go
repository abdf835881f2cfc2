// Package domain models radiosonde sounding and columnar aerosol data for the
// near-space stability pipeline.
//
// # Data Sources
//
// Soundings come from the Integrated Global Radiosonde Archive (IGRA v2),
// a fixed-format text archive with one header line per balloon launch followed
// by one line per observed level. Aerosol records come from two AERONET
// Level 2.0 monthly products for the same site: the direct-sun AOD table and
// the Spectral Deconvolution Algorithm (SDA) table that splits total optical
// depth into fine- and coarse-mode components.
//
// # Missing-Value Conventions
//
// IGRA encodes missing numeric fields as -8888 (value removed by QC) or -9999
// (value never reported). AERONET uses -999 (written as -999.000000).
// All three sentinels are translated to nil pointers at parse time by
// [FloatOrMissing]; a nil *float64 is the only missing marker used past the
// parsers. Sentinels are never treated as zero.
//
// # Derived Quantities
//
// Potential temperature is computed with Poisson's equation,
//
//	θ = T_K × (1000 / P_hPa) ^ 0.2854
//
// where 0.2854 is R/cp for dry air. The stability indicator is the potential
// temperature difference between two reference pressure levels (700 and
// 925 hPa by default); positive values indicate a stable, inversion-prone
// layer. Levels are matched to reference pressures by nearest neighbour
// within a tolerance band — never by interpolation, which would silently
// change the physical meaning of the indicator.
//
// # Seasons
//
// Months map to the standard meteorological seasons DJF, MAM, JJA and SON.
// December belongs to the following year's DJF: the DJF 2011 season is
// December 2010 plus January and February 2011.
package domain
