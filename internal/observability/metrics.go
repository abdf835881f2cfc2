package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for one pipeline run.
// A batch job has no scrape endpoint; after a successful run the registry is
// exported with prometheus.WriteToTextfile for the node_exporter textfile
// collector when configured.
type Metrics struct {
	Registry *prometheus.Registry

	SoundingsParsed  prometheus.Counter
	SoundingsSkipped prometheus.Counter
	StabilityMissing *prometheus.CounterVec   // labels: field={theta_gradient,rh850}
	AerosolRows      *prometheus.CounterVec   // labels: source={aod,sda}
	RowsWritten      *prometheus.CounterVec   // labels: table
	StageDuration    *prometheus.HistogramVec // labels: stage
}

// NewMetrics creates all pipeline metrics on a fresh registry. Every caller
// gets its own registry, so tests never hit duplicate-registration panics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		SoundingsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "near_space",
			Name:      "soundings_parsed_total",
			Help:      "Soundings successfully reconstructed from the IGRA archive.",
		}),
		SoundingsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "near_space",
			Name:      "soundings_skipped_total",
			Help:      "Soundings dropped for malformed header timestamps.",
		}),
		StabilityMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near_space",
			Name:      "stability_missing_total",
			Help:      "Soundings where a derived stability field was missing.",
		}, []string{"field"}),
		AerosolRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near_space",
			Name:      "aerosol_rows_total",
			Help:      "Monthly rows parsed from the AERONET products.",
		}, []string{"source"}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "near_space",
			Name:      "rows_written_total",
			Help:      "Data rows written per output table.",
		}, []string{"table"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "near_space",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
	}

	m.Registry.MustRegister(
		m.SoundingsParsed,
		m.SoundingsSkipped,
		m.StabilityMissing,
		m.AerosolRows,
		m.RowsWritten,
		m.StageDuration,
	)

	return m
}

// WriteTextfile exports the registry in the textfile-collector format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
