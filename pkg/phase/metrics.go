package phase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	phaseTableBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scramble_phase_table_builds_total",
		Help: "Phase lookup tables built by enumeration",
	}, []string{"puzzle", "phase"})

	phaseTableStates = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scramble_phase_table_states",
		Help: "Number of states in the most recently built phase lookup table",
	}, []string{"puzzle", "phase"})

	phaseTableBuildSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scramble_phase_table_build_seconds",
		Help:    "Time spent building phase lookup tables",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"puzzle", "phase"})

	phaseCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scramble_phase_cache_lookups_total",
		Help: "Phase table cache lookups by outcome (hit, loaded, built)",
	}, []string{"outcome"})
)
