package writer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// recordsTotal counts appended records. Labels: kind (Step, Call, ...).
	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "runtrace",
		Subsystem: "writer",
		Name:      "records_total",
		Help:      "Total records appended to trace event logs",
	}, []string{"kind"})

	// valuesTotal counts host values expanded into ValueRecords.
	valuesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "runtrace",
		Subsystem: "writer",
		Name:      "values_total",
		Help:      "Total host values converted",
	})

	// droppedTotal counts captures suppressed by the in-hook guard.
	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "runtrace",
		Subsystem: "writer",
		Name:      "dropped_total",
		Help:      "Total nested captures dropped while a hook was running",
	})

	// filteredTotal counts hooks and steps skipped by the path filter.
	filteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "runtrace",
		Subsystem: "writer",
		Name:      "filtered_total",
		Help:      "Total hooks and steps skipped for ignored paths",
	})

	// finishDuration measures how long persisting a session takes.
	finishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "runtrace",
		Subsystem: "writer",
		Name:      "finish_duration_seconds",
		Help:      "Time to encode and save a trace",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Stats is a snapshot of recording counters for one writer.
type Stats struct {
	Events   int    // entries in the log, excluding steps
	Steps    int    // recorded steps
	Values   uint64 // host values converted
	Dropped  uint64 // nested captures suppressed
	Filtered uint64 // hooks and steps skipped for ignored paths
}
