package compaction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors updated by the Compactor.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	sweeps           prometheus.Counter
	notesCompacted   prometheus.Counter
	failures         prometheus.Counter
	fragmentsRemoved prometheus.Counter
	sweepDuration    prometheus.Histogram
}

// NewMetrics registers the compaction collectors on reg. A nil registerer yields nil metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	return &Metrics{
		sweeps: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "compaction",
			Name:      "sweeps_total",
			Help:      "Number of compaction sweeps run",
		}),
		notesCompacted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "compaction",
			Name:      "notes_compacted_total",
			Help:      "Number of notes whose fragment log was collapsed",
		}),
		failures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "compaction",
			Name:      "failures_total",
			Help:      "Number of notes that failed to compact",
		}),
		fragmentsRemoved: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "quill",
			Subsystem: "compaction",
			Name:      "fragments_removed_total",
			Help:      "Fragments removed by compaction",
		}),
		sweepDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: "quill",
			Subsystem: "compaction",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of compaction sweeps",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

func (m *Metrics) compacted(r Result) {
	if m == nil || !r.Compacted() {
		return
	}
	m.notesCompacted.Inc()
	m.fragmentsRemoved.Add(float64(r.Before - r.After))
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

func (m *Metrics) swept(d time.Duration) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.sweepDuration.Observe(d.Seconds())
}
