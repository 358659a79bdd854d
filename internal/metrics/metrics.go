package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "registration_analytics"

// Refresh outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics captures snapshot refresh health
type Metrics struct {
	refreshes       *prometheus.CounterVec
	recordsLoaded   prometheus.Counter
	recordsRejected prometheus.Counter
	loadDuration    prometheus.Histogram
	snapshotRecords prometheus.Gauge
	snapshotAge     prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_refreshes_total",
			Help:      "Snapshot refreshes by outcome.",
		}, []string{"outcome"}),
		recordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Raw registration records read from the source.",
		}),
		recordsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Registration records rejected while deriving.",
		}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time to load and derive a snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		snapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_records",
			Help:      "Derived records in the current snapshot.",
		}),
		snapshotAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_loaded_timestamp_seconds",
			Help:      "Unix time the current snapshot was loaded.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.refreshes, m.recordsLoaded, m.recordsRejected,
			m.loadDuration, m.snapshotRecords, m.snapshotAge)
	}
	return m
}

// ObserveRefresh records one refresh attempt
func (m *Metrics) ObserveRefresh(loaded, accepted, rejected int, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.loadDuration.Observe(took.Seconds())
	m.recordsLoaded.Add(float64(loaded))
	m.recordsRejected.Add(float64(rejected))
	if err != nil {
		m.refreshes.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	m.refreshes.WithLabelValues(OutcomeSuccess).Inc()
	m.snapshotRecords.Set(float64(accepted))
	m.snapshotAge.SetToCurrentTime()
}
