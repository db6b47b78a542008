package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks analytics read cost.
type Metrics struct {
	SnapshotDuration prometheus.Histogram
	EventsScanned    prometheus.Counter
}

func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SnapshotDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkpulse_snapshot_duration_seconds",
			Help:    "Duration of analytics snapshot aggregation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		EventsScanned: f.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_snapshot_events_scanned_total",
			Help: "Visit events read while building snapshots",
		}),
	}
}

func (m *Metrics) ObserveSnapshot(start time.Time, scanned int) {
	if m == nil {
		return
	}
	m.SnapshotDuration.Observe(time.Since(start).Seconds())
	m.EventsScanned.Add(float64(scanned))
}
