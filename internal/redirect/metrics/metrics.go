package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	OutcomeRedirect    = "redirect"
	OutcomeNotFound    = "not_found"
	OutcomeExpired     = "expired"
	OutcomeUnavailable = "unavailable"
)

// Recording stages that can fault without blocking the redirect.
const (
	StageFingerprint = "fingerprint"
	StageLedger      = "ledger"
	StageRegistry    = "registry"
	StagePublish     = "publish"
)

// Metrics provides observability for the redirect path.
type Metrics struct {
	Resolutions     *prometheus.CounterVec
	RecordingFaults *prometheus.CounterVec
	FirstVisits     prometheus.Counter
	ResolveDuration prometheus.Histogram
}

// New creates the redirect metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linkpulse_resolutions_total",
			Help: "Alias resolutions by outcome",
		}, []string{"outcome"}),
		RecordingFaults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linkpulse_recording_faults_total",
			Help: "Visit recording faults by stage; the redirect still succeeds",
		}, []string{"stage"}),
		FirstVisits: f.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_first_visits_total",
			Help: "Resolutions credited as a first-time visitor",
		}),
		ResolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkpulse_resolve_duration_seconds",
			Help:    "Duration of alias resolution including visit recording",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncResolution(outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRecordingFault(stage string) {
	if m == nil {
		return
	}
	m.RecordingFaults.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncFirstVisit() {
	if m == nil {
		return
	}
	m.FirstVisits.Inc()
}

// ObserveResolve records the duration since start.
func (m *Metrics) ObserveResolve(start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}
