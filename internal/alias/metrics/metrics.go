package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the alias lookup cache.
type Metrics struct {
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	CacheErrors  *prometheus.CounterVec
	BreakerState prometheus.Gauge
}

// New registers the alias metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_alias_cache_hits_total",
			Help: "Alias lookups served from Redis",
		}),
		CacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_alias_cache_misses_total",
			Help: "Alias lookups that fell through to the backing store",
		}),
		CacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "linkpulse_alias_cache_errors_total",
			Help: "Redis failures by operation; lookups degrade to the backing store",
		}, []string{"op"}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "linkpulse_alias_cache_breaker_state",
			Help: "Alias cache circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) IncMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) IncError(op string) {
	if m == nil {
		return
	}
	m.CacheErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerState.Set(1)
		return
	}
	m.BreakerState.Set(0)
}
