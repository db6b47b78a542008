// Package publisher fans recorded visits out to a Kafka topic.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"

	"linkpulse/internal/visit/models"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Metrics counts delivery outcomes reported by the producer.
type Metrics struct {
	Delivered prometheus.Counter
	Failed    prometheus.Counter
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_visit_events_published_total",
			Help: "Visit events acknowledged by Kafka",
		}),
		Failed: f.NewCounter(prometheus.CounterOpts{
			Name: "linkpulse_visit_events_publish_failed_total",
			Help: "Visit events Kafka did not acknowledge",
		}),
	}
}

// Kafka publishes visit events as JSON keyed by alias code.
type Kafka struct {
	producer Producer
	metrics  *Metrics
	logger   *slog.Logger
}

type Option func(*Kafka)

func WithLogger(logger *slog.Logger) Option {
	return func(k *Kafka) { k.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(k *Kafka) { k.metrics = m }
}

func NewKafka(producer Producer, opts ...Option) *Kafka {
	k := &Kafka{producer: producer, logger: slog.Default()}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Publish enqueues the event without waiting for the broker. A full buffer fails
// the record immediately rather than blocking the caller; delivery failures are
// logged and counted from the producer callback.
func (k *Kafka) Publish(ctx context.Context, event models.VisitEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode visit event: %w", err)
	}
	rec := &kgo.Record{Key: []byte(event.Code), Value: value}
	// Delivery outlives the request; RecordDeliveryTimeout bounds it instead.
	k.producer.TryProduce(context.WithoutCancel(ctx), rec, func(r *kgo.Record, err error) {
		if err != nil {
			if k.metrics != nil {
				k.metrics.Failed.Inc()
			}
			k.logger.Warn("visit event not delivered", "code", string(r.Key), "error", err)
			return
		}
		if k.metrics != nil {
			k.metrics.Delivered.Inc()
		}
	})
	return nil
}

// Noop drops events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, models.VisitEvent) error { return nil }
