package service

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	aliasmodels "linkpulse/internal/alias/models"
	"linkpulse/internal/analytics/metrics"
	"linkpulse/internal/analytics/models"
	"linkpulse/internal/visit/device"
	visitmodels "linkpulse/internal/visit/models"
	dErrors "linkpulse/pkg/domain-errors"
	"linkpulse/pkg/platform/sentinel"
	"linkpulse/pkg/requestcontext"
)

type AliasReader interface {
	Lookup(ctx context.Context, code string) (*aliasmodels.Alias, error)
	FindByTag(ctx context.Context, tag string) ([]*aliasmodels.Alias, error)
}

type VisitReader interface {
	QueryByCode(ctx context.Context, code string) iter.Seq2[visitmodels.VisitEvent, error]
}

// Service builds read-only visit breakdowns. It takes no locks; a snapshot reflects
// whatever the ledger had committed while it was scanned.
type Service struct {
	aliases AliasReader
	visits  VisitReader
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service. aliases must be the backing registry, not a cache,
// since snapshots report counters.
func New(aliases AliasReader, visits VisitReader, opts ...Option) (*Service, error) {
	if aliases == nil {
		return nil, errors.New("alias reader is required")
	}
	if visits == nil {
		return nil, errors.New("visit reader is required")
	}
	s := &Service{
		aliases: aliases,
		visits:  visits,
		logger:  slog.Default(),
		tracer:  otel.Tracer("linkpulse/analytics"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Snapshot aggregates every visit of code by device class, referrer and UTC day.
// Days are emitted in ascending order, one entry per day with at least one visit.
func (s *Service) Snapshot(ctx context.Context, code string, window models.Window) (*models.Snapshot, error) {
	if window.Days < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "days must not be negative")
	}
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "analytics.Snapshot", trace.WithAttributes(attribute.String("alias.code", code)))
	defer span.End()

	alias, err := s.aliases.Lookup(ctx, code)
	if err != nil {
		return nil, s.translate(ctx, span, code, err)
	}

	snap := &models.Snapshot{
		Code:           alias.Code,
		OriginalURL:    alias.Destination,
		TotalVisits:    alias.TotalVisits,
		UniqueVisitors: alias.UniqueVisitors,
		Devices:        make(map[string]int64),
		Referrers:      make(map[string]int64),
		Tags:           append([]string{}, alias.Tags...),
		TimeSeries:     []models.DailyCount{},
	}

	daily := make(map[string]int64)
	scanned := 0
	for ev, err := range s.visits.QueryByCode(ctx, code) {
		if err != nil {
			return nil, s.translate(ctx, span, code, err)
		}
		scanned++
		deviceClass := ev.Device
		if !deviceClass.IsValid() {
			deviceClass = visitmodels.DeviceDesktop
		}
		snap.Devices[string(deviceClass)]++
		snap.Referrers[device.NormalizeReferrer(ev.Referrer)]++
		daily[ev.Timestamp.UTC().Format(models.DateLayout)]++
	}
	span.SetAttributes(attribute.Int("visits.scanned", scanned))

	cutoff := ""
	if window.Days > 0 {
		today := requestcontext.Now(ctx).UTC().Truncate(24 * time.Hour)
		cutoff = today.AddDate(0, 0, -window.Days).Format(models.DateLayout)
	}
	for day, count := range daily {
		// ISO dates order lexically
		if cutoff != "" && day < cutoff {
			continue
		}
		snap.TimeSeries = append(snap.TimeSeries, models.DailyCount{Date: day, Count: count})
	}
	slices.SortFunc(snap.TimeSeries, func(a, b models.DailyCount) int {
		return strings.Compare(a.Date, b.Date)
	})

	s.metrics.ObserveSnapshot(start, scanned)
	return snap, nil
}

// FindByTag lists aliases carrying tag, ordered by code.
func (s *Service) FindByTag(ctx context.Context, tag string) ([]*aliasmodels.Alias, error) {
	aliases, err := s.aliases.FindByTag(ctx, tag)
	if err != nil {
		s.logger.ErrorContext(ctx, "find by tag failed", "tag", tag, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "alias registry unavailable")
	}
	return aliases, nil
}

func (s *Service) translate(ctx context.Context, span trace.Span, code string, err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "short URL not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "snapshot failed")
	s.logger.ErrorContext(ctx, "snapshot failed",
		"code", code,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "analytics store unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "snapshot failed")
}
