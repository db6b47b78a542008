package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	aliasmodels "linkpulse/internal/alias/models"
	"linkpulse/internal/redirect/metrics"
	"linkpulse/internal/visit/device"
	"linkpulse/internal/visit/fingerprint"
	visitmodels "linkpulse/internal/visit/models"
	dErrors "linkpulse/pkg/domain-errors"
	"linkpulse/pkg/platform/privacy"
	"linkpulse/pkg/platform/sentinel"
	"linkpulse/pkg/requestcontext"
)

// DefaultRecordTimeout bounds visit recording once it is detached from the request.
const DefaultRecordTimeout = 3 * time.Second

type AliasRegistry interface {
	Lookup(ctx context.Context, code string) (*aliasmodels.Alias, error)
	RecordVisit(ctx context.Context, code string, firstVisit bool) error
}

type VisitLedger interface {
	Append(ctx context.Context, event visitmodels.VisitEvent) (firstVisit bool, err error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event visitmodels.VisitEvent) error
}

// Service resolves aliases and records one visit per successful resolution.
//
// Resolution runs Lookup, ExpiryCheck, Fingerprint, then Record, and ends in a
// redirect or in NotFound, Expired or StorageFault. Only a failed lookup stops the
// redirect; once the alias is known and live, recording faults are logged and
// counted by stage and the destination is still returned.
//
// Recording runs on a context detached from the caller, so a client that hangs up
// mid-request does not leave a ledger entry without its counter update.
type Service struct {
	aliases       AliasRegistry
	visits        VisitLedger
	deriver       *fingerprint.Deriver
	publisher     EventPublisher
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	recordTimeout time.Duration
	newID         func() uuid.UUID
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

// WithPublisher fans recorded visits out, best effort.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithRecordTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.recordTimeout = d
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer("linkpulse/redirect")
	}
}

// New constructs a Service. Registry, ledger and deriver are required.
func New(aliases AliasRegistry, visits VisitLedger, deriver *fingerprint.Deriver, opts ...Option) (*Service, error) {
	if aliases == nil {
		return nil, errors.New("alias registry is required")
	}
	if visits == nil {
		return nil, errors.New("visit ledger is required")
	}
	if deriver == nil {
		return nil, errors.New("fingerprint deriver is required")
	}
	s := &Service{
		aliases:       aliases,
		visits:        visits,
		deriver:       deriver,
		logger:        slog.Default(),
		tracer:        otel.Tracer("linkpulse/redirect"),
		recordTimeout: DefaultRecordTimeout,
		newID:         uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolution is the result of a successful Resolve.
type Resolution struct {
	Destination string
	Event       visitmodels.VisitEvent
	// Recorded is true once the ledger accepted Event.
	Recorded   bool
	FirstVisit bool
}

// Resolve maps code to its destination and records the visit. Client address,
// user agent, referrer and request time are read from ctx (see requestcontext).
//
// Errors carry domain codes: CodeNotFound, CodeExpired or CodeUnavailable.
func (s *Service) Resolve(ctx context.Context, code string) (*Resolution, error) {
	start := time.Now()
	defer s.metrics.ObserveResolve(start)

	ctx, span := s.tracer.Start(ctx, "redirect.Resolve", trace.WithAttributes(attribute.String("alias.code", code)))
	defer span.End()

	alias, err := s.aliases.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.finish(span, metrics.OutcomeNotFound)
			return nil, dErrors.New(dErrors.CodeNotFound, "short URL not found")
		}
		s.finish(span, metrics.OutcomeUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "alias lookup failed")
		s.logger.ErrorContext(ctx, "alias lookup failed",
			"code", code,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "alias registry unavailable")
	}

	now := requestcontext.Now(ctx)
	if alias.IsExpired(now) {
		s.finish(span, metrics.OutcomeExpired)
		return nil, dErrors.New(dErrors.CodeExpired, "short URL has expired")
	}

	res := &Resolution{Destination: alias.Destination}
	s.record(ctx, alias.Code, now, res)
	s.finish(span, metrics.OutcomeRedirect)
	return res, nil
}

// record appends the visit and then bumps the counters. The counter update only
// follows a successful append, so counters never run ahead of the ledger.
func (s *Service) record(ctx context.Context, code string, now time.Time, res *Resolution) {
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	defer cancel()
	recordCtx, span := s.tracer.Start(recordCtx, "redirect.Record")
	defer span.End()

	ip := requestcontext.ClientIP(ctx)
	userAgent := requestcontext.UserAgent(ctx)

	token, inputs := s.deriver.Derive(ip, userAgent)
	if inputs.Defaulted() {
		s.metrics.IncRecordingFault(metrics.StageFingerprint)
		s.logger.DebugContext(ctx, "fingerprint inputs defaulted",
			"code", code,
			"address_missing", inputs.AddressMissing,
			"user_agent_missing", inputs.UserAgentMissing,
		)
	}

	event := visitmodels.VisitEvent{
		ID:           s.newID(),
		Code:         code,
		Timestamp:    now.UTC(),
		Referrer:     device.NormalizeReferrer(requestcontext.Referrer(ctx)),
		Device:       device.Classify(userAgent),
		VisitorToken: token,
	}
	res.Event = event

	first, err := s.visits.Append(recordCtx, event)
	if err != nil {
		s.recordingFault(recordCtx, span, metrics.StageLedger, code, ip, err)
		return
	}
	res.Recorded = true
	res.FirstVisit = first
	span.SetAttributes(attribute.Bool("visit.first", first))
	if first {
		s.metrics.IncFirstVisit()
	}

	if err := s.aliases.RecordVisit(recordCtx, code, first); err != nil {
		s.recordingFault(recordCtx, span, metrics.StageRegistry, code, ip, err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(recordCtx, event); err != nil {
			s.recordingFault(recordCtx, span, metrics.StagePublish, code, ip, err)
		}
	}
}

func (s *Service) recordingFault(ctx context.Context, span trace.Span, stage, code, ip string, err error) {
	s.metrics.IncRecordingFault(stage)
	span.RecordError(err, trace.WithAttributes(attribute.String("stage", stage)))
	s.logger.WarnContext(ctx, "visit recording fault",
		"stage", stage,
		"code", code,
		"client_ip", privacy.AnonymizeIP(ip),
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func (s *Service) finish(span trace.Span, outcome string) {
	s.metrics.IncResolution(outcome)
	span.SetAttributes(attribute.String("resolution.outcome", outcome))
}
