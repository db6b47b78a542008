package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"linkpulse/internal/alias/metrics"
	"linkpulse/internal/alias/models"
	"linkpulse/pkg/platform/circuit"
	"linkpulse/pkg/platform/sentinel"
)

const (
	aliasKeyPrefix       = "linkpulse:alias:"
	defaultLookupTimeout = 5 * time.Second
)

// cachedAlias holds only the fields that never change after creation.
type cachedAlias struct {
	Code        string     `json:"code"`
	Destination string     `json:"destination"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// CachedRegistry is a Redis read-through cache in front of a Registry.
//
// Lookup results served from Redis carry only code, destination, createdAt and
// expiresAt; counters and tags are zero-valued. Callers that need counters must
// read the backing registry. Concurrent misses for one code share a single backing
// lookup. Redis faults are counted and the lookup falls back to the backing store;
// while the breaker is open reads skip Redis, but fills are still attempted so a
// recovered Redis closes the breaker again.
//
// The shared backing lookup runs detached from any one caller and is bounded by the
// lookup timeout; each caller stops waiting when its own context ends.
type CachedRegistry struct {
	next          Registry
	client        redis.Cmdable
	ttl           time.Duration
	lookupTimeout time.Duration
	group   singleflight.Group
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// CacheOption configures a CachedRegistry.
type CacheOption func(*CachedRegistry)

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedRegistry) { c.metrics = m }
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedRegistry) { c.logger = logger }
}

func WithBreaker(b *circuit.Breaker) CacheOption {
	return func(c *CachedRegistry) { c.breaker = b }
}

// WithLookupTimeout bounds the shared backing lookup. Non-positive values keep the default.
func WithLookupTimeout(d time.Duration) CacheOption {
	return func(c *CachedRegistry) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

func NewCached(next Registry, client redis.Cmdable, ttl time.Duration, opts ...CacheOption) *CachedRegistry {
	c := &CachedRegistry{
		next:    next,
		client:  client,
		ttl:           ttl,
		lookupTimeout: defaultLookupTimeout,
		breaker:       circuit.New("alias-cache"),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *CachedRegistry) Lookup(ctx context.Context, code string) (*models.Alias, error) {
	if !c.breaker.IsOpen() {
		if a, ok := c.get(ctx, code); ok {
			c.metrics.IncHit()
			return a, nil
		}
	}
	c.metrics.IncMiss()

	ch := c.group.DoChan(code, func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()
		a, err := c.next.Lookup(sharedCtx, code)
		if err != nil {
			return nil, err
		}
		c.set(sharedCtx, a)
		return a, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("lookup alias: %w: %w", sentinel.ErrUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Alias).Clone(), nil
	}
}

func (c *CachedRegistry) RecordVisit(ctx context.Context, code string, firstVisit bool) error {
	return c.next.RecordVisit(ctx, code, firstVisit)
}

func (c *CachedRegistry) FindByTag(ctx context.Context, tag string) ([]*models.Alias, error) {
	return c.next.FindByTag(ctx, tag)
}

func (c *CachedRegistry) Create(ctx context.Context, alias *models.Alias) error {
	return c.next.Create(ctx, alias)
}

func (c *CachedRegistry) get(ctx context.Context, code string) (*models.Alias, bool) {
	raw, err := c.client.Get(ctx, aliasKeyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		c.recordSuccess()
		return nil, false
	}
	if err != nil {
		c.recordFailure(ctx, "get", err)
		return nil, false
	}
	c.recordSuccess()

	var ca cachedAlias
	if err := json.Unmarshal(raw, &ca); err != nil {
		c.metrics.IncError("decode")
		return nil, false
	}
	return &models.Alias{
		Code:        ca.Code,
		Destination: ca.Destination,
		CreatedAt:   ca.CreatedAt,
		ExpiresAt:   ca.ExpiresAt,
		Tags:        []string{},
	}, true
}

func (c *CachedRegistry) set(ctx context.Context, a *models.Alias) {
	raw, err := json.Marshal(cachedAlias{
		Code:        a.Code,
		Destination: a.Destination,
		CreatedAt:   a.CreatedAt,
		ExpiresAt:   a.ExpiresAt,
	})
	if err != nil {
		c.metrics.IncError("encode")
		return
	}
	if err := c.client.Set(ctx, aliasKeyPrefix+a.Code, raw, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, "set", err)
		return
	}
	c.recordSuccess()
}

func (c *CachedRegistry) recordFailure(ctx context.Context, op string, err error) {
	c.metrics.IncError(op)
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.metrics.SetBreakerOpen(true)
		c.logger.WarnContext(ctx, "alias cache breaker opened", "op", op, "error", err)
	}
}

func (c *CachedRegistry) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.SetBreakerOpen(false)
		c.logger.Info("alias cache breaker closed")
	}
}
