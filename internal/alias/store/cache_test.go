package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"linkpulse/internal/alias/metrics"
	"linkpulse/internal/alias/models"
	"linkpulse/pkg/platform/circuit"
	"linkpulse/pkg/platform/sentinel"
)

// countingRegistry counts backing lookups.
type countingRegistry struct {
	Registry
	lookups atomic.Int32
}

func (c *countingRegistry) Lookup(ctx context.Context, code string) (*models.Alias, error) {
	c.lookups.Add(1)
	return c.Registry.Lookup(ctx, code)
}

// gatedRegistry blocks every Lookup until release is closed.
type gatedRegistry struct {
	Registry
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedRegistry) Lookup(ctx context.Context, code string) (*models.Alias, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Registry.Lookup(ctx, code)
}

// CachedRegistryDownSuite runs the decorator against an unreachable Redis.
type CachedRegistryDownSuite struct {
	suite.Suite
	backing *countingRegistry
	metrics *metrics.Metrics
	cache   *CachedRegistry
	ctx     context.Context
}

func TestCachedRegistryDownSuite(t *testing.T) {
	suite.Run(t, new(CachedRegistryDownSuite))
}

func (s *CachedRegistryDownSuite) SetupTest() {
	s.ctx = context.Background()
	mem := NewInMemory()
	a, err := models.NewAlias("abc123", "https://example.com", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, []string{"promo"})
	s.Require().NoError(err)
	s.Require().NoError(mem.Create(s.ctx, a))
	s.backing = &countingRegistry{Registry: mem}
	s.metrics = metrics.NewWith(prometheus.NewRegistry())

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	s.T().Cleanup(func() { _ = client.Close() })

	s.cache = NewCached(s.backing, client, time.Minute,
		WithCacheMetrics(s.metrics),
		WithBreaker(circuit.New("alias-cache-test", circuit.WithFailureThreshold(2))),
	)
}

func (s *CachedRegistryDownSuite) TestFallsBackToBackingStore() {
	found, err := s.cache.Lookup(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal("https://example.com", found.Destination)
	s.Equal(int32(1), s.backing.lookups.Load())
	s.GreaterOrEqual(testutil.ToFloat64(s.metrics.CacheErrors.WithLabelValues("get")), 1.0)
}

func (s *CachedRegistryDownSuite) TestBreakerOpensAndSkipsReads() {
	for range 3 {
		_, err := s.cache.Lookup(s.ctx, "abc123")
		s.Require().NoError(err)
	}
	s.True(s.cache.breaker.IsOpen())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BreakerState))

	getsBefore := testutil.ToFloat64(s.metrics.CacheErrors.WithLabelValues("get"))
	_, err := s.cache.Lookup(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal(getsBefore, testutil.ToFloat64(s.metrics.CacheErrors.WithLabelValues("get")), "open breaker skips redis reads")
}

func (s *CachedRegistryDownSuite) TestNotFoundPassesThrough() {
	_, err := s.cache.Lookup(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CachedRegistryDownSuite) TestWritesPassThrough() {
	s.Require().NoError(s.cache.RecordVisit(s.ctx, "abc123", true))
	found, err := s.backing.Lookup(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal(int64(1), found.TotalVisits)

	tagged, err := s.cache.FindByTag(s.ctx, "promo")
	s.Require().NoError(err)
	s.Len(tagged, 1)
}

func (s *CachedRegistryDownSuite) TestCancelledCallerDoesNotFailSharedLookup() {
	gated := &gatedRegistry{Registry: s.backing, started: make(chan struct{}), release: make(chan struct{})}
	cache := NewCached(gated, s.cache.client, time.Minute, WithCacheMetrics(s.metrics))

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := cache.Lookup(leaderCtx, "abc123")
		leaderErr <- err
	}()
	<-gated.started

	type result struct {
		alias *models.Alias
		err   error
	}
	follower := make(chan result, 1)
	go func() {
		a, err := cache.Lookup(context.Background(), "abc123")
		follower <- result{a, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelLeader()

	select {
	case err := <-leaderErr:
		s.ErrorIs(err, context.Canceled)
		s.ErrorIs(err, sentinel.ErrUnavailable)
	case <-time.After(time.Second):
		s.FailNow("cancelled caller kept waiting on the shared lookup")
	}

	close(gated.release)
	select {
	case res := <-follower:
		s.Require().NoError(res.err)
		s.Equal("https://example.com", res.alias.Destination)
	case <-time.After(2 * time.Second):
		s.FailNow("follower never received the shared lookup")
	}
}

func (s *CachedRegistryDownSuite) TestSharedLookupIsBounded() {
	gated := &gatedRegistry{Registry: s.backing, started: make(chan struct{}), release: make(chan struct{})}
	cache := NewCached(gated, s.cache.client, time.Minute, WithLookupTimeout(30*time.Millisecond))

	_, err := cache.Lookup(context.Background(), "abc123")
	s.ErrorIs(err, context.DeadlineExceeded)
}
