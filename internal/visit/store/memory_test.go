package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"linkpulse/internal/visit/models"
	"linkpulse/pkg/platform/sentinel"
)

type InMemoryLedgerSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLedgerSuite))
}

func (s *InMemoryLedgerSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newEvent(code, token string) models.VisitEvent {
	return models.VisitEvent{
		ID:           uuid.New(),
		Code:         code,
		Timestamp:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Referrer:     models.DirectReferrer,
		Device:       models.DeviceDesktop,
		VisitorToken: token,
	}
}

func (s *InMemoryLedgerSuite) TestAppendReportsFirstVisit() {
	first, err := s.store.Append(s.ctx, newEvent("abc123", "visitor-a"))
	s.Require().NoError(err)
	s.True(first)

	again, err := s.store.Append(s.ctx, newEvent("abc123", "visitor-a"))
	s.Require().NoError(err)
	s.False(again, "repeat visitor")

	otherAlias, err := s.store.Append(s.ctx, newEvent("other", "visitor-a"))
	s.Require().NoError(err)
	s.True(otherAlias, "uniqueness is per alias")

	s.Equal(2, s.store.Count("abc123"), "repeat visits are still stored")
}

func (s *InMemoryLedgerSuite) TestHasPriorVisit() {
	seen, err := s.store.HasPriorVisit(s.ctx, "abc123", "visitor-a")
	s.Require().NoError(err)
	s.False(seen)

	_, err = s.store.Append(s.ctx, newEvent("abc123", "visitor-a"))
	s.Require().NoError(err)

	seen, err = s.store.HasPriorVisit(s.ctx, "abc123", "visitor-a")
	s.Require().NoError(err)
	s.True(seen)
}

// TestConcurrentSameVisitor verifies at most one first-visit credit per token.
func (s *InMemoryLedgerSuite) TestConcurrentSameVisitor() {
	const goroutines = 100
	var firsts atomic.Int32
	var wg sync.WaitGroup
	for range goroutines {
		wg.Go(func() {
			first, err := s.store.Append(s.ctx, newEvent("abc123", "same"))
			s.NoError(err)
			if first {
				firsts.Add(1)
			}
		})
	}
	wg.Wait()

	s.Equal(int32(1), firsts.Load())
	s.Equal(goroutines, s.store.Count("abc123"))
}

func (s *InMemoryLedgerSuite) TestQueryByCode() {
	for i := range 3 {
		_, err := s.store.Append(s.ctx, newEvent("abc123", fmt.Sprintf("v%d", i)))
		s.Require().NoError(err)
	}
	_, err := s.store.Append(s.ctx, newEvent("other", "v0"))
	s.Require().NoError(err)

	s.Run("yields only the code's events and is restartable", func() {
		seq := s.store.QueryByCode(s.ctx, "abc123")
		for range 2 {
			n := 0
			for ev, err := range seq {
				s.Require().NoError(err)
				s.Equal("abc123", ev.Code)
				n++
			}
			s.Equal(3, n)
		}
	})

	s.Run("early break stops iteration", func() {
		n := 0
		for range s.store.QueryByCode(s.ctx, "abc123") {
			n++
			break
		}
		s.Equal(1, n)
	})

	s.Run("unknown code yields nothing", func() {
		for range s.store.QueryByCode(s.ctx, "missing") {
			s.Fail("unexpected event")
		}
	})

	s.Run("cancelled context yields an unavailable error", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		for _, err := range s.store.QueryByCode(ctx, "abc123") {
			s.ErrorIs(err, sentinel.ErrUnavailable)
		}
	})
}
