package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"linkpulse/internal/alias/models"
	"linkpulse/pkg/platform/sentinel"
)

type InMemoryRegistrySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryRegistrySuite(t *testing.T) {
	suite.Run(t, new(InMemoryRegistrySuite))
}

func (s *InMemoryRegistrySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryRegistrySuite) newAlias(code string, tags ...string) *models.Alias {
	a, err := models.NewAlias(code, "https://example.com/"+code, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, tags)
	s.Require().NoError(err)
	return a
}

func (s *InMemoryRegistrySuite) TestCreateAndLookup() {
	s.Run("returns a copy of the stored alias", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newAlias("abc123", "promo")))

		found, err := s.store.Lookup(s.ctx, "abc123")
		s.Require().NoError(err)
		s.Equal("https://example.com/abc123", found.Destination)

		found.Tags[0] = "mutated"
		again, err := s.store.Lookup(s.ctx, "abc123")
		s.Require().NoError(err)
		s.Equal([]string{"promo"}, again.Tags)
	})

	s.Run("rejects duplicate codes", func() {
		err := s.store.Create(s.ctx, s.newAlias("abc123"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown code is not found", func() {
		_, err := s.store.Lookup(s.ctx, "missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("cancelled context is unavailable", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		_, err := s.store.Lookup(ctx, "abc123")
		s.ErrorIs(err, sentinel.ErrUnavailable)
	})
}

func (s *InMemoryRegistrySuite) TestRecordVisit() {
	s.Require().NoError(s.store.Create(s.ctx, s.newAlias("abc123")))

	s.Require().NoError(s.store.RecordVisit(s.ctx, "abc123", true))
	s.Require().NoError(s.store.RecordVisit(s.ctx, "abc123", false))

	found, err := s.store.Lookup(s.ctx, "abc123")
	s.Require().NoError(err)
	s.Equal(int64(2), found.TotalVisits)
	s.Equal(int64(1), found.UniqueVisitors)

	s.ErrorIs(s.store.RecordVisit(s.ctx, "missing", true), sentinel.ErrNotFound)
}

// TestConcurrentRecordVisit verifies no increment is lost under contention.
func (s *InMemoryRegistrySuite) TestConcurrentRecordVisit() {
	s.Require().NoError(s.store.Create(s.ctx, s.newAlias("hot")))

	const goroutines = 200
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Go(func() {
			s.NoError(s.store.RecordVisit(s.ctx, "hot", i%4 == 0))
		})
	}
	wg.Wait()

	found, err := s.store.Lookup(s.ctx, "hot")
	s.Require().NoError(err)
	s.Equal(int64(goroutines), found.TotalVisits)
	s.Equal(int64(goroutines/4), found.UniqueVisitors)
}

func (s *InMemoryRegistrySuite) TestFindByTag() {
	s.Require().NoError(s.store.Create(s.ctx, s.newAlias("zeta", "promo")))
	s.Require().NoError(s.store.Create(s.ctx, s.newAlias("alpha", "promo", "spring")))
	s.Require().NoError(s.store.Create(s.ctx, s.newAlias("mid", "spring")))

	s.Run("orders by code and matches case-insensitively", func() {
		found, err := s.store.FindByTag(s.ctx, " PROMO ")
		s.Require().NoError(err)
		s.Require().Len(found, 2)
		s.Equal("alpha", found[0].Code)
		s.Equal("zeta", found[1].Code)
	})

	s.Run("unknown tag yields empty non-nil slice", func() {
		found, err := s.store.FindByTag(s.ctx, "none")
		s.Require().NoError(err)
		s.NotNil(found)
		s.Empty(found)
	})
}
