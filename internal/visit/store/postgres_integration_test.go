//go:build integration

package store_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	aliasmodels "linkpulse/internal/alias/models"
	aliasstore "linkpulse/internal/alias/store"
	"linkpulse/internal/visit/models"
	"linkpulse/internal/visit/store"
	"linkpulse/pkg/platform/sentinel"
	"linkpulse/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresLedgerSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "visitors", "visit_events", "aliases"))
	a, err := aliasmodels.NewAlias("abc123", "https://example.com", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil)
	s.Require().NoError(err)
	s.Require().NoError(aliasstore.NewPostgres(s.postgres.DB).Create(ctx, a))
}

func event(code, token string, at time.Time) models.VisitEvent {
	return models.VisitEvent{
		ID:           uuid.New(),
		Code:         code,
		Timestamp:    at,
		Referrer:     models.DirectReferrer,
		Device:       models.DeviceMobile,
		VisitorToken: token,
	}
}

func (s *PostgresLedgerSuite) TestAppendAndQuery() {
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := s.store.Append(ctx, event("abc123", "a", t0))
	s.Require().NoError(err)
	s.True(first)
	first, err = s.store.Append(ctx, event("abc123", "a", t0.Add(time.Minute)))
	s.Require().NoError(err)
	s.False(first)

	seen, err := s.store.HasPriorVisit(ctx, "abc123", "a")
	s.Require().NoError(err)
	s.True(seen)

	var got []models.VisitEvent
	for ev, err := range s.store.QueryByCode(ctx, "abc123") {
		s.Require().NoError(err)
		got = append(got, ev)
	}
	s.Require().Len(got, 2)
	s.True(got[0].Timestamp.Equal(t0))
	s.Equal(models.DeviceMobile, got[0].Device)
}

func (s *PostgresLedgerSuite) TestUnknownAliasIsNotFound() {
	_, err := s.store.Append(context.Background(), event("missing", "a", time.Now()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentFirstVisits verifies the visitors primary key grants exactly one
// first-visit credit per token.
func (s *PostgresLedgerSuite) TestConcurrentFirstVisits() {
	ctx := context.Background()
	const perToken, tokens = 20, 5
	var firsts atomic.Int32
	var wg sync.WaitGroup
	for tok := range tokens {
		for range perToken {
			wg.Go(func() {
				first, err := s.store.Append(ctx, event("abc123", fmt.Sprintf("t%d", tok), time.Now()))
				s.NoError(err)
				if first {
					firsts.Add(1)
				}
			})
		}
	}
	wg.Wait()
	s.Equal(int32(tokens), firsts.Load())

	n := 0
	for _, err := range s.store.QueryByCode(ctx, "abc123") {
		s.Require().NoError(err)
		n++
	}
	s.Equal(perToken*tokens, n)
}
