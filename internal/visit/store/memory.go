package store

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"linkpulse/internal/visit/models"
	"linkpulse/pkg/platform/sentinel"
)

type visitorKey struct {
	code  string
	token string
}

// InMemory keeps events per code plus a visitor index, both under one mutex.
type InMemory struct {
	mu       sync.RWMutex
	events   map[string][]models.VisitEvent
	visitors map[visitorKey]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		events:   make(map[string][]models.VisitEvent),
		visitors: make(map[visitorKey]struct{}),
	}
}

func (s *InMemory) Append(ctx context.Context, event models.VisitEvent) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("append visit: %w: %w", sentinel.ErrUnavailable, err)
	}
	key := visitorKey{code: event.Code, token: event.VisitorToken}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Code] = append(s.events[event.Code], event)
	if _, seen := s.visitors[key]; seen {
		return false, nil
	}
	s.visitors[key] = struct{}{}
	return true, nil
}

func (s *InMemory) HasPriorVisit(ctx context.Context, code, visitorToken string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("has prior visit: %w: %w", sentinel.ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, seen := s.visitors[visitorKey{code: code, token: visitorToken}]
	return seen, nil
}

// QueryByCode yields the events stored for code when iteration starts. Each call
// takes a fresh snapshot, so the sequence can be ranged over repeatedly.
func (s *InMemory) QueryByCode(ctx context.Context, code string) iter.Seq2[models.VisitEvent, error] {
	return func(yield func(models.VisitEvent, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(models.VisitEvent{}, fmt.Errorf("query visits: %w: %w", sentinel.ErrUnavailable, err))
			return
		}
		s.mu.RLock()
		snapshot := s.events[code][:len(s.events[code]):len(s.events[code])]
		s.mu.RUnlock()

		for _, ev := range snapshot {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Count returns the number of stored events for code.
func (s *InMemory) Count(code string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[code])
}
