package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"linkpulse/internal/alias/models"
	"linkpulse/pkg/platform/sentinel"
	pstrings "linkpulse/pkg/platform/strings"
)

// InMemory is a mutex-guarded alias registry. Counter updates happen inside the
// write lock, so concurrent RecordVisit calls never lose an increment.
type InMemory struct {
	mu      sync.RWMutex
	aliases map[string]*models.Alias
}

func NewInMemory() *InMemory {
	return &InMemory{aliases: make(map[string]*models.Alias)}
}

func (s *InMemory) Create(ctx context.Context, alias *models.Alias) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create alias: %w: %w", sentinel.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.aliases[alias.Code]; ok {
		return fmt.Errorf("alias %q: %w", alias.Code, sentinel.ErrConflict)
	}
	s.aliases[alias.Code] = alias.Clone()
	return nil
}

func (s *InMemory) Lookup(ctx context.Context, code string) (*models.Alias, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lookup alias: %w: %w", sentinel.ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.aliases[code]
	if !ok {
		return nil, fmt.Errorf("alias %q: %w", code, sentinel.ErrNotFound)
	}
	return a.Clone(), nil
}

func (s *InMemory) RecordVisit(ctx context.Context, code string, firstVisit bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("record visit: %w: %w", sentinel.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.aliases[code]
	if !ok {
		return fmt.Errorf("alias %q: %w", code, sentinel.ErrNotFound)
	}
	a.TotalVisits++
	if firstVisit {
		a.UniqueVisitors++
	}
	return nil
}

// FindByTag returns matching aliases ordered by code.
func (s *InMemory) FindByTag(ctx context.Context, tag string) ([]*models.Alias, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find by tag: %w: %w", sentinel.ErrUnavailable, err)
	}
	tag = pstrings.NormalizeKey(tag)
	s.mu.RLock()
	out := make([]*models.Alias, 0)
	for _, a := range s.aliases {
		if a.HasTag(tag) {
			out = append(out, a.Clone())
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b *models.Alias) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}

// Health always succeeds for the in-memory registry.
func (s *InMemory) Health(context.Context) error { return nil }

func (s *InMemory) Name() string { return "memory" }
