// Package store holds the alias registry implementations: in-memory, PostgreSQL,
// and a Redis read-through cache that decorates either.
//
// All implementations return sentinel.ErrNotFound for unknown codes,
// sentinel.ErrConflict for duplicate creates and wrap infrastructure faults
// (including context deadlines) with sentinel.ErrUnavailable.
package store

import (
	"context"

	"linkpulse/internal/alias/models"
)

// Registry is the full alias store contract.
type Registry interface {
	Create(ctx context.Context, alias *models.Alias) error
	Lookup(ctx context.Context, code string) (*models.Alias, error)
	RecordVisit(ctx context.Context, code string, firstVisit bool) error
	FindByTag(ctx context.Context, tag string) ([]*models.Alias, error)
}
