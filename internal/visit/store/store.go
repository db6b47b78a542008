// Package store holds the visit ledger implementations.
//
// Append is an atomic conditional insert: the event is always stored, and whether
// (code, visitor token) was already present is decided in the same atomic step that
// records it. Two concurrent first visits from one visitor can therefore never both
// report firstVisit=true.
package store

import (
	"context"
	"iter"

	"linkpulse/internal/visit/models"
)

// Ledger is the full visit ledger contract.
type Ledger interface {
	Append(ctx context.Context, event models.VisitEvent) (firstVisit bool, err error)
	HasPriorVisit(ctx context.Context, code, visitorToken string) (bool, error)
	QueryByCode(ctx context.Context, code string) iter.Seq2[models.VisitEvent, error]
}
