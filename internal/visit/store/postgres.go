package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"linkpulse/internal/visit/models"
	"linkpulse/pkg/platform/sentinel"
)

const pgForeignKeyViolation = "23503"

// PostgresStore writes to visit_events and uses the visitors primary key
// (code, visitor_token) as the dedup guard.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithQueryTimeout bounds every statement. Zero leaves the caller's deadline alone.
func WithQueryTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) { s.timeout = d }
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Append inserts the event and claims the visitor row in one transaction. The
// visitor insert affects one row only for the first visit of that token.
func (s *PostgresStore) Append(ctx context.Context, event models.VisitEvent) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("append visit: begin: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO visit_events (id, code, occurred_at, referrer, device_class, visitor_token)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.Code, event.Timestamp, event.Referrer, string(event.Device), event.VisitorToken,
	); err != nil {
		return false, translateWriteErr(event.Code, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO visitors (code, visitor_token, first_seen)
		VALUES ($1, $2, $3)
		ON CONFLICT (code, visitor_token) DO NOTHING`,
		event.Code, event.VisitorToken, event.Timestamp,
	)
	if err != nil {
		return false, translateWriteErr(event.Code, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append visit: %w: %w", sentinel.ErrUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("append visit: commit: %w: %w", sentinel.ErrUnavailable, err)
	}
	return n == 1, nil
}

func (s *PostgresStore) HasPriorVisit(ctx context.Context, code, visitorToken string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM visitors WHERE code = $1 AND visitor_token = $2)`,
		code, visitorToken,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has prior visit: %w: %w", sentinel.ErrUnavailable, err)
	}
	return exists, nil
}

// QueryByCode streams events in occurrence order. The query runs when iteration
// starts; stopping early closes the rows.
func (s *PostgresStore) QueryByCode(ctx context.Context, code string) iter.Seq2[models.VisitEvent, error] {
	return func(yield func(models.VisitEvent, error) bool) {
		ctx, cancel := s.bound(ctx)
		defer cancel()

		rows, err := s.db.QueryContext(ctx, `
			SELECT id, code, occurred_at, referrer, device_class, visitor_token
			FROM visit_events WHERE code = $1 ORDER BY occurred_at, id`, code)
		if err != nil {
			yield(models.VisitEvent{}, fmt.Errorf("query visits: %w: %w", sentinel.ErrUnavailable, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				ev     models.VisitEvent
				device string
			)
			if err := rows.Scan(&ev.ID, &ev.Code, &ev.Timestamp, &ev.Referrer, &device, &ev.VisitorToken); err != nil {
				yield(models.VisitEvent{}, fmt.Errorf("scan visit: %w: %w", sentinel.ErrUnavailable, err))
				return
			}
			ev.Device = models.DeviceClass(device)
			ev.Timestamp = ev.Timestamp.UTC()
			if !yield(ev, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.VisitEvent{}, fmt.Errorf("query visits: %w: %w", sentinel.ErrUnavailable, err))
		}
	}
}

func translateWriteErr(code string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("alias %q: %w", code, sentinel.ErrNotFound)
	}
	return fmt.Errorf("append visit: %w: %w", sentinel.ErrUnavailable, err)
}
