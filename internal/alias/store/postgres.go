package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"linkpulse/internal/alias/models"
	"linkpulse/pkg/platform/sentinel"
	pstrings "linkpulse/pkg/platform/strings"
)

const pgUniqueViolation = "23505"

// PostgresStore persists aliases in the aliases table. Counters are only ever changed
// by a single-row relative UPDATE, so concurrent visits never overwrite each other.
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

func (s *PostgresStore) Create(ctx context.Context, alias *models.Alias) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aliases (code, destination, created_at, expires_at, tags, total_visits, unique_visitors)
		VALUES ($1, $2, $3, $4, $5, 0, 0)`,
		alias.Code, alias.Destination, alias.CreatedAt, alias.ExpiresAt, pq.Array(alias.Tags),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("alias %q: %w", alias.Code, sentinel.ErrConflict)
		}
		return fmt.Errorf("create alias: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, code string) (*models.Alias, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT code, destination, created_at, expires_at, tags, total_visits, unique_visitors
		FROM aliases WHERE code = $1`, code)
	a, err := scanAlias(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("alias %q: %w", code, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup alias: %w: %w", sentinel.ErrUnavailable, err)
	}
	return a, nil
}

func (s *PostgresStore) RecordVisit(ctx context.Context, code string, firstVisit bool) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		UPDATE aliases
		SET total_visits = total_visits + 1,
		    unique_visitors = unique_visitors + CASE WHEN $2 THEN 1 ELSE 0 END
		WHERE code = $1`, code, firstVisit)
	if err != nil {
		return fmt.Errorf("record visit: %w: %w", sentinel.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record visit: %w: %w", sentinel.ErrUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("alias %q: %w", code, sentinel.ErrNotFound)
	}
	return nil
}

// FindByTag returns matching aliases ordered by code.
func (s *PostgresStore) FindByTag(ctx context.Context, tag string) ([]*models.Alias, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, destination, created_at, expires_at, tags, total_visits, unique_visitors
		FROM aliases WHERE $1 = ANY(tags) ORDER BY code`, pstrings.NormalizeKey(tag))
	if err != nil {
		return nil, fmt.Errorf("find by tag: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	out := make([]*models.Alias, 0)
	for rows.Next() {
		a, err := scanAlias(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alias: %w: %w", sentinel.ErrUnavailable, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find by tag: %w: %w", sentinel.ErrUnavailable, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlias(row rowScanner) (*models.Alias, error) {
	var (
		a         models.Alias
		expiresAt sql.NullTime
		tags      []string
	)
	if err := row.Scan(&a.Code, &a.Destination, &a.CreatedAt, &expiresAt, pq.Array(&tags), &a.TotalVisits, &a.UniqueVisitors); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	if expiresAt.Valid {
		exp := expiresAt.Time.UTC()
		a.ExpiresAt = &exp
	}
	a.Tags = tags
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return &a, nil
}
