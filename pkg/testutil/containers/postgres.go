//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"linkpulse/internal/platform/config"
	"linkpulse/internal/platform/postgres"
)

// PostgresContainer is a migrated PostgreSQL instance.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

func startPostgres() (*PostgresContainer, error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("linkpulse"),
		tcpostgres.WithUsername("linkpulse"),
		tcpostgres.WithPassword("linkpulse"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}
	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}
	if err := postgres.Migrate(url, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	db, err := postgres.Open(ctx, config.StoreConfig{DatabaseURL: url, MaxOpenConns: 50, MaxIdleConns: 10})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &PostgresContainer{Container: container, URL: url, DB: db.DB}, nil
}

// TruncateTables empties the named tables.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	_, err := p.DB.ExecContext(ctx, "TRUNCATE "+strings.Join(tables, ", ")+" CASCADE")
	return err
}
