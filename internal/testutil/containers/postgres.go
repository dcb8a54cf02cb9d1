//go:build integration

// Package containers starts throwaway dependencies for integration tests.
package containers

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/deppfellow/policydesk/internal/config"
	"github.com/deppfellow/policydesk/internal/database"
)

// PostgresContainer wraps a migrated PostgreSQL instance and a pool bound
// to it.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts PostgreSQL, applies the embedded schema and
// opens a pool limited to maxConns connections. Everything is torn down
// through t.Cleanup.
func NewPostgresContainer(t *testing.T, maxConns int) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("policydesk"),
		tcpostgres.WithUsername("policydesk"),
		tcpostgres.WithPassword("policydesk"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: dsn, MaxOpenConns: maxConns},
	}
	log := zerolog.Nop()
	require.NoError(t, database.Migrate(ctx, &log, cfg), "apply schema")

	poolCfg, err := database.PoolConfig(&cfg.Database)
	require.NoError(t, err)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	require.NoError(t, err, "open pool")
	t.Cleanup(pool.Close)

	return &PostgresContainer{Container: container, DSN: dsn, Pool: pool}
}

// Truncate empties every table between tests.
func (p *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()
	_, err := p.Pool.Exec(context.Background(), `TRUNCATE policies, applicants RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}
