// Package testutils provides a shared database environment for integration
// tests. One Postgres container is started per test binary and reused across
// tests; individual tests truncate the tables they touch.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	rankingmigrations "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories/migrations"
	"github.com/moto-league/ranking-engine/integration_tests/containers"
)

// TestEnv is the shared database environment for a test binary.
type TestEnv struct {
	Ctx context.Context
	DB  *bun.DB
	DSN string
}

var (
	envOnce sync.Once
	env     *TestEnv
	envErr  error
)

// GetOrCreateTestEnv returns the shared environment, starting the container
// and running migrations on first use. Tests are skipped in short mode and
// when Docker is explicitly unavailable.
func GetOrCreateTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("SKIP_INTEGRATION_TESTS") != "" {
		t.Skip("SKIP_INTEGRATION_TESTS is set")
	}

	envOnce.Do(func() {
		env, envErr = newTestEnv()
	})
	if envErr != nil {
		t.Fatalf("Failed to create test environment: %v", envErr)
	}
	return env
}

func newTestEnv() (*TestEnv, error) {
	ctx := context.Background()

	_, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel(
		(*rankingdb.RankingSnapshot)(nil),
		(*rankingdb.Attendance)(nil),
		(*rankingdb.Event)(nil),
		(*rankingdb.Member)(nil),
	)

	migrator := migrate.NewMigrator(db, rankingmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestEnv{Ctx: ctx, DB: db, DSN: dsn}, nil
}

// TruncateTables clears the given tables between tests.
func TruncateTables(ctx context.Context, db *bun.DB, tables ...string) error {
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE"); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
