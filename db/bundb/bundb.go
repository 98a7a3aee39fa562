// Package bundb provides the bun-backed database connection used by the
// ranking module.
package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	"github.com/moto-league/ranking-engine/config"
)

// DBService bundles the bun connection with the repositories built on it.
type DBService struct {
	RankingDB *rankingdb.Impl
	db        *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// NewBunDBService initializes a DBService with the provided Postgres config.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel(
		(*rankingdb.RankingSnapshot)(nil),
		(*rankingdb.Attendance)(nil),
		(*rankingdb.Event)(nil),
		(*rankingdb.Member)(nil),
	)

	return &DBService{
		RankingDB: rankingdb.NewRepository(db),
		db:        db,
	}, nil
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqldb, nil
}
