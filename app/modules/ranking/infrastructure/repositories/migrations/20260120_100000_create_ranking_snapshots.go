package rankingmigrations

import (
	"context"
	"fmt"

	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating ranking_snapshots table...")

		if _, err := db.NewCreateTable().Model((*rankingdb.RankingSnapshot)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}

		// The composite key backs the ON CONFLICT upsert in ApplyIncrement.
		_, err := db.NewRaw("CREATE UNIQUE INDEX IF NOT EXISTS uq_ranking_snapshots_scope_member ON ranking_snapshots (tenant_id, year, scope_type, scope_id, member_id)").Exec(ctx)
		if err != nil {
			return err
		}
		_, err = db.NewRaw("CREATE INDEX IF NOT EXISTS idx_ranking_snapshots_scope_rank ON ranking_snapshots (tenant_id, year, scope_type, scope_id, rank)").Exec(ctx)
		if err != nil {
			return err
		}
		_, err = db.NewRaw("CREATE INDEX IF NOT EXISTS idx_ranking_snapshots_scope_points ON ranking_snapshots (tenant_id, year, scope_type, scope_id, total_points DESC)").Exec(ctx)
		if err != nil {
			return err
		}

		fmt.Println("ranking_snapshots table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ranking_snapshots table...")

		if _, err := db.NewDropTable().Model((*rankingdb.RankingSnapshot)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}

		fmt.Println("ranking_snapshots table dropped successfully!")
		return nil
	})
}
