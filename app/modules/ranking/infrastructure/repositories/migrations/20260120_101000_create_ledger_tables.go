package rankingmigrations

import (
	"context"
	"fmt"

	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// The attendance ledger tables are written by the confirmation workflow; this
// service only reads them. They are created here for local development and
// test databases where the ranking service runs standalone.
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating attendance ledger tables...")

		for _, model := range []any{
			(*rankingdb.Event)(nil),
			(*rankingdb.Member)(nil),
			(*rankingdb.Attendance)(nil),
		} {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		_, err := db.NewRaw("CREATE INDEX IF NOT EXISTS idx_attendances_tenant_status ON attendances (tenant_id, status)").Exec(ctx)
		if err != nil {
			return err
		}
		_, err = db.NewRaw("CREATE INDEX IF NOT EXISTS idx_attendances_event ON attendances (event_id)").Exec(ctx)
		if err != nil {
			return err
		}

		fmt.Println("Attendance ledger tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping attendance ledger tables...")

		for _, model := range []any{
			(*rankingdb.Attendance)(nil),
			(*rankingdb.Member)(nil),
			(*rankingdb.Event)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
