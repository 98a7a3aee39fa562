package rankingdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const statusConfirmed = "CONFIRMED"

// ListConfirmedFacts loads every confirmed attendance for a tenant and
// competition year, joined with the event (mileage, chapter) and member
// (geography) attributes that scope fan-out needs. The year is the event's
// start-date year, matching how confirmations assign competition years.
func (r *Impl) ListConfirmedFacts(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int) ([]AttendanceFact, error) {
	if db == nil {
		db = r.db
	}

	var facts []AttendanceFact
	err := db.NewSelect().
		Model((*Attendance)(nil)).
		ColumnExpr("a.id AS attendance_id").
		ColumnExpr("a.member_id").
		ColumnExpr("a.event_id").
		ColumnExpr("a.points_awarded_per_member AS points_awarded").
		ColumnExpr("e.mileage AS miles").
		ColumnExpr("a.visitor_class").
		ColumnExpr("a.confirmed_at").
		ColumnExpr("e.chapter_id").
		ColumnExpr("m.country AS member_country").
		ColumnExpr("m.continent AS member_continent").
		Join("JOIN events AS e ON e.id = a.event_id").
		Join("JOIN members AS m ON m.id = a.member_id").
		Where("a.tenant_id = ?", tenantID).
		Where("a.status = ?", statusConfirmed).
		Where("EXTRACT(YEAR FROM e.event_start_date) = ?", year).
		OrderExpr("a.confirmed_at ASC, a.id ASC").
		Scan(ctx, &facts)
	if err != nil {
		return nil, fmt.Errorf("rankingdb.ListConfirmedFacts: %w", err)
	}
	return facts, nil
}
