package rankingdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements Repository and AttendanceReader using bun.
type Impl struct {
	db *bun.DB
}

// NewRepository creates the bun-backed ranking repository.
func NewRepository(db *bun.DB) *Impl {
	return &Impl{db: db}
}

var (
	_ Repository       = (*Impl)(nil)
	_ AttendanceReader = (*Impl)(nil)
)

// ApplyIncrement performs the per-scope atomic read-modify-write as a single
// INSERT ... ON CONFLICT DO UPDATE. Concurrent increments against the same row
// serialize inside Postgres, so no update is lost. Rank is intentionally
// absent from the update list; only Rebuild assigns it.
func (r *Impl) ApplyIncrement(ctx context.Context, db bun.IDB, inc *SnapshotIncrement) (*RankingSnapshot, error) {
	if db == nil {
		db = r.db
	}

	snapshot := &RankingSnapshot{
		TenantID:         inc.TenantID,
		Year:             inc.Year,
		ScopeType:        inc.ScopeType,
		ScopeID:          inc.ScopeID,
		MemberID:         inc.MemberID,
		TotalPoints:      inc.Points,
		TotalMiles:       inc.Miles,
		EventsCount:      1,
		VisitorClass:     inc.VisitorClass,
		LastCalculatedAt: inc.CalculatedAt,
	}

	_, err := db.NewInsert().
		Model(snapshot).
		On("CONFLICT (tenant_id, year, scope_type, scope_id, member_id) DO UPDATE").
		Set("total_points = rs.total_points + EXCLUDED.total_points").
		Set("total_miles = rs.total_miles + EXCLUDED.total_miles").
		Set("events_count = rs.events_count + 1").
		Set("visitor_class = EXCLUDED.visitor_class").
		Set("last_calculated_at = EXCLUDED.last_calculated_at").
		Set("updated_at = now()").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("rankingdb.ApplyIncrement: %w", err)
	}
	return snapshot, nil
}

// ReplaceScopeSnapshots swaps out the rows for the given scope ids inside one
// transaction. An empty scopeIDs slice means every scope id under the type.
// The delete+insert pair commits atomically, so a reader never sees a mix of
// old and new rows for a member.
func (r *Impl) ReplaceScopeSnapshots(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType string, scopeIDs []string, rows []*RankingSnapshot) (int, error) {
	if db == nil {
		db = r.db
	}

	written := 0
	err := runInTx(ctx, db, func(ctx context.Context, tx bun.IDB) error {
		del := tx.NewDelete().
			Model((*RankingSnapshot)(nil)).
			Where("tenant_id = ?", tenantID).
			Where("year = ?", year).
			Where("scope_type = ?", scopeType)
		if len(scopeIDs) > 0 {
			del = del.Where("scope_id IN (?)", bun.In(scopeIDs))
		}
		if _, err := del.Exec(ctx); err != nil {
			return fmt.Errorf("delete old snapshots: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}

		res, err := tx.NewInsert().Model(&rows).Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert new snapshots: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			written = int(n)
		} else {
			written = len(rows)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rankingdb.ReplaceScopeSnapshots: %w", err)
	}
	return written, nil
}

// GetRanking returns one page of a scope leaderboard. Rank ascending with
// unranked rows last; the secondary ordering keeps unranked rows stable
// between calls.
func (r *Impl) GetRanking(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType, scopeID string, skip, take int) ([]RankingSnapshot, error) {
	if db == nil {
		db = r.db
	}

	var snapshots []RankingSnapshot
	err := db.NewSelect().
		Model(&snapshots).
		Where("tenant_id = ?", tenantID).
		Where("year = ?", year).
		Where("scope_type = ?", scopeType).
		Where("scope_id = ?", scopeID).
		OrderExpr("rank ASC NULLS LAST").
		OrderExpr("total_points DESC").
		OrderExpr("total_miles DESC").
		OrderExpr("member_id ASC").
		Offset(skip).
		Limit(take).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rankingdb.GetRanking: %w", err)
	}
	return snapshots, nil
}

// GetMemberRanking returns the snapshot row for one member in one scope.
func (r *Impl) GetMemberRanking(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType, scopeID string, memberID int64) (*RankingSnapshot, error) {
	if db == nil {
		db = r.db
	}

	snapshot := new(RankingSnapshot)
	err := db.NewSelect().
		Model(snapshot).
		Where("tenant_id = ?", tenantID).
		Where("year = ?", year).
		Where("scope_type = ?", scopeType).
		Where("scope_id = ?", scopeID).
		Where("member_id = ?", memberID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rankingdb.GetMemberRanking: %w", err)
	}
	return snapshot, nil
}

// runInTx starts a transaction when given a *bun.DB; when already inside a
// bun.Tx it just runs fn, so nested calls compose.
func runInTx(ctx context.Context, db bun.IDB, fn func(ctx context.Context, tx bun.IDB) error) error {
	if bdb, ok := db.(*bun.DB); ok {
		return bdb.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, tx)
		})
	}
	return fn(ctx, db)
}
