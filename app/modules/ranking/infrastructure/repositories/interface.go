package rankingdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SnapshotIncrement is one scope's share of a confirmed attendance, applied
// atomically to the snapshot row.
type SnapshotIncrement struct {
	TenantID     uuid.UUID
	Year         int
	ScopeType    string
	ScopeID      string
	MemberID     int64
	Points       int
	Miles        float64
	VisitorClass string
	CalculatedAt time.Time
}

// Repository defines the contract for ranking snapshot persistence.
// All methods are context-aware for cancellation and timeout propagation, and
// accept a bun.IDB so services can run them inside a transaction (nil falls
// back to the repository's own connection).
//
// Error semantics:
//   - ErrNotFound: record does not exist
//   - Other errors: infrastructure failures (DB connection, query errors)
type Repository interface {
	// ApplyIncrement upserts one scope row in a single atomic statement:
	// insert on first contribution, otherwise add points/miles, bump the event
	// count, and overwrite the visitor class. Rank is never touched here.
	// Returns the row as persisted, including any rank a prior rebuild left.
	ApplyIncrement(ctx context.Context, db bun.IDB, inc *SnapshotIncrement) (*RankingSnapshot, error)

	// ReplaceScopeSnapshots atomically swaps the snapshot rows for the given
	// scope ids under one scope type: deletes the old rows and inserts the new
	// ranked set in the same transaction. Returns the number of rows written.
	ReplaceScopeSnapshots(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType string, scopeIDs []string, rows []*RankingSnapshot) (int, error)

	// GetRanking returns snapshot rows for one scope ordered by rank ascending
	// with unranked rows last in a stable order.
	GetRanking(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType, scopeID string, skip, take int) ([]RankingSnapshot, error)

	// GetMemberRanking returns a member's snapshot row for one scope.
	// Returns ErrNotFound if the member has no row in the period.
	GetMemberRanking(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType, scopeID string, memberID int64) (*RankingSnapshot, error)
}

// AttendanceReader reads the confirmed-attendance ledger the rebuild
// aggregates from. The ledger is owned by the confirmation workflow; this
// module never writes it.
type AttendanceReader interface {
	// ListConfirmedFacts returns every confirmed attendance for the tenant and
	// competition year, joined with event and member scope attributes.
	ListConfirmedFacts(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int) ([]AttendanceFact, error)
}
