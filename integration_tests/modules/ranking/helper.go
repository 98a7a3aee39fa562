package rankingintegrationtests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/integration_tests/testutils"
)

type TestDeps struct {
	Ctx   context.Context
	Repo  *rankingdb.Impl
	BunDB *bun.DB
}

func SetupTestRankingDB(t *testing.T) TestDeps {
	t.Helper()

	env := testutils.GetOrCreateTestEnv(t)

	if err := testutils.TruncateTables(env.Ctx, env.DB,
		"ranking_snapshots", "attendances", "events", "members",
	); err != nil {
		t.Fatalf("Failed to truncate ranking tables: %v", err)
	}

	return TestDeps{
		Ctx:   env.Ctx,
		Repo:  rankingdb.NewRepository(env.DB),
		BunDB: env.DB,
	}
}

func testTenant() uuid.UUID {
	return config.DefaultTenantID
}

func increment(memberID int64, scopeType, scopeID string, points int, miles float64) *rankingdb.SnapshotIncrement {
	return &rankingdb.SnapshotIncrement{
		TenantID:     testTenant(),
		Year:         2026,
		ScopeType:    scopeType,
		ScopeID:      scopeID,
		MemberID:     memberID,
		Points:       points,
		Miles:        miles,
		VisitorClass: "LOCAL",
		CalculatedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func seedLedger(t *testing.T, deps TestDeps) {
	t.Helper()

	members := []rankingdb.Member{
		{ID: 1, ChapterID: "PL-01", Country: "POLAND", Continent: "EUROPE"},
		{ID: 2, ChapterID: "DE-02", Country: "GERMANY", Continent: "EUROPE"},
	}
	events := []rankingdb.Event{
		{ID: 10, TenantID: testTenant(), ChapterID: "PL-01", EventStartDate: time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC), Class: 2, Mileage: 410.5},
		{ID: 11, TenantID: testTenant(), ChapterID: "PL-01", EventStartDate: time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), Class: 3, Mileage: 900},
	}
	attendances := []rankingdb.Attendance{
		{ID: 100, TenantID: testTenant(), EventID: 10, MemberID: 1, Status: "CONFIRMED", PointsAwarded: 4, VisitorClass: "LOCAL", ConfirmedAt: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)},
		{ID: 101, TenantID: testTenant(), EventID: 10, MemberID: 2, Status: "PENDING", PointsAwarded: 4, VisitorClass: "VISITOR_A"},
		{ID: 102, TenantID: testTenant(), EventID: 11, MemberID: 1, Status: "CONFIRMED", PointsAwarded: 7, VisitorClass: "LOCAL", ConfirmedAt: time.Date(2025, 8, 3, 9, 0, 0, 0, time.UTC)},
	}

	if _, err := deps.BunDB.NewInsert().Model(&members).Exec(deps.Ctx); err != nil {
		t.Fatalf("Failed to seed members: %v", err)
	}
	if _, err := deps.BunDB.NewInsert().Model(&events).Exec(deps.Ctx); err != nil {
		t.Fatalf("Failed to seed events: %v", err)
	}
	if _, err := deps.BunDB.NewInsert().Model(&attendances).Exec(deps.Ctx); err != nil {
		t.Fatalf("Failed to seed attendances: %v", err)
	}
}
