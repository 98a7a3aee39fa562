package rankingservice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	rankingmetrics "github.com/moto-league/ranking-engine/internal/observability/metrics/ranking"
)

// ------------------------
// Fake Ranking Repo
// ------------------------

// snapshotKey identifies one snapshot row in the in-memory store.
type snapshotKey struct {
	tenantID  uuid.UUID
	year      int
	scopeType string
	scopeID   string
	memberID  int64
}

// FakeRankingRepository is an in-memory stand-in for the rankingdb.Repository
// interface. It applies increments and replacements for real so convergence
// tests can compare the incremental and rebuild paths, and supports per-method
// error injection.
type FakeRankingRepository struct {
	trace []string

	rows map[snapshotKey]*rankingdb.RankingSnapshot

	ApplyIncrementErr        error
	ReplaceScopeSnapshotsErr error
	GetRankingErr            error
	GetMemberRankingErr      error
}

func NewFakeRankingRepository() *FakeRankingRepository {
	return &FakeRankingRepository{
		trace: []string{},
		rows:  make(map[snapshotKey]*rankingdb.RankingSnapshot),
	}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeRankingRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRankingRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// Rows returns a copy of every stored snapshot row.
func (f *FakeRankingRepository) Rows() []rankingdb.RankingSnapshot {
	out := make([]rankingdb.RankingSnapshot, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, *row)
	}
	return out
}

func (f *FakeRankingRepository) ApplyIncrement(ctx context.Context, db bun.IDB, inc *rankingdb.SnapshotIncrement) (*rankingdb.RankingSnapshot, error) {
	f.record("ApplyIncrement")
	if f.ApplyIncrementErr != nil {
		return nil, f.ApplyIncrementErr
	}

	key := snapshotKey{inc.TenantID, inc.Year, inc.ScopeType, inc.ScopeID, inc.MemberID}
	row, ok := f.rows[key]
	if !ok {
		row = &rankingdb.RankingSnapshot{
			TenantID:  inc.TenantID,
			Year:      inc.Year,
			ScopeType: inc.ScopeType,
			ScopeID:   inc.ScopeID,
			MemberID:  inc.MemberID,
		}
		f.rows[key] = row
	}
	row.TotalPoints += inc.Points
	row.TotalMiles += inc.Miles
	row.EventsCount++
	if inc.VisitorClass != "" {
		row.VisitorClass = inc.VisitorClass
	}
	row.LastCalculatedAt = inc.CalculatedAt

	copied := *row
	return &copied, nil
}

func (f *FakeRankingRepository) ReplaceScopeSnapshots(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType string, scopeIDs []string, rows []*rankingdb.RankingSnapshot) (int, error) {
	f.record("ReplaceScopeSnapshots")
	if f.ReplaceScopeSnapshotsErr != nil {
		return 0, f.ReplaceScopeSnapshotsErr
	}

	keep := func(scopeID string) bool {
		if len(scopeIDs) == 0 {
			return true
		}
		for _, id := range scopeIDs {
			if id == scopeID {
				return true
			}
		}
		return false
	}
	for key := range f.rows {
		if key.tenantID == tenantID && key.year == year && key.scopeType == scopeType && keep(key.scopeID) {
			delete(f.rows, key)
		}
	}
	for _, row := range rows {
		copied := *row
		f.rows[snapshotKey{row.TenantID, row.Year, row.ScopeType, row.ScopeID, row.MemberID}] = &copied
	}
	return len(rows), nil
}

func (f *FakeRankingRepository) GetRanking(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType, scopeID string, skip, take int) ([]rankingdb.RankingSnapshot, error) {
	f.record("GetRanking")
	if f.GetRankingErr != nil {
		return nil, f.GetRankingErr
	}

	matched := make([]rankingdb.RankingSnapshot, 0)
	for key, row := range f.rows {
		if key.tenantID == tenantID && key.year == year && key.scopeType == scopeType && key.scopeID == scopeID {
			matched = append(matched, *row)
		}
	}
	sortSnapshots(matched)
	if skip >= len(matched) {
		return []rankingdb.RankingSnapshot{}, nil
	}
	matched = matched[skip:]
	if take < len(matched) {
		matched = matched[:take]
	}
	return matched, nil
}

func (f *FakeRankingRepository) GetMemberRanking(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int, scopeType, scopeID string, memberID int64) (*rankingdb.RankingSnapshot, error) {
	f.record("GetMemberRanking")
	if f.GetMemberRankingErr != nil {
		return nil, f.GetMemberRankingErr
	}

	row, ok := f.rows[snapshotKey{tenantID, year, scopeType, scopeID, memberID}]
	if !ok {
		return nil, rankingdb.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

var _ rankingdb.Repository = (*FakeRankingRepository)(nil)

// sortSnapshots orders rows the way the real query does: rank ascending with
// unranked rows last, then points, miles, member id.
func sortSnapshots(rows []rankingdb.RankingSnapshot) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && snapshotLess(rows[j], rows[j-1]); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func snapshotLess(a, b rankingdb.RankingSnapshot) bool {
	switch {
	case a.Rank != nil && b.Rank != nil && *a.Rank != *b.Rank:
		return *a.Rank < *b.Rank
	case a.Rank != nil && b.Rank == nil:
		return true
	case a.Rank == nil && b.Rank != nil:
		return false
	}
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	if a.TotalMiles != b.TotalMiles {
		return a.TotalMiles > b.TotalMiles
	}
	return a.MemberID < b.MemberID
}

// ------------------------
// Fake Attendance Reader
// ------------------------

// FakeAttendanceReader serves a canned ledger.
type FakeAttendanceReader struct {
	Facts []rankingdb.AttendanceFact
	Err   error
}

func (f *FakeAttendanceReader) ListConfirmedFacts(ctx context.Context, db bun.IDB, tenantID uuid.UUID, year int) ([]rankingdb.AttendanceFact, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]rankingdb.AttendanceFact, len(f.Facts))
	copy(out, f.Facts)
	return out, nil
}

var _ rankingdb.AttendanceReader = (*FakeAttendanceReader)(nil)

// ------------------------
// Service under test
// ------------------------

func newTestService(t *testing.T, repo *FakeRankingRepository, reader *FakeAttendanceReader) *RankingService {
	t.Helper()
	if repo == nil {
		repo = NewFakeRankingRepository()
	}
	if reader == nil {
		reader = &FakeAttendanceReader{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	return NewRankingService(repo, reader, logger, rankingmetrics.NoOpMetrics{}, tracer, nil, rankingdomain.DefaultPointsRules(), 100)
}

func mustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("expected %q to contain %q", haystack, needle)
	}
}

func fact(memberID, attendanceID int64, points int, miles float64, chapter, country, continent string, confirmedAt time.Time) rankingdb.AttendanceFact {
	return rankingdb.AttendanceFact{
		AttendanceID:    attendanceID,
		MemberID:        memberID,
		EventID:         attendanceID * 10,
		PointsAwarded:   points,
		Miles:           miles,
		VisitorClass:    string(rankingdomain.VisitorLocal),
		ConfirmedAt:     confirmedAt,
		ChapterID:       chapter,
		MemberCountry:   country,
		MemberContinent: continent,
	}
}

func rankOf(t *testing.T, repo *FakeRankingRepository, tenantID uuid.UUID, year int, scopeType, scopeID string, memberID int64) int {
	t.Helper()
	row, err := repo.GetMemberRanking(context.Background(), nil, tenantID, year, scopeType, scopeID, memberID)
	if err != nil {
		t.Fatalf("GetMemberRanking(%s/%s member %d): %v", scopeType, scopeID, memberID, err)
	}
	if row.Rank == nil {
		t.Fatalf("member %d in %s/%s has no rank", memberID, scopeType, scopeID)
	}
	return *row.Rank
}

func fmtKey(row rankingdb.RankingSnapshot) string {
	return fmt.Sprintf("%s/%s member=%d", row.ScopeType, row.ScopeID, row.MemberID)
}
