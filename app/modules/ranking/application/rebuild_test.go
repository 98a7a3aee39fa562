package rankingservice

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	"github.com/moto-league/ranking-engine/config"
)

var rebuildAt = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func rebuildRequest(scopeType, scopeID string) rankingevents.RankingRebuildRequestedPayload {
	return rankingevents.RankingRebuildRequestedPayload{
		TenantID:  config.DefaultTenantID,
		Year:      2026,
		ScopeType: scopeType,
		ScopeID:   scopeID,
	}
}

func TestRankingService_Rebuild_KeepsMostRecentVisitorClass(t *testing.T) {
	later := fact(1, 12, 5, 400, "pl-01", "Poland", "Europe", rebuildAt.Add(time.Hour))
	later.VisitorClass = "VISITOR_B"
	earlier := fact(1, 11, 3, 100, "pl-01", "Poland", "Europe", rebuildAt)
	earlier.VisitorClass = "LOCAL"

	// The ledger order must not matter: the class of the latest confirmation wins.
	repo := NewFakeRankingRepository()
	reader := &FakeAttendanceReader{Facts: []rankingdb.AttendanceFact{later, earlier}}
	s := newTestService(t, repo, reader)

	result, err := s.Rebuild(context.Background(), rebuildRequest("GLOBAL", ""))
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success result, got %+v", result)
	}

	row, err := repo.GetMemberRanking(context.Background(), nil, config.DefaultTenantID, 2026, "GLOBAL", "GLOBAL", 1)
	if err != nil {
		t.Fatalf("GetMemberRanking() error = %v", err)
	}
	if row.VisitorClass != "VISITOR_B" {
		t.Errorf("visitor class = %q, want VISITOR_B from the latest confirmation", row.VisitorClass)
	}
	if row.TotalPoints != 8 {
		t.Errorf("points = %d, want 8", row.TotalPoints)
	}
}

func TestRankingService_Rebuild_AggregatesAndRanks(t *testing.T) {
	repo := NewFakeRankingRepository()
	reader := &FakeAttendanceReader{Facts: []rankingdb.AttendanceFact{
		// Member 1 attends three events for 7+3+5 = 15 points.
		fact(1, 11, 7, 900, "pl-01", "Poland", "Europe", rebuildAt),
		fact(1, 12, 3, 210, "pl-01", "Poland", "Europe", rebuildAt.Add(time.Hour)),
		fact(1, 13, 5, 400, "de-02", "Poland", "Europe", rebuildAt.Add(2*time.Hour)),
		// Member 2 ties member 3 on points; more miles ranks higher.
		fact(2, 21, 10, 850, "pl-01", "Poland", "Europe", rebuildAt),
		fact(3, 31, 10, 300, "pl-01", "Poland", "Europe", rebuildAt),
	}}
	s := newTestService(t, repo, reader)

	result, err := s.Rebuild(context.Background(), rebuildRequest("GLOBAL", ""))
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !result.IsSuccess() {
		t.Fatalf("expected success result, got %+v", result)
	}
	if result.Success.UpdatedRowCount != 3 {
		t.Errorf("updated row count = %d, want 3", result.Success.UpdatedRowCount)
	}
	if !result.Success.CompletedAt.After(result.Success.StartedAt) && !result.Success.CompletedAt.Equal(result.Success.StartedAt) {
		t.Errorf("completed %v before started %v", result.Success.CompletedAt, result.Success.StartedAt)
	}

	member1, err := repo.GetMemberRanking(context.Background(), nil, config.DefaultTenantID, 2026, "GLOBAL", "GLOBAL", 1)
	if err != nil {
		t.Fatalf("GetMemberRanking() error = %v", err)
	}
	if member1.TotalPoints != 15 {
		t.Errorf("member 1 points = %d, want 15", member1.TotalPoints)
	}
	if member1.EventsCount != 3 {
		t.Errorf("member 1 events = %d, want 3", member1.EventsCount)
	}
	if member1.TotalMiles != 1510 {
		t.Errorf("member 1 miles = %v, want 1510", member1.TotalMiles)
	}

	// 15 > 10 = 10: member 1 first, then the tie broken by miles.
	wantRanks := map[int64]int{1: 1, 2: 2, 3: 3}
	for memberID, want := range wantRanks {
		if got := rankOf(t, repo, config.DefaultTenantID, 2026, "GLOBAL", "GLOBAL", memberID); got != want {
			t.Errorf("member %d rank = %d, want %d", memberID, got, want)
		}
	}
}

func TestRankingService_Rebuild_FullPointsTieBreaksByMemberID(t *testing.T) {
	repo := NewFakeRankingRepository()
	reader := &FakeAttendanceReader{Facts: []rankingdb.AttendanceFact{
		fact(9, 91, 5, 500, "pl-01", "Poland", "Europe", rebuildAt),
		fact(4, 41, 5, 500, "pl-01", "Poland", "Europe", rebuildAt),
	}}
	s := newTestService(t, repo, reader)

	if _, err := s.Rebuild(context.Background(), rebuildRequest("GLOBAL", "")); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if got := rankOf(t, repo, config.DefaultTenantID, 2026, "GLOBAL", "GLOBAL", 4); got != 1 {
		t.Errorf("member 4 rank = %d, want 1 (lower member id wins full ties)", got)
	}
	if got := rankOf(t, repo, config.DefaultTenantID, 2026, "GLOBAL", "GLOBAL", 9); got != 2 {
		t.Errorf("member 9 rank = %d, want 2", got)
	}
}

func TestRankingService_Rebuild_IsIdempotent(t *testing.T) {
	repo := NewFakeRankingRepository()
	reader := &FakeAttendanceReader{Facts: []rankingdb.AttendanceFact{
		fact(1, 11, 7, 900, "pl-01", "Poland", "Europe", rebuildAt),
		fact(2, 21, 3, 210, "pl-01", "Poland", "Europe", rebuildAt),
		fact(3, 31, 5, 400, "de-02", "Germany", "Europe", rebuildAt),
	}}
	s := newTestService(t, repo, reader)

	for _, scopeType := range []string{"CHAPTER", "COUNTRY", "CONTINENT", "GLOBAL"} {
		if _, err := s.Rebuild(context.Background(), rebuildRequest(scopeType, "")); err != nil {
			t.Fatalf("first Rebuild(%s) error = %v", scopeType, err)
		}
	}
	first := normalizedRows(repo)

	for _, scopeType := range []string{"CHAPTER", "COUNTRY", "CONTINENT", "GLOBAL"} {
		if _, err := s.Rebuild(context.Background(), rebuildRequest(scopeType, "")); err != nil {
			t.Fatalf("second Rebuild(%s) error = %v", scopeType, err)
		}
	}
	second := normalizedRows(repo)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated rebuild changed rows (-first +second):\n%s", diff)
	}
}

func TestRankingService_Rebuild_ConvergesWithIncremental(t *testing.T) {
	facts := []rankingdb.AttendanceFact{
		fact(1, 11, 7, 900, "pl-01", "Poland", "Europe", rebuildAt),
		fact(1, 12, 3, 210, "pl-01", "Poland", "Europe", rebuildAt.Add(time.Hour)),
		fact(2, 21, 10, 850, "de-02", "Germany", "Europe", rebuildAt),
		fact(3, 31, 1, 150, "us-09", "USA", "North America", rebuildAt),
	}

	// Incremental path: feed each fact through UpdateIncremental.
	incRepo := NewFakeRankingRepository()
	incService := newTestService(t, incRepo, nil)
	for _, f := range facts {
		payload := rankingevents.AttendanceConfirmedPayload{
			TenantID:      config.DefaultTenantID,
			AttendanceID:  f.AttendanceID,
			MemberID:      f.MemberID,
			EventID:       f.EventID,
			Year:          2026,
			PointsAwarded: f.PointsAwarded,
			MilesRecorded: f.Miles,
			ScopeHints: rankingevents.ScopeHintsPayload{
				ChapterID:       f.ChapterID,
				MemberCountry:   f.MemberCountry,
				MemberContinent: f.MemberContinent,
			},
			VisitorClass: f.VisitorClass,
			ConfirmedAt:  f.ConfirmedAt,
		}
		result, err := incService.UpdateIncremental(context.Background(), payload)
		if err != nil || !result.IsSuccess() {
			t.Fatalf("UpdateIncremental() = %+v, %v", result, err)
		}
	}

	// Rebuild path: aggregate the same ledger from scratch.
	rebuildRepo := NewFakeRankingRepository()
	rebuildService := newTestService(t, rebuildRepo, &FakeAttendanceReader{Facts: facts})
	for _, scopeType := range []string{"CHAPTER", "COUNTRY", "CONTINENT", "GLOBAL"} {
		if _, err := rebuildService.Rebuild(context.Background(), rebuildRequest(scopeType, "")); err != nil {
			t.Fatalf("Rebuild(%s) error = %v", scopeType, err)
		}
	}

	incRows := normalizedRows(incRepo)
	rebuildRows := normalizedRows(rebuildRepo)

	if diff := cmp.Diff(incRows, rebuildRows); diff != "" {
		t.Errorf("incremental and rebuild totals diverge (-incremental +rebuild):\n%s", diff)
	}
}

func TestRankingService_Rebuild_TargetedScopeLeavesOthersAlone(t *testing.T) {
	repo := NewFakeRankingRepository()
	reader := &FakeAttendanceReader{Facts: []rankingdb.AttendanceFact{
		fact(1, 11, 7, 900, "pl-01", "Poland", "Europe", rebuildAt),
		fact(2, 21, 3, 210, "de-02", "Germany", "Europe", rebuildAt),
	}}
	s := newTestService(t, repo, reader)

	if _, err := s.Rebuild(context.Background(), rebuildRequest("CHAPTER", "")); err != nil {
		t.Fatalf("full Rebuild() error = %v", err)
	}

	// Poison the other chapter's row, then rebuild only pl-01.
	if _, err := repo.ApplyIncrement(context.Background(), nil, &rankingdb.SnapshotIncrement{
		TenantID: config.DefaultTenantID, Year: 2026, ScopeType: "CHAPTER", ScopeID: "DE-02",
		MemberID: 2, Points: 99, Miles: 1, CalculatedAt: rebuildAt,
	}); err != nil {
		t.Fatalf("ApplyIncrement() error = %v", err)
	}

	result, err := s.Rebuild(context.Background(), rebuildRequest("CHAPTER", "pl-01"))
	if err != nil || !result.IsSuccess() {
		t.Fatalf("targeted Rebuild() = %+v, %v", result, err)
	}
	if result.Success.UpdatedRowCount != 1 {
		t.Errorf("updated row count = %d, want 1", result.Success.UpdatedRowCount)
	}

	other, err := repo.GetMemberRanking(context.Background(), nil, config.DefaultTenantID, 2026, "CHAPTER", "DE-02", 2)
	if err != nil {
		t.Fatalf("GetMemberRanking() error = %v", err)
	}
	if other.TotalPoints != 3+99 {
		t.Errorf("untargeted scope was rewritten: points = %d, want %d", other.TotalPoints, 3+99)
	}
}

func TestRankingService_Rebuild_DropsStaleScopeIDs(t *testing.T) {
	repo := NewFakeRankingRepository()
	reader := &FakeAttendanceReader{Facts: []rankingdb.AttendanceFact{
		fact(1, 11, 7, 900, "pl-01", "Poland", "Europe", rebuildAt),
	}}
	s := newTestService(t, repo, reader)

	// A chapter that no longer occurs in the ledger.
	if _, err := repo.ApplyIncrement(context.Background(), nil, &rankingdb.SnapshotIncrement{
		TenantID: config.DefaultTenantID, Year: 2026, ScopeType: "CHAPTER", ScopeID: "XX-99",
		MemberID: 5, Points: 4, Miles: 100, CalculatedAt: rebuildAt,
	}); err != nil {
		t.Fatalf("ApplyIncrement() error = %v", err)
	}

	if _, err := s.Rebuild(context.Background(), rebuildRequest("CHAPTER", "")); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if _, err := repo.GetMemberRanking(context.Background(), nil, config.DefaultTenantID, 2026, "CHAPTER", "XX-99", 5); !errors.Is(err, rankingdb.ErrNotFound) {
		t.Errorf("stale scope row survived a full rebuild, err = %v", err)
	}
}

func TestRankingService_Rebuild_LedgerErrorReturnsFailure(t *testing.T) {
	repo := NewFakeRankingRepository()
	reader := &FakeAttendanceReader{Err: errors.New("ledger unavailable")}
	s := newTestService(t, repo, reader)

	result, err := s.Rebuild(context.Background(), rebuildRequest("GLOBAL", ""))
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !result.IsFailure() {
		t.Fatalf("expected failure result, got %+v", result)
	}
	mustContain(t, result.Failure.Reason, "ledger unavailable")
	if result.Failure.RowsWritten != 0 {
		t.Errorf("rows written = %d, want 0", result.Failure.RowsWritten)
	}
}

func TestRankingService_Rebuild_RejectsUnknownScopeType(t *testing.T) {
	s := newTestService(t, nil, nil)

	result, err := s.Rebuild(context.Background(), rebuildRequest("PLANET", ""))
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !result.IsFailure() {
		t.Fatalf("expected failure result, got %+v", result)
	}
	mustContain(t, result.Failure.Reason, "scope type")
}

// normalizedRows strips volatile fields and orders rows deterministically so
// two stores can be compared.
func normalizedRows(repo *FakeRankingRepository) []rankingdb.RankingSnapshot {
	rows := repo.Rows()
	for i := range rows {
		rows[i].ID = 0
		rows[i].Rank = nil
		rows[i].LastCalculatedAt = time.Time{}
		rows[i].CreatedAt = time.Time{}
		rows[i].UpdatedAt = time.Time{}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ScopeType != b.ScopeType {
			return a.ScopeType < b.ScopeType
		}
		if a.ScopeID != b.ScopeID {
			return a.ScopeID < b.ScopeID
		}
		return a.MemberID < b.MemberID
	})
	return rows
}
