package rankingservice

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
	"github.com/moto-league/ranking-engine/internal/results"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
)

// Rebuild recomputes one scope type from the confirmed-attendance ledger and
// atomically swaps the snapshot rows, assigning dense ranks. An empty ScopeID
// in the request rebuilds every scope id under the type. Rebuilds are
// idempotent: the same ledger always yields the same rows and ranks.
func (s *RankingService) Rebuild(
	ctx context.Context,
	req rankingevents.RankingRebuildRequestedPayload,
) (results.OperationResult[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload], error) {
	return withTelemetry(s, ctx, "Rebuild", func(ctx context.Context) (results.OperationResult[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload], error) {
		if req.TenantID == uuid.Nil {
			req.TenantID = config.DefaultTenantID
		}

		fail := func(reason string, rowsWritten int) results.OperationResult[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload] {
			return results.Fail[rankingevents.RankingRebuildCompletedPayload](rankingevents.RankingRebuildFailedPayload{
				TenantID:    req.TenantID,
				Year:        req.Year,
				ScopeType:   req.ScopeType,
				ScopeID:     req.ScopeID,
				RowsWritten: rowsWritten,
				Reason:      reason,
			})
		}

		scopeType, ok := rankingdomain.ParseScopeType(req.ScopeType)
		if !ok {
			return fail(ErrInvalidScopeType.Error(), 0), nil
		}
		if req.Year <= 0 {
			return fail(ErrInvalidYear.Error(), 0), nil
		}

		startedAt := time.Now().UTC()

		facts, err := s.attendance.ListConfirmedFacts(ctx, nil, req.TenantID, req.Year)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to load confirmed attendance ledger",
				attr.ExtractCorrelationID(ctx),
				attr.Int("year", req.Year),
				attr.Error(err),
			)
			return fail(err.Error(), 0), nil
		}

		onlyScopeID := strings.ToUpper(strings.TrimSpace(req.ScopeID))
		byScope := aggregateFacts(facts, scopeType, onlyScopeID)

		calculatedAt := time.Now().UTC()
		rows := make([]*rankingdb.RankingSnapshot, 0, len(facts))
		for scopeID, members := range byScope {
			aggregates := make([]rankingdomain.MemberAggregate, 0, len(members))
			for _, agg := range members {
				aggregates = append(aggregates, *agg)
			}
			for _, ranked := range rankingdomain.AssignRanks(aggregates) {
				rank := ranked.Rank
				rows = append(rows, &rankingdb.RankingSnapshot{
					TenantID:         req.TenantID,
					Year:             req.Year,
					ScopeType:        string(scopeType),
					ScopeID:          scopeID,
					MemberID:         ranked.MemberID,
					Rank:             &rank,
					TotalPoints:      int(ranked.TotalPoints),
					TotalMiles:       ranked.TotalMiles,
					EventsCount:      ranked.EventsCount,
					VisitorClass:     string(ranked.VisitorClass),
					LastCalculatedAt: calculatedAt,
				})
			}
		}

		// Scope the swap: a targeted rebuild deletes only its scope id, a full
		// one replaces every scope id under the type (including rows whose
		// scope id no longer occurs in the ledger).
		var scopeIDs []string
		if req.ScopeID != "" {
			scopeIDs = []string{onlyScopeID}
		}

		written, err := s.repo.ReplaceScopeSnapshots(ctx, nil, req.TenantID, req.Year, string(scopeType), scopeIDs, rows)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to replace scope snapshots",
				attr.ExtractCorrelationID(ctx),
				attr.String("scope_type", string(scopeType)),
				attr.Error(err),
			)
			return fail(err.Error(), 0), nil
		}

		s.metrics.RecordSnapshotRowsWritten(ctx, string(scopeType), written)

		success := rankingevents.RankingRebuildCompletedPayload{
			TenantID:        req.TenantID,
			Year:            req.Year,
			ScopeType:       string(scopeType),
			ScopeID:         req.ScopeID,
			UpdatedRowCount: written,
			StartedAt:       startedAt,
			CompletedAt:     time.Now().UTC(),
		}
		return results.Ok[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload](success), nil
	})
}

// aggregateFacts folds the ledger into per-scope member aggregates for one
// scope type, reusing the same fan-out the incremental path applies. A
// non-empty onlyScopeID keeps just that partition.
func aggregateFacts(facts []rankingdb.AttendanceFact, scopeType rankingdomain.ScopeType, onlyScopeID string) map[string]map[int64]*rankingdomain.MemberAggregate {
	byScope := make(map[string]map[int64]*rankingdomain.MemberAggregate)
	for _, fact := range facts {
		scopes := rankingdomain.ScopesFor(rankingdomain.ScopeHints{
			ChapterID:       fact.ChapterID,
			MemberCountry:   fact.MemberCountry,
			MemberContinent: fact.MemberContinent,
		})
		for _, scope := range scopes {
			if scope.Type != scopeType {
				continue
			}
			if onlyScopeID != "" && scope.ID != onlyScopeID {
				continue
			}
			members := byScope[scope.ID]
			if members == nil {
				members = make(map[int64]*rankingdomain.MemberAggregate)
				byScope[scope.ID] = members
			}
			agg := members[fact.MemberID]
			if agg == nil {
				agg = &rankingdomain.MemberAggregate{MemberID: fact.MemberID}
				members[fact.MemberID] = agg
			}
			agg.Accumulate(rankingdomain.Points(fact.PointsAwarded), fact.Miles, rankingdomain.VisitorClass(fact.VisitorClass), fact.ConfirmedAt)
		}
	}
	return byScope
}
