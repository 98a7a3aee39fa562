package rankingservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
	"github.com/moto-league/ranking-engine/internal/results"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
)

// UpdateIncremental applies a confirmed attendance to every scope the member
// belongs to. Each scope row is upserted within one transaction; ranks are left
// untouched until the next rebuild.
func (s *RankingService) UpdateIncremental(
	ctx context.Context,
	fact rankingevents.AttendanceConfirmedPayload,
) (results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload], error) {
	return withTelemetry(s, ctx, "UpdateIncremental", func(ctx context.Context) (results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload], error) {
		if fact.TenantID == uuid.Nil {
			fact.TenantID = config.DefaultTenantID
		}
		if fact.Year <= 0 {
			failure := rankingevents.RankingUpdateFailedPayload{
				TenantID:     fact.TenantID,
				AttendanceID: fact.AttendanceID,
				MemberID:     fact.MemberID,
				Reason:       ErrInvalidYear.Error(),
			}
			return results.Fail[rankingevents.RankingUpdatedPayload](failure), nil
		}

		confirmedAt := fact.ConfirmedAt
		if confirmedAt.IsZero() {
			confirmedAt = time.Now().UTC()
		}

		scopes := rankingdomain.ScopesFor(rankingdomain.ScopeHints{
			ChapterID:       fact.ScopeHints.ChapterID,
			MemberCountry:   fact.ScopeHints.MemberCountry,
			MemberContinent: fact.ScopeHints.MemberContinent,
		})

		var globalRow *rankingdb.RankingSnapshot

		_, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload], error) {
			for _, scope := range scopes {
				inc := &rankingdb.SnapshotIncrement{
					TenantID:     fact.TenantID,
					Year:         fact.Year,
					ScopeType:    string(scope.Type),
					ScopeID:      scope.ID,
					MemberID:     fact.MemberID,
					Points:       fact.PointsAwarded,
					Miles:        fact.MilesRecorded,
					VisitorClass: fact.VisitorClass,
					CalculatedAt: confirmedAt,
				}

				row, applyErr := s.repo.ApplyIncrement(ctx, db, inc)
				if applyErr != nil {
					return results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload]{}, applyErr
				}

				s.metrics.RecordSnapshotRowsWritten(ctx, string(scope.Type), 1)

				if scope.Type == rankingdomain.ScopeGlobal {
					globalRow = row
				}
			}
			return results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload]{}, nil
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to apply ranking increment",
				attr.ExtractCorrelationID(ctx),
				attr.Int64("member_id", fact.MemberID),
				attr.Int64("attendance_id", fact.AttendanceID),
				attr.Error(err),
			)
			failure := rankingevents.RankingUpdateFailedPayload{
				TenantID:     fact.TenantID,
				AttendanceID: fact.AttendanceID,
				MemberID:     fact.MemberID,
				Reason:       err.Error(),
			}
			return results.Fail[rankingevents.RankingUpdatedPayload](failure), nil
		}

		success := rankingevents.RankingUpdatedPayload{
			TenantID:     fact.TenantID,
			AttendanceID: fact.AttendanceID,
			MemberID:     fact.MemberID,
			Year:         fact.Year,
		}
		if globalRow != nil {
			success.TotalPoints = globalRow.TotalPoints
			success.TotalMiles = globalRow.TotalMiles
			success.CurrentRank = globalRow.Rank
		}

		return results.Ok[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload](success), nil
	})
}
