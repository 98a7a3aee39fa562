package rankingservice

import (
	"context"

	"github.com/google/uuid"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	"github.com/moto-league/ranking-engine/internal/results"
)

// Service defines the ranking engine operations.
type Service interface {
	UpdateIncremental(ctx context.Context, fact rankingevents.AttendanceConfirmedPayload) (results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload], error)
	Rebuild(ctx context.Context, req rankingevents.RankingRebuildRequestedPayload) (results.OperationResult[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload], error)
	GetRanking(ctx context.Context, tenantID uuid.UUID, year int, scopeType rankingdomain.ScopeType, scopeID string, skip, take int) ([]rankingdb.RankingSnapshot, error)
	GetMemberRanking(ctx context.Context, tenantID uuid.UUID, year int, scopeType rankingdomain.ScopeType, scopeID string, memberID int64) (*rankingdb.RankingSnapshot, error)
	CalculatePoints(distanceMiles float64, eventClass int, memberCountry, memberContinent, eventStartCountry, eventStartContinent string) rankingdomain.PointsBreakdown
	GenerateStandingsChart(rows []rankingdb.RankingSnapshot, title string) ([]byte, error)
	ExportRankingXLSX(rows []rankingdb.RankingSnapshot, sheetName string) ([]byte, error)
}
