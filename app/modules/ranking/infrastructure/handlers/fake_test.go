package rankinghandlers

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"

	rankingservice "github.com/moto-league/ranking-engine/app/modules/ranking/application"
	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	rankingmetrics "github.com/moto-league/ranking-engine/internal/observability/metrics/ranking"
	"github.com/moto-league/ranking-engine/internal/results"
	"github.com/moto-league/ranking-engine/internal/utils"
)

// FakeService is a programmable stub for the rankingservice.Service interface.
type FakeService struct {
	UpdateIncrementalFunc func(ctx context.Context, fact rankingevents.AttendanceConfirmedPayload) (results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload], error)
	RebuildFunc           func(ctx context.Context, req rankingevents.RankingRebuildRequestedPayload) (results.OperationResult[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload], error)

	LastFact    *rankingevents.AttendanceConfirmedPayload
	LastRebuild *rankingevents.RankingRebuildRequestedPayload
}

func (f *FakeService) UpdateIncremental(ctx context.Context, fact rankingevents.AttendanceConfirmedPayload) (results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload], error) {
	f.LastFact = &fact
	if f.UpdateIncrementalFunc != nil {
		return f.UpdateIncrementalFunc(ctx, fact)
	}
	return results.Ok[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload](rankingevents.RankingUpdatedPayload{
		TenantID: fact.TenantID, AttendanceID: fact.AttendanceID, MemberID: fact.MemberID, Year: fact.Year,
	}), nil
}

func (f *FakeService) Rebuild(ctx context.Context, req rankingevents.RankingRebuildRequestedPayload) (results.OperationResult[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload], error) {
	f.LastRebuild = &req
	if f.RebuildFunc != nil {
		return f.RebuildFunc(ctx, req)
	}
	return results.Ok[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload](rankingevents.RankingRebuildCompletedPayload{
		TenantID: req.TenantID, Year: req.Year, ScopeType: req.ScopeType,
	}), nil
}

func (f *FakeService) GetRanking(ctx context.Context, tenantID uuid.UUID, year int, scopeType rankingdomain.ScopeType, scopeID string, skip, take int) ([]rankingdb.RankingSnapshot, error) {
	return nil, nil
}

func (f *FakeService) GetMemberRanking(ctx context.Context, tenantID uuid.UUID, year int, scopeType rankingdomain.ScopeType, scopeID string, memberID int64) (*rankingdb.RankingSnapshot, error) {
	return nil, nil
}

func (f *FakeService) CalculatePoints(distanceMiles float64, eventClass int, memberCountry, memberContinent, eventStartCountry, eventStartContinent string) rankingdomain.PointsBreakdown {
	return rankingdomain.PointsBreakdown{}
}

func (f *FakeService) GenerateStandingsChart(rows []rankingdb.RankingSnapshot, title string) ([]byte, error) {
	return nil, nil
}

func (f *FakeService) ExportRankingXLSX(rows []rankingdb.RankingSnapshot, sheetName string) ([]byte, error) {
	return nil, nil
}

var _ rankingservice.Service = (*FakeService)(nil)

func newTestHandlers(t *testing.T, svc *FakeService) Handlers {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	return NewRankingHandlers(svc, logger, tracer, utils.NewHelpers(), rankingmetrics.NoOpMetrics{})
}
