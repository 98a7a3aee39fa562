package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	rankingqueue "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/queue"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	"github.com/moto-league/ranking-engine/internal/results"
)

// fakeService serves canned leaderboard rows to the HTTP handlers.
type fakeService struct {
	Rows    []rankingdb.RankingSnapshot
	Member  *rankingdb.RankingSnapshot
	Err     error
	ChartFn func(rows []rankingdb.RankingSnapshot, title string) ([]byte, error)

	LastTenant uuid.UUID
	LastScope  string
	LastSkip   int
	LastTake   int
}

func (f *fakeService) GetRanking(_ context.Context, tenantID uuid.UUID, _ int, _ rankingdomain.ScopeType, scopeID string, skip, take int) ([]rankingdb.RankingSnapshot, error) {
	f.LastTenant = tenantID
	f.LastScope = scopeID
	f.LastSkip = skip
	f.LastTake = take
	return f.Rows, f.Err
}

func (f *fakeService) GetMemberRanking(_ context.Context, tenantID uuid.UUID, _ int, _ rankingdomain.ScopeType, scopeID string, _ int64) (*rankingdb.RankingSnapshot, error) {
	f.LastTenant = tenantID
	f.LastScope = scopeID
	return f.Member, f.Err
}

func (f *fakeService) UpdateIncremental(context.Context, rankingevents.AttendanceConfirmedPayload) (results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload], error) {
	return results.OperationResult[rankingevents.RankingUpdatedPayload, rankingevents.RankingUpdateFailedPayload]{}, errors.New("not an API operation")
}

func (f *fakeService) Rebuild(context.Context, rankingevents.RankingRebuildRequestedPayload) (results.OperationResult[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload], error) {
	return results.OperationResult[rankingevents.RankingRebuildCompletedPayload, rankingevents.RankingRebuildFailedPayload]{}, errors.New("not an API operation")
}

func (f *fakeService) CalculatePoints(float64, int, string, string, string, string) rankingdomain.PointsBreakdown {
	return rankingdomain.PointsBreakdown{}
}

func (f *fakeService) GenerateStandingsChart(rows []rankingdb.RankingSnapshot, title string) ([]byte, error) {
	if f.ChartFn != nil {
		return f.ChartFn(rows, title)
	}
	return []byte("\x89PNG\r\n\x1a\nfake"), nil
}

func (f *fakeService) ExportRankingXLSX([]rankingdb.RankingSnapshot, string) ([]byte, error) {
	return []byte("PK\x03\x04fake"), nil
}

// fakeQueue records scheduled jobs and serves canned listings.
type fakeQueue struct {
	Jobs      []rankingqueue.JobInfo
	HealthErr error
	InsertErr error

	LastJob rankingqueue.RebuildJob
	LastAt  time.Time
}

func (f *fakeQueue) ScheduleRebuild(_ context.Context, job rankingqueue.RebuildJob, at time.Time) error {
	f.LastJob = job
	f.LastAt = at
	return f.InsertErr
}

func (f *fakeQueue) GetScheduledJobs(context.Context) ([]rankingqueue.JobInfo, error) {
	return f.Jobs, nil
}

func (f *fakeQueue) HealthCheck(context.Context) error {
	return f.HealthErr
}

func (f *fakeQueue) Start(context.Context) error { return nil }
func (f *fakeQueue) Stop(context.Context) error  { return nil }
