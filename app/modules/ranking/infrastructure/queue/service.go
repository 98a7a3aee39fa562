// Package rankingqueue schedules snapshot rebuilds with River.
package rankingqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/moto-league/ranking-engine/app/eventbus"
	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
	rankingmetrics "github.com/moto-league/ranking-engine/internal/observability/metrics/ranking"
	"github.com/moto-league/ranking-engine/internal/utils"
)

// QueueService defines the contract for rebuild scheduling.
type QueueService interface {
	// ScheduleRebuild enqueues a one-off rebuild job for the given time.
	ScheduleRebuild(ctx context.Context, job RebuildJob, at time.Time) error
	// GetScheduledJobs returns pending rebuild jobs for monitoring.
	GetScheduledJobs(ctx context.Context) ([]JobInfo, error)
	// HealthCheck verifies the queue service can reach its job table.
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service handles rebuild scheduling for the ranking module using River.
// On every configured nightly tick it enqueues one rebuild job per scope type.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics rankingmetrics.RankingMetrics
}

// dailySchedule fires once a day at a fixed UTC hour.
type dailySchedule struct {
	hour int
}

func (s dailySchedule) Next(t time.Time) time.Time {
	next := time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), s.hour, 0, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NewService creates a River-based queue service with one periodic nightly
// rebuild per scope type.
func NewService(
	ctx context.Context,
	bunDB *bun.DB,
	logger *slog.Logger,
	dsn string,
	metrics rankingmetrics.RankingMetrics,
	eventBus eventbus.EventBus,
	helpers utils.Helpers,
	rebuildHourUTC int,
) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("component", "river_queue"),
	)

	metrics.RecordOperationAttempt(ctx, "initialize_queue")

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_queue")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_queue")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_queue")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewRebuildWorker(ctxLogger, eventBus, helpers))

	periodicJobs := make([]*river.PeriodicJob, 0, len(rankingdomain.AllScopeTypes))
	for _, scopeType := range rankingdomain.AllScopeTypes {
		scopeType := scopeType
		periodicJobs = append(periodicJobs, river.NewPeriodicJob(
			dailySchedule{hour: rebuildHourUTC},
			func() (river.JobArgs, *river.InsertOpts) {
				return RebuildJob{ScopeType: string(scopeType)}, &river.InsertOpts{
					Queue: "ranking",
					UniqueOpts: river.UniqueOpts{
						ByArgs:   true,
						ByPeriod: 23 * time.Hour,
					},
				}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			"ranking":          {MaxWorkers: 4},
		},
		Workers:      workers,
		PeriodicJobs: periodicJobs,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_queue")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_queue")
	ctxLogger.Info("Ranking queue service initialized",
		attr.Int("rebuild_hour_utc", rebuildHourUTC),
	)

	return &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
	}, nil
}

// Start starts the River queue service.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Ranking queue service started")
	return nil
}

// Stop stops the River queue service and releases its pool.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.logger.Info("Ranking queue service stopped")
	return nil
}

// ScheduleRebuild enqueues a one-off rebuild job for the given time.
func (s *Service) ScheduleRebuild(ctx context.Context, job RebuildJob, at time.Time) error {
	s.metrics.RecordOperationAttempt(ctx, "schedule_rebuild")

	result, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       "ranking",
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "schedule_rebuild")
		return fmt.Errorf("failed to schedule rebuild job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_rebuild")
	s.logger.InfoContext(ctx, "Rebuild job scheduled",
		attr.String("scope_type", job.ScopeType),
		attr.Time("scheduled_at", at),
		attr.Int64("job_id", result.Job.ID),
	)
	return nil
}

// GetScheduledJobs returns pending rebuild jobs for monitoring.
func (s *Service) GetScheduledJobs(ctx context.Context) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64          `bun:"id"`
		Kind        string         `bun:"kind"`
		State       string         `bun:"state"`
		Args        map[string]any `bun:"args"`
		ScheduledAt *time.Time     `bun:"scheduled_at"`
		CreatedAt   time.Time      `bun:"created_at"`
		Attempt     int16          `bun:"attempt"`
		MaxAttempts int16          `bun:"max_attempts"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "args", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind = ?", RebuildJob{}.Kind()).
		Where("state IN (?, ?)", "available", "scheduled").
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		scheduledAt := ""
		if job.ScheduledAt != nil {
			scheduledAt = job.ScheduledAt.Format(time.RFC3339)
		}
		scopeType := ""
		if v, ok := job.Args["scope_type"].(string); ok {
			scopeType = v
		}
		result[i] = JobInfo{
			ID:          job.ID,
			Kind:        job.Kind,
			ScopeType:   scopeType,
			State:       job.State,
			ScheduledAt: scheduledAt,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}
	return result, nil
}

// HealthCheck verifies the queue service can reach its job table.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	return nil
}
