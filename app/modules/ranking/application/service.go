package rankingservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
	rankingmetrics "github.com/moto-league/ranking-engine/internal/observability/metrics/ranking"
	"github.com/moto-league/ranking-engine/internal/results"
)

// RankingService implements the Service interface.
type RankingService struct {
	repo       rankingdb.Repository
	attendance rankingdb.AttendanceReader
	logger     *slog.Logger
	metrics    rankingmetrics.RankingMetrics
	tracer     trace.Tracer
	db         *bun.DB

	rules       rankingdomain.PointsRules
	maxPageSize int
}

// NewRankingService creates a new RankingService.
func NewRankingService(
	repo rankingdb.Repository,
	attendance rankingdb.AttendanceReader,
	logger *slog.Logger,
	metrics rankingmetrics.RankingMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	rules rankingdomain.PointsRules,
	maxPageSize int,
) *RankingService {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &RankingService{
		repo:        repo,
		attendance:  attendance,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		db:          db,
		rules:       rules,
		maxPageSize: maxPageSize,
	}
}

// CalculatePoints exposes the pure points calculator so the confirmation
// workflow and the rebuild path share identical math.
func (s *RankingService) CalculatePoints(
	distanceMiles float64,
	eventClass int,
	memberCountry, memberContinent string,
	eventStartCountry, eventStartContinent string,
) rankingdomain.PointsBreakdown {
	return s.rules.Calculate(distanceMiles, eventClass, memberCountry, memberContinent, eventStartCountry, eventStartContinent)
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *RankingService,
	ctx context.Context,
	operationName string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
		)
		s.metrics.RecordOperationSuccess(ctx, operationName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *RankingService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
