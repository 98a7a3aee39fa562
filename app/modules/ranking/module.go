// Package ranking assembles the ranking module: service, router, and queue.
package ranking

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	"github.com/moto-league/ranking-engine/app/eventbus"
	rankingservice "github.com/moto-league/ranking-engine/app/modules/ranking/application"
	rankingdomain "github.com/moto-league/ranking-engine/app/modules/ranking/domain"
	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	rankingdb "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/repositories"
	rankingqueue "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/queue"
	rankingrouter "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/router"
	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/internal/observability"
	rankingmetrics "github.com/moto-league/ranking-engine/internal/observability/metrics/ranking"
	"github.com/moto-league/ranking-engine/internal/utils"
)

// Module represents the ranking module.
type Module struct {
	EventBus       eventbus.EventBus
	RankingService rankingservice.Service
	RankingRouter  *rankingrouter.RankingRouter
	QueueService   rankingqueue.QueueService

	config     *config.Config
	obs        *observability.Observability
	helper     utils.Helpers
	cancelFunc context.CancelFunc
}

// NewRankingModule wires the ranking service, router, and rebuild queue.
func NewRankingModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	bus eventbus.EventBus,
	router *message.Router,
	helpers utils.Helpers,
) (*Module, error) {
	logger := obs.Logger
	metrics := rankingmetrics.NewPrometheusMetrics(obs.Registry)

	repo := rankingdb.NewRepository(db)

	rules := rankingdomain.PointsRules{
		ClassPoints:             cfg.Ranking.ClassPoints,
		Threshold1Point:         cfg.Ranking.DistanceThreshold1Point,
		Threshold2Points:        cfg.Ranking.DistanceThreshold2Points,
		BonusSameContinent:      cfg.Ranking.VisitorBonusSameContinent,
		BonusDifferentContinent: cfg.Ranking.VisitorBonusDifferentContinent,
	}

	service := rankingservice.NewRankingService(
		repo,
		repo,
		logger,
		metrics,
		obs.Tracer,
		db,
		rules,
		cfg.Ranking.MaxPageSize,
	)

	if err := bus.CreateStream(ctx, rankingevents.RankingStreamName, "ranking.>"); err != nil {
		return nil, fmt.Errorf("failed to create ranking stream: %w", err)
	}

	rankingRouter := rankingrouter.NewRankingRouter(logger, router, bus, bus, cfg, helpers, obs.Tracer, obs.Registry)
	if err := rankingRouter.Configure(ctx, service, metrics); err != nil {
		return nil, fmt.Errorf("failed to configure ranking router: %w", err)
	}

	queueService, err := rankingqueue.NewService(ctx, db, logger, cfg.Postgres.DSN, metrics, bus, helpers, cfg.Ranking.RebuildHourUTC)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rebuild queue: %w", err)
	}

	return &Module{
		EventBus:       bus,
		RankingService: service,
		RankingRouter:  rankingRouter,
		QueueService:   queueService,
		config:         cfg,
		obs:            obs,
		helper:         helpers,
	}, nil
}

// Run starts the rebuild queue and blocks until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.obs.Logger.Info("Starting ranking module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.QueueService.Start(ctx); err != nil {
		m.obs.Logger.Error("Failed to start rebuild queue", "error", err)
	}

	<-ctx.Done()
	m.obs.Logger.Info("Ranking module stopped")
}

// Close stops the module's background work.
func (m *Module) Close() error {
	m.obs.Logger.Info("Stopping ranking module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if err := m.QueueService.Stop(context.Background()); err != nil {
		m.obs.Logger.Error("Failed to stop rebuild queue", "error", err)
	}
	return nil
}
