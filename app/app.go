// Package app assembles the ranking engine: database, event bus, message
// router, ranking module, and the read API.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/moto-league/ranking-engine/api"
	"github.com/moto-league/ranking-engine/app/eventbus"
	"github.com/moto-league/ranking-engine/app/modules/ranking"
	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/db/bundb"
	"github.com/moto-league/ranking-engine/internal/observability"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
	"github.com/moto-league/ranking-engine/internal/utils"
)

// App holds the wired components of the service.
type App struct {
	Config          *config.Config
	Observability   *observability.Observability
	DB              *bundb.DBService
	EventBus        eventbus.EventBus
	WatermillRouter *message.Router
	RankingModule   *ranking.Module
	APIServer       *api.Server

	helpers utils.Helpers
	wg      sync.WaitGroup
}

// NewApp wires every component. Nothing is started yet; Run does that.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs := observability.Init(observability.Config{
		Environment:    cfg.Observability.Environment,
		MetricsAddress: cfg.Observability.MetricsAddress,
	})

	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, obs.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	watermillLogger := watermill.NewSlogLogger(obs.Logger)
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}

	helpers := utils.NewHelpers()

	rankingModule, err := ranking.NewRankingModule(ctx, cfg, obs, dbService.GetDB(), bus, router, helpers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ranking module: %w", err)
	}

	apiServer := api.NewServer(cfg, rankingModule.RankingService, rankingModule.QueueService, obs.Logger)

	return &App{
		Config:          cfg,
		Observability:   obs,
		DB:              dbService,
		EventBus:        bus,
		WatermillRouter: router,
		RankingModule:   rankingModule,
		APIServer:       apiServer,
		helpers:         helpers,
	}, nil
}

// Run starts the router, module, API, and metrics listener, then blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Logger

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.WatermillRouter.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Watermill router stopped", attr.Error(err))
		}
	}()

	select {
	case <-a.WatermillRouter.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	a.wg.Add(1)
	go a.RankingModule.Run(ctx, &a.wg)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.APIServer.ListenAndServe(); err != nil {
			logger.Error("HTTP API stopped", attr.Error(err))
		}
	}()

	if addr := a.Config.Observability.MetricsAddress; addr != "" {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.Observability.ServeMetrics(addr); err != nil {
				logger.Error("Metrics listener stopped", attr.Error(err))
			}
		}()
	}

	logger.Info("Ranking engine started",
		attr.String("http_address", a.Config.HTTP.Address),
		attr.String("nats_url", a.Config.NATS.URL),
	)

	<-ctx.Done()
	return nil
}

// Close shuts components down in reverse dependency order.
func (a *App) Close(ctx context.Context) {
	logger := a.Observability.Logger

	if err := a.APIServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down HTTP API", attr.Error(err))
	}
	if err := a.RankingModule.Close(); err != nil {
		logger.Error("Failed to close ranking module", attr.Error(err))
	}
	if err := a.WatermillRouter.Close(); err != nil {
		logger.Error("Failed to close message router", attr.Error(err))
	}
	if err := a.EventBus.Close(); err != nil {
		logger.Error("Failed to close event bus", attr.Error(err))
	}
	if err := a.DB.GetDB().Close(); err != nil {
		logger.Error("Failed to close database", attr.Error(err))
	}

	a.wg.Wait()
	logger.Info("Ranking engine shut down")
}
