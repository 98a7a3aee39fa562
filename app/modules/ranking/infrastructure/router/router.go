// Package rankingrouter wires the ranking handlers into a watermill router.
package rankingrouter

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/moto-league/ranking-engine/app/eventbus"
	rankingservice "github.com/moto-league/ranking-engine/app/modules/ranking/application"
	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	rankinghandlers "github.com/moto-league/ranking-engine/app/modules/ranking/infrastructure/handlers"
	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
	rankingmetrics "github.com/moto-league/ranking-engine/internal/observability/metrics/ranking"
	"github.com/moto-league/ranking-engine/internal/utils"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// RankingRouter binds ranking subjects to handlers and publishes their results.
type RankingRouter struct {
	logger             *slog.Logger
	Router             *message.Router
	subscriber         eventbus.EventBus
	publisher          eventbus.EventBus
	config             *config.Config
	helper             utils.Helpers
	tracer             trace.Tracer
	metricsBuilder     *metrics.PrometheusMetricsBuilder
	prometheusRegistry *prometheus.Registry
	metricsEnabled     bool
}

// NewRankingRouter creates a new RankingRouter.
func NewRankingRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	cfg *config.Config,
	helper utils.Helpers,
	tracer trace.Tracer,
	prometheusRegistry *prometheus.Registry,
) *RankingRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && !inTestEnv {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}
	return &RankingRouter{
		logger:             logger,
		Router:             router,
		subscriber:         subscriber,
		publisher:          publisher,
		config:             cfg,
		helper:             helper,
		tracer:             tracer,
		metricsBuilder:     metricsBuilder,
		prometheusRegistry: prometheusRegistry,
		metricsEnabled:     prometheusRegistry != nil && !inTestEnv,
	}
}

// Configure adds middleware and registers the ranking handlers.
func (r *RankingRouter) Configure(routerCtx context.Context, service rankingservice.Service, metrics rankingmetrics.RankingMetrics) error {
	if r.metricsEnabled && r.metricsBuilder != nil {
		r.logger.Info("Adding Prometheus router metrics middleware")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	handlers := rankinghandlers.NewRankingHandlers(service, r.logger, r.tracer, r.helper, metrics)

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		middleware.Retry{MaxRetries: 3}.Middleware,
	)

	if err := r.RegisterHandlers(routerCtx, handlers); err != nil {
		return fmt.Errorf("failed to register handlers: %w", err)
	}
	return nil
}

// RegisterHandlers binds each inbound subject to its handler and publishes
// whatever messages the handler returns. Handlers set the outbound subject in
// the message metadata since most of them can emit either a success or a
// failure message.
func (r *RankingRouter) RegisterHandlers(ctx context.Context, handlers rankinghandlers.Handlers) error {
	eventsToHandlers := map[string]message.HandlerFunc{
		rankingevents.AttendanceConfirmedSubject:     handlers.HandleAttendanceConfirmed,
		rankingevents.RankingRebuildRequestedSubject: handlers.HandleRebuildRequested,
	}

	for topic, handlerFunc := range eventsToHandlers {
		handlerName := fmt.Sprintf("ranking.%s", topic)
		r.Router.AddHandler(
			handlerName,
			topic,
			r.subscriber,
			"",
			nil,
			func(msg *message.Message) ([]*message.Message, error) {
				messages, err := handlerFunc(msg)
				if err != nil {
					r.logger.ErrorContext(ctx, "Error processing message",
						attr.String("message_id", msg.UUID),
						attr.Error(err),
					)
					return nil, err
				}
				for _, m := range messages {
					publishTopic := m.Metadata.Get("topic")
					if publishTopic == "" {
						r.logger.Error("Failed to resolve publish topic, message dropped",
							attr.String("handler", handlerName),
							attr.String("message_id", m.UUID),
							attr.CorrelationIDFromMsg(m),
						)
						continue
					}

					r.logger.InfoContext(ctx, "Publishing message",
						attr.String("topic", publishTopic),
						attr.String("handler", handlerName),
						attr.CorrelationIDFromMsg(m),
					)

					if err := r.publisher.Publish(publishTopic, m); err != nil {
						return nil, fmt.Errorf("failed to publish to %s: %w", publishTopic, err)
					}
				}
				return nil, nil
			},
		)
	}
	return nil
}

func (r *RankingRouter) Close() error {
	return r.Router.Close()
}
