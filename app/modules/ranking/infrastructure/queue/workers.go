package rankingqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/moto-league/ranking-engine/app/eventbus"
	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	"github.com/moto-league/ranking-engine/config"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
	"github.com/moto-league/ranking-engine/internal/utils"
)

// RebuildWorker publishes a rebuild request when its job comes due.
type RebuildWorker struct {
	river.WorkerDefaults[RebuildJob]

	logger   *slog.Logger
	eventBus eventbus.EventBus
	helpers  utils.Helpers
}

// NewRebuildWorker creates a new RebuildWorker.
func NewRebuildWorker(logger *slog.Logger, eventBus eventbus.EventBus, helpers utils.Helpers) *RebuildWorker {
	return &RebuildWorker{
		logger:   logger,
		eventBus: eventBus,
		helpers:  helpers,
	}
}

func (w *RebuildWorker) Work(ctx context.Context, job *river.Job[RebuildJob]) error {
	args := job.Args
	if args.TenantID == uuid.Nil {
		args.TenantID = config.DefaultTenantID
	}
	if args.Year == 0 {
		// Periodic jobs carry no year; rebuild the current competition year.
		args.Year = time.Now().UTC().Year()
	}

	payload := rankingevents.RankingRebuildRequestedPayload{
		TenantID:  args.TenantID,
		Year:      args.Year,
		ScopeType: args.ScopeType,
		ScopeID:   args.ScopeID,
	}

	msg, err := w.helpers.CreateNewMessage(payload, rankingevents.RankingRebuildRequestedSubject)
	if err != nil {
		return fmt.Errorf("failed to create rebuild request message: %w", err)
	}

	if err := w.eventBus.Publish(rankingevents.RankingRebuildRequestedSubject, msg); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish rebuild request",
			attr.String("scope_type", args.ScopeType),
			attr.Error(err),
		)
		return err
	}

	w.logger.InfoContext(ctx, "Published scheduled rebuild request",
		attr.String("scope_type", args.ScopeType),
		attr.Int("year", args.Year),
	)
	return nil
}
