package rankinghandlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
)

// HandleRebuildRequested recomputes one scope type from the ledger and
// publishes the outcome.
func (h *RankingHandlers) HandleRebuildRequested(msg *message.Message) ([]*message.Message, error) {
	wrapped := h.handlerWrapper(
		"HandleRebuildRequested",
		&rankingevents.RankingRebuildRequestedPayload{},
		func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error) {
			req, ok := payload.(*rankingevents.RankingRebuildRequestedPayload)
			if !ok {
				return nil, errors.New("invalid payload type for HandleRebuildRequested")
			}

			result, err := h.service.Rebuild(ctx, *req)
			if err != nil {
				return nil, err
			}

			if result.IsFailure() {
				h.logger.WarnContext(ctx, "Ranking rebuild failed",
					attr.CorrelationIDFromMsg(msg),
					attr.String("scope_type", req.ScopeType),
					attr.String("reason", result.Failure.Reason),
				)
				failureMsg, err := h.helpers.CreateResultMessage(msg, result.Failure, rankingevents.RankingRebuildFailedSubject)
				if err != nil {
					return nil, fmt.Errorf("failed to create failure message: %w", err)
				}
				return []*message.Message{failureMsg}, nil
			}

			if !result.IsSuccess() {
				return nil, errors.New("service returned neither success nor failure")
			}

			successMsg, err := h.helpers.CreateResultMessage(msg, result.Success, rankingevents.RankingRebuildCompletedSubject)
			if err != nil {
				return nil, fmt.Errorf("failed to create success message: %w", err)
			}
			return []*message.Message{successMsg}, nil
		},
	)

	return wrapped(msg)
}
