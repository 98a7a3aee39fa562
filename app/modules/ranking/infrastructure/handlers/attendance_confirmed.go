package rankinghandlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	rankingevents "github.com/moto-league/ranking-engine/app/modules/ranking/domain/events"
	"github.com/moto-league/ranking-engine/internal/observability/attr"
)

// HandleAttendanceConfirmed applies one confirmed attendance to the member's
// scoped totals and publishes the outcome. Business failures become a
// ranking.update.failed message; only infrastructure faults are returned as
// errors so the router retries them.
func (h *RankingHandlers) HandleAttendanceConfirmed(msg *message.Message) ([]*message.Message, error) {
	wrapped := h.handlerWrapper(
		"HandleAttendanceConfirmed",
		&rankingevents.AttendanceConfirmedPayload{},
		func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error) {
			confirmed, ok := payload.(*rankingevents.AttendanceConfirmedPayload)
			if !ok {
				return nil, errors.New("invalid payload type for HandleAttendanceConfirmed")
			}

			result, err := h.service.UpdateIncremental(ctx, *confirmed)
			if err != nil {
				return nil, err
			}

			if result.IsFailure() {
				h.logger.WarnContext(ctx, "Incremental ranking update failed",
					attr.CorrelationIDFromMsg(msg),
					attr.Int64("member_id", confirmed.MemberID),
					attr.String("reason", result.Failure.Reason),
				)
				failureMsg, err := h.helpers.CreateResultMessage(msg, result.Failure, rankingevents.RankingUpdateFailedSubject)
				if err != nil {
					return nil, fmt.Errorf("failed to create failure message: %w", err)
				}
				return []*message.Message{failureMsg}, nil
			}

			if !result.IsSuccess() {
				return nil, errors.New("service returned neither success nor failure")
			}

			successMsg, err := h.helpers.CreateResultMessage(msg, result.Success, rankingevents.RankingUpdatedSubject)
			if err != nil {
				return nil, fmt.Errorf("failed to create success message: %w", err)
			}
			return []*message.Message{successMsg}, nil
		},
	)

	return wrapped(msg)
}
