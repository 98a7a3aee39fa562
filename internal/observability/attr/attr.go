// Package attr provides slog attribute helpers shared across the service.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

func Int64(key string, value int64) slog.Attr {
	return slog.Int64(key, value)
}

func Float64(key string, value float64) slog.Attr {
	return slog.Float64(key, value)
}

func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

func Duration(key string, value time.Duration) slog.Attr {
	return slog.Duration(key, value)
}

func Time(key string, value time.Time) slog.Attr {
	return slog.Time(key, value)
}

func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

func TenantID(key string, id uuid.UUID) slog.Attr {
	return slog.String(key, id.String())
}

// CorrelationIDFromMsg extracts the watermill correlation ID from message metadata.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	return slog.String("correlation_id", middleware.MessageCorrelationID(msg))
}

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID on the context for downstream log calls.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// ExtractCorrelationID returns the correlation ID attribute from the context,
// or an empty value when none was set.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return slog.String("correlation_id", v)
	}
	return slog.String("correlation_id", "")
}
