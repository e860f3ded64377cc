package services

import (
	"context"
	"log/slog"
	"time"

	"qrmenu-api/events"
	"qrmenu-api/logger"
)

// publish sends e after the owning transaction committed. A broker failure is
// logged and otherwise ignored.
func publish(ctx context.Context, pub events.Publisher, log *logger.Logger, e events.Event) {
	if pub == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, e); err != nil {
		log.Error("publish_event", logger.RequestID(ctx), "event publish failed", err,
			slog.String("type", e.Type),
			slog.Uint64("order_id", uint64(e.OrderID)),
		)
	}
}
