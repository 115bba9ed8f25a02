package events

import (
	"context"
	"log/slog"

	"github.com/dwikikusuma/shoping-checkout/internal/checkout/domain"
)

// LogPublisher only logs the events. It is the default when no broker is
// configured.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishOrderPlaced(ctx context.Context, evt domain.OrderPlaced) error {
	p.log.InfoContext(ctx, "order placed event",
		"order_id", evt.OrderID,
		"owner_id", evt.OwnerID,
		"lines", len(evt.Lines),
		"total", evt.Total,
	)
	return nil
}
