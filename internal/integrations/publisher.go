package integrations

import (
	"context"
	"log/slog"
)

// LogPublisher stands in for per-platform API clients. It records the
// outgoing snapshot in the log and reports success, so sync runs complete
// end to end without a remote platform.
// TODO: replace with real shopify/woocommerce/tiendanube clients.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish satisfies PublisherPort.
func (p *LogPublisher) Publish(ctx context.Context, platform Platform, figures []StockFigure) error {
	p.Logger.Info("publish stock snapshot",
		slog.String("platform_id", platform.ID),
		slog.String("kind", string(platform.Kind)),
		slog.Int("items", len(figures)))
	return nil
}
