package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gestionpro/gestionpro/internal/fx"
	"github.com/gestionpro/gestionpro/internal/integrations"
	"github.com/gestionpro/gestionpro/internal/orders"
	"github.com/gestionpro/gestionpro/internal/shared"
)

// NewOrderIngestHandler processes TaskOrderIngest tasks. Processing
// failures land on the order row, so only infrastructure errors bubble
// up for retry.
func NewOrderIngestHandler(svc *orders.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OrderIngestPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return svc.Process(ctx, payload.TenantID, payload.OrderID)
	}
}

// NewPlatformSyncHandler processes TaskPlatformSync tasks.
func NewPlatformSyncHandler(svc *integrations.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload PlatformSyncPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		_, err := svc.Sync(ctx, payload.TenantID, payload.PlatformID)
		return err
	}
}

// NewFxRefreshHandler processes TaskFxRefresh tasks.
func NewFxRefreshHandler(svc *fx.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return svc.Refresh(ctx)
	}
}

// NewIdempotencyCleanupHandler processes TaskIdempotencyCleanup tasks.
func NewIdempotencyCleanupHandler(store *shared.IdempotencyStore) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		return store.Cleanup(ctx, 24*time.Hour)
	}
}

// NewInviteEmailHandler processes TaskInviteEmail tasks.
// TODO: wire an SMTP sender; today the invite is only logged.
func NewInviteEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload InviteEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		logger.Info("send invite email", slog.String("to", payload.Email))
		return nil
	}
}
