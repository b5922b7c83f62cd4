// Package jobs defines background tasks and the Asynq worker hosting
// them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskOrderIngest processes one received e-commerce order.
	TaskOrderIngest = "orders:ingest"
	// TaskPlatformSync publishes stock to one integration platform.
	TaskPlatformSync = "integrations:sync"
	// TaskFxRefresh refreshes the cached exchange rate.
	TaskFxRefresh = "fx:refresh"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
	// TaskInviteEmail sends the invite email for a new user.
	TaskInviteEmail = "mail:invite"
)

// OrderIngestPayload identifies the order to process.
type OrderIngestPayload struct {
	TenantID string `json:"tenant_id"`
	OrderID  string `json:"order_id"`
}

// NewOrderIngestTask constructs an order ingest task.
func NewOrderIngestTask(payload OrderIngestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderIngest, data), nil
}

// PlatformSyncPayload identifies the platform to sync.
type PlatformSyncPayload struct {
	TenantID   string `json:"tenant_id"`
	PlatformID string `json:"platform_id"`
}

// NewPlatformSyncTask constructs a platform sync task.
func NewPlatformSyncTask(payload PlatformSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPlatformSync, data), nil
}

// NewFxRefreshTask constructs an fx refresh task.
func NewFxRefreshTask() *asynq.Task {
	return asynq.NewTask(TaskFxRefresh, nil)
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// InviteEmailPayload carries the invite email contents.
type InviteEmailPayload struct {
	TenantID     string `json:"tenant_id"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// NewInviteEmailTask constructs an invite email task.
func NewInviteEmailTask(payload InviteEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInviteEmail, data), nil
}
