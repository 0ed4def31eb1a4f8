package ports

import (
	"context"

	"github.com/google/uuid"
)

// DispatchJob asks the send-worker to dispatch one message immediately
// instead of waiting for the next scheduler pass. Only the ID travels on the
// queue; the worker re-reads current state from the store so a stale job can
// never resurrect an already-handled message.
type DispatchJob struct {
	MessageID   uuid.UUID `json:"message_id"`
	Destination string    `json:"destination"` // For log correlation only
}

// DispatchPublisher enqueues dispatch jobs.
type DispatchPublisher interface {
	Publish(ctx context.Context, job DispatchJob) error
}

// DispatchConsumer consumes dispatch jobs.
type DispatchConsumer interface {
	// Consume passes each job to handler and blocks until ctx is cancelled
	// or a fatal error occurs.
	Consume(ctx context.Context, handler func(ctx context.Context, job DispatchJob) error) error
}

// QuotaCounter tracks per-provider daily send counts for daily-limit
// enforcement.
type QuotaCounter interface {
	// Allow reports whether the provider is still under limit today.
	// limit <= 0 means unlimited.
	Allow(ctx context.Context, providerID string, limit int) (bool, error)

	// Record counts one accepted send against today's total.
	Record(ctx context.Context, providerID string) error
}

// NoQuota disables daily-limit enforcement.
var NoQuota QuotaCounter = noQuota{}

type noQuota struct{}

func (noQuota) Allow(context.Context, string, int) (bool, error) { return true, nil }
func (noQuota) Record(context.Context, string) error             { return nil }
