package ports

import (
	"context"
	"time"

	"sms-dispatch-gateway/internal/domain"

	"github.com/google/uuid"
)

// ClaimLease is how long a claimed message stays invisible to other
// processors. Stale leases (crashed worker) expire on their own.
const ClaimLease = time.Minute

// MessageStore defines persistence for the message lifecycle.
//
// Concurrency contract: ClaimQueued/ClaimOne hand a queued message to exactly
// one processor at a time, and every transition method is conditional on the
// current state, so overlapping scheduler runs, the queue worker, and DLR
// callbacks can race without double-sending or half-updating a record.
type MessageStore interface {
	// CreateMessages persists a batch of new queued messages.
	CreateMessages(ctx context.Context, msgs []domain.Message) error

	// GetMessage retrieves a message by internal ID.
	GetMessage(ctx context.Context, id uuid.UUID) (*domain.Message, error)

	// ClaimQueued atomically leases up to limit queued, unleased messages
	// for dispatch and returns them.
	ClaimQueued(ctx context.Context, limit int) ([]domain.Message, error)

	// ClaimOne leases a single queued message by ID. Returns
	// domain.ErrAlreadyClaimed if it is leased elsewhere or no longer queued.
	ClaimOne(ctx context.Context, id uuid.UUID) (*domain.Message, error)

	// MarkSent transitions a claimed message queued->sent, recording the
	// handling provider, its correlation ID, and the raw response. Clears
	// last error and the lease.
	MarkSent(ctx context.Context, id uuid.UUID, providerID, correlationID, raw string) error

	// RecordRetry keeps a claimed message queued, increments its retry
	// count, and records the attempt error. Clears the lease so the next
	// scheduler pass is free to pick it up again.
	RecordRetry(ctx context.Context, id uuid.UUID, lastError, raw string) error

	// MarkFailed transitions a claimed message queued->failed terminally.
	MarkFailed(ctx context.Context, id uuid.UUID, lastError, raw string) error

	// FindByCorrelationID returns the unique message a DLR callback refers
	// to, or domain.ErrMessageNotFound.
	FindByCorrelationID(ctx context.Context, correlationID string) (*domain.Message, error)

	// ApplyDeliveryState transitions sent->next (delivered or failed) if and
	// only if the message is currently sent; terminal states are never
	// regressed. The raw callback payload is recorded regardless, for audit.
	ApplyDeliveryState(ctx context.Context, id uuid.UUID, next domain.State, rawPayload string) error
}
