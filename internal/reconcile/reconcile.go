// Package reconcile maps asynchronous provider delivery callbacks back onto
// in-flight messages.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"
)

// Reconciler applies delivery-status callbacks. It is stateless and
// reentrant; per-message serialization lives in the store.
type Reconciler struct {
	store ports.MessageStore
	log   *slog.Logger
}

// New wires a Reconciler.
func New(store ports.MessageStore, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Apply processes one callback. Unknown correlation IDs are a silent no-op:
// callbacks are unauthenticated and not guaranteed to match a known message.
// Replaying the same callback yields the same end state, and a terminal state
// is never regressed; the raw payload is recorded for audit either way.
func (r *Reconciler) Apply(ctx context.Context, correlationID, statusToken, rawPayload string) error {
	if correlationID == "" || statusToken == "" {
		return nil
	}

	m, err := r.store.FindByCorrelationID(ctx, correlationID)
	if err == domain.ErrMessageNotFound {
		r.log.Debug("callback for unknown correlation id", "correlation_id", correlationID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("find message by correlation id: %w", err)
	}

	next := Classify(statusToken)
	if err := r.store.ApplyDeliveryState(ctx, m.ID, next, rawPayload); err != nil {
		return fmt.Errorf("apply delivery state: %w", err)
	}

	r.log.Info("delivery callback applied",
		"msg_id", m.ID, "correlation_id", correlationID, "status", statusToken, "state", next)
	return nil
}

// Classify maps a provider status token onto a lifecycle state. Tokens that
// signal neither delivery nor failure leave the message at sent. The undeliv
// check runs before deliv so UNDELIVRD lands on failed.
func Classify(statusToken string) domain.State {
	token := strings.ToLower(statusToken)
	switch {
	case strings.Contains(token, "undeliv"), strings.Contains(token, "fail"):
		return domain.StateFailed
	case strings.Contains(token, "deliv"):
		return domain.StateDelivered
	default:
		return domain.StateSent
	}
}
