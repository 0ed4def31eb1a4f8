// Package dispatch is the engine that drives queued messages through
// provider selection, the wire send, and the retry policy.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	adapterreg "sms-dispatch-gateway/internal/adapters/provider/registry"
	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/msisdn"
	"sms-dispatch-gateway/internal/ports"
	"sms-dispatch-gateway/internal/providers"
	"sms-dispatch-gateway/internal/router"

	"github.com/google/uuid"
)

// Terminal failure texts recorded on the message.
const (
	errNoProvider    = "No active provider found"
	errEmptyNumber   = "Invalid destination number"
	finalFailureText = "Final Failure: %s"
	attemptText      = "Attempt %d Failed: %s"
)

// Engine orchestrates dispatch for queued messages.
type Engine struct {
	store     ports.MessageStore
	providers *providers.Registry
	adapters  *adapterreg.Registry
	publisher ports.DispatchPublisher // may be nil: scheduler-only operation
	quota     ports.QuotaCounter
	workers   int
	log       *slog.Logger
}

// New wires the engine with its collaborators. workers bounds the number of
// concurrent provider calls per batch.
func New(
	store ports.MessageStore,
	reg *providers.Registry,
	adapters *adapterreg.Registry,
	publisher ports.DispatchPublisher,
	quota ports.QuotaCounter,
	workers int,
	log *slog.Logger,
) *Engine {
	if workers < 1 {
		workers = 1
	}
	if quota == nil {
		quota = ports.NoQuota
	}
	return &Engine{
		store:     store,
		providers: reg,
		adapters:  adapters,
		publisher: publisher,
		quota:     quota,
		workers:   workers,
		log:       log,
	}
}

// ProcessQueued claims up to batchSize queued messages and dispatches each on
// its own worker. Messages are independent; one failure never blocks or rolls
// back the others. Returns the number of messages processed.
func (e *Engine) ProcessQueued(ctx context.Context, batchSize int) (int, error) {
	msgs, err := e.store.ClaimQueued(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim queued: %w", err)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for _, m := range msgs {
		m := m
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			e.dispatch(ctx, m)
		}()
	}
	wg.Wait()

	return len(msgs), nil
}

// DispatchByID processes one message from the immediate-dispatch queue. A
// message already claimed elsewhere, or no longer queued, is simply skipped:
// the job was satisfied by another path.
func (e *Engine) DispatchByID(ctx context.Context, id uuid.UUID) error {
	m, err := e.store.ClaimOne(ctx, id)
	if err != nil {
		switch err {
		case domain.ErrAlreadyClaimed:
			e.log.Debug("message claimed elsewhere, skipping", "msg_id", id)
			return nil
		case domain.ErrMessageNotFound:
			e.log.Warn("dispatch job for unknown message", "msg_id", id)
			return nil
		}
		return fmt.Errorf("claim message %s: %w", id, err)
	}

	e.dispatch(ctx, *m)
	return nil
}

// Message returns the current record for id.
func (e *Engine) Message(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	return e.store.GetMessage(ctx, id)
}

// dispatch runs the full state machine for one claimed message.
func (e *Engine) dispatch(ctx context.Context, m domain.Message) {
	provider, ok := e.resolveProvider(ctx, m)
	if !ok {
		e.failTerminal(ctx, m, errNoProvider)
		return
	}

	number := msisdn.Normalize(m.Destination, provider.Type)
	if number == "" {
		e.failTerminal(ctx, m, errEmptyNumber)
		return
	}

	adapter, err := e.adapters.Lookup(provider.Type)
	if err != nil {
		e.failTerminal(ctx, m, fmt.Sprintf("%s provider: %s", provider.Type, err))
		return
	}

	outcome := adapter.Send(ctx, provider, number, m.Body)
	if outcome.Success {
		e.markSent(ctx, m, provider, outcome)
		return
	}

	e.handleFailure(ctx, m, outcome)
}

// resolveProvider honors a pinned provider first, then routes. A pinned
// provider that is unknown or disabled falls back to routing.
func (e *Engine) resolveProvider(ctx context.Context, m domain.Message) (domain.Provider, bool) {
	if m.PinnedProviderID != "" {
		if p, ok := e.providers.Get(m.PinnedProviderID); ok && p.Enabled() {
			return p, true
		}
		e.log.Warn("pinned provider unavailable, routing instead",
			"msg_id", m.ID, "provider_id", m.PinnedProviderID)
	}

	return router.Select(e.eligible(ctx), m.Destination)
}

// eligible filters enabled providers through the daily-limit counter.
// A counter error fails open: quota is an operator guard, not a delivery
// precondition.
func (e *Engine) eligible(ctx context.Context) []domain.Provider {
	var out []domain.Provider
	for _, p := range e.providers.Enabled() {
		allowed, err := e.quota.Allow(ctx, p.ID, p.DailyLimit)
		if err != nil {
			e.log.Error("quota check failed", "provider_id", p.ID, "err", err)
			allowed = true
		}
		if allowed {
			out = append(out, p)
		}
	}
	return out
}

func (e *Engine) markSent(ctx context.Context, m domain.Message, p domain.Provider, outcome ports.SendOutcome) {
	if err := e.store.MarkSent(ctx, m.ID, p.ID, outcome.CorrelationID, outcome.RawResponse); err != nil {
		e.log.Error("mark sent failed", "msg_id", m.ID, "err", err)
		return
	}
	if err := e.quota.Record(ctx, p.ID); err != nil {
		e.log.Error("quota record failed", "provider_id", p.ID, "err", err)
	}
	e.log.Info("message sent",
		"msg_id", m.ID, "provider", p.Name, "correlation_id", outcome.CorrelationID)
}

// handleFailure applies the retry policy. Non-retryable outcomes and an
// exhausted retry budget fail terminally; otherwise the message stays queued
// for the next scheduler pass. There is no immediate re-dispatch: tight
// failure loops against a broken provider are worse than one tick of latency.
func (e *Engine) handleFailure(ctx context.Context, m domain.Message, outcome ports.SendOutcome) {
	if !outcome.Kind.Retryable() || m.RetryCount >= domain.MaxRetries {
		text := fmt.Sprintf(finalFailureText, outcome.ErrorDetail)
		if !outcome.Kind.Retryable() {
			text = outcome.ErrorDetail
		}
		if err := e.store.MarkFailed(ctx, m.ID, text, outcome.RawResponse); err != nil {
			e.log.Error("mark failed failed", "msg_id", m.ID, "err", err)
			return
		}
		e.log.Warn("message permanently failed",
			"msg_id", m.ID, "retry_count", m.RetryCount, "detail", outcome.ErrorDetail)
		return
	}

	attempt := m.RetryCount + 1
	text := fmt.Sprintf(attemptText, attempt, outcome.ErrorDetail)
	if err := e.store.RecordRetry(ctx, m.ID, text, outcome.RawResponse); err != nil {
		e.log.Error("record retry failed", "msg_id", m.ID, "err", err)
		return
	}
	e.log.Info("message send failed, will retry",
		"msg_id", m.ID, "attempt", attempt, "detail", outcome.ErrorDetail)
}

// failTerminal is for failures no retry can fix: no provider, an empty
// number, an unimplemented provider type.
func (e *Engine) failTerminal(ctx context.Context, m domain.Message, text string) {
	if err := e.store.MarkFailed(ctx, m.ID, text, text); err != nil {
		e.log.Error("mark failed failed", "msg_id", m.ID, "err", err)
		return
	}
	e.log.Warn("message failed without retry", "msg_id", m.ID, "reason", text)
}
