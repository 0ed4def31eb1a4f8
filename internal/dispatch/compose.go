package dispatch

import (
	"context"
	"fmt"
	"strings"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/ports"
	"sms-dispatch-gateway/internal/segment"
)

// ComposeRequest creates one queued message per recipient.
type ComposeRequest struct {
	Recipients  []string // Raw destination numbers
	Body        string
	ProviderID  string // Optional: force a specific provider, bypassing routing
	LinkedModel string // Optional business-object pointer
	LinkedID    int64
}

// ParseRecipients splits a comma-separated recipient list, trimming blanks.
func ParseRecipients(list string) []string {
	var out []string
	for _, r := range strings.Split(list, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Enqueue persists one queued message per recipient and, when a publisher is
// wired, hands each to the immediate-dispatch queue so the send-worker picks
// it up before the next scheduler pass. Retries never take this shortcut.
func (e *Engine) Enqueue(ctx context.Context, req ComposeRequest) ([]domain.Message, segment.Info, error) {
	info := segment.Compute(req.Body)

	msgs := make([]domain.Message, 0, len(req.Recipients))
	for _, to := range req.Recipients {
		m := domain.NewMessage(to, req.Body)
		m.PinnedProviderID = req.ProviderID
		m.LinkedModel = req.LinkedModel
		m.LinkedID = req.LinkedID
		msgs = append(msgs, m)
	}

	if err := e.store.CreateMessages(ctx, msgs); err != nil {
		return nil, info, fmt.Errorf("create messages: %w", err)
	}

	if e.publisher != nil {
		for _, m := range msgs {
			job := ports.DispatchJob{MessageID: m.ID, Destination: m.Destination}
			if err := e.publisher.Publish(ctx, job); err != nil {
				// The scheduler pass will still pick the message up.
				e.log.Error("publish dispatch job failed", "msg_id", m.ID, "err", err)
			}
		}
	}

	e.log.Info("messages queued", "count", len(msgs), "segments", info.SegmentCount)
	return msgs, info, nil
}
