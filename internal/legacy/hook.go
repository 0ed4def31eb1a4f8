// Package legacy intercepts the host application's generic message-send path.
// When any custom provider is enabled, host messages are redirected through
// the dispatch engine; otherwise the host keeps its default transport.
package legacy

import (
	"context"
	"log/slog"

	"sms-dispatch-gateway/internal/dispatch"
	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/providers"
	"sms-dispatch-gateway/internal/segment"
)

// Message is an outbound SMS coming from the host framework, with the
// business object it originated from.
type Message struct {
	Number string
	Body   string
	Model  string
	ResID  int64
}

// Enqueuer is the slice of the dispatch engine the hook needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, req dispatch.ComposeRequest) ([]domain.Message, segment.Info, error)
}

// SendHook plugs into the host framework's send path.
type SendHook struct {
	providers *providers.Registry
	engine    Enqueuer
	log       *slog.Logger
}

// NewSendHook wires the hook.
func NewSendHook(reg *providers.Registry, engine Enqueuer, log *slog.Logger) *SendHook {
	return &SendHook{providers: reg, engine: engine, log: log}
}

// Send routes a host batch through the custom providers. It returns
// handled=false when no provider is enabled, telling the host to use its
// default transport; the decision is made once for the whole batch.
func (h *SendHook) Send(ctx context.Context, batch []Message) (handled bool, err error) {
	if !h.providers.AnyEnabled() {
		return false, nil
	}

	for _, m := range batch {
		_, _, err := h.engine.Enqueue(ctx, dispatch.ComposeRequest{
			Recipients:  []string{m.Number},
			Body:        m.Body,
			LinkedModel: m.Model,
			LinkedID:    m.ResID,
		})
		if err != nil {
			return true, err
		}
	}

	h.log.Info("host messages redirected to custom providers", "count", len(batch))
	return true, nil
}
