package legacy_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"sms-dispatch-gateway/internal/dispatch"
	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/legacy"
	"sms-dispatch-gateway/internal/providers"
	"sms-dispatch-gateway/internal/segment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	reqs []dispatch.ComposeRequest
	err  error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, req dispatch.ComposeRequest) ([]domain.Message, segment.Info, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, segment.Info{}, f.err
	}
	return []domain.Message{domain.NewMessage(req.Recipients[0], req.Body)}, segment.Compute(req.Body), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSend_RedirectsWhenProviderEnabled(t *testing.T) {
	t.Parallel()

	reg := providers.New([]domain.Provider{
		{ID: "bc", Type: domain.ProviderBoomcast, State: domain.ProviderEnabled, Priority: 1},
	})
	enq := &fakeEnqueuer{}
	hook := legacy.NewSendHook(reg, enq, discardLogger())

	handled, err := hook.Send(context.Background(), []legacy.Message{
		{Number: "01712345678", Body: "order shipped", Model: "sale.order", ResID: 42},
		{Number: "01812345678", Body: "order shipped"},
	})
	require.NoError(t, err)
	assert.True(t, handled)

	require.Len(t, enq.reqs, 2)
	assert.Equal(t, []string{"01712345678"}, enq.reqs[0].Recipients)
	assert.Equal(t, "sale.order", enq.reqs[0].LinkedModel)
	assert.Equal(t, int64(42), enq.reqs[0].LinkedID)
	assert.Empty(t, enq.reqs[1].LinkedModel)
}

func TestSend_FallsThroughWhenNoProviderEnabled(t *testing.T) {
	t.Parallel()

	reg := providers.New([]domain.Provider{
		{ID: "bc", Type: domain.ProviderBoomcast, State: domain.ProviderDisabled, Priority: 1},
	})
	enq := &fakeEnqueuer{}
	hook := legacy.NewSendHook(reg, enq, discardLogger())

	handled, err := hook.Send(context.Background(), []legacy.Message{
		{Number: "01712345678", Body: "order shipped"},
	})
	require.NoError(t, err)
	assert.False(t, handled, "host default transport must take over")
	assert.Empty(t, enq.reqs)
}

func TestSend_PropagatesEnqueueError(t *testing.T) {
	t.Parallel()

	reg := providers.New([]domain.Provider{
		{ID: "bc", Type: domain.ProviderBoomcast, State: domain.ProviderEnabled, Priority: 1},
	})
	enq := &fakeEnqueuer{err: errors.New("store down")}
	hook := legacy.NewSendHook(reg, enq, discardLogger())

	handled, err := hook.Send(context.Background(), []legacy.Message{
		{Number: "01712345678", Body: "order shipped"},
	})
	assert.True(t, handled, "the batch was claimed even though it failed")
	assert.Error(t, err)
}
