package reconcile_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/reconcile"
	"sms-dispatch-gateway/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  domain.State
	}{
		{"DELIVRD", domain.StateDelivered},
		{"delivered", domain.StateDelivered},
		{"Delivered to handset", domain.StateDelivered},
		{"UNDELIVRD", domain.StateFailed},
		{"undelivered", domain.StateFailed},
		{"FAILED", domain.StateFailed},
		{"failure", domain.StateFailed},
		{"EXPIRED", domain.StateSent},
		{"ACCEPTED", domain.StateSent},
		{"anything else", domain.StateSent},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.token, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, reconcile.Classify(tc.token), "token %q", tc.token)
		})
	}
}

// seedSent creates a message and walks it to sent with the given correlation ID.
func seedSent(t *testing.T, store *memory.Store, correlationID string) domain.Message {
	t.Helper()
	ctx := context.Background()

	m := domain.NewMessage("01712345678", "hello")
	require.NoError(t, store.CreateMessages(ctx, []domain.Message{m}))
	_, err := store.ClaimOne(ctx, m.ID)
	require.NoError(t, err)
	require.NoError(t, store.MarkSent(ctx, m.ID, "bc", correlationID, "SUCCESS"))
	return m
}

func newReconciler(store *memory.Store) *reconcile.Reconciler {
	return reconcile.New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestApply_DeliveredCallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.New()
	m := seedSent(t, store, "trx-9")
	r := newReconciler(store)

	require.NoError(t, r.Apply(ctx, "trx-9", "DELIVRD", `id=trx-9&status=DELIVRD`))

	got, err := store.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateDelivered, got.State)
	assert.Equal(t, `id=trx-9&status=DELIVRD`, got.RawResponse)
}

func TestApply_ReplayIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.New()
	m := seedSent(t, store, "trx-9")
	r := newReconciler(store)

	require.NoError(t, r.Apply(ctx, "trx-9", "DELIVRD", "first"))
	require.NoError(t, r.Apply(ctx, "trx-9", "DELIVRD", "second"))

	got, err := store.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateDelivered, got.State)
	// The latest payload wins the audit slot.
	assert.Equal(t, "second", got.RawResponse)
}

// A terminal state never regresses, whatever order callbacks arrive in.
func TestApply_TerminalStateNeverRegresses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.New()
	m := seedSent(t, store, "trx-9")
	r := newReconciler(store)

	require.NoError(t, r.Apply(ctx, "trx-9", "FAILED", "dlr: failed"))
	require.NoError(t, r.Apply(ctx, "trx-9", "DELIVRD", "dlr: delivered"))

	got, err := store.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State, "failed is terminal")
	assert.Equal(t, "dlr: delivered", got.RawResponse, "late payload still recorded")
}

func TestApply_UnknownCorrelationIDIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.New()
	seedSent(t, store, "trx-9")
	r := newReconciler(store)

	assert.NoError(t, r.Apply(ctx, "no-such-id", "DELIVRD", "payload"))
}

func TestApply_BlankInputsAreIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.New()
	m := seedSent(t, store, "trx-9")
	r := newReconciler(store)

	assert.NoError(t, r.Apply(ctx, "", "DELIVRD", "payload"))
	assert.NoError(t, r.Apply(ctx, "trx-9", "", "payload"))

	got, err := store.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSent, got.State)
	assert.Equal(t, "SUCCESS", got.RawResponse)
}

func TestApply_NeutralTokenKeepsSent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.New()
	m := seedSent(t, store, "trx-9")
	r := newReconciler(store)

	require.NoError(t, r.Apply(ctx, "trx-9", "ACCEPTED", "dlr: accepted"))

	got, err := store.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSent, got.State)
	assert.Equal(t, "dlr: accepted", got.RawResponse)
}
