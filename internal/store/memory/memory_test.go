package memory_test

import (
	"context"
	"testing"
	"time"

	"sms-dispatch-gateway/internal/domain"
	"sms-dispatch-gateway/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *memory.Store, n int) []domain.Message {
	t.Helper()
	msgs := make([]domain.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, domain.NewMessage("01712345678", "hello"))
	}
	require.NoError(t, s.CreateMessages(context.Background(), msgs))
	return msgs
}

func TestClaimQueued_LeaseExcludesClaimed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	seed(t, s, 3)

	first, err := s.ClaimQueued(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := s.ClaimQueued(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, second, 1, "leased messages stay invisible")

	third, err := s.ClaimQueued(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestClaimQueued_ExpiredLeaseIsReclaimable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	msgs := seed(t, s, 1)

	_, err := s.ClaimOne(ctx, msgs[0].ID)
	require.NoError(t, err)

	// A crashed worker never resolves the message; after the lease lapses the
	// next batch picks it up again.
	s.AdvanceClock(2 * time.Minute)

	claimed, err := s.ClaimQueued(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, claimed, 1)
}

func TestClaimOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	msgs := seed(t, s, 1)
	id := msgs[0].ID

	m, err := s.ClaimOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, m.ID)

	_, err = s.ClaimOne(ctx, id)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)

	_, err = s.ClaimOne(ctx, domain.NewMessage("x", "y").ID)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestClaimOne_NonQueuedStates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	msgs := seed(t, s, 1)
	id := msgs[0].ID

	_, err := s.ClaimOne(ctx, id)
	require.NoError(t, err)
	require.NoError(t, s.MarkSent(ctx, id, "bc", "trx-1", "raw"))

	_, err = s.ClaimOne(ctx, id)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
}

func TestMarkSent_ReleasesLeaseAndClearsError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	msgs := seed(t, s, 1)
	id := msgs[0].ID

	_, err := s.ClaimOne(ctx, id)
	require.NoError(t, err)
	require.NoError(t, s.RecordRetry(ctx, id, "Attempt 1 Failed: timeout", "raw"))

	_, err = s.ClaimOne(ctx, id)
	require.NoError(t, err, "retry releases the lease")
	require.NoError(t, s.MarkSent(ctx, id, "bc", "trx-1", "SUCCESS"))

	got, err := s.GetMessage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateSent, got.State)
	assert.Equal(t, 1, got.RetryCount)
	assert.Empty(t, got.LastError)
	assert.Equal(t, "SUCCESS", got.RawResponse)
}

func TestTransitions_RequireQueuedState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	msgs := seed(t, s, 1)
	id := msgs[0].ID

	_, err := s.ClaimOne(ctx, id)
	require.NoError(t, err)
	require.NoError(t, s.MarkFailed(ctx, id, "Final Failure: rejected", "raw"))

	assert.Error(t, s.MarkSent(ctx, id, "bc", "trx", "raw"))
	assert.Error(t, s.RecordRetry(ctx, id, "late", "raw"))
	assert.Error(t, s.MarkFailed(ctx, id, "again", "raw"))

	got, err := s.GetMessage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)
	assert.Equal(t, "Final Failure: rejected", got.LastError)
}

func TestFindByCorrelationID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	msgs := seed(t, s, 2)

	_, err := s.ClaimOne(ctx, msgs[0].ID)
	require.NoError(t, err)
	require.NoError(t, s.MarkSent(ctx, msgs[0].ID, "bc", "trx-1", "raw"))

	got, err := s.FindByCorrelationID(ctx, "trx-1")
	require.NoError(t, err)
	assert.Equal(t, msgs[0].ID, got.ID)

	_, err = s.FindByCorrelationID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)

	_, err = s.FindByCorrelationID(ctx, "")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestApplyDeliveryState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := memory.New()
	msgs := seed(t, s, 1)
	id := msgs[0].ID

	// Queued messages ignore delivery transitions but keep the payload.
	require.NoError(t, s.ApplyDeliveryState(ctx, id, domain.StateDelivered, "early dlr"))
	got, err := s.GetMessage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateQueued, got.State)
	assert.Equal(t, "early dlr", got.RawResponse)

	_, err = s.ClaimOne(ctx, id)
	require.NoError(t, err)
	require.NoError(t, s.MarkSent(ctx, id, "bc", "trx-1", "raw"))

	require.NoError(t, s.ApplyDeliveryState(ctx, id, domain.StateDelivered, "dlr"))
	got, err = s.GetMessage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateDelivered, got.State)
}
