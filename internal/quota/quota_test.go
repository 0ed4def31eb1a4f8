package quota_test

import (
	"context"
	"testing"

	"sms-dispatch-gateway/internal/quota"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCounter(t *testing.T) (*quota.RedisCounter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return quota.NewRedisCounter(rdb), mr
}

func TestAllow_UnderLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newCounter(t)

	// Nothing recorded yet.
	ok, err := c.Allow(ctx, "bc", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Record(ctx, "bc"))
	ok, err = c.Allow(ctx, "bc", 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllow_AtLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newCounter(t)

	require.NoError(t, c.Record(ctx, "bc"))
	require.NoError(t, c.Record(ctx, "bc"))

	ok, err := c.Allow(ctx, "bc", 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllow_ZeroLimitMeansUnlimited(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, _ := newCounter(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Record(ctx, "bc"))
	}

	ok, err := c.Allow(ctx, "bc", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Allow(ctx, "bc", -1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecord_CountsPerProviderWithTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, mr := newCounter(t)

	require.NoError(t, c.Record(ctx, "bc"))
	require.NoError(t, c.Record(ctx, "bc"))
	require.NoError(t, c.Record(ctx, "sns"))

	keys := mr.Keys()
	require.Len(t, keys, 2)
	for _, k := range keys {
		assert.Positive(t, mr.TTL(k), "counter key %s must expire", k)
	}

	ok, err := c.Allow(ctx, "sns", 2)
	require.NoError(t, err)
	assert.True(t, ok, "providers count independently")
}

func TestAllow_RedisDownReturnsError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, mr := newCounter(t)

	require.NoError(t, c.Record(ctx, "bc"))
	mr.Close()

	_, err := c.Allow(ctx, "bc", 2)
	assert.Error(t, err)
}
