// Package quota enforces per-provider daily send limits. Counters are keyed
// by provider and UTC day; a provider at its limit disappears from routing
// until midnight.
package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyTTL keeps counters around a little past their day so late reads still
// see them; correctness comes from the date in the key, not the expiry.
const keyTTL = 26 * time.Hour

// RedisCounter implements ports.QuotaCounter on Redis.
type RedisCounter struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisCounter wraps an existing Redis client.
func NewRedisCounter(rdb *redis.Client) *RedisCounter {
	return &RedisCounter{rdb: rdb, now: time.Now}
}

// Allow reports whether providerID is under limit for the current UTC day.
// limit <= 0 means unlimited.
func (c *RedisCounter) Allow(ctx context.Context, providerID string, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	val, err := c.rdb.Get(ctx, c.key(providerID)).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("quota read: %w", err)
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return false, fmt.Errorf("quota parse %q: %w", val, err)
	}
	return n < limit, nil
}

// Record counts one accepted send against today's total.
func (c *RedisCounter) Record(ctx context.Context, providerID string) error {
	key := c.key(providerID)

	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("quota incr: %w", err)
	}
	return nil
}

func (c *RedisCounter) key(providerID string) string {
	return "sms:quota:" + providerID + ":" + c.now().UTC().Format("20060102")
}
