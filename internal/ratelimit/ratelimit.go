package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldown allows one action per key per window. A nil Redis client disables limiting.
type Cooldown struct {
	rdb *redis.Client
}

func NewCooldown(rdb *redis.Client) *Cooldown {
	return &Cooldown{rdb: rdb}
}

func cooldownKey(action, subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, subject)
}

// Acquire reports whether subject may perform action now, starting the cooldown if so.
func (c *Cooldown) Acquire(ctx context.Context, action, subject string, window time.Duration) (bool, error) {
	if c == nil || c.rdb == nil || window <= 0 {
		return true, nil
	}

	wasSet, err := c.rdb.SetNX(ctx, cooldownKey(action, subject), "locked", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	return wasSet, nil
}

// Remaining is how long until subject may perform action again.
func (c *Cooldown) Remaining(ctx context.Context, action, subject string) (time.Duration, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	ttl, err := c.rdb.TTL(ctx, cooldownKey(action, subject)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Release clears the cooldown, e.g. when the guarded action failed.
func (c *Cooldown) Release(ctx context.Context, action, subject string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, cooldownKey(action, subject)).Err()
}
