package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the key only while it still holds our owner value.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// UnlockFunc releases a lock acquired by TryLock.
type UnlockFunc func(ctx context.Context) error

// TryLock attempts to take key for ttl without blocking.
// ok is false when another owner holds the lock. The lock expires on its own
// after ttl if the holder never releases it.
func (c *Cache) TryLock(ctx context.Context, key string, ttl time.Duration) (unlock UnlockFunc, ok bool, err error) {
	fullKey := lockKeyPrefix + key
	owner := ulid.Make().String()

	acquired, err := c.client.SetNX(ctx, fullKey, owner, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !acquired {
		return nil, false, nil
	}

	unlock = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, c.client, []string{fullKey}, owner).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", fullKey, err)
		}
		return nil
	}

	return unlock, true, nil
}
