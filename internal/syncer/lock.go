package syncer

import (
	"context"
	"time"

	"github.com/leadpilot/leadsync/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes sync passes per campaign across processes. The lock is an
// optimization against wasted work, not a correctness requirement: the
// store's uniqueness constraints already make concurrent passes safe.
type Locker interface {
	// Acquire returns ok=false when another pass holds the campaign. On
	// success the returned release func must be called when the pass ends.
	Acquire(ctx context.Context, campaignID string, ttl time.Duration) (release func(), ok bool, err error)
}

const lockKeyPrefix = "leadsync:run:"

// RedisLocker implements Locker on a shared redis.
type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) Acquire(ctx context.Context, campaignID string, ttl time.Duration) (func(), bool, error) {
	key := lockKeyPrefix + campaignID
	token := uuid.NewString()
	ok, err := utils.AcquireRunLock(ctx, l.rdb, key, token, ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		// Release outlives a canceled run context.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = utils.ReleaseRunLock(rctx, l.rdb, key, token)
	}
	return release, true, nil
}
