package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SummaryCache keeps the last summary per scope so the portal can show "last
// sync" without re-running anything. Best-effort: cache failures are logged
// and dropped.
type SummaryCache interface {
	Save(ctx context.Context, scope string, s Summary) error
	Load(ctx context.Context, scope string) (Summary, bool, error)
}

const (
	summaryKeyPrefix = "leadsync:last_summary:"
	summaryTTL       = 7 * 24 * time.Hour
)

type RedisSummaryCache struct {
	rdb *redis.Client
}

func NewRedisSummaryCache(rdb *redis.Client) *RedisSummaryCache {
	return &RedisSummaryCache{rdb: rdb}
}

func (c *RedisSummaryCache) Save(ctx context.Context, scope string, s Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, summaryKeyPrefix+scope, body, summaryTTL).Err()
}

func (c *RedisSummaryCache) Load(ctx context.Context, scope string) (Summary, bool, error) {
	body, err := c.rdb.Get(ctx, summaryKeyPrefix+scope).Bytes()
	if errors.Is(err, redis.Nil) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, err
	}
	var s Summary
	if err := json.Unmarshal(body, &s); err != nil {
		return Summary{}, false, err
	}
	return s, true, nil
}
