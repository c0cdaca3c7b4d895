package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/platform/logger"
)

// StatsCache keeps lesson aggregates in redis for a short TTL so the read
// path does not re-run the aggregation queries on every request. A nil
// *StatsCache is a valid no-op cache; callers never need to branch.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewStatsCache(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl, log: log.With("component", "stats_cache")}
}

func statsKey(lessonID string) string {
	return "lesson:stats:" + lessonID
}

func (c *StatsCache) Get(ctx context.Context, lessonID string) (*lessons.Stats, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, statsKey(lessonID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("stats cache read failed", "lesson_id", lessonID, "error", err)
		}
		return nil, false
	}
	var s lessons.Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *StatsCache) Set(ctx context.Context, lessonID string, s lessons.Stats) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, statsKey(lessonID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("stats cache write failed", "lesson_id", lessonID, "error", err)
	}
}

// Invalidate drops the cached aggregates after a purchase or review changes.
func (c *StatsCache) Invalidate(ctx context.Context, lessonID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, statsKey(lessonID)).Err(); err != nil {
		c.log.Warn("stats cache invalidate failed", "lesson_id", lessonID, "error", err)
	}
}
