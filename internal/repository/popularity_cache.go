package repository

import (
	"context"
	"encoding/json"
	"time"
	"uplook_backend/internal/model"
	"uplook_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const popularCacheKey = "recommend:popular:30d"

// 缓存的排行长度，个人排除后再截取
const popularCacheDepth = 50

type popularitySource interface {
	PopularContent(ctx context.Context, since time.Time, limit int) ([]model.ContentPopularity, error)
}

// PopularityCache 用 Redis 缓存 30 天热门排行，Redis 不可用时直接查库
type PopularityCache struct {
	Redis  *redis.Client
	Source popularitySource
	TTL    time.Duration
}

func NewPopularityCache(rdb *redis.Client, source popularitySource, ttl time.Duration) *PopularityCache {
	return &PopularityCache{Redis: rdb, Source: source, TTL: ttl}
}

func (c *PopularityCache) PopularContent(ctx context.Context, since time.Time, limit int) ([]model.ContentPopularity, error) {
	if limit > popularCacheDepth {
		return c.Source.PopularContent(ctx, since, limit)
	}

	if c.Redis != nil {
		val, err := c.Redis.Get(ctx, popularCacheKey).Result()
		if err == nil {
			var rows []model.ContentPopularity
			if jsonErr := json.Unmarshal([]byte(val), &rows); jsonErr == nil {
				return head(rows, limit), nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("popular cache read failed", zap.Error(err))
		}
	}

	rows, err := c.Source.PopularContent(ctx, since, popularCacheDepth)
	if err != nil {
		return nil, err
	}

	if c.Redis != nil && c.TTL > 0 {
		if payload, err := json.Marshal(rows); err == nil {
			if err := c.Redis.Set(ctx, popularCacheKey, payload, c.TTL).Err(); err != nil {
				logger.Log.Warn("popular cache write failed", zap.Error(err))
			}
		}
	}
	return head(rows, limit), nil
}

func (c *PopularityCache) Invalidate(ctx context.Context) {
	if c.Redis == nil {
		return
	}
	c.Redis.Del(ctx, popularCacheKey)
}

func head(rows []model.ContentPopularity, n int) []model.ContentPopularity {
	if n >= 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
