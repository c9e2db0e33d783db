// internal/routing/cache.go
package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"telecom-query-gateway/internal/common/config"
	"telecom-query-gateway/internal/common/logger"
	"telecom-query-gateway/internal/models"
)

// ClassificationCache memoizes classification results in Redis, keyed by
// a digest of the normalized request text. Classification is cheap, so
// the cache is strictly an optimization: every failure degrades to
// classifying directly, and entries are TTL-bound rather than assumed
// fresh.
type ClassificationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewClassificationCache(cfg config.CacheConfig, log logger.Logger) *ClassificationCache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	return newClassificationCache(client, cfg.TTLDuration(), log)
}

func newClassificationCache(client *redis.Client, ttl time.Duration, log logger.Logger) *ClassificationCache {
	return &ClassificationCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "classification-cache"}),
	}
}

func cacheKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return "gateway:cls:" + hex.EncodeToString(sum[:])
}

func (c *ClassificationCache) Get(ctx context.Context, normalized string) (models.ClassificationResult, bool) {
	raw, err := c.client.Get(ctx, cacheKey(normalized)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache lookup failed", map[string]interface{}{"error": err.Error()})
		}
		return models.ClassificationResult{}, false
	}
	var cls models.ClassificationResult
	if err := json.Unmarshal([]byte(raw), &cls); err != nil {
		return models.ClassificationResult{}, false
	}
	return cls, true
}

func (c *ClassificationCache) Set(ctx context.Context, normalized string, cls models.ClassificationResult) {
	raw, err := json.Marshal(cls)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(normalized), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("cache store failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *ClassificationCache) Close() error {
	return c.client.Close()
}
