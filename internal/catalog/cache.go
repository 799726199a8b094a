// Package catalog caches provider model listings in redis. The catalog
// path is tolerant end to end: a missing or unreachable redis just means
// every lookup goes straight to the provider.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New builds a catalog cache. rdb may be nil, which disables caching.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func key(provider, baseURL string) string {
	return "models:" + provider + ":" + baseURL
}

func (c *Cache) Get(ctx context.Context, provider, baseURL string) ([]string, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, key(provider, baseURL)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("provider", provider).Msg("catalog cache read failed")
		}
		return nil, false
	}
	var models []string
	if err := json.Unmarshal(raw, &models); err != nil {
		return nil, false
	}
	return models, true
}

func (c *Cache) Set(ctx context.Context, provider, baseURL string, models []string) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(models)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(provider, baseURL), raw, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("provider", provider).Msg("catalog cache write failed")
	}
}
