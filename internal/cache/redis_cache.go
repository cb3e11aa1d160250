package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LeventeLantos/webhook-inbox/internal/model"
)

// RedisCache mirrors freshly persisted records keyed by message id. It is a
// write-through convenience for downstream consumers; the store stays the
// source of truth and reads never go through here.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) StoreMessage(ctx context.Context, m model.Message) error {
	key := fmt.Sprintf("msg:%s", m.ID)

	b, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
