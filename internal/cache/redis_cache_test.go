package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/LeventeLantos/webhook-inbox/internal/model"
)

func TestRedisCache_StoreMessage_Success(t *testing.T) {
	t.Parallel()

	// Start in-memory Redis
	mr := miniredis.RunT(t)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	ttl := 10 * time.Second
	c := NewRedisCache(rdb, ttl)

	statusTime := int64(1700000005)
	msg := model.Message{
		ID:         "local-1700000000-919900112233",
		From:       "916369114503",
		WaID:       "919900112233",
		Text:       "hello back",
		Timestamp:  1700000000,
		Status:     model.Sent,
		StatusTime: &statusTime,
		Type:       "text",
	}

	if err := c.StoreMessage(context.Background(), msg); err != nil {
		t.Fatalf("StoreMessage() error: %v", err)
	}

	key := "msg:local-1700000000-919900112233"

	if !mr.Exists(key) {
		t.Fatalf("expected key %q to exist", key)
	}

	ttlRemaining := mr.TTL(key)
	if ttlRemaining <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttlRemaining)
	}

	raw, err := mr.Get(key)
	if err != nil {
		t.Fatalf("failed to get key %q: %v", key, err)
	}

	var got model.Message
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("failed to unmarshal value: %v", err)
	}

	if got.ID != msg.ID || got.Text != msg.Text || got.Status != msg.Status {
		t.Fatalf("cached record differs: %+v vs %+v", got, msg)
	}
	if got.StatusTime == nil || *got.StatusTime != statusTime {
		t.Fatalf("expected status time %d, got %v", statusTime, got.StatusTime)
	}
}

func TestRedisCache_StoreMessage_RedisDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	c := NewRedisCache(rdb, time.Minute)
	if err := c.StoreMessage(context.Background(), model.Message{ID: "m1"}); err == nil {
		t.Fatalf("expected error when redis is unreachable")
	}
}
