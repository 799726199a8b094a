package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, ttl), mr
}

func TestCacheSetGet(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "openai", ""); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.Set(ctx, "openai", "", []string{"gpt-4o", "gpt-4o-mini"})

	models, ok := cache.Get(ctx, "openai", "")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if len(models) != 2 || models[0] != "gpt-4o" {
		t.Fatalf("unexpected models %v", models)
	}
}

func TestCacheKeysIncludeBaseURL(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "vllm", "http://a:8000/v1", []string{"model-a"})

	if _, ok := cache.Get(ctx, "vllm", "http://b:8000/v1"); ok {
		t.Fatal("different base URLs must not share cache entries")
	}
}

func TestCacheEntriesExpire(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "gemini", "", []string{"gemini-1.5-pro"})
	mr.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx, "gemini", ""); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestNilClientDisablesCache(t *testing.T) {
	cache := New(nil, time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "openai", "", []string{"gpt-4o"})
	if _, ok := cache.Get(ctx, "openai", ""); ok {
		t.Fatal("nil redis client must behave as a pass-through")
	}
}
