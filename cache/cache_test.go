package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rbaliyan/tagstore"
)

func newTestCache(t *testing.T, opts ...Option) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c, err := New(client, opts...)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return c, mr
}

func TestCacheRoundtrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	tags := []*tagstore.Tag{
		{ID: 64, Name: "work", Color: 0xFF0000, ItemCount: 12, UnreadCount: 3, Listed: true},
		{ID: 65, Name: "expiring", Policy: tagstore.NewRetentionPolicy(24 * time.Hour)},
	}
	if err := c.Put(ctx, 7, tags); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := c.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(got))
	}
	if got[0].ID != 64 || got[0].Name != "work" || got[0].ItemCount != 12 {
		t.Errorf("first tag mismatch: %+v", got[0])
	}
	if got[1].Policy == nil || got[1].Policy.Lifetime != 24*time.Hour {
		t.Errorf("policy mismatch: %+v", got[1].Policy)
	}
}

func TestCacheMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	if _, err := c.Get(ctx, 7); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestCacheMailboxIsolation(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	if err := c.Put(ctx, 7, []*tagstore.Tag{{ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := c.Get(ctx, 8); !errors.Is(err, ErrMiss) {
		t.Errorf("expected miss for other mailbox, got %v", err)
	}
}

func TestCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	if err := c.Put(ctx, 7, []*tagstore.Tag{{ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Invalidate(ctx, 7); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := c.Get(ctx, 7); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after invalidate, got %v", err)
	}
}

func TestCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, WithTTL(time.Minute))

	if err := c.Put(ctx, 7, []*tagstore.Tag{{ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := c.Get(ctx, 7); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	mr.Set("tagstore:tags:7", "not json")
	if _, err := c.Get(ctx, 7); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss for corrupt entry, got %v", err)
	}
	// The corrupt entry is dropped so the next Put starts clean.
	if mr.Exists("tagstore:tags:7") {
		t.Error("corrupt entry was not deleted")
	}
}

func TestCacheKeyPrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, WithKeyPrefix("custom:"))

	if err := c.Put(ctx, 7, []*tagstore.Tag{{ID: 1, Name: "a"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("custom:7") {
		t.Error("expected key under custom prefix")
	}
}

func TestCacheRequiresClient(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil client")
	}
}
