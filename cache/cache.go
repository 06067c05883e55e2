// Package cache provides a Redis-backed cache for per-mailbox tag lists.
//
// The tag list is read on every mailbox open but changes rarely, so callers
// front GetAllTags with this cache and invalidate on any tag mutation. Cache
// misses and Redis failures both surface as ErrMiss; the store remains the
// source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rbaliyan/tagstore"
)

// DefaultTTL is how long a cached tag list stays valid without invalidation.
const DefaultTTL = 15 * time.Minute

// ErrMiss is returned when no cached tag list exists for the mailbox.
var ErrMiss = errors.New("cache: miss")

// Cache caches per-mailbox tag lists in Redis.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the Redis key prefix. Defaults to "tagstore:tags:".
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Cache over the given Redis client.
func New(client redis.UniversalClient, opts ...Option) (*Cache, error) {
	if client == nil {
		return nil, fmt.Errorf("cache: redis client is required")
	}
	c := &Cache{
		client: client,
		ttl:    DefaultTTL,
		prefix: "tagstore:tags:",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Cache) key(mailboxID int64) string {
	return c.prefix + strconv.FormatInt(mailboxID, 10)
}

// Get returns the cached tag list for the mailbox, or ErrMiss. Redis
// failures and corrupt entries are logged and degrade to a miss.
func (c *Cache) Get(ctx context.Context, mailboxID int64) ([]*tagstore.Tag, error) {
	data, err := c.client.Get(ctx, c.key(mailboxID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("tag cache read failed", "error", err, "mailbox_id", mailboxID)
		}
		return nil, ErrMiss
	}

	var tags []*tagstore.Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		c.logger.Warn("tag cache entry corrupt, dropping", "error", err, "mailbox_id", mailboxID)
		c.client.Del(ctx, c.key(mailboxID))
		return nil, ErrMiss
	}
	return tags, nil
}

// Put stores the tag list for the mailbox.
func (c *Cache) Put(ctx context.Context, mailboxID int64, tags []*tagstore.Tag) error {
	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("cache: encode tags: %w", err)
	}
	if err := c.client.Set(ctx, c.key(mailboxID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: store tags: %w", err)
	}
	return nil
}

// Invalidate drops the cached tag list for the mailbox. Callers invoke this
// after any tag create, rename, delete, or metadata change commits.
func (c *Cache) Invalidate(ctx context.Context, mailboxID int64) error {
	if err := c.client.Del(ctx, c.key(mailboxID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate tags: %w", err)
	}
	return nil
}
