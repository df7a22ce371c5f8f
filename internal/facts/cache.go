package facts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"confnode/internal/domain"

	backend "github.com/redis/go-redis/v9"
)

// DefaultCacheTTL bounds how long a cached snapshot is served
const DefaultCacheTTL = 5 * time.Minute

// Cache is a Redis read-through cache in front of another store
type Cache struct {
	inner  Store
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithTTL sets the expiration for cached snapshots
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix
func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithCacheLogger sets the logger used for cache failures
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates a cache connected to the Redis server at address
func NewCache(inner Store, address, password string, db int, opts ...CacheOption) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewCacheFromClient(inner, rdb, opts...)
}

// NewCacheFromClient creates a cache from an existing client
func NewCacheFromClient(inner Store, client *backend.Client, opts ...CacheOption) *Cache {
	c := &Cache{
		inner:  inner,
		client: client,
		prefix: "confnode:facts:",
		ttl:    DefaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name wraps the inner store's name
func (c *Cache) Name() string {
	return "redis(" + c.inner.Name() + ")"
}

func (c *Cache) key(name string) string {
	return c.prefix + name
}

// Find serves a cached snapshot or reads through to the inner store.
// Redis failures fall back to the inner store. Expired snapshots are
// never served from or written to the cache.
func (c *Cache) Find(ctx context.Context, name string, env *domain.Environment) (*domain.Facts, error) {
	now := time.Now()

	val, err := c.client.Get(ctx, c.key(name)).Bytes()
	switch {
	case err == nil:
		var facts domain.Facts
		if err := json.Unmarshal(val, &facts); err != nil {
			c.logger.Warn("discarding corrupt cached facts", "node", name)
		} else if !facts.Expired(now) {
			return &facts, nil
		}
	case !errors.Is(err, backend.Nil):
		c.logger.Warn("facts cache read failed", "node", name, "error", err)
	}

	facts, err := c.inner.Find(ctx, name, env)
	if err != nil || facts == nil {
		return facts, err
	}

	ttl := c.ttlFor(facts, now)
	if ttl <= 0 {
		return facts, nil
	}
	if data, err := json.Marshal(facts); err == nil {
		if err := c.client.Set(ctx, c.key(name), data, ttl).Err(); err != nil {
			c.logger.Warn("facts cache write failed", "node", name, "error", err)
		}
	}
	return facts, nil
}

// ttlFor caps the cache TTL at the time left before facts expire
func (c *Cache) ttlFor(facts *domain.Facts, now time.Time) time.Duration {
	if facts.Expiration == nil {
		return c.ttl
	}
	left := facts.Expiration.Sub(now)
	if left < c.ttl {
		return left
	}
	return c.ttl
}

// Save writes through to the inner store and drops the cached snapshot
func (c *Cache) Save(ctx context.Context, facts *domain.Facts) error {
	return c.SaveForEnvironment(ctx, facts, "")
}

// SaveForEnvironment is Save for inner stores that record the upload
// environment
func (c *Cache) SaveForEnvironment(ctx context.Context, facts *domain.Facts, environment string) error {
	var err error
	switch inner := c.inner.(type) {
	case EnvironmentSaver:
		err = inner.SaveForEnvironment(ctx, facts, environment)
	case Saver:
		err = inner.Save(ctx, facts)
	default:
		return fmt.Errorf("%w: facts source %s does not accept uploads", ErrReadOnly, c.inner.Name())
	}
	if err != nil {
		return err
	}
	return c.Invalidate(ctx, facts.Name)
}

// Delete removes the snapshot from the inner store and the cache
func (c *Cache) Delete(ctx context.Context, name string) error {
	if err := DeleteFrom(ctx, c.inner, name); err != nil {
		return err
	}
	return c.Invalidate(ctx, name)
}

// Invalidate drops the cached snapshot for name
func (c *Cache) Invalidate(ctx context.Context, name string) error {
	if err := c.client.Del(ctx, c.key(name)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached facts: %w", err)
	}
	return nil
}

// Close closes the redis client and the inner store
func (c *Cache) Close() error {
	err := c.client.Close()
	if innerErr := Close(c.inner); innerErr != nil && err == nil {
		err = innerErr
	}
	return err
}
