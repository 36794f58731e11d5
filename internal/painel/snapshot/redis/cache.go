// Package redis implements the last-known snapshot cache on Redis, for
// fleets where several kiosks share one cache host.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
)

// DefaultExpiry bounds how long a snapshot outlives its last refresh
const DefaultExpiry = 7 * 24 * time.Hour

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Cache implements snapshot.Cache using Redis
type Cache struct {
	client *redis.Client
	expiry time.Duration
}

// NewCache connects to Redis with opts
func NewCache(opts Options) *Cache {
	return NewCacheWithClient(redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}))
}

// NewCacheWithClient wraps an existing client
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{client: client, expiry: DefaultExpiry}
}

// Ping checks the connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) key(id identity.DeviceID) string {
	return fmt.Sprintf("painel:snapshot:%s", id)
}

// SaveSnapshot implements snapshot.Cache
func (c *Cache) SaveSnapshot(ctx context.Context, id identity.DeviceID, snap *v1alpha1.ContentSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key(id), data, c.expiry).Err(); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot implements snapshot.Cache
func (c *Cache) LoadSnapshot(ctx context.Context, id identity.DeviceID) (*v1alpha1.ContentSnapshot, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, perrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap v1alpha1.ContentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snap, nil
}

// DeleteSnapshot removes the cached snapshot of id
func (c *Cache) DeleteSnapshot(ctx context.Context, id identity.DeviceID) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
