// AngelaMos | 2026
// cache.go

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	AllUsers     = "allUsers"
	UsersPage    = "usersPage"
	User         = "user"
	AllProducts  = "allProducts"
	ProductsPage = "productsPage"
	ProductID    = "productId"
	ProductName  = "productName"
)

var (
	UserCaches    = []string{AllUsers, UsersPage, User}
	ProductCaches = []string{AllProducts, ProductsPage, ProductID, ProductName}
)

// Store is a set of named caches, each holding JSON values by key.
type Store interface {
	Get(ctx context.Context, name, key string, dest any) (bool, error)
	Set(ctx context.Context, name, key string, value any) error
	Evict(ctx context.Context, name string, keys ...string) error
	Clear(ctx context.Context, names ...string) error
}

type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(name, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, name, key)
}

func (s *RedisStore) Get(
	ctx context.Context,
	name, key string,
	dest any,
) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(name, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", name, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", name, err)
	}

	return true, nil
}

func (s *RedisStore) Set(
	ctx context.Context,
	name, key string,
	value any,
) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", name, err)
	}

	if err := s.client.Set(ctx, s.key(name, key), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", name, err)
	}

	return nil
}

func (s *RedisStore) Evict(
	ctx context.Context,
	name string,
	keys ...string,
) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(name, k)
	}

	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("cache evict %s: %w", name, err)
	}

	return nil
}

const clearBatch = 200

// Clear drops every entry of the named caches. Keys are collected over the
// full SCAN before any are unlinked, since deleting mid-iteration makes
// SCAN skip entries.
func (s *RedisStore) Clear(ctx context.Context, names ...string) error {
	for _, name := range names {
		var keys []string

		iter := s.client.Scan(ctx, 0, s.key(name, "*"), clearBatch).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("cache scan %s: %w", name, err)
		}

		for batch := range slices.Chunk(keys, clearBatch) {
			if err := s.client.Unlink(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("cache clear %s: %w", name, err)
			}
		}
	}

	return nil
}

// Nop never stores anything. Used when caching is disabled.
type Nop struct{}

func (Nop) Get(context.Context, string, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, string, any) error         { return nil }
func (Nop) Evict(context.Context, string, ...string) error         { return nil }
func (Nop) Clear(context.Context, ...string) error                 { return nil }

// Fetch returns the cached value for name/key, or calls load and stores the
// result. Cache failures are logged and fall through to load.
func Fetch[T any](
	ctx context.Context,
	store Store,
	name, key string,
	load func(context.Context) (T, error),
) (T, error) {
	var cached T

	hit, err := store.Get(ctx, name, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "cache", name, "error", err)
	}
	if hit {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := store.Set(ctx, name, key, value); err != nil {
		slog.WarnContext(ctx, "cache write failed", "cache", name, "error", err)
	}

	return value, nil
}

// Invalidation is the set of evictions and clears one mutation requires.
type Invalidation struct {
	Evict map[string][]string
	Clear []string
}

// Apply runs the invalidation and only logs failures, since the database
// write it follows has already committed.
func (inv Invalidation) Apply(ctx context.Context, store Store) {
	for name, keys := range inv.Evict {
		if err := store.Evict(ctx, name, keys...); err != nil {
			slog.WarnContext(ctx, "cache evict failed", "cache", name, "error", err)
		}
	}

	if len(inv.Clear) == 0 {
		return
	}

	if err := store.Clear(ctx, inv.Clear...); err != nil {
		slog.WarnContext(ctx, "cache clear failed", "caches", inv.Clear, "error", err)
	}
}
