// Package cache tracks revoked session tokens until they expire.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const blacklistPrefix = "blacklist:"

// Blacklist remembers revoked token IDs until their expiry.
type Blacklist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisBlacklist struct {
	client *redis.Client
}

// NewRedisBlacklist connects to url (redis://…) and checks the connection.
func NewRedisBlacklist(ctx context.Context, url string) (*RedisBlacklist, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisBlacklist{client: client}, nil
}

func (b *RedisBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistPrefix+tokenID, 1, ttl).Err()
}

func (b *RedisBlacklist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *RedisBlacklist) Close() error {
	return b.client.Close()
}

// MemoryBlacklist is the single-process stand-in used when no Redis is configured.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time), now: time.Now}
}

func (b *MemoryBlacklist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for id, exp := range b.entries {
		if !exp.After(now) {
			delete(b.entries, id)
		}
	}
	if expiresAt.After(now) {
		b.entries[tokenID] = expiresAt
	}
	return nil
}

func (b *MemoryBlacklist) Revoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	exp, ok := b.entries[tokenID]
	return ok && exp.After(b.now()), nil
}
