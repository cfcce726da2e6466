package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlacklist(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBlacklist()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	require.NoError(t, b.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, b.Revoke(ctx, "stale", now.Add(-time.Minute)))

	revoked, err := b.Revoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = b.Revoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = b.Revoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, b.Revoke(ctx, "b", now.Add(time.Minute)))
	assert.Len(t, b.entries, 1)
}

func TestNewRedisBlacklistRejectsBadURL(t *testing.T) {
	_, err := NewRedisBlacklist(context.Background(), "not-a-url")
	assert.Error(t, err)
}

var _ Blacklist = (*RedisBlacklist)(nil)
var _ Blacklist = (*MemoryBlacklist)(nil)
