package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

func entry(i int) types.HistoryEntry {
	return types.HistoryEntry{JobID: "job", Track: fmt.Sprintf("Track %d", i), Success: i%2 == 0, Timestamp: time.Unix(int64(i), 0).UTC()}
}

func TestMemoryHistory(t *testing.T) {
	h := NewMemoryHistory(3)
	ctx := context.Background()

	entries, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.Record(ctx, entry(i)))
	}

	entries, err = h.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Track 5", entries[0].Track)
	assert.Equal(t, "Track 4", entries[1].Track)
	assert.Equal(t, "Track 3", entries[2].Track)

	entries, err = h.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestNewHistoryStore(t *testing.T) {
	store, err := NewHistoryStore(config.HistoryConfig{Type: "memory", Limit: 10})
	require.NoError(t, err)
	assert.IsType(t, &MemoryHistory{}, store)

	_, err = NewHistoryStore(config.HistoryConfig{Type: "redis"})
	assert.Error(t, err)

	_, err = NewHistoryStore(config.HistoryConfig{Type: "sqlite"})
	assert.Error(t, err)
}

// Needs a reachable Redis, e.g. REDIS_TEST_ADDR=localhost:6379
func TestRedisHistory(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	h := NewRedisHistory(client, 3)
	defer h.Close()

	ctx := context.Background()
	require.NoError(t, h.Ping(ctx))
	require.NoError(t, client.Del(ctx, historyKey).Err())

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.Record(ctx, entry(i)))
	}

	entries, err := h.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, entry(5), entries[0])
	assert.Equal(t, "Track 3", entries[2].Track)
}
