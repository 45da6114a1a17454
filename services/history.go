package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
	"github.com/sohaibmokhliss/spotifyPLdownloader/types"
)

const historyKey = "download_history"

// HistoryStore keeps a bounded log of per-track outcomes, newest first
type HistoryStore interface {
	Record(ctx context.Context, entry types.HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error)
}

// NewHistoryStore builds the store selected by cfg.Type
func NewHistoryStore(cfg config.HistoryConfig) (HistoryStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryHistory(cfg.Limit), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis history requires an address")
		}
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		return NewRedisHistory(client, cfg.Limit), nil
	default:
		return nil, fmt.Errorf("unknown history type: %s", cfg.Type)
	}
}

// MemoryHistory is an in-process ring of history entries
type MemoryHistory struct {
	mu      sync.RWMutex
	entries []types.HistoryEntry
	next    int
	full    bool
}

// NewMemoryHistory creates a ring holding up to limit entries
func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = config.DefaultHistoryLimit
	}
	return &MemoryHistory{entries: make([]types.HistoryEntry, limit)}
}

func (m *MemoryHistory) Record(_ context.Context, entry types.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = entry
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *MemoryHistory) Recent(_ context.Context, limit int) ([]types.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	if m.full {
		size = len(m.entries)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	result := make([]types.HistoryEntry, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.entries)) % len(m.entries)
		result = append(result, m.entries[idx])
	}
	return result, nil
}

// RedisHistory stores entries as JSON in a capped Redis list
type RedisHistory struct {
	client *redis.Client
	limit  int
}

func NewRedisHistory(client *redis.Client, limit int) *RedisHistory {
	if limit <= 0 {
		limit = config.DefaultHistoryLimit
	}
	return &RedisHistory{client: client, limit: limit}
}

func (r *RedisHistory) Record(ctx context.Context, entry types.HistoryEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, historyKey, b)
	pipe.LTrim(ctx, historyKey, 0, int64(r.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

func (r *RedisHistory) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}

	values, err := r.client.LRange(ctx, historyKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]types.HistoryEntry, 0, len(values))
	for _, v := range values {
		var entry types.HistoryEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Ping checks the Redis connection
func (r *RedisHistory) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisHistory) Close() error {
	return r.client.Close()
}
