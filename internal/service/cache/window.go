package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type windowEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryWindow is an in-process fixed-window counter with the same contract
// as CacheService.IncrWindow. Used when redis is not configured; counts are
// per process.
type MemoryWindow struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, windowEntry]
	now     func() time.Time
}

// NewMemoryWindow keeps at most size keys, each for at most maxWindow.
func NewMemoryWindow(size int, maxWindow time.Duration) *MemoryWindow {
	return &MemoryWindow{
		entries: expirable.NewLRU[string, windowEntry](size, nil, maxWindow),
		now:     time.Now,
	}
}

func (m *MemoryWindow) IncrWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries.Get(key)
	if !ok || !now.Before(entry.resetAt) {
		entry = windowEntry{resetAt: now.Add(window)}
	}
	entry.count++
	m.entries.Add(key, entry)
	return entry.count, entry.resetAt.Sub(now), nil
}
