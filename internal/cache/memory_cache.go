package cache

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache реализует SnapshotCache в памяти процесса.
// Используется, когда Redis не настроен.
type MemoryCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]memoryEntry

	metrics      *CacheMetrics
	metricsMutex sync.RWMutex
	latency      latencyStats
}

// NewMemoryCache создаёт кеш с заданным TTL (0: без истечения)
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
		metrics: &CacheMetrics{LastUpdate: time.Now()},
	}
}

func (m *MemoryCache) Put(ctx context.Context, sessionID string, data []byte) error {
	if sessionID == "" {
		return ErrInvalidKey
	}
	start := time.Now()
	defer m.latency.record(start)

	e := memoryEntry{data: slices.Clone(data)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[Key(sessionID)] = e
	m.mu.Unlock()
	atomic.AddInt64(&m.metrics.Writes, 1)
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, sessionID string) ([]byte, error) {
	if sessionID == "" {
		return nil, ErrInvalidKey
	}
	start := time.Now()
	defer m.latency.record(start)

	atomic.AddInt64(&m.metrics.TotalRequests, 1)
	m.mu.RLock()
	e, ok := m.entries[Key(sessionID)]
	m.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && !m.now().Before(e.expires)) {
		atomic.AddInt64(&m.metrics.CacheMisses, 1)
		return nil, ErrCacheMiss
	}
	atomic.AddInt64(&m.metrics.CacheHits, 1)
	return slices.Clone(e.data), nil
}

func (m *MemoryCache) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.entries, Key(sessionID))
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Close() error { return nil }

func (m *MemoryCache) GetMetrics() *CacheMetrics {
	return snapshotMetrics(m.metrics, &m.metricsMutex, &m.latency)
}
