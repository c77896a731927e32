package cache

import (
	"context"
	"time"
)

// SnapshotCache хранит последний снапшот каждой сессии, чтобы читатели
// (REST-реплики, дашборды) не обращались к симуляции напрямую.
//
// Использование:
//
//	c := NewRedisCache(config)
//	err := c.Put(ctx, "session-1", data)
//	data, err = c.Get(ctx, "session-1")
type SnapshotCache interface {
	// Put сохраняет снапшот с TTL из конфигурации
	Put(ctx context.Context, sessionID string, data []byte) error

	// Get возвращает снапшот или ErrCacheMiss
	Get(ctx context.Context, sessionID string) ([]byte, error)

	// Delete удаляет снапшот сессии
	Delete(ctx context.Context, sessionID string) error

	Close() error

	// GetMetrics возвращает метрики кеша
	GetMetrics() *CacheMetrics
}

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`

	Writes       int64   `json:"writes"`
	WriteErrors  int64   `json:"write_errors"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`

	LastUpdate time.Time `json:"last_update"`
}

// CacheConfig содержит конфигурацию для кеша.
type CacheConfig struct {
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// TTL снапшота, 0 отключает истечение
	TTL time.Duration

	MaxConnections int
	PoolTimeout    time.Duration
}

// KeyPrefix это префикс ключей снапшотов
const KeyPrefix = "sim:snapshot:"

// Key возвращает ключ снапшота сессии
func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

// Ошибки кеша
var (
	ErrCacheMiss  = NewCacheError("cache miss")
	ErrInvalidKey = NewCacheError("invalid key")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return err == ErrCacheMiss
}
