package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisCache реализует SnapshotCache поверх Redis.
type RedisCache struct {
	client *redis.Client
	config *CacheConfig

	metrics      *CacheMetrics
	metricsMutex sync.RWMutex
	latency      latencyStats
}

// NewRedisCache подключается к Redis и проверяет соединение.
func NewRedisCache(config *CacheConfig) (*RedisCache, error) {
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}
	if config.PoolTimeout == 0 {
		config.PoolTimeout = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		PoolTimeout:  config.PoolTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis snapshot cache initialized: %s (TTL %v)", config.RedisURL, config.TTL)
	return &RedisCache{
		client:  rdb,
		config:  config,
		metrics: &CacheMetrics{LastUpdate: time.Now()},
	}, nil
}

// Put сохраняет снапшот сессии
func (r *RedisCache) Put(ctx context.Context, sessionID string, data []byte) error {
	if sessionID == "" {
		return ErrInvalidKey
	}
	start := time.Now()
	defer r.latency.record(start)

	atomic.AddInt64(&r.metrics.Writes, 1)
	if err := r.client.Set(ctx, Key(sessionID), data, r.config.TTL).Err(); err != nil {
		atomic.AddInt64(&r.metrics.WriteErrors, 1)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Get получает снапшот сессии
func (r *RedisCache) Get(ctx context.Context, sessionID string) ([]byte, error) {
	if sessionID == "" {
		return nil, ErrInvalidKey
	}
	start := time.Now()
	defer r.latency.record(start)

	atomic.AddInt64(&r.metrics.TotalRequests, 1)
	val, err := r.client.Get(ctx, Key(sessionID)).Bytes()
	if err == nil {
		atomic.AddInt64(&r.metrics.CacheHits, 1)
		return val, nil
	}
	atomic.AddInt64(&r.metrics.CacheMisses, 1)
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	logging.Error("Redis Get error for session %s: %v", sessionID, err)
	return nil, fmt.Errorf("redis get error: %w", err)
}

// Delete удаляет снапшот сессии
func (r *RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (r *RedisCache) Close() error {
	if err := r.client.Close(); err != nil {
		logging.Error("Error closing Redis connection: %v", err)
		return err
	}
	logging.Info("Redis cache closed")
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (r *RedisCache) GetMetrics() *CacheMetrics {
	return snapshotMetrics(r.metrics, &r.metricsMutex, &r.latency)
}

// latencyStats накапливает задержки операций
type latencyStats struct {
	sum   int64 // в наносекундах
	count int64
	max   int64
}

func (l *latencyStats) record(start time.Time) {
	latency := time.Since(start).Nanoseconds()
	atomic.AddInt64(&l.sum, latency)
	atomic.AddInt64(&l.count, 1)

	for {
		current := atomic.LoadInt64(&l.max)
		if latency <= current || atomic.CompareAndSwapInt64(&l.max, current, latency) {
			break
		}
	}
}

func snapshotMetrics(m *CacheMetrics, mu *sync.RWMutex, l *latencyStats) *CacheMetrics {
	mu.RLock()
	defer mu.RUnlock()

	out := CacheMetrics{
		TotalRequests: atomic.LoadInt64(&m.TotalRequests),
		CacheHits:     atomic.LoadInt64(&m.CacheHits),
		CacheMisses:   atomic.LoadInt64(&m.CacheMisses),
		Writes:        atomic.LoadInt64(&m.Writes),
		WriteErrors:   atomic.LoadInt64(&m.WriteErrors),
		LastUpdate:    time.Now(),
	}
	if total := out.CacheHits + out.CacheMisses; total > 0 {
		out.HitRatio = float64(out.CacheHits) / float64(total)
	}
	if count := atomic.LoadInt64(&l.count); count > 0 {
		out.AvgLatencyMs = float64(atomic.LoadInt64(&l.sum)) / float64(count) / 1e6 // нс в мс
		out.MaxLatencyMs = float64(atomic.LoadInt64(&l.max)) / 1e6
	}
	return &out
}
