package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/annel0/street-pursuit/internal/sim"
)

const mirrorTimeout = 2 * time.Second

// Mirror переносит снапшоты кадров в SnapshotCache. Хранится только
// последний ещё не записанный снапшот, промежуточные заменяются.
type Mirror struct {
	cache     SnapshotCache
	sessionID string
	log       *logging.Logger

	mu      sync.Mutex
	pending *sim.Snapshot
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewMirror запускает фоновую запись снапшотов сессии
func NewMirror(c SnapshotCache, sessionID string) *Mirror {
	m := &Mirror{
		cache:     c,
		sessionID: sessionID,
		log:       logging.GetComponentLogger(logging.ComponentCache),
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go m.loop()
	return m
}

// Hook возвращает получателя кадров для sim.Runner
func (m *Mirror) Hook() sim.Hook {
	return func(f sim.Frame) {
		snap := f.Snapshot
		m.mu.Lock()
		m.pending = &snap
		m.mu.Unlock()
		select {
		case m.wake <- struct{}{}:
		default:
		}
	}
}

func (m *Mirror) loop() {
	defer close(m.done)
	for {
		select {
		case <-m.wake:
			m.flush()
		case <-m.quit:
			m.flush()
			return
		}
	}
}

func (m *Mirror) flush() {
	m.mu.Lock()
	snap := m.pending
	m.pending = nil
	m.mu.Unlock()
	if snap == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		m.log.Error("Не удалось сериализовать снапшот: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := m.cache.Put(ctx, m.sessionID, data); err != nil {
		m.log.Warn("Не удалось записать снапшот тика %d в кеш: %v", snap.Tick, err)
	}
}

// Close дописывает последний снапшот и останавливает запись
func (m *Mirror) Close() {
	m.once.Do(func() {
		close(m.quit)
		<-m.done
	})
}

// Load читает снапшот сессии из кеша
func Load(ctx context.Context, c SnapshotCache, sessionID string) (sim.Snapshot, error) {
	var snap sim.Snapshot
	data, err := c.Get(ctx, sessionID)
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(data, &snap)
	return snap, err
}
