package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryFrameStore реализует FrameStore в памяти.
// Используется в тестах и когда путь записи не задан.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryFrameStore struct {
	mu     sync.RWMutex
	frames map[string]map[uint64][]byte
	closed bool
}

// NewMemoryFrameStore создает хранилище кадров в памяти
func NewMemoryFrameStore() *MemoryFrameStore {
	return &MemoryFrameStore{frames: make(map[string]map[uint64][]byte)}
}

func (s *MemoryFrameStore) Save(ctx context.Context, sessionID string, tick uint64, data []byte) error {
	if err := validSession(sessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	session, ok := s.frames[sessionID]
	if !ok {
		session = make(map[uint64][]byte)
		s.frames[sessionID] = session
	}
	session[tick] = slices.Clone(data)
	return nil
}

func (s *MemoryFrameStore) Load(ctx context.Context, sessionID string, tick uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.frames[sessionID][tick]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(data), nil
}

func (s *MemoryFrameStore) Latest(ctx context.Context, sessionID string) (uint64, []byte, error) {
	ticks, err := s.Ticks(ctx, sessionID)
	if err != nil {
		return 0, nil, err
	}
	if len(ticks) == 0 {
		return 0, nil, ErrNotFound
	}
	last := ticks[len(ticks)-1]
	data, err := s.Load(ctx, sessionID, last)
	return last, data, err
}

func (s *MemoryFrameStore) Ticks(ctx context.Context, sessionID string) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticks := make([]uint64, 0, len(s.frames[sessionID]))
	for tick := range s.frames[sessionID] {
		ticks = append(ticks, tick)
	}
	slices.Sort(ticks)
	return ticks, nil
}

func (s *MemoryFrameStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.frames, sessionID)
	return nil
}

func (s *MemoryFrameStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
