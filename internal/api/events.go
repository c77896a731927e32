package api

import (
	"sync"

	"github.com/annel0/street-pursuit/internal/sim"
)

// DefaultEventLogSize это сколько последних событий хранит EventLog
const DefaultEventLogSize = 512

// EventRecord это событие с порядковым номером журнала
type EventRecord struct {
	Seq uint64 `json:"seq"`
	sim.Event
}

// EventLog держит кольцевой буфер последних событий симуляции для
// опроса через /api/events.
type EventLog struct {
	mu   sync.RWMutex
	buf  []EventRecord
	size int
	next uint64
}

func NewEventLog(size int) *EventLog {
	if size <= 0 {
		size = DefaultEventLogSize
	}
	return &EventLog{size: size, buf: make([]EventRecord, 0, size)}
}

// Hook возвращает получателя кадров для sim.Runner
func (l *EventLog) Hook() sim.Hook {
	return func(f sim.Frame) {
		if len(f.Events) == 0 {
			return
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		for _, ev := range f.Events {
			l.next++
			if len(l.buf) == l.size {
				copy(l.buf, l.buf[1:])
				l.buf = l.buf[:l.size-1]
			}
			l.buf = append(l.buf, EventRecord{Seq: l.next, Event: ev})
		}
	}
}

// After возвращает до limit событий с номером больше after и последний выданный номер
func (l *EventLog) After(after uint64, limit int) ([]EventRecord, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]EventRecord, 0)
	last := after
	for _, rec := range l.buf {
		if rec.Seq <= after {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, rec)
		last = rec.Seq
	}
	return out, last
}
