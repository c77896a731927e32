package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("eventbus: closed")

// Envelope описывает универсальный контейнер события.
// Все поля фиксированы для версионирования и трассировки.
type Envelope struct {
	ID            string            `json:"id"`             // Глобально уникальный идентификатор (UUID).
	Timestamp     time.Time         `json:"timestamp"`      // Время создания события (UTC).
	Source        string            `json:"source"`         // Имя источника (sim, api).
	EventType     string            `json:"event_type"`     // Тип события (busted, task_completed…).
	Version       int               `json:"version"`        // Схема полезной нагрузки.
	CorrelationID string            `json:"correlation_id"` // Идентификатор сессии симуляции.
	Priority      int               `json:"priority"`       // 0=Low … 9=Critical (для backpressure).
	Payload       []byte            `json:"payload"`        // JSON полезной нагрузки.
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope упаковывает полезную нагрузку в JSON и присваивает событию UUID
func NewEnvelope(source, eventType string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Payload:   data,
	}, nil
}

// Decode разбирает полезную нагрузку в v
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто: все типы.
	Sources []string // Если пусто: все источники.
}

// Match проверяет, проходит ли событие фильтр
func (f Filter) Match(ev *Envelope) bool {
	match := func(val string, arr []string) bool {
		return len(arr) == 0 || slices.Contains(arr, val)
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus определяет абстракцию шины событий.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu     sync.RWMutex // защищает closed и отправку в buffer
	closed bool
	buffer chan *Envelope
	done   chan struct{}

	subMu       sync.Mutex
	subscribers []subscriber
	nextID      int

	statsMu sync.Mutex
	stats   Stats
}

type subscriber struct {
	id      int
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory Bus с указанным буфером. Подписчики
// получают события в порядке публикации, по одному за раз.
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 1024
	}
	mb := &memoryBus{
		buffer: make(chan *Envelope, capacity),
		done:   make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		mb.count(func(s *Stats) { s.Published++ })
		return nil
	default:
		// Буфер заполнен: дропаем низкий приоритет (<5)
		if ev.Priority < 5 {
			mb.count(func(s *Stats) { s.Dropped++ })
			return nil
		}
		// Для High-priority блокируем до освобождения места или отмены контекста
		select {
		case mb.buffer <- ev:
			mb.count(func(s *Stats) { s.Published++ })
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (mb *memoryBus) count(fn func(*Stats)) {
	mb.statsMu.Lock()
	fn(&mb.stats)
	mb.statsMu.Unlock()
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.RLock()
	closed := mb.closed
	mb.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers = append(mb.subscribers, subscriber{id: id, filter: f, handler: h, ctx: cctx, cancel: cancel})
	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	mb.statsMu.Lock()
	s := mb.stats
	mb.statsMu.Unlock()
	s.InFlight = len(mb.buffer)
	return s
}

// Close прекращает приём событий и ждёт доставки уже принятых
func (mb *memoryBus) Close() error {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.buffer)
	mb.mu.Unlock()
	<-mb.done
	return nil
}

// dispatchLoop рассылает события подписчикам.
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for ev := range mb.buffer {
		mb.subMu.Lock()
		subs := slices.Clone(mb.subscribers)
		mb.subMu.Unlock()

		for _, sub := range subs {
			if !sub.filter.Match(ev) || sub.ctx.Err() != nil {
				continue
			}
			sub.handler(sub.ctx, ev)
			mb.count(func(s *Stats) { s.Consumed++ })
		}
	}
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.subMu.Lock()
	defer s.bus.subMu.Unlock()
	s.bus.subscribers = slices.DeleteFunc(s.bus.subscribers, func(sub subscriber) bool {
		if sub.id == s.id {
			sub.cancel()
			return true
		}
		return false
	})
}
