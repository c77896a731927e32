package eventbus

import (
	"context"
	"time"

	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/annel0/street-pursuit/internal/sim"
)

// Приоритеты событий
const (
	PriorityLow    = 1
	PriorityNormal = 3
	PriorityHigh   = 7
)

// SourceSim это источник событий симуляции
const SourceSim = "sim"

// PriorityFor возвращает приоритет события симуляции: исходы погони и
// заданий важнее остальных
func PriorityFor(kind sim.EventKind) int {
	switch kind {
	case sim.EventBusted, sim.EventWasted, sim.EventTaskCompleted:
		return PriorityHigh
	case sim.EventShotFired:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// SimPublisher переносит события из кадров симуляции в шину
type SimPublisher struct {
	bus       EventBus
	sessionID string
	timeout   time.Duration
	log       *logging.Logger
}

// NewSimPublisher создаёт публикатор для сессии sessionID
func NewSimPublisher(bus EventBus, sessionID string) *SimPublisher {
	return &SimPublisher{
		bus:       bus,
		sessionID: sessionID,
		timeout:   time.Second,
		log:       logging.GetComponentLogger(logging.ComponentEventBus),
	}
}

// Envelope упаковывает событие симуляции
func (p *SimPublisher) Envelope(ev sim.Event) (*Envelope, error) {
	env, err := NewEnvelope(SourceSim, string(ev.Kind), ev)
	if err != nil {
		return nil, err
	}
	env.CorrelationID = p.sessionID
	env.Priority = PriorityFor(ev.Kind)
	return env, nil
}

// Hook возвращает получателя кадров для sim.Runner
func (p *SimPublisher) Hook() sim.Hook {
	return func(f sim.Frame) {
		if len(f.Events) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		for _, ev := range f.Events {
			if err := p.Publish(ctx, ev); err != nil {
				p.log.Warn("⚠️ Событие %s не опубликовано: %v", ev.Kind, err)
			}
		}
	}
}

// Publish публикует одно событие
func (p *SimPublisher) Publish(ctx context.Context, ev sim.Event) error {
	env, err := p.Envelope(ev)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, env)
}
