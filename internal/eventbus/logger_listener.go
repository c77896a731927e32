package eventbus

import (
	"context"

	"github.com/annel0/street-pursuit/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог шины.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	log := logging.GetComponentLogger(logging.ComponentEventBus)
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		if ev.Priority >= PriorityHigh {
			log.Info("[EventBus] %s src=%s session=%s %s", ev.EventType, ev.Source, ev.CorrelationID, ev.Payload)
			return
		}
		log.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	log.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
