package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

// SubjectPrefix это префикс subject для событий симуляции
const SubjectPrefix = "sim"

// Subject возвращает subject NATS для типа события
func Subject(eventType string) string {
	if eventType == "" {
		return SubjectPrefix + ".*"
	}
	return SubjectPrefix + "." + eventType
}

// JetStreamBus реализует EventBus поверх NATS JetStream.
type JetStreamBus struct {
	nc        *nats.Conn
	js        nats.JetStreamContext
	stream    string
	published uint64
	consumed  uint64
	dropped   uint64
}

// NewJetStreamBus подключается к кластеру NATS и гарантирует наличие стрима.
// url: nats://127.0.0.1:4222, stream: "SIM".
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = "SIM"
	}

	nc, err := nats.Connect(url, nats.Name("street-pursuit"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if _, err = js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{Subject("")},
			Retention: nats.LimitsPolicy,
			MaxAge:    retention,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("add stream %s: %w", stream, err)
		}
	}

	return &JetStreamBus{nc: nc, js: js, stream: stream}, nil
}

// Publish сериализует Envelope в JSON и публикует в subject sim.<type>.
// ID события используется для дедупликации на стороне JetStream.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := json.Marshal(ev)
	if err != nil {
		atomic.AddUint64(&jb.dropped, 1)
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if _, err = jb.js.Publish(Subject(ev.EventType), data, nats.MsgId(ev.ID), nats.Context(ctx)); err != nil {
		atomic.AddUint64(&jb.dropped, 1)
		return fmt.Errorf("publish %s: %w", ev.EventType, err)
	}
	atomic.AddUint64(&jb.published, 1)
	return nil
}

// Subscribe создаёт эфемерного потребителя новых событий и вызывает handler асинхронно.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	return jb.subscribe(ctx, f, h, nats.DeliverNew())
}

// SubscribeSince как Subscribe, но сначала доставляет сохранённые в стриме
// события за последние since.
func (jb *JetStreamBus) SubscribeSince(ctx context.Context, f Filter, since time.Duration, h Handler) (Subscription, error) {
	if since <= 0 {
		return jb.Subscribe(ctx, f, h)
	}
	return jb.subscribe(ctx, f, h, nats.StartTime(time.Now().Add(-since)))
}

func (jb *JetStreamBus) subscribe(ctx context.Context, f Filter, h Handler, deliver nats.SubOpt) (Subscription, error) {
	subj := Subject("")
	if len(f.Types) == 1 {
		subj = Subject(f.Types[0])
	}

	natSub, err := jb.js.Subscribe(subj, func(msg *nats.Msg) {
		var ev Envelope
		if err := json.Unmarshal(msg.Data, &ev); err == nil && f.Match(&ev) {
			h(ctx, &ev)
			atomic.AddUint64(&jb.consumed, 1)
		}
		_ = msg.Ack()
	}, nats.ManualAck(), deliver, nats.AckWait(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subj, err)
	}

	return &jetSub{natSub}, nil
}

// jetSub обёртка вокруг *nats.Subscription чтобы удовлетворить наш интерфейс.
type jetSub struct {
	s *nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	_ = j.s.Unsubscribe()
}

// Metrics возвращает текущие метрики.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: atomic.LoadUint64(&jb.published),
		Consumed:  atomic.LoadUint64(&jb.consumed),
		Dropped:   atomic.LoadUint64(&jb.dropped),
	}
}

// Close дожидается отправки буферизованных сообщений и закрывает соединение
func (jb *JetStreamBus) Close() error {
	return jb.nc.Drain()
}
