package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/street-pursuit/internal/sim"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	got []*Envelope
}

func (r *recorder) handle(_ context.Context, ev *Envelope) {
	r.mu.Lock()
	r.got = append(r.got, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.got))
	for _, ev := range r.got {
		out = append(out, ev.EventType)
	}
	return out
}

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope("sim", "busted", map[string]int{"tick": 42})
	require.NoError(t, err)

	_, err = uuid.Parse(env.ID)
	assert.NoError(t, err, "ID, UUID")
	assert.Equal(t, 1, env.Version)

	var payload map[string]int
	require.NoError(t, env.Decode(&payload))
	assert.Equal(t, 42, payload["tick"])

	_, err = NewEnvelope("sim", "bad", make(chan int))
	assert.Error(t, err)
}

func TestMemoryBus_FilterAndOrder(t *testing.T) {
	bus := NewMemoryBus(16)

	var all, busted recorder
	_, err := bus.Subscribe(context.Background(), Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Types: []string{"busted"}}, busted.handle)
	require.NoError(t, err)

	for _, typ := range []string{"reset", "busted", "wasted"} {
		env, err := NewEnvelope("sim", typ, nil)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), env))
	}
	require.NoError(t, bus.Close(), "Close дожидается доставки")

	assert.Equal(t, []string{"reset", "busted", "wasted"}, all.types())
	assert.Equal(t, []string{"busted"}, busted.types())

	stats := bus.Metrics()
	assert.EqualValues(t, 3, stats.Published)
	assert.EqualValues(t, 4, stats.Consumed)

	env, _ := NewEnvelope("sim", "late", nil)
	assert.ErrorIs(t, bus.Publish(context.Background(), env), ErrClosed)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	var rec recorder
	sub, err := bus.Subscribe(context.Background(), Filter{}, rec.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	env, _ := NewEnvelope("sim", "reset", nil)
	require.NoError(t, bus.Publish(context.Background(), env))
	require.NoError(t, bus.Close())
	assert.Empty(t, rec.types())
}

func TestMemoryBus_DropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
	})
	require.NoError(t, err)

	first, _ := NewEnvelope("sim", "a", nil)
	require.NoError(t, bus.Publish(context.Background(), first))
	<-started

	second, _ := NewEnvelope("sim", "b", nil)
	require.NoError(t, bus.Publish(context.Background(), second))
	third, _ := NewEnvelope("sim", "c", nil)
	third.Priority = PriorityLow
	require.NoError(t, bus.Publish(context.Background(), third), "Низкий приоритет отбрасывается молча")

	assert.EqualValues(t, 1, bus.Metrics().Dropped)
	close(block)
	require.NoError(t, bus.Close())
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "sim.busted", Subject("busted"))
	assert.Equal(t, "sim.*", Subject(""))
}

func TestSimPublisher_Hook(t *testing.T) {
	bus := NewMemoryBus(16)
	var rec recorder
	_, err := bus.Subscribe(context.Background(), Filter{}, rec.handle)
	require.NoError(t, err)

	pub := NewSimPublisher(bus, "session-1")
	hook := pub.Hook()
	hook(sim.Frame{Tick: 3, Events: []sim.Event{
		{Kind: sim.EventShotFired, Tick: 3, Entity: 9},
		{Kind: sim.EventBusted, Tick: 3},
	}})
	hook(sim.Frame{Tick: 4})
	require.NoError(t, bus.Close())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.got, 2)
	assert.Equal(t, "shot_fired", rec.got[0].EventType)
	assert.Equal(t, PriorityLow, rec.got[0].Priority)
	assert.Equal(t, PriorityHigh, rec.got[1].Priority)
	assert.Equal(t, "session-1", rec.got[1].CorrelationID)

	var ev sim.Event
	require.NoError(t, rec.got[0].Decode(&ev))
	assert.EqualValues(t, 9, ev.Entity)
}

func TestMetricsExporter_Collect(t *testing.T) {
	bus := NewMemoryBus(8)
	reg := prometheus.NewRegistry()
	me := NewMetricsExporter(bus, reg)

	env, _ := NewEnvelope("sim", "reset", nil)
	require.NoError(t, bus.Publish(context.Background(), env))
	require.NoError(t, bus.Close())

	prev := me.collect(Stats{})
	assert.Equal(t, 1.0, testutil.ToFloat64(me.published))
	me.collect(prev)
	assert.Equal(t, 1.0, testutil.ToFloat64(me.published), "Счётчик растёт только на приращение")

	me.Start(time.Millisecond)
	me.Stop()
}

func TestLoggingListener(t *testing.T) {
	bus := NewMemoryBus(4)
	sub, err := StartLoggingListener(bus)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	env, _ := NewEnvelope("sim", "busted", map[string]any{})
	env.Priority = PriorityHigh
	require.NoError(t, bus.Publish(context.Background(), env))
	require.NoError(t, bus.Close())
	assert.EqualValues(t, 1, bus.Metrics().Consumed)
}
