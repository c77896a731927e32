package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/annel0/street-pursuit/internal/sim"
)

const (
	recorderQueue   = 64
	recorderTimeout = 2 * time.Second
)

// Recorder сохраняет кадры сессии в FrameStore каждые every тиков.
// Запись идёт в отдельной горутине, при переполнении очереди кадры отбрасываются.
type Recorder struct {
	store     FrameStore
	codec     *Codec
	sessionID string
	every     uint64
	log       *logging.Logger

	mu      sync.Mutex
	last    uint64
	started bool
	closed  bool

	queue chan sim.Frame
	done  chan struct{}

	statsMu sync.Mutex
	saved   uint64
	dropped uint64
}

// NewRecorder создаёт и запускает рекордер. every <= 0 означает запись каждого кадра.
func NewRecorder(store FrameStore, codec *Codec, sessionID string, every int) *Recorder {
	if every <= 0 {
		every = 1
	}
	r := &Recorder{
		store:     store,
		codec:     codec,
		sessionID: sessionID,
		every:     uint64(every),
		log:       logging.GetComponentLogger(logging.ComponentRecorder),
		queue:     make(chan sim.Frame, recorderQueue),
		done:      make(chan struct{}),
	}
	go r.loop()
	return r
}

// Hook возвращает получателя кадров для sim.Runner
func (r *Recorder) Hook() sim.Hook {
	return func(f sim.Frame) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || !r.due(f) {
			return
		}
		select {
		case r.queue <- f:
		default:
			r.statsMu.Lock()
			r.dropped++
			r.statsMu.Unlock()
			r.log.Warn("Очередь записи переполнена, кадр %d отброшен", f.Tick)
		}
	}
}

// due решает, пора ли писать кадр; вызывается под mu. Сброс сессии
// (тик пошёл назад) всегда записывается.
func (r *Recorder) due(f sim.Frame) bool {
	if !r.started || f.Tick < r.last || f.Tick-r.last >= r.every {
		r.started = true
		r.last = f.Tick
		return true
	}
	return false
}

func (r *Recorder) loop() {
	defer close(r.done)
	for f := range r.queue {
		if err := r.save(f); err != nil {
			r.log.Error("Не удалось записать кадр %d: %v", f.Tick, err)
			continue
		}
		r.statsMu.Lock()
		r.saved++
		r.statsMu.Unlock()
	}
}

func (r *Recorder) save(f sim.Frame) error {
	data, err := r.codec.Encode(f)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
	defer cancel()
	return r.store.Save(ctx, r.sessionID, f.Tick, data)
}

// Stats возвращает число записанных и отброшенных кадров
func (r *Recorder) Stats() (saved, dropped uint64) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.saved, r.dropped
}

// Close дописывает очередь; кадры после Close игнорируются
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

// LoadFrame читает и распаковывает кадр
func LoadFrame(ctx context.Context, store FrameStore, codec *Codec, sessionID string, tick uint64) (sim.Frame, error) {
	var f sim.Frame
	data, err := store.Load(ctx, sessionID, tick)
	if err != nil {
		return f, err
	}
	err = codec.Decode(data, &f)
	return f, err
}

// LatestFrame читает последний записанный кадр сессии
func LatestFrame(ctx context.Context, store FrameStore, codec *Codec, sessionID string) (sim.Frame, error) {
	var f sim.Frame
	_, data, err := store.Latest(ctx, sessionID)
	if err != nil {
		return f, err
	}
	err = codec.Decode(data, &f)
	return f, err
}

// Replay последовательно передаёт в fn кадры сессии с тиками в [from, to].
// to == 0 означает до конца записи.
func Replay(ctx context.Context, store FrameStore, codec *Codec, sessionID string, from, to uint64, fn func(sim.Frame) error) error {
	ticks, err := store.Ticks(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, tick := range ticks {
		if tick < from || (to > 0 && tick > to) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := LoadFrame(ctx, store, codec, sessionID, tick)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
