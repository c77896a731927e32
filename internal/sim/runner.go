package sim

import (
	"context"
	"sync"
	"time"

	"github.com/annel0/street-pursuit/internal/logging"
)

// Frame это результат граничной операции: номер тика, снапшот и события
type Frame struct {
	Tick     uint64   `json:"tick"`
	Snapshot Snapshot `json:"snapshot"`
	Events   []Event  `json:"events,omitempty"`
}

// Hook получает кадры после каждой граничной операции. Вызывается вне
// блокировки сессии и не должен надолго задерживать цикл.
type Hook func(Frame)

// Runner ведёт сессию по реальному времени и сериализует доступ к ней.
// Все внешние операции (ввод, сброс, пауза, снапшот) выполняются между тиками.
type Runner struct {
	mu       sync.Mutex
	session  *Session
	metrics  *Metrics
	interval time.Duration
	log      *logging.Logger

	hooksMu sync.RWMutex
	hooks   []Hook
}

// NewRunner создаёт исполнитель для сессии. metrics может быть nil.
func NewRunner(s *Session, metrics *Metrics) *Runner {
	return &Runner{
		session:  s,
		metrics:  metrics,
		interval: time.Second / TickRate,
		log:      logging.GetSimLogger(),
	}
}

// SetInterval задаёт период опроса реального времени
func (r *Runner) SetInterval(d time.Duration) {
	if d > 0 {
		r.interval = d
	}
}

// OnFrame регистрирует получателя кадров
func (r *Runner) OnFrame(h Hook) {
	r.hooksMu.Lock()
	r.hooks = append(r.hooks, h)
	r.hooksMu.Unlock()
}

// Run крутит цикл до отмены контекста
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("▶️ Цикл симуляции запущен, период %v", r.interval)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.log.Info("⏹️ Цикл симуляции остановлен")
			return ctx.Err()
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			r.Do(func(s *Session) int { return s.Frame(delta) })
		}
	}
}

// Do выполняет операцию над сессией под блокировкой, затем публикует
// накопленные события. fn возвращает число выполненных тиков.
func (r *Runner) Do(fn func(*Session) int) Frame {
	start := time.Now()

	r.mu.Lock()
	ticks := fn(r.session)
	events := r.session.DrainEvents()
	if ticks == 0 && len(events) == 0 {
		r.mu.Unlock()
		return Frame{}
	}
	frame := Frame{Tick: r.session.Tick(), Events: events}
	if r.wantsFrames() {
		frame.Snapshot = r.session.Snapshot()
	}
	r.metrics.Observe(r.session, ticks, time.Since(start), events)
	r.mu.Unlock()

	r.hooksMu.RLock()
	hooks := r.hooks
	r.hooksMu.RUnlock()
	for _, h := range hooks {
		h(frame)
	}
	return frame
}

func (r *Runner) wantsFrames() bool {
	r.hooksMu.RLock()
	defer r.hooksMu.RUnlock()
	return len(r.hooks) > 0
}

// Advance продвигает симуляцию на ms миллисекунд без учёта реального времени
func (r *Runner) Advance(ms float64) int {
	var done int
	r.Do(func(s *Session) int {
		done = s.Advance(ms)
		return done
	})
	return done
}

// Snapshot возвращает текущий снапшот
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Snapshot()
}

// Reset пересобирает мир
func (r *Runner) Reset(startPlaying bool) {
	r.Do(func(s *Session) int {
		s.Reset(startPlaying)
		return 0
	})
}

// Start запускает игру
func (r *Runner) Start() {
	r.Do(func(s *Session) int {
		s.Start()
		return 0
	})
}

// SetPaused ставит или снимает паузу
func (r *Runner) SetPaused(paused bool) {
	r.Do(func(s *Session) int {
		s.SetPaused(paused)
		return 0
	})
}

// TogglePause переключает паузу
func (r *Runner) TogglePause() {
	r.Do(func(s *Session) int {
		s.TogglePause()
		return 0
	})
}

// Press нажимает действия
func (r *Runner) Press(controls ...Control) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range controls {
		r.session.Input().Press(c)
	}
}

// Release отпускает действия
func (r *Runner) Release(controls ...Control) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range controls {
		r.session.Input().Release(c)
	}
}

// SetHeld заменяет набор удерживаемых действий
func (r *Runner) SetHeld(controls []Control) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Input().SetHeld(controls)
}

// Held возвращает имена удерживаемых действий
func (r *Runner) Held() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Input().HeldNames()
}
