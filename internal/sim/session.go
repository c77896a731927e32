// Package sim: ядро симуляции: сессия с фиксированным шагом, владеющая
// городом, сущностями, розыском и заданиями.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/annel0/street-pursuit/internal/ai"
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/logging"
	"github.com/annel0/street-pursuit/internal/mission"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/pursuit"
	"github.com/annel0/street-pursuit/internal/util"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/annel0/street-pursuit/internal/world"
)

// Шаг времени
const (
	TickRate      = 60
	FixedDt       = 1.0 / TickRate
	MaxFrameDelta = 50 * time.Millisecond
)

// DefaultSeed это сид по умолчанию; сброс всегда начинает с него
const DefaultSeed int64 = 20260207

// Mode это режим сессии
type Mode string

const (
	ModeMenu    Mode = "menu"
	ModePlaying Mode = "playing"
)

// Options это параметры сессии
type Options struct {
	Seed           int64
	Traffic        int
	Police         int
	Pedestrians    int
	ViewportWidth  float64
	ViewportHeight float64
	MaxFrameDelta  time.Duration
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Seed:           DefaultSeed,
		Traffic:        22,
		Police:         6,
		Pedestrians:    58,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		MaxFrameDelta:  MaxFrameDelta,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	if o.Traffic <= 0 {
		o.Traffic = d.Traffic
	}
	if o.Police < 0 {
		o.Police = 0
	}
	if o.Pedestrians <= 0 {
		o.Pedestrians = d.Pedestrians
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = d.ViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = d.ViewportHeight
	}
	if o.MaxFrameDelta <= 0 {
		o.MaxFrameDelta = d.MaxFrameDelta
	}
	return o
}

// Session это единственный владелец состояния симуляции. Не потокобезопасна:
// конкурентный доступ сериализует Runner.
type Session struct {
	opts Options
	log  *logging.Logger

	rng      *rand.Rand
	city     *world.CityMap
	store    *entity.Store
	pursuit  pursuit.State
	missions *mission.Tracker
	input    Input

	mode        Mode
	paused      bool
	time        float64
	tick        uint64
	accumulator float64
	flash       float64

	events    []Event
	reboarded []entity.ID
	scratch   []int
}

// NewSession создаёт сессию и сразу собирает мир в режиме меню
func NewSession(opts Options) *Session {
	s := &Session{
		opts: opts.withDefaults(),
		log:  logging.GetSimLogger(),
	}
	s.Reset(false)
	return s
}

// Reset пересобирает мир с исходного сида. Все случайные величины
// берутся из одного генератора в фиксированном порядке.
func (s *Session) Reset(startPlaying bool) {
	s.rng = util.NewRand(s.opts.Seed)
	s.city = world.NewCityGenerator().Generate(s.rng, util.NewNoise(s.opts.Seed))
	s.store = entity.NewStore()
	s.pursuit = pursuit.New()
	s.missions = mission.NewTracker()
	s.input.ClearAll()

	s.time = 0
	s.tick = 0
	s.accumulator = 0
	s.flash = 0
	s.reboarded = s.reboarded[:0]

	s.store.Player = &entity.Player{
		Circle: physics.Circle{Pos: PlayerStart, Radius: PlayerRadius, Mass: PlayerMass},
		Health: MaxHealth,
	}

	paths := len(s.city.CarPaths)
	for i := 0; i < s.opts.Traffic; i++ {
		s.spawnVehicle(entity.RoleTraffic, i%paths, i%trafficPalettes)
	}
	for i := 0; i < s.opts.Police; i++ {
		s.spawnVehicle(entity.RolePolice, (i+3)%paths, policePalette)
	}

	starter := ai.NewVehicle(s.rng, s.city, entity.RoleTraffic, 0, 0, 0.14, starterPalette)
	starter.Pos = PlayerStart.Add(starterOffset)
	starter.Heading = -math.Pi / 2
	starter.Parked = true
	s.store.AddVehicle(starter)

	for i := 0; i < s.opts.Pedestrians; i++ {
		node := util.Choice(s.rng, s.city.SidewalkNodes)
		pos := node.Add(vec.Vec2Float{
			X: util.Range(s.rng, -pedestrianScatter, pedestrianScatter),
			Y: util.Range(s.rng, -pedestrianScatter, pedestrianScatter),
		})
		s.store.AddPedestrian(ai.NewPedestrian(s.rng, s.city, pos))
	}

	s.mode = ModeMenu
	if startPlaying {
		s.mode = ModePlaying
	}
	s.paused = false

	s.events = s.events[:0]
	s.emit(Event{Kind: EventReset})
	s.log.Info("🔄 Мир пересобран: сид=%d машин=%d прохожих=%d зданий=%d",
		s.opts.Seed, len(s.store.Vehicles), len(s.store.Pedestrians), len(s.city.Buildings))
}

func (s *Session) spawnVehicle(role entity.Role, pathIdx, palette int) {
	path := s.city.CarPaths[pathIdx]
	segment := util.Index(s.rng, len(path))
	t := s.rng.Float64()
	s.store.AddVehicle(ai.NewVehicle(s.rng, s.city, role, pathIdx, segment, t, palette))
}

// Start переводит сессию из меню в игру
func (s *Session) Start() {
	if s.mode == ModePlaying && !s.paused {
		return
	}
	s.mode = ModePlaying
	s.paused = false
	s.emit(Event{Kind: EventStarted})
}

// SetPaused ставит или снимает паузу. В меню пауза не действует.
func (s *Session) SetPaused(paused bool) {
	if s.mode != ModePlaying || s.paused == paused {
		return
	}
	s.paused = paused
	if paused {
		s.emit(Event{Kind: EventPaused})
	} else {
		s.emit(Event{Kind: EventResumed})
	}
}

// TogglePause переключает паузу
func (s *Session) TogglePause() { s.SetPaused(!s.paused) }

// Running проверяет, идёт ли время
func (s *Session) Running() bool { return s.mode == ModePlaying && !s.paused }

// Advance продвигает симуляцию на ms миллисекунд фиксированными шагами
// независимо от реального времени. Шаги идут только в игре без паузы.
// Нажатия очищаются после вызова. Возвращает число выполненных тиков.
func (s *Session) Advance(ms float64) int {
	steps := max(1, int(math.Round(ms/(1000.0/TickRate))))
	done := 0
	for i := 0; i < steps; i++ {
		if s.Running() {
			s.step()
			done++
		}
	}
	s.input.ClearPressed()
	return done
}

// Frame принимает реальное время кадра, ограничивает его сверху
// и выполняет накопившиеся фиксированные шаги
func (s *Session) Frame(delta time.Duration) int {
	delta = min(delta, s.opts.MaxFrameDelta)
	done := 0
	if s.Running() {
		s.accumulator += delta.Seconds()
		for s.accumulator >= FixedDt {
			s.step()
			s.accumulator -= FixedDt
			done++
		}
	}
	s.input.ClearPressed()
	return done
}

// Input возвращает состояние управления
func (s *Session) Input() *Input { return &s.input }

// Mode возвращает режим
func (s *Session) Mode() Mode { return s.mode }

// Paused проверяет паузу
func (s *Session) Paused() bool { return s.paused }

// Time возвращает время симуляции в секундах
func (s *Session) Time() float64 { return s.time }

// Tick возвращает номер тика
func (s *Session) Tick() uint64 { return s.tick }

// Seed возвращает сид сессии
func (s *Session) Seed() int64 { return s.opts.Seed }

// City возвращает геометрию города
func (s *Session) City() *world.CityMap { return s.city }

// Store возвращает хранилище сущностей. Изменять его можно только между тиками.
func (s *Session) Store() *entity.Store { return s.store }

// Pursuit возвращает состояние розыска
func (s *Session) Pursuit() pursuit.State { return s.pursuit }

// Missions возвращает трекер заданий
func (s *Session) Missions() *mission.Tracker { return s.missions }

// CollisionFlash возвращает текущую яркость вспышки удара
func (s *Session) CollisionFlash() float64 { return s.flash }
