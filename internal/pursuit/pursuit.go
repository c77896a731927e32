// Package pursuit ведёт уровень розыска и шкалу задержания.
package pursuit

import (
	"math"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
)

// Параметры розыска
const (
	MaxWanted       = 5.0
	CrimeCooldown   = 10.0 // после стольких секунд без нарушений розыск спадает
	WantedDecay     = 0.1
	ActiveThreshold = 0.15 // ниже этого полиция не задерживает
	CaptureRadius   = 78.0
	BustedBaseRate  = 0.34
	BustedPerWanted = 0.16
	BustedFarDecay  = 0.22
	BustedIdleDecay = 0.4
	NoCrime         = -9999.0
)

// State это состояние преследования
type State struct {
	Wanted    float64 // [0, MaxWanted]
	Busted    float64 // [0, 1]
	LastCrime float64
}

// New возвращает чистое состояние без нарушений
func New() State {
	return State{LastCrime: NoCrime}
}

// AddWanted поднимает розыск за нарушение и запоминает его время
func (s *State) AddWanted(amount, now float64) {
	s.Wanted = physics.Clamp(s.Wanted+amount, 0, MaxWanted)
	s.LastCrime = now
}

// AddBusted двигает шкалу задержания (контакт с офицером)
func (s *State) AddBusted(amount float64) {
	s.Busted = physics.Clamp(s.Busted+amount, 0, 1)
}

// Reset обнуляет розыск и шкалу
func (s *State) Reset() {
	s.Wanted = 0
	s.Busted = 0
}

// Update продвигает розыск на dt. nearestPolice: расстояние от игрока до
// ближайшей полицейской машины или офицера. Возвращает true, если игрок
// задержан; в этом случае розыск и шкала уже сброшены.
func (s *State) Update(dt, now, nearestPolice float64) bool {
	if now-s.LastCrime > CrimeCooldown {
		s.Wanted = math.Max(0, s.Wanted-dt*WantedDecay)
	}

	switch {
	case s.Wanted <= ActiveThreshold:
		s.Busted = math.Max(0, s.Busted-dt*BustedIdleDecay)
	case nearestPolice < CaptureRadius:
		s.AddBusted(dt * (BustedBaseRate + s.Wanted*BustedPerWanted))
	default:
		s.Busted = math.Max(0, s.Busted-dt*BustedFarDecay)
	}

	if s.Busted >= 1 {
		s.Reset()
		return true
	}
	return false
}

// NearestPolice возвращает расстояние от anchor до ближайшей полицейской
// машины или живого офицера. Машина игрока не считается.
func NearestPolice(store *entity.Store, anchor vec.Vec2Float) float64 {
	closest := math.Inf(1)
	playerCar := entity.None
	if store.Player != nil {
		playerCar = store.Player.VehicleID
	}
	for _, v := range store.Vehicles {
		if !v.Police() || v.ID == playerCar {
			continue
		}
		closest = math.Min(closest, v.Pos.DistanceTo(anchor))
	}
	for _, o := range store.Officers {
		if o.Alive() {
			closest = math.Min(closest, o.Pos.DistanceTo(anchor))
		}
	}
	return closest
}
