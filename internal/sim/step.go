package sim

import (
	"math"
	"slices"

	"github.com/annel0/street-pursuit/internal/ai"
	"github.com/annel0/street-pursuit/internal/combat"
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/mission"
	"github.com/annel0/street-pursuit/internal/pursuit"
)

// Параметры тика, не относящиеся к отдельным подсистемам
const (
	ParkedUntil    = 12.0 // стартовая машина стоит первые секунды
	ParkedDamping  = 0.7
	ContactBusted  = 0.25 // прирост шкалы ареста в секунду при контакте с офицером
	ContactDamage  = 9.0  // урон пешему игроку в секунду при контакте
	FlashDecay     = 0.65
	BustedPenalty  = 15.0
	BustedMinHP    = 35.0
	WastedForgiven = 1.0 // на столько снижается розыск после гибели
)

// aiContext собирает срез состояния, который ИИ читает за тик
func (s *Session) aiContext() *ai.Context {
	return &ai.Context{
		City:   s.city,
		Store:  s.store,
		Rng:    s.rng,
		Wanted: s.pursuit.Wanted,
		Anchor: s.store.Anchor(),
		Time:   s.time,
	}
}

// step выполняет один фиксированный тик. Порядок фаз фиксирован.
func (s *Session) step() {
	dt := FixedDt
	s.time += dt
	s.tick++

	s.updatePlayer(dt)

	ctx := s.aiContext()
	s.updateVehicles(ctx, dt)

	s.reboarded = s.reboarded[:0]
	for _, o := range s.store.Officers {
		if ai.UpdateOfficer(ctx, o, dt) {
			s.reboarded = append(s.reboarded, o.ID)
		}
	}
	for _, ped := range s.store.Pedestrians {
		ai.UpdatePedestrian(ctx, ped, dt)
	}

	s.resolveCollisions()

	s.updateBallistics(dt)
	s.updateOfficerContact(dt)
	s.removeOfficers()
	s.updatePursuit(dt)
	s.updateMission(dt)

	s.flash = math.Max(0, s.flash-dt*FlashDecay)
}

func (s *Session) updateVehicles(ctx *ai.Context, dt float64) {
	playerCar := s.store.Player.VehicleID
	// Высадка добавляет офицеров, но не машины: срез машин стабилен
	for _, car := range s.store.Vehicles {
		if car.ID == playerCar {
			continue
		}
		if car.Parked {
			if s.time > ParkedUntil {
				car.Parked = false
			} else {
				car.Vel = car.Vel.Mul(ParkedDamping)
				car.ForwardSpeed = 0
				continue
			}
		}

		if car.Police() {
			control, decision := ai.PoliceControl(ctx, car)
			if decision.Deploy {
				officer := ai.DeployOfficer(ctx, car)
				s.emit(Event{Kind: EventOfficerDeployed, Entity: officer.ID})
			}
			car.Drive(control, dt, s.city.Bounds)
		} else {
			car.Drive(ai.TrafficControl(ctx, car), dt, s.city.Bounds)
		}
		car.SirenPhase += SirenRate * dt
	}
}

func (s *Session) updateBallistics(dt float64) {
	hits := combat.Step(dt, s.city, s.store, s.store.Player.VehicleID)
	for _, h := range hits {
		if w := h.Kind.Wanted(); w > 0 {
			s.pursuit.AddWanted(w, s.time)
		}
		if h.Destroyed && h.Kind == combat.HitTarget {
			s.emit(Event{Kind: EventTargetDestroyed, Entity: h.Target})
		}
	}
}

func (s *Session) updateOfficerContact(dt float64) {
	p := s.store.Player
	anchor := s.store.Anchor()
	radius := s.store.AnchorRadius()
	for _, o := range s.store.Officers {
		if !ai.OfficerInContact(o, anchor, radius) {
			continue
		}
		s.pursuit.AddBusted(ContactBusted * dt)
		if p.OnFoot() {
			p.Health = math.Max(0, p.Health-ContactDamage*dt)
		}
	}
}

// removeOfficers убирает погибших и вернувшихся в машину офицеров,
// освобождая слоты их машин
func (s *Session) removeOfficers() {
	removed := s.store.RemoveOfficers(func(o *entity.Officer) bool {
		return !o.Alive() || slices.Contains(s.reboarded, o.ID)
	})
	for _, o := range removed {
		kind := EventOfficerReturned
		if !o.Alive() {
			kind = EventOfficerDown
		}
		s.emit(Event{Kind: kind, Entity: o.ID})
	}
}

func (s *Session) updatePursuit(dt float64) {
	p := s.store.Player
	nearest := pursuit.NearestPolice(s.store, s.store.Anchor())
	if s.pursuit.Update(dt, s.time, nearest) {
		p.Health = math.Max(BustedMinHP, p.Health-BustedPenalty)
		s.respawn()
		s.emit(Event{Kind: EventBusted})
		s.log.Info("🚓 Игрок задержан на %.2f с", s.time)
	}
	if p.Health <= 0 {
		p.Health = MaxHealth
		s.pursuit.Wanted = math.Max(0, s.pursuit.Wanted-WastedForgiven)
		s.respawn()
		s.emit(Event{Kind: EventWasted})
		s.log.Info("💀 Игрок погиб на %.2f с", s.time)
	}
}

func (s *Session) updateMission(dt float64) {
	out := s.missions.Update(dt, mission.World{
		Rng:       s.rng,
		City:      s.city,
		Store:     s.store,
		Anchor:    s.store.Anchor(),
		InVehicle: !s.store.Player.OnFoot(),
	})
	if out.Assigned != nil {
		s.emit(Event{Kind: EventTaskAssigned, Task: out.Assigned})
		s.log.Debug("📋 Задание %s, этап %d", out.Assigned.Kind, out.Assigned.Stage)
	}
	if out.Completed != nil {
		s.emit(Event{Kind: EventTaskCompleted, Task: out.Completed, Value: out.Completed.Reward})
		s.log.Info("✅ Задание %s выполнено, награда %.0f", out.Completed.Kind, out.Completed.Reward)
	}
}
