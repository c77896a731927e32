package sim

import (
	"math"

	"github.com/annel0/street-pursuit/internal/combat"
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
)

// Параметры игрока
const (
	PlayerRadius   = 13.0
	PlayerMass     = 85.0
	PlayerAccel    = 760.0
	PlayerDrag     = 5.2
	PlayerMaxSpeed = 220.0
	MaxHealth      = 100.0

	FacingMinSpeed   = 8.0
	InteractionRange = 58.0
	ExitMaxSpeed     = 40.0 // выйти можно только почти остановившись
	ExitGap          = 8.0
	ExitVelocityKeep = 0.35
	ExitSideFreq     = 2.3

	PoliceCarWanted = 1.2
	SirenRate       = 8.0
)

// Стартовая расстановка
var (
	PlayerStart   = vec.Vec2Float{X: 520, Y: 460}
	RespawnPoint  = vec.Vec2Float{X: 540, Y: 460}
	starterOffset = vec.Vec2Float{X: 28, Y: 58}
)

const (
	trafficPalettes   = 7
	policePalette     = 0
	starterPalette    = 3
	pedestrianScatter = 14.0
)

var playerWalk = physics.WalkSpec{Accel: PlayerAccel, Drag: PlayerDrag, MaxSpeed: PlayerMaxSpeed}

func (s *Session) updatePlayer(dt float64) {
	if car, ok := s.store.PlayerVehicle(); ok {
		s.drivePlayer(car, dt)
	} else {
		s.walkPlayer(dt)
	}
	if s.input.Consume(ControlFire) {
		s.fire()
	}
}

func (s *Session) walkPlayer(dt float64) {
	p := s.store.Player
	move := vec.Vec2Float{
		X: s.input.Axis(ControlLeft, ControlRight),
		Y: s.input.Axis(ControlUp, ControlDown),
	}
	speed := physics.Walk(&p.Circle, move, playerWalk, dt, s.city.Bounds)
	_, s.scratch = s.city.ResolveAgainstBuildings(&p.Circle, s.scratch)
	if speed > FacingMinSpeed {
		p.Facing = p.Vel.Angle()
	}
	if s.input.Consume(ControlInteract) {
		s.enterNearestVehicle()
	}
}

func (s *Session) drivePlayer(car *entity.Vehicle, dt float64) {
	control := physics.Control{
		Throttle: s.input.Axis(ControlDown, ControlUp),
		Steer:    s.input.Axis(ControlLeft, ControlRight),
	}
	car.Drive(control, dt, s.city.Bounds)
	car.SirenPhase += SirenRate * dt
	s.syncPlayerToVehicle()
	if s.input.Consume(ControlInteract) && math.Abs(car.ForwardSpeed) < ExitMaxSpeed {
		s.exitVehicle(car)
	}
}

// syncPlayerToVehicle переносит игрока вместе с его машиной
func (s *Session) syncPlayerToVehicle() {
	p := s.store.Player
	car, ok := s.store.PlayerVehicle()
	if !ok {
		return
	}
	p.Pos = car.Pos
	p.Vel = car.Vel
	p.Facing = car.Heading
}

func (s *Session) enterNearestVehicle() {
	p := s.store.Player
	var nearest *entity.Vehicle
	best := InteractionRange
	for _, v := range s.store.Vehicles {
		if d := v.Pos.DistanceTo(p.Pos); d < best {
			best = d
			nearest = v
		}
	}
	if nearest == nil {
		return
	}

	p.VehicleID = nearest.ID
	nearest.Parked = false
	s.syncPlayerToVehicle()
	if nearest.Police() {
		s.pursuit.AddWanted(PoliceCarWanted, s.time)
	}
	s.emit(Event{Kind: EventVehicleEntered, Entity: nearest.ID})
}

func (s *Session) exitVehicle(car *entity.Vehicle) {
	p := s.store.Player
	side := 1.0
	if v := math.Sin(s.time * ExitSideFreq); v < 0 {
		side = -1
	}
	offset := vec.FromAngle(car.Heading + side*math.Pi/2).Mul(car.Radius + p.Radius + ExitGap)

	p.VehicleID = entity.None
	p.Pos = car.Pos.Add(offset)
	p.Vel = car.Vel.Mul(ExitVelocityKeep)
	physics.ClampToBounds(&p.Circle, s.city.Bounds)
	_, s.scratch = s.city.ResolveAgainstBuildings(&p.Circle, s.scratch)
	s.emit(Event{Kind: EventVehicleExited, Entity: car.ID})
}

// fire выпускает пулю по направлению взгляда, если оружие готово
func (s *Session) fire() {
	p := s.store.Player
	if s.time < p.WeaponReadyAt {
		return
	}
	p.WeaponReadyAt = s.time + combat.FireCooldown

	radius := p.Radius
	if car, ok := s.store.PlayerVehicle(); ok {
		radius = car.Radius
	}
	origin := p.Pos.Add(vec.FromAngle(p.Facing).Mul(radius + combat.MuzzleGap))
	shot := combat.Fire(s.rng, s.store, origin, p.Facing)
	s.pursuit.AddWanted(combat.ShotWanted, s.time)
	s.emit(Event{Kind: EventShotFired, Entity: shot.ID})
}

// respawn возвращает игрока на точку возрождения пешком и без скорости
func (s *Session) respawn() {
	p := s.store.Player
	p.VehicleID = entity.None
	p.Pos = RespawnPoint
	p.Vel = vec.Vec2Float{}
}
