// Package combat отвечает за стрельбу: выпуск пуль, их полёт и попадания.
package combat

import (
	"math/rand"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/util"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/annel0/street-pursuit/internal/world"
)

// Параметры оружия и попаданий
const (
	ProjectileSpeed  = 820.0
	ProjectileLife   = 0.9
	ProjectileRadius = 2.5
	ProjectileDamage = 20.0
	Spread           = 0.045
	FireCooldown     = 0.16
	MuzzleGap        = 4.0

	OfficerStun     = 0.8
	PedestrianStun  = 1.6
	PedestrianPanic = 3.0
	VehicleNudge    = 40.0
)

// Прирост розыска за выстрел и попадания
const (
	ShotWanted       = 0.08
	OfficerWanted    = 0.9
	PedestrianWanted = 0.45
	VehicleWanted    = 0.12
)

// HitKind описывает, во что попала пуля
type HitKind uint8

const (
	HitNone HitKind = iota
	HitBuilding
	HitTarget
	HitOfficer
	HitPedestrian
	HitVehicle
	HitExpired
)

// String возвращает имя попадания
func (k HitKind) String() string {
	switch k {
	case HitBuilding:
		return "building"
	case HitTarget:
		return "target"
	case HitOfficer:
		return "officer"
	case HitPedestrian:
		return "pedestrian"
	case HitVehicle:
		return "vehicle"
	case HitExpired:
		return "expired"
	default:
		return "none"
	}
}

// Wanted возвращает прирост розыска за попадание
func (k HitKind) Wanted() float64 {
	switch k {
	case HitOfficer:
		return OfficerWanted
	case HitPedestrian:
		return PedestrianWanted
	case HitVehicle:
		return VehicleWanted
	default:
		return 0
	}
}

// Hit это результат попадания пули
type Hit struct {
	Kind       HitKind
	Projectile entity.ID
	Target     entity.ID
	Pos        vec.Vec2Float
	Destroyed  bool // мишень или офицер выведены из строя
}

// Fire выпускает пулю из точки origin в направлении angle с разбросом
func Fire(rng *rand.Rand, store *entity.Store, origin vec.Vec2Float, angle float64) *entity.Projectile {
	dir := vec.FromAngle(angle + util.Range(rng, -Spread, Spread))
	return store.AddProjectile(&entity.Projectile{
		Circle: physics.Circle{
			Pos:    origin,
			Vel:    dir.Mul(ProjectileSpeed),
			Radius: ProjectileRadius,
			Mass:   1,
		},
		Prev:   origin,
		Life:   ProjectileLife,
		Damage: ProjectileDamage,
	})
}

// Advance продвигает пулю и уменьшает её время жизни
func Advance(p *entity.Projectile, dt float64) {
	p.Prev = p.Pos
	p.Pos = p.Pos.Add(p.Vel.Mul(dt))
	p.Life -= dt
}

// Classify находит первое попадание отрезка Prev→Pos в порядке приоритета:
// здания, мишени, офицеры, прохожие, машины. Машина ignore не проверяется.
func Classify(p *entity.Projectile, city *world.CityMap, store *entity.Store, ignore entity.ID, scratch []int) (Hit, []int) {
	hit := Hit{Projectile: p.ID, Pos: p.Pos}
	a, b := p.Prev, p.Pos

	mid := a.Lerp(b, 0.5)
	reach := a.DistanceTo(b)*0.5 + p.Radius
	scratch = city.BuildingsNear(mid, reach, scratch)
	for _, i := range scratch {
		if physics.SegmentHitsRect(a, b, city.BuildingRect(i).Inflate(p.Radius)) {
			hit.Kind = HitBuilding
			return hit, scratch
		}
	}

	for _, t := range store.Targets {
		if t.HP > 0 && physics.SegmentHitsCircle(a, b, t.Pos, t.Radius+p.Radius) {
			hit.Kind, hit.Target = HitTarget, t.ID
			return hit, scratch
		}
	}
	for _, o := range store.Officers {
		if o.Alive() && physics.SegmentHitsCircle(a, b, o.Pos, o.Radius+p.Radius) {
			hit.Kind, hit.Target = HitOfficer, o.ID
			return hit, scratch
		}
	}
	for _, ped := range store.Pedestrians {
		if physics.SegmentHitsCircle(a, b, ped.Pos, ped.Radius+p.Radius) {
			hit.Kind, hit.Target = HitPedestrian, ped.ID
			return hit, scratch
		}
	}
	for _, v := range store.Vehicles {
		if v.ID != ignore && physics.SegmentHitsCircle(a, b, v.Pos, v.Radius+p.Radius) {
			hit.Kind, hit.Target = HitVehicle, v.ID
			return hit, scratch
		}
	}

	if p.Life <= 0 || !city.InBounds(p.Pos) {
		hit.Kind = HitExpired
	}
	return hit, scratch
}
