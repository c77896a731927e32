package ai

import (
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
)

// Параметры пеших офицеров
const (
	OfficerRadius       = 11.0
	OfficerMass         = 90.0
	OfficerHP           = 60.0
	OfficerAccel        = 520.0
	OfficerDrag         = 4.2
	OfficerMaxSpeed     = 150.0
	OfficerChaseWanted  = 0.6 // выше: бежит за игроком, ниже: к машине
	OfficerReboardRange = 30.0
	OfficerContactReach = 6.0 // зазор контакта сверх суммы радиусов
)

var officerWalk = physics.WalkSpec{Accel: OfficerAccel, Drag: OfficerDrag, MaxSpeed: OfficerMaxSpeed}

// UpdateOfficer двигает офицера. Возвращает true, если офицер вернулся
// в машину и должен быть убран.
func UpdateOfficer(ctx *Context, o *entity.Officer, dt float64) bool {
	bounds := ctx.City.Bounds

	if o.Stun > 0 {
		o.Stun = max(0, o.Stun-dt)
		physics.Damp(&o.Circle, StunDamping, dt, bounds)
		ctx.resolveBuildings(&o.Circle)
		return false
	}

	home, hasHome := ctx.Store.Vehicle(o.HomeVehicle)

	var target vec.Vec2Float
	switch {
	case ctx.Wanted > OfficerChaseWanted:
		target = ctx.Anchor
	case hasHome:
		target = home.Pos
		if ctx.Wanted <= PursuitThreshold && o.Pos.DistanceTo(home.Pos) <= home.Radius+OfficerReboardRange {
			return true
		}
	default:
		// Машины нет: садиться некуда, уходим со сцены
		if ctx.Wanted <= PursuitThreshold {
			return true
		}
		target = o.Pos
	}

	dir := target.Sub(o.Pos).Normalized()
	physics.Walk(&o.Circle, dir, officerWalk, dt, bounds)
	if o.Vel.Length() > 8 {
		o.Facing = o.Vel.Angle()
	}
	ctx.resolveBuildings(&o.Circle)
	return false
}

// OfficerInContact проверяет, достаёт ли офицер до игрока
func OfficerInContact(o *entity.Officer, anchor vec.Vec2Float, anchorRadius float64) bool {
	if !o.Alive() || o.Stun > 0 {
		return false
	}
	return o.Pos.DistanceTo(anchor) <= o.Radius+anchorRadius+OfficerContactReach
}
