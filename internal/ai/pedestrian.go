package ai

import (
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
)

// Параметры прохожих
const (
	PedestrianRadius   = 9.0
	PedestrianMass     = 82.0
	PedestrianMinSpeed = 32.0
	PedestrianMaxSpeed = 56.0
	PedestrianAccel    = 170.0
	PedestrianDrag     = 3.8
	NodeArrival        = 20.0
	PanicSpeedBoost    = 48.0
	StunDamping        = 5.0
	OutfitCount        = 5
)

// UpdatePedestrian ведёт прохожего к узлу тротуара. Паника ускоряет его,
// оглушение отключает поиск цели и только гасит скорость.
func UpdatePedestrian(ctx *Context, ped *entity.Pedestrian, dt float64) {
	bounds := ctx.City.Bounds
	nodes := ctx.City.SidewalkNodes

	switch {
	case ped.Stun > 0:
		ped.Stun = max(0, ped.Stun-dt)
		physics.Damp(&ped.Circle, StunDamping, dt, bounds)

	case len(nodes) == 0 || ped.TargetNode < 0 || ped.TargetNode >= len(nodes):
		// Узел потерян: просто тормозим
		physics.Damp(&ped.Circle, PedestrianDrag, dt, bounds)
		ped.Panic = max(0, ped.Panic-dt)

	default:
		delta := nodes[ped.TargetNode].Sub(ped.Pos)
		var dir vec.Vec2Float
		if dist := delta.Length(); dist < NodeArrival {
			ped.TargetNode = ctx.Rng.Intn(len(nodes))
		} else {
			dir = delta.Mul(1 / dist)
		}

		maxSpeed := ped.MaxSpeed
		if ped.Panic > 0 {
			maxSpeed += PanicSpeedBoost
		}
		physics.Walk(&ped.Circle, dir, physics.WalkSpec{
			Accel:    PedestrianAccel,
			Drag:     PedestrianDrag,
			MaxSpeed: maxSpeed,
		}, dt, bounds)
		ped.Panic = max(0, ped.Panic-dt)
	}

	ctx.resolveBuildings(&ped.Circle)
}
