package ai

import (
	"math"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
)

// PoliceMode это состояние полицейской машины
type PoliceMode uint8

const (
	ModePatrol PoliceMode = iota
	ModePursuit
	ModeHolding
)

// String возвращает имя состояния
func (m PoliceMode) String() string {
	switch m {
	case ModePursuit:
		return "pursuit"
	case ModeHolding:
		return "holding"
	default:
		return "patrol"
	}
}

// Параметры полицейского поведения
const (
	PursuitThreshold  = 0.2  // розыск, выше которого начинается погоня
	PursuitSpeedBias  = 1.55 // надбавка к крейсерской скорости в погоне
	PursuitBrakeRange = 110.0
	PatrolThrottleMin = 0.35
	DeployWanted      = 2.0 // минимальный розыск для высадки офицера
	DeployRange       = 170.0
	RedeployCooldown  = 8.0
	HoldingSpeedBias  = 0.6
	HoldingBrakeRange = 60.0
	OfficerHomeOffset = 8.0 // офицер появляется у борта машины
)

// PoliceDecision это результат решения полицейской машины за тик
type PoliceDecision struct {
	Mode   PoliceMode
	Deploy bool // пора высадить офицера
}

// PoliceModeFor определяет состояние машины без побочных эффектов
func PoliceModeFor(ctx *Context, car *entity.Vehicle) PoliceMode {
	if _, ok := ctx.Store.Officer(car.OfficerID); ok {
		return ModeHolding
	}
	if ctx.Wanted > PursuitThreshold {
		return ModePursuit
	}
	return ModePatrol
}

// PoliceControl строит управление полицейской машиной.
// Висячая ссылка на офицера сбрасывается, и машина ведёт себя как без него.
func PoliceControl(ctx *Context, car *entity.Vehicle) (physics.Control, PoliceDecision) {
	if car.OfficerID.Valid() {
		if _, ok := ctx.Store.Officer(car.OfficerID); !ok {
			car.OfficerID = entity.None
		}
	}

	mode := PoliceModeFor(ctx, car)
	switch mode {
	case ModeHolding:
		officer, _ := ctx.Store.Officer(car.OfficerID)
		ctl, distance := DriveToward(car, officer.Pos, HoldingSpeedBias, ctx.Store.Vehicles)
		if distance < HoldingBrakeRange {
			ctl.Throttle = 0
			ctl.Brake = 1
		}
		return ctl, PoliceDecision{Mode: mode}

	case ModePursuit:
		ctl, distance := DriveToward(car, ctx.Anchor, PursuitSpeedBias, ctx.Store.Vehicles)
		if distance < PursuitBrakeRange {
			ctl.Brake = math.Max(ctl.Brake, 0.6)
			ctl.Throttle = math.Min(ctl.Throttle, 0.3)
		}
		deploy := ctx.Wanted >= DeployWanted &&
			distance < DeployRange &&
			!car.OfficerID.Valid() &&
			ctx.Time >= car.RedeployAt
		return ctl, PoliceDecision{Mode: mode, Deploy: deploy}

	default:
		ctl := TrafficControl(ctx, car)
		ctl.Throttle = math.Max(ctl.Throttle, PatrolThrottleMin)
		return ctl, PoliceDecision{Mode: mode}
	}
}

// DeployOfficer высаживает офицера у борта машины и занимает её слот
func DeployOfficer(ctx *Context, car *entity.Vehicle) *entity.Officer {
	side := car.Forward().Perp()
	pos := car.Pos.Add(side.Mul(car.Radius + OfficerRadius + OfficerHomeOffset))

	officer := ctx.Store.AddOfficer(&entity.Officer{
		Circle: physics.Circle{
			Pos:    pos,
			Vel:    car.Vel.Mul(0.2),
			Radius: OfficerRadius,
			Mass:   OfficerMass,
		},
		HP:          OfficerHP,
		Facing:      car.Heading,
		HomeVehicle: car.ID,
	})
	physics.ClampToBounds(&officer.Circle, ctx.City.Bounds)

	car.OfficerID = officer.ID
	car.RedeployAt = ctx.Time + RedeployCooldown
	return officer
}
