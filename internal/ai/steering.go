package ai

import (
	"math"
	"math/rand"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/annel0/street-pursuit/internal/world"
)

// Параметры рулевого поведения машин
const (
	SteerGain        = 1.8
	MaxTurnPenalty   = 0.72
	SpeedUnderMargin = 8.0  // газ, если скорость ниже цели на столько
	SpeedOverMargin  = 28.0 // тормоз, если выше на столько
	CoastThrottle    = -0.25

	ObstacleLookAhead = 90.0
	ObstacleNear      = 45.0
	ObstacleFar       = 80.0
)

// Context содержит то, что ИИ читает из сессии за тик
type Context struct {
	City   *world.CityMap
	Store  *entity.Store
	Rng    *rand.Rand
	Wanted float64
	Anchor vec.Vec2Float
	Time   float64

	scratch []int
}

// resolveBuildings выталкивает тело из окрестных зданий
func (ctx *Context) resolveBuildings(c *physics.Circle) int {
	var hits int
	hits, ctx.scratch = ctx.City.ResolveAgainstBuildings(c, ctx.scratch)
	return hits
}

// NormalizeAngle приводит угол к диапазону (-π, π]
func NormalizeAngle(angle float64) float64 {
	angle = math.Mod(angle, 2*math.Pi)
	if angle > math.Pi {
		angle -= 2 * math.Pi
	} else if angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// ObstacleAhead возвращает расстояние до ближайшей машины впереди в коридоре
// шириной ±Width. Если впереди пусто, возвращает +Inf.
func ObstacleAhead(car *entity.Vehicle, others []*entity.Vehicle, lookAhead float64) float64 {
	fwd := car.Forward()
	closest := math.Inf(1)
	for _, other := range others {
		if other.ID == car.ID {
			continue
		}
		d := other.Pos.Sub(car.Pos)
		projection := d.Dot(fwd)
		if projection <= 0 || projection > lookAhead {
			continue
		}
		if math.Abs(d.Dot(fwd.Perp())) < car.Width {
			closest = math.Min(closest, projection)
		}
	}
	return closest
}

// DriveToward строит управление к точке target. speedBias масштабирует
// крейсерскую скорость. Возвращает управление и расстояние до цели.
func DriveToward(car *entity.Vehicle, target vec.Vec2Float, speedBias float64, others []*entity.Vehicle) (physics.Control, float64) {
	delta := target.Sub(car.Pos)
	distance := delta.Length()
	angleError := NormalizeAngle(delta.Angle() - car.Heading)

	ctl := physics.Control{Steer: physics.Clamp(angleError*SteerGain, -1, 1)}

	turnPenalty := physics.Clamp(math.Abs(angleError)/math.Pi, 0, MaxTurnPenalty)
	targetSpeed := car.CruiseSpeed * speedBias * (1 - turnPenalty)

	ctl.Throttle = CoastThrottle
	if car.ForwardSpeed < targetSpeed-SpeedUnderMargin {
		ctl.Throttle = 1
	}
	if car.ForwardSpeed > targetSpeed+SpeedOverMargin {
		ctl.Brake = 1
	}

	switch obstacle := ObstacleAhead(car, others, ObstacleLookAhead); {
	case obstacle < ObstacleNear:
		ctl.Throttle = -0.8
		ctl.Brake = 1
	case obstacle < ObstacleFar:
		ctl.Throttle = -0.4
		ctl.Brake = 0.6
	}
	return ctl, distance
}
