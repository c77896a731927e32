package physics

import (
	"math"

	"github.com/annel0/street-pursuit/internal/vec"
)

// Аркадная модель автомобиля. Константы подобраны эмпирически.
const (
	ReverseThrottleFactor = 0.65  // задний ход слабее переднего
	RollingBrake          = 230.0 // постоянное торможение качения, px/s²
	LongitudinalDamping   = 1.35  // экспоненциальное затухание продольной скорости
	SteerReferenceSpeed   = 170.0
	MinSteerScale         = 0.22
	MaxSteerScale         = 1.45
	WallAbsorb            = 0.2 // доля отражённой скорости на краю мира
	WallForwardDamp       = 0.4 // гашение продольной скорости при ударе
)

// Control это управляющий сигнал автомобиля
type Control struct {
	Throttle float64 // [-1, 1]
	Brake    float64 // [0, 1]
	Steer    float64 // [-1, 1]
}

// Clamped возвращает сигнал, приведённый к допустимым диапазонам
func (c Control) Clamped() Control {
	return Control{
		Throttle: Clamp(c.Throttle, -1, 1),
		Brake:    Clamp(c.Brake, 0, 1),
		Steer:    Clamp(c.Steer, -1, 1),
	}
}

// VehicleSpec описывает ходовые характеристики автомобиля
type VehicleSpec struct {
	EngineAccel float64
	BrakePower  float64
	SteerPower  float64
	MaxForward  float64
	MaxReverse  float64
	Grip        float64
}

// Car это тело автомобиля с курсом и продольной скоростью
type Car struct {
	Circle
	Heading      float64
	ForwardSpeed float64
	Spec         VehicleSpec
}

// Forward возвращает единичный вектор курса
func (car *Car) Forward() vec.Vec2Float {
	return vec.FromAngle(car.Heading)
}

// Drive продвигает автомобиль на dt по управляющему сигналу
func (car *Car) Drive(control Control, dt float64, bounds Rect) {
	ctl := control.Clamped()

	fwd := car.Forward()
	side := fwd.Perp()

	forward := car.Vel.Dot(fwd)
	lateral := car.Vel.Dot(side)

	accel := ctl.Throttle * car.Spec.EngineAccel
	if ctl.Throttle < 0 {
		accel *= ReverseThrottleFactor
	}
	forward += accel * dt

	// Тормоз уменьшает модуль скорости, но не меняет её знак за один тик
	brakeStep := (RollingBrake + car.Spec.BrakePower*ctl.Brake) * dt
	if math.Abs(forward) <= brakeStep {
		forward = 0
	} else {
		forward -= math.Copysign(brakeStep, forward)
	}
	forward *= math.Exp(-LongitudinalDamping * dt)
	forward = Clamp(forward, -car.Spec.MaxReverse, car.Spec.MaxForward)

	lateral *= 1 - Clamp(car.Spec.Grip*dt, 0, 1)

	steerScale := Clamp(math.Abs(forward)/SteerReferenceSpeed, MinSteerScale, MaxSteerScale)
	direction := 1.0
	if forward < 0 {
		direction = -1
	}
	car.Heading += ctl.Steer * car.Spec.SteerPower * steerScale * dt * direction

	car.Vel = fwd.Mul(forward).Add(side.Mul(lateral))
	car.Pos = car.Pos.Add(car.Vel.Mul(dt))
	car.ForwardSpeed = forward

	car.keepInside(bounds)
}

// keepInside возвращает автомобиль в пределы мира, поглощая удар о край
func (car *Car) keepInside(bounds Rect) {
	r := car.Radius
	if car.Pos.X < bounds.X+r {
		car.Pos.X = bounds.X + r
		car.Vel.X = math.Abs(car.Vel.X) * WallAbsorb
		car.ForwardSpeed *= WallForwardDamp
	}
	if car.Pos.X > bounds.Right()-r {
		car.Pos.X = bounds.Right() - r
		car.Vel.X = -math.Abs(car.Vel.X) * WallAbsorb
		car.ForwardSpeed *= WallForwardDamp
	}
	if car.Pos.Y < bounds.Y+r {
		car.Pos.Y = bounds.Y + r
		car.Vel.Y = math.Abs(car.Vel.Y) * WallAbsorb
		car.ForwardSpeed *= WallForwardDamp
	}
	if car.Pos.Y > bounds.Bottom()-r {
		car.Pos.Y = bounds.Bottom() - r
		car.Vel.Y = -math.Abs(car.Vel.Y) * WallAbsorb
		car.ForwardSpeed *= WallForwardDamp
	}
}

// WalkSpec описывает пешее движение
type WalkSpec struct {
	Accel    float64
	Drag     float64
	MaxSpeed float64
}

// Walk разгоняет тело по направлению ввода, гасит скорость сопротивлением,
// ограничивает её и интегрирует позицию. Возвращает скорость до ограничения.
func Walk(c *Circle, input vec.Vec2Float, spec WalkSpec, dt float64, bounds Rect) float64 {
	length := input.Length()
	if length == 0 {
		length = 1
	}
	dir := input.Mul(1 / length)

	c.Vel = c.Vel.Add(dir.Mul(spec.Accel * dt))
	c.Vel = c.Vel.Mul(math.Exp(-spec.Drag * dt))

	speed := c.Vel.Length()
	if speed > spec.MaxSpeed {
		c.Vel = c.Vel.Mul(spec.MaxSpeed / speed)
	}

	c.Pos = c.Pos.Add(c.Vel.Mul(dt))
	ClampToBounds(c, bounds)
	return speed
}

// Damp экспоненциально гасит скорость и интегрирует позицию (оглушённые тела)
func Damp(c *Circle, rate, dt float64, bounds Rect) {
	c.Vel = c.Vel.Mul(math.Exp(-rate * dt))
	c.Pos = c.Pos.Add(c.Vel.Mul(dt))
	ClampToBounds(c, bounds)
}
