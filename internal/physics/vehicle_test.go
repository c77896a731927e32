package physics

import (
	"math"
	"testing"

	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/stretchr/testify/assert"
)

var testBounds = Rect{X: 0, Y: 0, W: 3600, H: 2600}

func newTestCar() *Car {
	return &Car{
		Circle: Circle{Pos: vec.Vec2Float{X: 1000, Y: 1000}, Radius: 20, Mass: 1650},
		Spec: VehicleSpec{
			EngineAccel: 660,
			BrakePower:  900,
			SteerPower:  2.45,
			MaxForward:  280,
			MaxReverse:  110,
			Grip:        8.3,
		},
	}
}

func TestControlClamped(t *testing.T) {
	c := Control{Throttle: 4, Brake: -2, Steer: -9}.Clamped()

	assert.Equal(t, Control{Throttle: 1, Brake: 0, Steer: -1}, c, "Управление приводится к диапазонам, а не отклоняется")
}

func TestCarDrive_AcceleratesAndClampsSpeed(t *testing.T) {
	car := newTestCar()
	for i := 0; i < 600; i++ {
		car.Drive(Control{Throttle: 1}, 1.0/60, testBounds)
	}

	assert.Greater(t, car.ForwardSpeed, 200.0, "Машина разгоняется")
	assert.LessOrEqual(t, car.ForwardSpeed, car.Spec.MaxForward, "Скорость ограничена maxForward")
	assert.Greater(t, car.Pos.X, 1000.0, "Курс 0 ведёт вправо")
}

func TestCarDrive_ReverseIsWeaker(t *testing.T) {
	fwd := newTestCar()
	rev := newTestCar()

	fwd.Drive(Control{Throttle: 1}, 0.5, testBounds)
	rev.Drive(Control{Throttle: -1}, 0.5, testBounds)

	assert.Less(t, rev.ForwardSpeed, 0.0)
	assert.Less(t, math.Abs(rev.ForwardSpeed), fwd.ForwardSpeed, "Задний ход слабее")
}

func TestCarDrive_BrakeDoesNotReverse(t *testing.T) {
	car := newTestCar()
	car.Vel = vec.Vec2Float{X: 10, Y: 0}

	car.Drive(Control{Brake: 1}, 1.0/60, testBounds)

	assert.Equal(t, 0.0, car.ForwardSpeed, "Тормоз не меняет знак скорости за тик")
}

func TestCarDrive_SteerInvertsInReverse(t *testing.T) {
	fwd := newTestCar()
	fwd.Vel = vec.Vec2Float{X: 100, Y: 0}
	rev := newTestCar()
	rev.Vel = vec.Vec2Float{X: -100, Y: 0}

	fwd.Drive(Control{Steer: 1}, 1.0/60, testBounds)
	rev.Drive(Control{Steer: 1}, 1.0/60, testBounds)

	assert.Greater(t, fwd.Heading, 0.0)
	assert.Less(t, rev.Heading, 0.0, "При движении назад руль работает наоборот")
}

func TestCarDrive_GripSuppressesSliding(t *testing.T) {
	car := newTestCar()
	car.Vel = vec.Vec2Float{X: 0, Y: 100}

	car.Drive(Control{}, 1.0/60, testBounds)

	assert.Less(t, math.Abs(car.Vel.Y), 100.0, "Боковое скольжение гасится сцеплением")
}

func TestCarDrive_WorldEdge(t *testing.T) {
	car := newTestCar()
	car.Pos = vec.Vec2Float{X: 21, Y: 500}
	car.Heading = math.Pi
	car.Vel = vec.Vec2Float{X: -250, Y: 0}

	car.Drive(Control{Throttle: 1}, 1.0/60, testBounds)

	assert.Equal(t, car.Radius, car.Pos.X, "Позиция прижата к краю мира")
	assert.GreaterOrEqual(t, car.Vel.X, 0.0, "Скорость отражена внутрь")
	assert.Less(t, car.Vel.X, car.Spec.MaxForward*WallAbsorb+1e-9, "Отражённая скорость поглощена")
}

func TestWalk_DiagonalNormalizedAndCapped(t *testing.T) {
	c := &Circle{Pos: vec.Vec2Float{X: 500, Y: 500}, Radius: 13, Mass: 85}
	spec := WalkSpec{Accel: 760, Drag: 5.2, MaxSpeed: 220}

	for i := 0; i < 300; i++ {
		Walk(c, vec.Vec2Float{X: 1, Y: 1}, spec, 1.0/60, testBounds)
	}

	assert.LessOrEqual(t, c.Vel.Length(), 220.0+1e-9, "Скорость пешехода ограничена")
	assert.InDelta(t, c.Vel.X, c.Vel.Y, 1e-9, "Диагональ нормализована")
}
