package physics

import (
	"math"

	"github.com/annel0/street-pursuit/internal/vec"
)

const (
	// degenerateDistance это ниже этого расстояния нормаль считается неопределённой
	degenerateDistance = 0.0001

	// SeparationFactor это доля перекрытия, снимаемая за один проход тело-тело
	SeparationFactor = 0.96
)

// Rect представляет статический осевой прямоугольник (дорога, здание)
type Rect struct {
	X, Y float64
	W, H float64
}

// Right возвращает правую границу
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom возвращает нижнюю границу
func (r Rect) Bottom() float64 { return r.Y + r.H }

// HasInterior проверяет, что у прямоугольника есть площадь
func (r Rect) HasInterior() bool { return r.W > 0 && r.H > 0 }

// Center возвращает центр прямоугольника
func (r Rect) Center() vec.Vec2Float {
	return vec.Vec2Float{X: r.X + r.W*0.5, Y: r.Y + r.H*0.5}
}

// Contains проверяет, лежит ли точка внутри или на границе
func (r Rect) Contains(p vec.Vec2Float) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Inflate расширяет прямоугольник на d во все стороны
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Intersects проверяет пересечение двух прямоугольников
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && r.Right() > o.X && r.Y < o.Bottom() && r.Bottom() > o.Y
}

// ClosestPoint возвращает ближайшую к p точку прямоугольника
func (r Rect) ClosestPoint(p vec.Vec2Float) vec.Vec2Float {
	return vec.Vec2Float{
		X: Clamp(p.X, r.X, r.Right()),
		Y: Clamp(p.Y, r.Y, r.Bottom()),
	}
}

// Circle это физическое тело: позиция, скорость, радиус и масса.
// Радиус и масса строго положительны и не меняются за время жизни тела.
type Circle struct {
	Pos    vec.Vec2Float
	Vel    vec.Vec2Float
	Radius float64
	Mass   float64
}

// Body это способность участвовать в физических столкновениях.
// Сущности получают её, встраивая Circle.
type Body interface {
	Body() *Circle
}

// Body возвращает само тело
func (c *Circle) Body() *Circle { return c }

// Clamp ограничивает значение диапазоном [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// ResolveCircleVsRect выталкивает тело из прямоугольника и гасит входящую
// составляющую скорости (скольжение, не отскок). Возвращает true при контакте.
func ResolveCircleVsRect(c *Circle, r Rect) bool {
	if !r.HasInterior() {
		return false
	}

	closest := r.ClosestPoint(c.Pos)
	delta := c.Pos.Sub(closest)
	distance := delta.Length()
	if distance >= c.Radius {
		return false
	}

	var normal vec.Vec2Float
	var push float64

	if distance < degenerateDistance {
		// Центр внутри или на границе: выталкиваем через ближайшую грань
		fromLeft := math.Abs(c.Pos.X - r.X)
		fromRight := math.Abs(c.Pos.X - r.Right())
		fromTop := math.Abs(c.Pos.Y - r.Y)
		fromBottom := math.Abs(c.Pos.Y - r.Bottom())
		minEdge := math.Min(math.Min(fromLeft, fromRight), math.Min(fromTop, fromBottom))

		switch minEdge {
		case fromLeft:
			normal = vec.Vec2Float{X: -1, Y: 0}
		case fromRight:
			normal = vec.Vec2Float{X: 1, Y: 0}
		case fromTop:
			normal = vec.Vec2Float{X: 0, Y: -1}
		default:
			normal = vec.Vec2Float{X: 0, Y: 1}
		}
		push = minEdge + c.Radius
	} else {
		normal = delta.Mul(1 / distance)
		push = c.Radius - distance
	}

	c.Pos = c.Pos.Add(normal.Mul(push))

	if into := c.Vel.Dot(normal); into < 0 {
		c.Vel = c.Vel.Sub(normal.Mul(into))
	}
	return true
}

// ResolveDynamicCircle разводит два тела пропорционально обратным массам и
// применяет импульс с коэффициентом восстановления. Возвращает скорость
// сближения вдоль нормали (0, если тела не сталкиваются или расходятся).
func ResolveDynamicCircle(a, b *Circle, restitution float64) float64 {
	dx := b.Pos.X - a.Pos.X
	dy := b.Pos.Y - a.Pos.Y
	minDist := a.Radius + b.Radius
	distSq := dx*dx + dy*dy
	if distSq >= minDist*minDist {
		return 0
	}

	dist := math.Sqrt(distSq)
	normal := vec.Vec2Float{X: 1, Y: 0}
	if dist > degenerateDistance {
		normal = vec.Vec2Float{X: dx / dist, Y: dy / dist}
	} else {
		dist = minDist
	}

	invMassA := 1 / math.Max(1, a.Mass)
	invMassB := 1 / math.Max(1, b.Mass)
	sumInvMass := invMassA + invMassB
	separation := (minDist - dist) * SeparationFactor

	a.Pos = a.Pos.Sub(normal.Mul(separation * invMassA / sumInvMass))
	b.Pos = b.Pos.Add(normal.Mul(separation * invMassB / sumInvMass))

	velocityAlongNormal := b.Vel.Sub(a.Vel).Dot(normal)
	if velocityAlongNormal >= 0 {
		return 0
	}

	j := -(1 + restitution) * velocityAlongNormal / sumInvMass
	impulse := normal.Mul(j)
	a.Vel = a.Vel.Sub(impulse.Mul(invMassA))
	b.Vel = b.Vel.Add(impulse.Mul(invMassB))
	return -velocityAlongNormal
}

// ClampToBounds удерживает центр тела внутри мира с учётом радиуса
func ClampToBounds(c *Circle, bounds Rect) {
	c.Pos.X = Clamp(c.Pos.X, bounds.X+c.Radius, bounds.Right()-c.Radius)
	c.Pos.Y = Clamp(c.Pos.Y, bounds.Y+c.Radius, bounds.Bottom()-c.Radius)
}
