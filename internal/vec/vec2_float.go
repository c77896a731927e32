package vec

import "math"

// Vec2Float представляет 2D координаты с плавающей точкой (мировые пиксели)
type Vec2Float struct {
	X, Y float64
}

// FromAngle возвращает единичный вектор в направлении угла (радианы)
func FromAngle(angle float64) Vec2Float {
	return Vec2Float{X: math.Cos(angle), Y: math.Sin(angle)}
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2Float) Sub(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2Float) Mul(scalar float64) Vec2Float {
	return Vec2Float{X: v.X * scalar, Y: v.Y * scalar}
}

// Dot возвращает скалярное произведение
func (v Vec2Float) Dot(other Vec2Float) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Perp возвращает вектор, повёрнутый на +90° (правая нормаль в экранных координатах)
func (v Vec2Float) Perp() Vec2Float {
	return Vec2Float{X: -v.Y, Y: v.X}
}

// Normalized возвращает нормализованный вектор
func (v Vec2Float) Normalized() Vec2Float {
	length := v.Length()
	if length == 0 {
		return Vec2Float{X: 0, Y: 0}
	}
	return Vec2Float{X: v.X / length, Y: v.Y / length}
}

// Length возвращает длину вектора
func (v Vec2Float) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Angle возвращает направление вектора в радианах
func (v Vec2Float) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2Float) DistanceTo(other Vec2Float) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Lerp линейно интерполирует между v и other
func (v Vec2Float) Lerp(other Vec2Float, t float64) Vec2Float {
	return Vec2Float{X: v.X + (other.X-v.X)*t, Y: v.Y + (other.Y-v.Y)*t}
}

// IsZero проверяет, нулевой ли вектор
func (v Vec2Float) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
