package physics

import (
	"math"

	"github.com/annel0/street-pursuit/internal/vec"
)

// SegmentHitsRect проверяет, пересекает ли отрезок a→b прямоугольник (метод слэбов)
func SegmentHitsRect(a, b vec.Vec2Float, r Rect) bool {
	if !r.HasInterior() {
		return false
	}
	if r.Contains(a) || r.Contains(b) {
		return true
	}

	d := b.Sub(a)
	tMin, tMax := 0.0, 1.0

	clip := func(origin, delta, lo, hi float64) bool {
		if math.Abs(delta) < 1e-12 {
			return origin >= lo && origin <= hi
		}
		t1 := (lo - origin) / delta
		t2 := (hi - origin) / delta
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		return tMin <= tMax
	}

	return clip(a.X, d.X, r.X, r.Right()) && clip(a.Y, d.Y, r.Y, r.Bottom())
}

// SegmentHitsCircle проверяет, проходит ли отрезок a→b ближе radius к center
func SegmentHitsCircle(a, b, center vec.Vec2Float, radius float64) bool {
	d := b.Sub(a)
	lenSq := d.Dot(d)
	t := 0.0
	if lenSq > 1e-12 {
		t = Clamp(center.Sub(a).Dot(d)/lenSq, 0, 1)
	}
	closest := a.Add(d.Mul(t))
	return closest.DistanceTo(center) <= radius
}
