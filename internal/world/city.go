package world

import (
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
)

// Orientation это направление дороги
type Orientation uint8

const (
	Vertical Orientation = iota
	Horizontal
)

// Road это полоса дороги
type Road struct {
	physics.Rect
	Orientation Orientation
}

// Building это непроходимый квартал. Palette: индекс цвета для клиента.
type Building struct {
	physics.Rect
	Palette int
}

// Path это замкнутый маршрут из точек
type Path []vec.Vec2Float

// At возвращает точку по индексу с заворачиванием
func (p Path) At(i int) vec.Vec2Float {
	n := len(p)
	return p[((i%n)+n)%n]
}

// CityMap это неизменяемая геометрия мира, генерируется один раз на сессию
type CityMap struct {
	Bounds        physics.Rect
	Roads         []Road
	Buildings     []Building
	SidewalkNodes []vec.Vec2Float
	CarPaths      []Path
	VRoadCenters  []float64
	HRoadCenters  []float64

	rects []physics.Rect
	index *SpatialIndex
}

// newCityMap завершает сборку карты и строит индекс зданий
func newCityMap(m *CityMap) *CityMap {
	m.rects = make([]physics.Rect, len(m.Buildings))
	for i, b := range m.Buildings {
		m.rects[i] = b.Rect
	}
	m.index = NewSpatialIndex(buildingCellSize, m.rects)
	return m
}

// BuildingRect возвращает прямоугольник здания по индексу
func (m *CityMap) BuildingRect(i int) physics.Rect {
	return m.rects[i]
}

// BuildingsNear возвращает индексы зданий рядом с точкой (по возрастанию)
func (m *CityMap) BuildingsNear(center vec.Vec2Float, radius float64, buf []int) []int {
	return m.index.QueryRange(center, radius, buf)
}

// ResolveAgainstBuildings выталкивает тело из всех зданий поблизости.
// Возвращает число контактов.
func (m *CityMap) ResolveAgainstBuildings(c *physics.Circle, buf []int) (int, []int) {
	buf = m.BuildingsNear(c.Pos, c.Radius, buf)
	hits := 0
	for _, i := range buf {
		if physics.ResolveCircleVsRect(c, m.rects[i]) {
			hits++
		}
	}
	return hits, buf
}

// InBounds проверяет, лежит ли точка внутри мира
func (m *CityMap) InBounds(p vec.Vec2Float) bool {
	return m.Bounds.Contains(p)
}
