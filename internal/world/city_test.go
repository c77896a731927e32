package world

import (
	"testing"

	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/util"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestCity(seed int64) *CityMap {
	return NewCityGenerator().Generate(util.NewRand(seed), util.NewNoise(seed))
}

func TestCityGenerator_Layout(t *testing.T) {
	m := generateTestCity(20260207)

	assert.Equal(t, physics.Rect{X: 0, Y: 0, W: 3600, H: 2600}, m.Bounds)
	assert.Len(t, m.Roads, 11, "6 вертикальных и 5 горизонтальных дорог")
	assert.Len(t, m.Buildings, 20, "По зданию на каждый квартал 5×4")
	assert.Len(t, m.SidewalkNodes, 6*5*4, "Четыре узла на перекрёсток")
	assert.Len(t, m.CarPaths, 11, "Петля на каждую дорогу")

	for _, p := range m.CarPaths {
		assert.Len(t, p, 4)
	}
}

func TestCityGenerator_BuildingsInsideBlocks(t *testing.T) {
	m := generateTestCity(20260207)

	for i, b := range m.Buildings {
		assert.True(t, b.HasInterior(), "Здание %d имеет площадь", i)
		assert.True(t, m.Bounds.Contains(vec.Vec2Float{X: b.X, Y: b.Y}))
		assert.GreaterOrEqual(t, b.Palette, 0)
		assert.Less(t, b.Palette, PaletteSize)

		for _, r := range m.Roads {
			assert.False(t, b.Intersects(r.Rect), "Здание %d не заходит на дорогу", i)
		}
	}
}

func TestCityGenerator_Deterministic(t *testing.T) {
	a := generateTestCity(99)
	b := generateTestCity(99)

	assert.Equal(t, a.Buildings, b.Buildings, "Один сид, один город")
	assert.Equal(t, a.SidewalkNodes, b.SidewalkNodes)
}

func TestPathAtWraps(t *testing.T) {
	p := Path{{X: 0}, {X: 1}, {X: 2}}

	assert.Equal(t, 0.0, p.At(3).X)
	assert.Equal(t, 2.0, p.At(-1).X)
}

func TestBuildingsNear_MatchesFullScan(t *testing.T) {
	m := generateTestCity(20260207)

	probes := []vec.Vec2Float{
		{X: 520, Y: 460}, {X: 1700, Y: 1100}, {X: 3590, Y: 2590}, {X: 0, Y: 0}, {X: 1170, Y: 1590},
	}
	var buf []int
	for _, p := range probes {
		const radius = 40.0
		buf = m.BuildingsNear(p, radius, buf)

		area := physics.Rect{X: p.X - radius, Y: p.Y - radius, W: 2 * radius, H: 2 * radius}
		for i, b := range m.Buildings {
			if b.Intersects(area) {
				assert.Contains(t, buf, i, "Индекс содержит все пересекающие здания")
			}
		}
		assert.IsIncreasing(t, buf, "Индексы возвращаются по возрастанию")
	}
}

func TestResolveAgainstBuildings(t *testing.T) {
	m := generateTestCity(20260207)
	require.NotEmpty(t, m.Buildings)

	center := m.Buildings[0].Center()
	c := &physics.Circle{Pos: center, Radius: 13, Mass: 85}

	hits, _ := m.ResolveAgainstBuildings(c, nil)

	assert.Equal(t, 1, hits)
	dist := c.Pos.DistanceTo(m.Buildings[0].ClosestPoint(c.Pos))
	assert.GreaterOrEqual(t, dist, c.Radius-1e-9, "Тело вытолкнуто из здания")
}

func TestSpatialIndex_Empty(t *testing.T) {
	si := NewSpatialIndex(0, nil)

	assert.Equal(t, 0, si.Len())
	assert.Empty(t, si.QueryRange(vec.Vec2Float{X: 10, Y: 10}, 5, nil))
}
