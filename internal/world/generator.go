package world

import (
	"math/rand"

	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/util"
	"github.com/annel0/street-pursuit/internal/vec"
)

// Константы городской сетки
const (
	WorldWidth  = 3600.0
	WorldHeight = 2600.0
	RoadWidth   = 150.0

	blockMargin      = 26.0  // отступ квартала от кромки дороги
	minBlockSize     = 120.0 // кварталы меньше этого не застраиваются
	minInset         = 6.0
	maxInset         = 24.0
	sidewalkOffset   = 24.0 // узел тротуара за кромкой дороги
	laneOffset       = 26.0 // смещение полосы от оси дороги
	pathEdgeMargin   = 120.0
	buildingCellSize = 256.0

	// PaletteSize это число цветов фасадов, индекс отдаётся клиенту
	PaletteSize = 5
)

// CityGenerator генерирует город-сетку
type CityGenerator struct {
	Width        float64
	Height       float64
	VRoadCenters []float64 // оси вертикальных дорог
	HRoadCenters []float64 // оси горизонтальных дорог
	NoiseScale   float64   // масштаб шума для отступов зданий
}

// NewCityGenerator создаёт генератор со стандартной разметкой
func NewCityGenerator() *CityGenerator {
	return &CityGenerator{
		Width:        WorldWidth,
		Height:       WorldHeight,
		VRoadCenters: []float64{420, 920, 1420, 2020, 2620, 3220},
		HRoadCenters: []float64{340, 840, 1340, 1840, 2340},
		NoiseScale:   0.0025,
	}
}

// Generate строит карту. Вся случайность берётся из rng и шума,
// поэтому одинаковый сид даёт одинаковый город.
func (g *CityGenerator) Generate(rng *rand.Rand, noise *util.Noise) *CityMap {
	m := &CityMap{
		Bounds:       physics.Rect{X: 0, Y: 0, W: g.Width, H: g.Height},
		VRoadCenters: append([]float64(nil), g.VRoadCenters...),
		HRoadCenters: append([]float64(nil), g.HRoadCenters...),
	}

	g.buildRoads(m)
	g.buildBlocks(m, rng, noise)
	g.buildSidewalks(m)
	g.buildCarPaths(m)

	return newCityMap(m)
}

func (g *CityGenerator) buildRoads(m *CityMap) {
	half := RoadWidth * 0.5
	for _, x := range g.VRoadCenters {
		m.Roads = append(m.Roads, Road{
			Rect:        physics.Rect{X: x - half, Y: 0, W: RoadWidth, H: g.Height},
			Orientation: Vertical,
		})
	}
	for _, y := range g.HRoadCenters {
		m.Roads = append(m.Roads, Road{
			Rect:        physics.Rect{X: 0, Y: y - half, W: g.Width, H: RoadWidth},
			Orientation: Horizontal,
		})
	}
}

// buildBlocks застраивает кварталы между дорогами. Отступ здания от границ
// квартала зависит от шума Перлина в центре квартала, цвет фасада: от rng.
func (g *CityGenerator) buildBlocks(m *CityMap, rng *rand.Rand, noise *util.Noise) {
	half := RoadWidth * 0.5
	for ix := 0; ix < len(g.VRoadCenters)-1; ix++ {
		for iy := 0; iy < len(g.HRoadCenters)-1; iy++ {
			left := g.VRoadCenters[ix] + half + blockMargin
			right := g.VRoadCenters[ix+1] - half - blockMargin
			top := g.HRoadCenters[iy] + half + blockMargin
			bottom := g.HRoadCenters[iy+1] - half - blockMargin

			width := right - left
			height := bottom - top
			if width <= minBlockSize || height <= minBlockSize {
				continue
			}

			cx := (left + right) * 0.5 * g.NoiseScale
			cy := (top + bottom) * 0.5 * g.NoiseScale
			insetX := minInset + (maxInset-minInset)*noise.Noise2D(cx, cy)
			insetY := minInset + (maxInset-minInset)*noise.Noise2D(cy, cx)

			m.Buildings = append(m.Buildings, Building{
				Rect: physics.Rect{
					X: left + insetX,
					Y: top + insetY,
					W: width - insetX*2,
					H: height - insetY*2,
				},
				Palette: util.Index(rng, PaletteSize),
			})
		}
	}
}

// buildSidewalks ставит по четыре узла на углах каждого перекрёстка
func (g *CityGenerator) buildSidewalks(m *CityMap) {
	offset := RoadWidth*0.5 + sidewalkOffset
	for _, vx := range g.VRoadCenters {
		for _, hy := range g.HRoadCenters {
			m.SidewalkNodes = append(m.SidewalkNodes,
				vec.Vec2Float{X: vx - offset, Y: hy - offset},
				vec.Vec2Float{X: vx + offset, Y: hy - offset},
				vec.Vec2Float{X: vx + offset, Y: hy + offset},
				vec.Vec2Float{X: vx - offset, Y: hy + offset},
			)
		}
	}
}

// buildCarPaths строит замкнутые петли по обеим полосам каждой дороги
func (g *CityGenerator) buildCarPaths(m *CityMap) {
	far := g.Width - pathEdgeMargin
	for _, y := range g.HRoadCenters {
		m.CarPaths = append(m.CarPaths, Path{
			{X: pathEdgeMargin, Y: y - laneOffset},
			{X: far, Y: y - laneOffset},
			{X: far, Y: y + laneOffset},
			{X: pathEdgeMargin, Y: y + laneOffset},
		})
	}

	far = g.Height - pathEdgeMargin
	for _, x := range g.VRoadCenters {
		m.CarPaths = append(m.CarPaths, Path{
			{X: x - laneOffset, Y: pathEdgeMargin},
			{X: x - laneOffset, Y: far},
			{X: x + laneOffset, Y: far},
			{X: x + laneOffset, Y: pathEdgeMargin},
		})
	}
}
