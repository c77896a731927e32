package world

import (
	"math"
	"sort"

	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
)

// SpatialIndex это равномерная сетка над статическими прямоугольниками.
// Строится один раз и дальше только читается.
type SpatialIndex struct {
	cellSize float64
	cells    map[cellKey][]int
	count    int
}

// cellKey представляет ключ ячейки в пространственной сетке
type cellKey struct {
	x, y int
}

// NewSpatialIndex строит индекс над прямоугольниками
func NewSpatialIndex(cellSize float64, rects []physics.Rect) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = 256
	}

	si := &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int),
		count:    len(rects),
	}

	for i, r := range rects {
		for _, key := range si.getCellsForBounds(r) {
			si.cells[key] = append(si.cells[key], i)
		}
	}
	return si
}

// getCellsForBounds возвращает ячейки, которые покрывает прямоугольник
func (si *SpatialIndex) getCellsForBounds(r physics.Rect) []cellKey {
	minX := int(math.Floor(r.X / si.cellSize))
	minY := int(math.Floor(r.Y / si.cellSize))
	maxX := int(math.Floor(r.Right() / si.cellSize))
	maxY := int(math.Floor(r.Bottom() / si.cellSize))

	keys := make([]cellKey, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			keys = append(keys, cellKey{x: x, y: y})
		}
	}
	return keys
}

// QueryRange возвращает индексы прямоугольников, чьи ячейки пересекают
// квадрат вокруг точки. Индексы отсортированы по возрастанию и уникальны,
// поэтому порядок обхода совпадает с полным перебором.
func (si *SpatialIndex) QueryRange(center vec.Vec2Float, radius float64, buf []int) []int {
	result := buf[:0]
	area := physics.Rect{X: center.X - radius, Y: center.Y - radius, W: 2 * radius, H: 2 * radius}

	for _, key := range si.getCellsForBounds(area) {
		result = append(result, si.cells[key]...)
	}
	if len(result) < 2 {
		return result
	}

	sort.Ints(result)
	unique := result[:1]
	for _, idx := range result[1:] {
		if idx != unique[len(unique)-1] {
			unique = append(unique, idx)
		}
	}
	return unique
}

// Len возвращает число проиндексированных прямоугольников
func (si *SpatialIndex) Len() int { return si.count }
