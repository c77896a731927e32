// Package mission реализует ротацию заданий: добраться до точки,
// уничтожить мишени, пригнать машину.
package mission

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/util"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/annel0/street-pursuit/internal/world"
)

// Kind это архетип задания
type Kind uint8

const (
	KindReach Kind = iota
	KindShoot
	KindDrive
	kindCount
)

// String возвращает имя архетипа
func (k Kind) String() string {
	switch k {
	case KindShoot:
		return "shoot"
	case KindDrive:
		return "drive"
	default:
		return "reach"
	}
}

// MarshalText кодирует архетип именем
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText разбирает имя архетипа
func (k *Kind) UnmarshalText(text []byte) error {
	for c := Kind(0); c < kindCount; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("неизвестный тип задания %q", text)
}

// Параметры заданий
const (
	ReachRadius  = 60.0
	ReachReward  = 250.0
	ShootRadius  = 60.0
	ShootReward  = 400.0
	DriveRadius  = 80.0
	DriveReward  = 500.0
	RoundBonus   = 0.25 // прибавка к награде за каждый круг ротации
	BaseTargets  = 3
	ExtraTargets = 3 // сверх базы, по одной за круг

	TargetHP       = 40.0
	TargetRadius   = 14.0
	TargetRingMin  = 70.0
	TargetRingMax  = 110.0
	TargetJitter   = 0.35
	WaypointMinGap = 600.0 // точка задания не ближе этого к игроку
	WaypointTries  = 12

	CompleteCooldown = 3.0
	ResetCooldown    = 1.5
)

// Task это активное задание
type Task struct {
	Kind        Kind          `json:"kind"`
	Stage       int           `json:"stage"`
	Waypoint    vec.Vec2Float `json:"waypoint"`
	Radius      float64       `json:"radius"`
	Reward      float64       `json:"reward"`
	TargetCount int           `json:"targetCount,omitempty"`
}

// NewTask строит задание для этапа stage. Архетип: stage mod 3,
// круг stage / 3 увеличивает награду и число мишеней.
func NewTask(stage int, waypoint vec.Vec2Float) Task {
	round := stage / int(kindCount)
	bonus := 1 + RoundBonus*float64(round)
	task := Task{
		Kind:     Kind(stage % int(kindCount)),
		Stage:    stage,
		Waypoint: waypoint,
	}

	switch task.Kind {
	case KindReach:
		task.Radius = ReachRadius
		task.Reward = ReachReward * bonus
	case KindShoot:
		task.Radius = ShootRadius
		task.Reward = ShootReward * bonus
		task.TargetCount = BaseTargets + min(round, ExtraTargets)
	case KindDrive:
		task.Radius = DriveRadius
		task.Reward = DriveReward * bonus
	}
	return task
}

// PickWaypoint выбирает случайный узел тротуара не ближе WaypointMinGap к
// игроку. Если за WaypointTries попыток такого нет, берётся самый дальний
// из опробованных.
func PickWaypoint(rng *rand.Rand, nodes []vec.Vec2Float, anchor vec.Vec2Float) vec.Vec2Float {
	if len(nodes) == 0 {
		return anchor
	}
	best := anchor
	bestDist := -1.0
	for i := 0; i < WaypointTries; i++ {
		node := util.Choice(rng, nodes)
		d := node.DistanceTo(anchor)
		if d >= WaypointMinGap {
			return node
		}
		if d > bestDist {
			best, bestDist = node, d
		}
	}
	return best
}

// SpawnTargets расставляет мишени кольцом вокруг точки задания
func SpawnTargets(rng *rand.Rand, city *world.CityMap, store *entity.Store, task Task) {
	var scratch []int
	for i := 0; i < task.TargetCount; i++ {
		angle := 2*math.Pi*float64(i)/float64(task.TargetCount) + util.Range(rng, -TargetJitter, TargetJitter)
		dist := util.Range(rng, TargetRingMin, TargetRingMax)

		body := physics.Circle{
			Pos:    task.Waypoint.Add(vec.FromAngle(angle).Mul(dist)),
			Radius: TargetRadius,
			Mass:   1,
		}
		physics.ClampToBounds(&body, city.Bounds)
		_, scratch = city.ResolveAgainstBuildings(&body, scratch)

		store.AddTarget(&entity.MissionTarget{
			Pos:    body.Pos,
			Radius: TargetRadius,
			HP:     TargetHP,
			MaxHP:  TargetHP,
		})
	}
}
