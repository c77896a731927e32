package mission

import (
	"math/rand"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/annel0/street-pursuit/internal/world"
)

// Tracker хранит прогресс ротации: этап, накопленные деньги, активное
// задание и таймер до следующего
type Tracker struct {
	Stage    int
	Cash     float64
	Active   *Task
	Cooldown float64
}

// NewTracker возвращает трекер в начале ротации
func NewTracker() *Tracker {
	return &Tracker{Cooldown: ResetCooldown}
}

// World описывает то, что трекер читает и меняет за тик
type World struct {
	Rng       *rand.Rand
	City      *world.CityMap
	Store     *entity.Store
	Anchor    vec.Vec2Float
	InVehicle bool
}

// Outcome это что произошло с заданием за тик
type Outcome struct {
	Assigned  *Task
	Completed *Task
}

// Update выдаёт задание по истечении таймера и проверяет выполнение активного
func (t *Tracker) Update(dt float64, w World) Outcome {
	var out Outcome

	if t.Active == nil {
		t.Cooldown = max(0, t.Cooldown-dt)
		if t.Cooldown > 0 {
			return out
		}
		task := NewTask(t.Stage, PickWaypoint(w.Rng, w.City.SidewalkNodes, w.Anchor))
		if task.Kind == KindShoot {
			SpawnTargets(w.Rng, w.City, w.Store, task)
		}
		t.Active = &task
		out.Assigned = &task
		return out
	}

	if !t.done(w) {
		return out
	}

	completed := *t.Active
	t.Cash += completed.Reward
	t.Stage++
	t.Active = nil
	t.Cooldown = CompleteCooldown
	w.Store.ClearTargets()
	out.Completed = &completed
	return out
}

func (t *Tracker) done(w World) bool {
	task := t.Active
	switch task.Kind {
	case KindShoot:
		return len(w.Store.Targets) == 0
	case KindDrive:
		return w.InVehicle && w.Anchor.DistanceTo(task.Waypoint) <= task.Radius
	default:
		return w.Anchor.DistanceTo(task.Waypoint) <= task.Radius
	}
}
