package combat

import (
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/world"
)

// Step продвигает все пули на dt, применяет эффекты попаданий к сущностям
// и удаляет израсходованные пули. Возвращает попадания в порядке пуль;
// истёкшие пули в результат не попадают. Розыск начисляет вызывающий.
func Step(dt float64, city *world.CityMap, store *entity.Store, ignore entity.ID) []Hit {
	var (
		hits    []Hit
		scratch []int
		spent   = make(map[entity.ID]bool)
	)

	for _, p := range store.Projectiles {
		Advance(p, dt)

		var hit Hit
		hit, scratch = Classify(p, city, store, ignore, scratch)
		if hit.Kind == HitNone {
			continue
		}
		spent[p.ID] = true
		if hit.Kind == HitExpired {
			continue
		}
		apply(&hit, p, store)
		hits = append(hits, hit)
	}

	if len(spent) > 0 {
		store.RemoveProjectiles(func(p *entity.Projectile) bool { return spent[p.ID] })
		store.RemoveTargets(func(t *entity.MissionTarget) bool { return t.HP <= 0 })
	}
	return hits
}

func apply(hit *Hit, p *entity.Projectile, store *entity.Store) {
	switch hit.Kind {
	case HitTarget:
		for _, t := range store.Targets {
			if t.ID == hit.Target {
				t.HP -= p.Damage
				hit.Destroyed = t.HP <= 0
				return
			}
		}

	case HitOfficer:
		if o, ok := store.Officer(hit.Target); ok {
			o.HP -= p.Damage
			o.Stun = max(o.Stun, OfficerStun)
			hit.Destroyed = !o.Alive()
		}

	case HitPedestrian:
		for _, ped := range store.Pedestrians {
			if ped.ID == hit.Target {
				ped.Stun = max(ped.Stun, PedestrianStun)
				ped.Panic = max(ped.Panic, PedestrianPanic)
				return
			}
		}

	case HitVehicle:
		if v, ok := store.Vehicle(hit.Target); ok {
			v.Vel = v.Vel.Add(p.Vel.Normalized().Mul(VehicleNudge))
		}
	}
}
