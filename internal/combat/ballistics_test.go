package combat

import (
	"math"
	"testing"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/util"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/annel0/street-pursuit/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60

func newTestCity() *world.CityMap {
	return world.NewCityGenerator().Generate(util.NewRand(20260207), util.NewNoise(20260207))
}

// shootAt ставит пулю так, что за один тик она проходит через точку to
func shootAt(store *entity.Store, from, to vec.Vec2Float) *entity.Projectile {
	dir := to.Sub(from).Normalized()
	p := store.AddProjectile(&entity.Projectile{
		Circle: physics.Circle{Pos: from, Vel: dir.Mul(ProjectileSpeed), Radius: ProjectileRadius, Mass: 1},
		Prev:   from,
		Life:   ProjectileLife,
		Damage: ProjectileDamage,
	})
	return p
}

func TestStep_BuildingWinsOverTarget(t *testing.T) {
	city := newTestCity()
	store := entity.NewStore()
	b := city.Buildings[0]

	// Мишень стоит на кромке здания, пуля проходит через обоих за один тик
	edge := vec.Vec2Float{X: b.X, Y: b.Y + b.H/2}
	target := store.AddTarget(&entity.MissionTarget{Pos: edge, Radius: 14, HP: 40, MaxHP: 40})
	shootAt(store, edge.Sub(vec.Vec2Float{X: 6}), edge)

	hits := Step(dt, city, store, entity.None)

	require.Len(t, hits, 1)
	assert.Equal(t, HitBuilding, hits[0].Kind, "Здание проверяется первым")
	assert.Equal(t, 40.0, target.HP, "Мишень не повреждена")
	assert.Empty(t, store.Projectiles, "Пуля уничтожена")
}

func TestStep_TargetDamagedAndRemoved(t *testing.T) {
	city := newTestCity()
	store := entity.NewStore()
	pos := vec.Vec2Float{X: 1420, Y: 1340}
	target := store.AddTarget(&entity.MissionTarget{Pos: pos, Radius: 14, HP: 30, MaxHP: 40})

	shootAt(store, pos.Sub(vec.Vec2Float{X: 10}), pos)
	hits := Step(dt, city, store, entity.None)
	require.Len(t, hits, 1)
	assert.Equal(t, HitTarget, hits[0].Kind)
	assert.False(t, hits[0].Destroyed)
	assert.Equal(t, 10.0, target.HP)

	shootAt(store, pos.Sub(vec.Vec2Float{X: 10}), pos)
	hits = Step(dt, city, store, entity.None)
	require.Len(t, hits, 1)
	assert.True(t, hits[0].Destroyed)
	assert.Empty(t, store.Targets, "Уничтоженная мишень удаляется")
}

func TestStep_PriorityTargetsBeforeOfficers(t *testing.T) {
	city := newTestCity()
	store := entity.NewStore()
	pos := vec.Vec2Float{X: 1420, Y: 1340}
	store.AddTarget(&entity.MissionTarget{Pos: pos, Radius: 14, HP: 40, MaxHP: 40})
	officer := store.AddOfficer(&entity.Officer{Circle: physics.Circle{Pos: pos, Radius: 11, Mass: 90}, HP: 60})

	shootAt(store, pos.Sub(vec.Vec2Float{X: 10}), pos)
	hits := Step(dt, city, store, entity.None)

	require.Len(t, hits, 1)
	assert.Equal(t, HitTarget, hits[0].Kind)
	assert.Equal(t, 60.0, officer.HP)
}

func TestStep_OfficerPedestrianVehicleEffects(t *testing.T) {
	city := newTestCity()
	store := entity.NewStore()
	at := func(x float64) vec.Vec2Float { return vec.Vec2Float{X: x, Y: 1340} }

	officer := store.AddOfficer(&entity.Officer{Circle: physics.Circle{Pos: at(1000), Radius: 11, Mass: 90}, HP: 60})
	ped := store.AddPedestrian(&entity.Pedestrian{Circle: physics.Circle{Pos: at(1600), Radius: 9, Mass: 82}})
	car := store.AddVehicle(&entity.Vehicle{Car: physics.Car{Circle: physics.Circle{Pos: at(2200), Radius: 20, Mass: 1650}}})
	own := store.AddVehicle(&entity.Vehicle{Car: physics.Car{Circle: physics.Circle{Pos: at(2800), Radius: 20, Mass: 1650}}})

	shootAt(store, at(990), at(1000))
	shootAt(store, at(1590), at(1600))
	shootAt(store, at(2190), at(2200))
	shootAt(store, at(2790), at(2800))

	hits := Step(dt, city, store, own.ID)

	require.Len(t, hits, 3, "Собственная машина стрелка не поражается")
	assert.Equal(t, HitOfficer, hits[0].Kind)
	assert.Equal(t, ProjectileDamage, 60-officer.HP)
	assert.Equal(t, OfficerStun, officer.Stun)

	assert.Equal(t, HitPedestrian, hits[1].Kind)
	assert.Equal(t, PedestrianStun, ped.Stun)
	assert.Equal(t, PedestrianPanic, ped.Panic)

	assert.Equal(t, HitVehicle, hits[2].Kind)
	assert.InDelta(t, VehicleNudge, car.Vel.X, 1e-9)

	assert.Equal(t, OfficerWanted, hits[0].Kind.Wanted())
	assert.Len(t, store.Projectiles, 1, "Промахнувшаяся пуля летит дальше")
}

func TestStep_Expiry(t *testing.T) {
	city := newTestCity()
	store := entity.NewStore()
	p := shootAt(store, vec.Vec2Float{X: 1420, Y: 1340}, vec.Vec2Float{X: 1420, Y: 0})
	p.Life = dt / 2

	hits := Step(dt, city, store, entity.None)

	assert.Empty(t, hits, "Истёкшая пуля не даёт попадания")
	assert.Empty(t, store.Projectiles)

	shootAt(store, vec.Vec2Float{X: 1420, Y: 5}, vec.Vec2Float{X: 1420, Y: -100})
	Step(dt, city, store, entity.None)
	assert.Empty(t, store.Projectiles, "Пуля за краем мира удаляется")
}

func TestFire_Spread(t *testing.T) {
	store := entity.NewStore()
	rng := util.NewRand(1)

	for i := 0; i < 50; i++ {
		p := Fire(rng, store, vec.Vec2Float{}, 0)
		assert.InDelta(t, ProjectileSpeed, p.Vel.Length(), 1e-9)
		assert.LessOrEqual(t, math.Abs(p.Vel.Angle()), Spread+1e-12)
	}
}
