package sim

import (
	"testing"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageCollisions очищает мир от подвижных тел и возвращает перекрёсток,
// вокруг которого нет зданий. Игрок стоит пешком в стороне от него.
func stageCollisions(t *testing.T) (*Session, vec.Vec2Float) {
	t.Helper()
	s := newPlaying(t)
	st := s.Store()
	st.Vehicles = nil
	st.Pedestrians = nil
	st.Officers = nil
	st.Projectiles = nil
	st.Targets = nil

	c := s.City()
	require.NotEmpty(t, c.VRoadCenters)
	require.NotEmpty(t, c.HRoadCenters)
	junction := vec.Vec2Float{
		X: c.VRoadCenters[len(c.VRoadCenters)/2],
		Y: c.HRoadCenters[len(c.HRoadCenters)/2],
	}

	p := st.Player
	p.VehicleID = entity.None
	p.Pos = junction.Add(vec.Vec2Float{X: -60})
	p.Vel = vec.Vec2Float{}
	return s, junction
}

func addCar(st *entity.Store, pos, vel vec.Vec2Float) *entity.Vehicle {
	return st.AddVehicle(&entity.Vehicle{Car: physics.Car{
		Circle: physics.Circle{Pos: pos, Vel: vel, Radius: 20, Mass: 1200},
	}})
}

func addPedestrian(st *entity.Store, pos vec.Vec2Float) *entity.Pedestrian {
	return st.AddPedestrian(&entity.Pedestrian{
		Circle:   physics.Circle{Pos: pos, Radius: 7, Mass: 70},
		MaxSpeed: 60,
	})
}

func addOfficer(st *entity.Store, pos vec.Vec2Float, hp float64) *entity.Officer {
	return st.AddOfficer(&entity.Officer{
		Circle: physics.Circle{Pos: pos, Radius: 11, Mass: 90},
		HP:     hp,
	})
}

func TestCollisions_VehicleHitsPedestrian(t *testing.T) {
	cases := []struct {
		name       string
		speed      float64
		driven     bool
		wantPanic  float64
		wantStun   float64
		wantWanted float64
		wantHealth float64
	}{
		{"лёгкий толчок", 30, true, 0, 0, 0, MaxHealth},
		{"трафик сбивает", 100, false, PedestrianPanicTime, PedestrianStunTime, 0, MaxHealth},
		{"игрок таранит", 100, true, PedestrianPanicTime, PedestrianStunTime, RamPedestrianWanted, MaxHealth - 100*RamPedestrianSelfHurt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, junction := stageCollisions(t)
			st := s.Store()
			car := addCar(st, junction, vec.Vec2Float{X: tc.speed})
			ped := addPedestrian(st, junction.Add(vec.Vec2Float{X: 24}))
			if tc.driven {
				st.Player.VehicleID = car.ID
			}

			s.resolveCollisions()

			assert.InDelta(t, tc.wantPanic, ped.Panic, 1e-9)
			assert.InDelta(t, tc.wantStun, ped.Stun, 1e-9)
			assert.InDelta(t, tc.wantWanted, s.Pursuit().Wanted, 1e-9)
			assert.InDelta(t, tc.wantHealth, st.Player.Health, 1e-9)
			assert.Greater(t, ped.Vel.X, 0.0, "Прохожего отбрасывает вперёд")
		})
	}
}

func TestCollisions_VehicleHurtsOfficer(t *testing.T) {
	s, junction := stageCollisions(t)
	st := s.Store()
	addCar(st, junction, vec.Vec2Float{X: 100})
	o := addOfficer(st, junction.Add(vec.Vec2Float{X: 28}), 60)

	s.resolveCollisions()

	assert.InDelta(t, 60-100*OfficerHurtScale, o.HP, 1e-9)
	assert.InDelta(t, OfficerHurtStun, o.Stun, 1e-9)
	assert.Zero(t, s.Pursuit().Wanted, "Чужая машина не поднимает розыск")
}

func TestCollisions_SlowVehicleSparesOfficer(t *testing.T) {
	s, junction := stageCollisions(t)
	st := s.Store()
	addCar(st, junction, vec.Vec2Float{X: 50})
	o := addOfficer(st, junction.Add(vec.Vec2Float{X: 28}), 60)

	s.resolveCollisions()

	assert.Equal(t, 60.0, o.HP)
	assert.Zero(t, o.Stun)
}

func TestCollisions_RamKillsOfficerAndFreesSlot(t *testing.T) {
	s, junction := stageCollisions(t)
	st := s.Store()
	home := addCar(st, junction.Add(vec.Vec2Float{Y: 60}), vec.Vec2Float{})
	home.Role = entity.RolePolice
	car := addCar(st, junction, vec.Vec2Float{X: 100})
	o := addOfficer(st, junction.Add(vec.Vec2Float{X: 28}), 30)
	o.HomeVehicle = home.ID
	home.OfficerID = o.ID
	st.Player.VehicleID = car.ID

	s.resolveCollisions()
	require.False(t, o.Alive())
	assert.InDelta(t, RamOfficerWanted, s.Pursuit().Wanted, 1e-9)

	s.removeOfficers()
	assert.Empty(t, st.Officers)
	assert.Equal(t, entity.None, home.OfficerID, "Слот высадки освобождается в том же тике")
	assert.Equal(t, []EventKind{EventOfficerDown}, eventKinds(s.DrainEvents()))
}

func TestCollisions_VehicleHitsPlayerOnFoot(t *testing.T) {
	s, junction := stageCollisions(t)
	st := s.Store()
	p := st.Player
	p.Pos = junction
	addCar(st, junction.Add(vec.Vec2Float{X: -25}), vec.Vec2Float{X: 100})

	s.resolveCollisions()

	assert.InDelta(t, MaxHealth-100*PlayerHurtScale, p.Health, 1e-9)
	assert.Equal(t, PlayerHurtFlash, s.CollisionFlash())
	assert.Greater(t, p.Pos.X, junction.X, "Игрока отталкивает")
}

func TestCollisions_BuildingDampsForwardSpeed(t *testing.T) {
	s, _ := stageCollisions(t)
	st := s.Store()
	require.NotEmpty(t, s.City().Buildings)
	b := s.City().BuildingRect(0)

	car := addCar(st, vec.Vec2Float{X: b.X - 20 + 5, Y: b.Center().Y}, vec.Vec2Float{X: 200})
	car.ForwardSpeed = 200

	s.resolveCollisions()

	assert.InDelta(t, 200*BuildingForwardDamp, car.ForwardSpeed, 1e-9)
	assert.LessOrEqual(t, car.Pos.X, b.X-car.Radius+1e-9, "Машина вытолкнута из здания")
}

func TestOfficerContact_OnFootAndInVehicle(t *testing.T) {
	s, _ := stageCollisions(t)
	st := s.Store()
	p := st.Player
	addOfficer(st, p.Pos.Add(vec.Vec2Float{X: p.Radius + 11}), 60)

	s.updateOfficerContact(1)
	assert.InDelta(t, ContactBusted, s.Pursuit().Busted, 1e-9)
	assert.InDelta(t, MaxHealth-ContactDamage, p.Health, 1e-9)

	s2, junction2 := stageCollisions(t)
	st2 := s2.Store()
	car := addCar(st2, junction2, vec.Vec2Float{})
	st2.Player.VehicleID = car.ID
	addOfficer(st2, junction2.Add(vec.Vec2Float{X: car.Radius + 11}), 60)

	s2.updateOfficerContact(1)
	assert.InDelta(t, ContactBusted, s2.Pursuit().Busted, 1e-9)
	assert.Equal(t, MaxHealth, st2.Player.Health, "В машине офицер не ранит")

	stunned, _ := stageCollisions(t)
	o := addOfficer(stunned.Store(), stunned.Store().Player.Pos, 60)
	o.Stun = 0.5
	stunned.updateOfficerContact(1)
	assert.Zero(t, stunned.Pursuit().Busted, "Оглушённый офицер не задерживает")
}
