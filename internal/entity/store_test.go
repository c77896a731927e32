package entity

import (
	"testing"

	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	s := NewStore()
	s.Player = &Player{Circle: physics.Circle{Pos: vec.Vec2Float{X: 10, Y: 20}, Radius: 13, Mass: 85}, Health: 100}
	return s
}

func TestStore_IDsUniqueAcrossKinds(t *testing.T) {
	s := newTestStore()

	v := s.AddVehicle(&Vehicle{})
	p := s.AddPedestrian(&Pedestrian{})
	o := s.AddOfficer(&Officer{HP: 10})

	assert.Equal(t, ID(1), v.ID, "ID начинаются с 1, ноль зарезервирован")
	assert.NotEqual(t, v.ID, p.ID)
	assert.NotEqual(t, p.ID, o.ID)
}

func TestStore_LookupAbsent(t *testing.T) {
	s := newTestStore()

	_, ok := s.Vehicle(None)
	assert.False(t, ok, "Нулевая ссылка отсутствует")

	_, ok = s.Vehicle(42)
	assert.False(t, ok, "Неизвестная ссылка отсутствует")

	dead := s.AddOfficer(&Officer{HP: 0})
	_, ok = s.Officer(dead.ID)
	assert.False(t, ok, "Мёртвый офицер считается отсутствующим")
}

func TestStore_AnchorFollowsVehicle(t *testing.T) {
	s := newTestStore()
	v := s.AddVehicle(&Vehicle{Car: physics.Car{Circle: physics.Circle{Pos: vec.Vec2Float{X: 300, Y: 400}, Radius: 20}}})

	assert.Equal(t, vec.Vec2Float{X: 10, Y: 20}, s.Anchor())

	s.Player.VehicleID = v.ID
	assert.Equal(t, vec.Vec2Float{X: 300, Y: 400}, s.Anchor())
	assert.Equal(t, 20.0, s.AnchorRadius())
}

func TestStore_DanglingPlayerVehicleCleared(t *testing.T) {
	s := newTestStore()
	s.Player.VehicleID = 77

	_, ok := s.PlayerVehicle()

	assert.False(t, ok)
	assert.True(t, s.Player.OnFoot(), "Висячая ссылка на машину сбрасывается")
	assert.Equal(t, s.Player.Pos, s.Anchor())
}

func TestStore_ControlledVehicleIsReadOnly(t *testing.T) {
	s := newTestStore()
	s.Player.VehicleID = 77

	_, ok := s.ControlledVehicle()
	assert.False(t, ok)
	assert.Equal(t, s.Player.Pos, s.Anchor())
	assert.Equal(t, s.Player.Radius, s.AnchorRadius())
	assert.EqualValues(t, 77, s.Player.VehicleID, "Запросы не трогают ссылку")
}

func TestStore_RemoveOfficersReleasesSlot(t *testing.T) {
	s := newTestStore()
	v := s.AddVehicle(&Vehicle{Role: RolePolice})
	o := s.AddOfficer(&Officer{HP: 60, HomeVehicle: v.ID})
	keep := s.AddOfficer(&Officer{HP: 60})
	v.OfficerID = o.ID

	o.HP = 0
	removed := s.RemoveOfficers(func(o *Officer) bool { return !o.Alive() })

	require.Len(t, removed, 1)
	assert.Equal(t, o.ID, removed[0].ID)
	assert.Equal(t, None, v.OfficerID, "Смерть офицера освобождает слот машины")
	require.Len(t, s.Officers, 1)
	assert.Equal(t, keep.ID, s.Officers[0].ID)
}

func TestStore_FilterPreservesOrder(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 5; i++ {
		s.AddProjectile(&Projectile{Life: float64(i)})
	}

	s.RemoveProjectiles(func(p *Projectile) bool { return int(p.Life)%2 == 1 })

	require.Len(t, s.Projectiles, 3)
	assert.Equal(t, []float64{0, 2, 4}, []float64{s.Projectiles[0].Life, s.Projectiles[1].Life, s.Projectiles[2].Life})

	s.AddTarget(&MissionTarget{HP: 1})
	s.ClearTargets()
	assert.Equal(t, 0, s.Counts().Targets)
	assert.Equal(t, 3, s.Counts().Projectiles)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "police", RolePolice.String())
	assert.Equal(t, "traffic", RoleTraffic.String())
}
