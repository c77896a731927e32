package pursuit

import (
	"math"
	"testing"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/stretchr/testify/assert"
)

const dt = 1.0 / 60

func TestAddWanted_Clamped(t *testing.T) {
	s := New()

	s.AddWanted(10, 3)
	assert.Equal(t, MaxWanted, s.Wanted, "Розыск ограничен сверху")
	assert.Equal(t, 3.0, s.LastCrime)

	s.AddWanted(-20, 4)
	assert.Equal(t, 0.0, s.Wanted, "Розыск ограничен снизу")
}

func TestUpdate_DecayAfterCooldown(t *testing.T) {
	s := New()
	s.AddWanted(1, 0)

	s.Update(dt, 5, math.Inf(1))
	assert.Equal(t, 1.0, s.Wanted, "В окне после нарушения розыск держится")

	s.Update(1, 10.5, math.Inf(1))
	assert.InDelta(t, 0.9, s.Wanted, 1e-12, "После окна розыск спадает линейно")
}

func TestUpdate_BustedMeter(t *testing.T) {
	s := New()
	s.AddWanted(1, 0)

	s.Update(1, 1, 50)
	assert.InDelta(t, 0.5, s.Busted, 1e-12, "Шкала растёт со скоростью 0.34 + 0.16·розыск")

	s.Update(1, 2, 500)
	assert.InDelta(t, 0.28, s.Busted, 1e-12, "Вдали от полиции шкала спадает")

	s.Wanted = 0.1
	s.Update(0.5, 3, 10)
	assert.InDelta(t, 0.08, s.Busted, 1e-12, "Ниже порога шкала спадает быстрее")
}

func TestUpdate_BustedTrigger(t *testing.T) {
	s := New()
	s.AddWanted(2, 0)

	busted := false
	ticks := 0
	for !busted && ticks < 10000 {
		busted = s.Update(dt, float64(ticks)*dt, 10)
		assert.GreaterOrEqual(t, s.Busted, 0.0)
		assert.LessOrEqual(t, s.Busted, 1.0)
		ticks++
	}

	assert.True(t, busted, "Постоянная близость полиции приводит к задержанию")
	assert.Zero(t, s.Busted)
	assert.Zero(t, s.Wanted)
}

func TestNearestPolice(t *testing.T) {
	store := entity.NewStore()
	store.Player = &entity.Player{Circle: physics.Circle{Radius: 13, Mass: 85}}
	car := func(role entity.Role, x float64) *entity.Vehicle {
		return store.AddVehicle(&entity.Vehicle{
			Car:  physics.Car{Circle: physics.Circle{Pos: vec.Vec2Float{X: x}, Radius: 22, Mass: 1950}},
			Role: role,
		})
	}
	car(entity.RoleTraffic, 10)
	own := car(entity.RolePolice, 20)
	car(entity.RolePolice, 300)
	store.AddOfficer(&entity.Officer{Circle: physics.Circle{Pos: vec.Vec2Float{X: 150}}, HP: 0})

	assert.Equal(t, 20.0, NearestPolice(store, vec.Vec2Float{}))

	store.Player.VehicleID = own.ID
	assert.Equal(t, 300.0, NearestPolice(store, vec.Vec2Float{}), "Собственная машина игрока не считается полицией")

	store.AddOfficer(&entity.Officer{Circle: physics.Circle{Pos: vec.Vec2Float{X: 120}}, HP: 5})
	assert.Equal(t, 120.0, NearestPolice(store, vec.Vec2Float{}), "Живой офицер тоже полиция")
}
