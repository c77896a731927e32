package sim

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/mission"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlaying(t *testing.T) *Session {
	t.Helper()
	s := NewSession(DefaultOptions())
	s.Start()
	s.DrainEvents()
	return s
}

func eventKinds(events []Event) []EventKind {
	kinds := make([]EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func firstPolice(t *testing.T, s *Session) *entity.Vehicle {
	t.Helper()
	for _, v := range s.Store().Vehicles {
		if v.Police() {
			return v
		}
	}
	t.Fatal("нет полицейских машин")
	return nil
}

func TestSession_ResetPopulation(t *testing.T) {
	s := NewSession(DefaultOptions())

	assert.Equal(t, ModeMenu, s.Mode())
	assert.Equal(t, DefaultSeed, s.Seed())

	c := s.Store().Counts()
	assert.Equal(t, 22+6+1, c.Vehicles, "Трафик, полиция и стартовая машина")
	assert.Equal(t, 58, c.Pedestrians)
	assert.Zero(t, c.Officers)

	p := s.Store().Player
	assert.Equal(t, PlayerStart, p.Pos)
	assert.Equal(t, MaxHealth, p.Health)
	assert.True(t, p.OnFoot())

	starter := s.Store().Vehicles[len(s.Store().Vehicles)-1]
	assert.True(t, starter.Parked)
	assert.Equal(t, PlayerStart.Add(starterOffset), starter.Pos)

	assert.Equal(t, []EventKind{EventReset}, eventKinds(s.DrainEvents()))
}

func TestSession_ModeGating(t *testing.T) {
	s := NewSession(DefaultOptions())

	assert.Zero(t, s.Advance(1000), "В меню время стоит")
	assert.Zero(t, s.Time())

	s.Start()
	assert.Equal(t, 6, s.Advance(100))
	assert.EqualValues(t, 6, s.Tick())
	assert.InDelta(t, 6*FixedDt, s.Time(), 1e-12)

	s.SetPaused(true)
	assert.Zero(t, s.Advance(500), "На паузе время стоит")
	s.TogglePause()
	assert.Equal(t, 1, s.Advance(0), "Минимум один шаг")

	assert.Equal(t,
		[]EventKind{EventReset, EventStarted, EventPaused, EventResumed},
		eventKinds(s.DrainEvents()))
}

func TestSession_PauseIgnoredInMenu(t *testing.T) {
	s := NewSession(DefaultOptions())
	s.DrainEvents()

	s.SetPaused(true)
	assert.False(t, s.Paused())
	assert.Empty(t, s.DrainEvents())
}

func TestSession_FrameClampsDelta(t *testing.T) {
	s := newPlaying(t)

	ticks := s.Frame(2 * time.Second)
	assert.LessOrEqual(t, ticks, 3, "Кадр ограничен 50 мс")
	assert.GreaterOrEqual(t, ticks, 2)

	total := 0
	for i := 0; i < 60; i++ {
		total += s.Frame(time.Second / 60)
	}
	assert.InDelta(t, 60, total, 1, "Накопитель переносит остаток между кадрами")
}

func TestSession_Determinism(t *testing.T) {
	run := func() *Session {
		s := newPlaying(t)
		s.Input().Press(ControlUp)
		s.Advance(500)
		s.Input().Press(ControlFire)
		s.Input().Press(ControlRight)
		s.Advance(700)
		s.Input().ClearAll()
		s.Advance(3000)
		return s
	}

	a, b := run(), run()
	require.Equal(t, a.Tick(), b.Tick())

	sa, sb := a.Store(), b.Store()
	assert.Equal(t, sa.Player.Circle, sb.Player.Circle)
	require.Len(t, sb.Vehicles, len(sa.Vehicles))
	for i := range sa.Vehicles {
		assert.Equal(t, sa.Vehicles[i].Car, sb.Vehicles[i].Car, "Машина %d", i)
	}
	require.Len(t, sb.Pedestrians, len(sa.Pedestrians))
	for i := range sa.Pedestrians {
		assert.Equal(t, sa.Pedestrians[i].Circle, sb.Pedestrians[i].Circle, "Прохожий %d", i)
	}
	assert.Equal(t, a.Pursuit(), b.Pursuit())
	assert.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestSession_ResetRestoresWorld(t *testing.T) {
	s := newPlaying(t)
	before := s.Snapshot()

	s.Input().Press(ControlDown)
	s.Advance(2000)
	require.NotEqual(t, before.Player, s.Snapshot().Player)

	s.Reset(true)
	after := s.Snapshot()
	assert.Equal(t, ModePlaying, after.Mode)
	assert.Equal(t, before.Player, after.Player)
	assert.Equal(t, before.VisibleTraffic, after.VisibleTraffic)
	assert.False(t, s.Input().Held(ControlDown), "Сброс отпускает управление")
}

func TestSession_RangesStayClamped(t *testing.T) {
	s := newPlaying(t)
	s.Input().SetHeld([]Control{ControlUp, ControlLeft})

	for i := 0; i < 300; i++ {
		if i%10 == 0 {
			s.Input().Release(ControlFire)
			s.Input().Press(ControlFire)
		}
		s.Advance(1000.0 / 60)

		ps := s.Pursuit()
		require.GreaterOrEqual(t, ps.Wanted, 0.0)
		require.LessOrEqual(t, ps.Wanted, 5.0)
		require.GreaterOrEqual(t, ps.Busted, 0.0)
		require.LessOrEqual(t, ps.Busted, 1.0)
		h := s.Store().Player.Health
		require.True(t, h >= 0 && h <= 100, "здоровье %v вне диапазона", h)
	}
	assert.Greater(t, s.Pursuit().Wanted, 0.0, "Стрельба поднимает розыск")
}

func TestSession_BustedTrigger(t *testing.T) {
	s := newPlaying(t)
	p := s.Store().Player

	cop := firstPolice(t, s)
	cop.Pos = p.Pos.Add(vec.Vec2Float{X: 30})
	cop.Vel = vec.Vec2Float{}

	s.pursuit.Wanted = 3
	s.pursuit.LastCrime = s.Time()
	s.pursuit.Busted = 0.999

	s.Advance(1000.0 / 60)

	assert.Zero(t, s.Pursuit().Busted)
	assert.Zero(t, s.Pursuit().Wanted)
	assert.Equal(t, RespawnPoint, p.Pos)
	assert.True(t, p.Vel.IsZero())
	assert.True(t, p.OnFoot())
	assert.InDelta(t, MaxHealth-BustedPenalty, p.Health, 0.5)
	assert.Contains(t, eventKinds(s.DrainEvents()), EventBusted)
}

func TestSession_Wasted(t *testing.T) {
	s := newPlaying(t)
	p := s.Store().Player
	p.Health = 0
	s.pursuit.Wanted = 1.5
	s.pursuit.LastCrime = s.Time()

	s.Advance(1000.0 / 60)

	assert.Equal(t, MaxHealth, p.Health)
	assert.InDelta(t, 0.5, s.Pursuit().Wanted, 1e-9)
	assert.Equal(t, RespawnPoint, p.Pos)
	assert.Contains(t, eventKinds(s.DrainEvents()), EventWasted)
}

func TestSession_EnterAndExitVehicle(t *testing.T) {
	s := newPlaying(t)
	p := s.Store().Player
	starter := s.Store().Vehicles[len(s.Store().Vehicles)-1]

	p.Pos = starter.Pos.Add(vec.Vec2Float{X: 20})
	s.Input().Press(ControlInteract)
	s.Advance(1000.0 / 60)

	require.False(t, p.OnFoot())
	assert.Equal(t, starter.ID, p.VehicleID)
	assert.False(t, starter.Parked, "Игрок сам ведёт машину")
	assert.Equal(t, starter.Pos, p.Pos)
	assert.Zero(t, s.Pursuit().Wanted, "Гражданская машина не преступление")

	snap := s.Snapshot()
	require.NotNil(t, snap.ControlledVehicle)
	assert.Equal(t, "traffic", snap.ControlledVehicle.Type)
	assert.False(t, snap.Player.OnFoot)

	s.Input().Release(ControlInteract)
	s.Input().Press(ControlInteract)
	s.Advance(1000.0 / 60)

	require.True(t, p.OnFoot())
	assert.Greater(t, p.Pos.DistanceTo(starter.Pos), starter.Radius,
		"Игрок выходит сбоку от машины")
	assert.Equal(t,
		[]EventKind{EventVehicleEntered, EventVehicleExited},
		eventKinds(s.DrainEvents()))
}

func TestSession_NoExitAtSpeed(t *testing.T) {
	s := newPlaying(t)
	p := s.Store().Player
	starter := s.Store().Vehicles[len(s.Store().Vehicles)-1]
	p.Pos = starter.Pos

	s.Input().Press(ControlInteract)
	s.Advance(1000.0 / 60)
	require.False(t, p.OnFoot())

	starter.Vel = starter.Forward().Mul(300)
	s.Input().Release(ControlInteract)
	s.Input().Press(ControlInteract)
	s.Advance(1000.0 / 60)

	assert.False(t, p.OnFoot(), "На ходу выйти нельзя")
}

func TestSession_PoliceCarIsCrime(t *testing.T) {
	s := newPlaying(t)
	p := s.Store().Player
	cop := firstPolice(t, s)
	p.Pos = cop.Pos

	s.Input().Press(ControlInteract)
	s.Advance(1000.0 / 60)

	require.Equal(t, cop.ID, p.VehicleID)
	assert.InDelta(t, PoliceCarWanted, s.Pursuit().Wanted, 0.05)
	assert.Equal(t, "police", s.Snapshot().ControlledVehicle.Type)
}

func TestSession_FireRateLimited(t *testing.T) {
	s := newPlaying(t)
	p := s.Store().Player

	s.Input().Press(ControlFire)
	s.Advance(1000.0 / 60)
	assert.Greater(t, p.WeaponReadyAt, s.Time(), "Оружие перезаряжается")
	assert.InDelta(t, 0.08, s.Pursuit().Wanted, 1e-9, "Выстрел поднимает розыск")

	s.Input().Release(ControlFire)
	s.Input().Press(ControlFire)
	s.Advance(1000.0 / 60)

	shots := 0
	for _, ev := range s.DrainEvents() {
		if ev.Kind == EventShotFired {
			shots++
		}
	}
	assert.Equal(t, 1, shots, "Второй выстрел до перезарядки не проходит")
}

func TestSession_TaskCycle(t *testing.T) {
	s := newPlaying(t)

	s.Advance(1600)
	task := s.Missions().Active
	require.NotNil(t, task, "Задание выдаётся после паузы сброса")
	assert.Equal(t, mission.KindReach, task.Kind)

	s.Store().Player.Pos = task.Waypoint
	s.Store().Player.Vel = vec.Vec2Float{}
	s.Advance(1000.0 / 60)

	assert.Nil(t, s.Missions().Active)
	assert.Equal(t, 1, s.Missions().Stage)
	assert.Equal(t, task.Reward, s.Missions().Cash)

	kinds := eventKinds(s.DrainEvents())
	assert.Contains(t, kinds, EventTaskAssigned)
	assert.Contains(t, kinds, EventTaskCompleted)

	s.Advance(3100)
	next := s.Missions().Active
	require.NotNil(t, next)
	assert.Equal(t, mission.KindShoot, next.Kind)
	assert.Len(t, s.Store().Targets, next.TargetCount)
}

func TestSession_SnapshotShape(t *testing.T) {
	s := NewSession(DefaultOptions())
	snap := s.Snapshot()

	assert.Equal(t, ModeMenu, snap.Mode)
	assert.Nil(t, snap.ControlledVehicle)
	assert.LessOrEqual(t, len(snap.VisibleTraffic), MaxVisibleTraffic)
	assert.LessOrEqual(t, len(snap.VisiblePedestrians), MaxVisiblePedestrians)
	assert.Equal(t, 1280.0, snap.Camera.Width)
	assert.GreaterOrEqual(t, snap.Camera.X, 0.0)
	assert.GreaterOrEqual(t, snap.Camera.Y, 0.0)
	assert.Equal(t, len(s.City().Buildings), snap.Counts.Buildings)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"mode", "coordinateSystem", "timeSeconds", "camera", "player",
		"controlledVehicle", "policePressure", "visibleTraffic", "visiblePedestrians", "counts"} {
		assert.Contains(t, decoded, key)
	}
	counts := decoded["counts"].(map[string]any)
	assert.Contains(t, counts, "vehicles")
	assert.Contains(t, counts, "buildings")
}

func TestCamera_ClampedToWorld(t *testing.T) {
	s := NewSession(DefaultOptions())
	s.Store().Player.Pos = vec.Vec2Float{}

	cam := s.Camera()
	assert.Zero(t, cam.X)
	assert.Zero(t, cam.Y)

	b := s.City().Bounds
	s.Store().Player.Pos = vec.Vec2Float{X: b.Right(), Y: b.Bottom()}
	cam = s.Camera()
	assert.Equal(t, b.Right()-cam.Width, cam.X)
	assert.Equal(t, b.Bottom()-cam.Height, cam.Y)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.24, round(1.2351, 2))
	assert.Equal(t, -3.1, round(-3.14, 1))
	assert.False(t, math.IsNaN(round(0, 2)))
}

func TestSession_SnapshotDoesNotMutate(t *testing.T) {
	s := newPlaying(t)
	p := s.Store().Player
	p.VehicleID = 9999

	snap := s.Snapshot()
	assert.Nil(t, snap.ControlledVehicle)
	assert.EqualValues(t, 9999, p.VehicleID, "Снапшот только читает состояние")

	s.Advance(1000.0 / 60)
	assert.True(t, p.OnFoot(), "Висячая ссылка сбрасывается в тике")
}
