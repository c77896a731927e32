package sim

import (
	"math"

	"github.com/annel0/street-pursuit/internal/ai"
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/mission"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
)

// Ограничения списков снапшота
const (
	MaxVisibleTraffic     = 10
	MaxVisiblePedestrians = 14
	MaxVisibleOfficers    = 8
	MaxVisibleProjectiles = 24
	MaxVisibleTargets     = 8
	VisibleMargin         = 80.0
)

// CoordinateSystem описывает систему координат мира
type CoordinateSystem struct {
	Origin string `json:"origin"`
	XAxis  string `json:"xAxis"`
	YAxis  string `json:"yAxis"`
	Units  string `json:"units"`
}

var worldCoordinates = CoordinateSystem{
	Origin: "top-left of world",
	XAxis:  "increases right",
	YAxis:  "increases down",
	Units:  "world pixels",
}

// Camera это прямоугольник обзора в мировых координатах
type Camera struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (c Camera) sees(p vec.Vec2Float) bool {
	return p.X >= c.X-VisibleMargin && p.Y >= c.Y-VisibleMargin &&
		p.X <= c.X+c.Width+VisibleMargin && p.Y <= c.Y+c.Height+VisibleMargin
}

// PlayerView это состояние игрока
type PlayerView struct {
	OnFoot bool    `json:"onFoot"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Health float64 `json:"health"`
	Wanted float64 `json:"wanted"`
	Facing float64 `json:"facing"`
}

// VehicleView это машина под управлением игрока
type VehicleView struct {
	ID             entity.ID `json:"id"`
	Type           string    `json:"type"`
	X              float64   `json:"x"`
	Y              float64   `json:"y"`
	Speed          float64   `json:"speed"`
	HeadingRadians float64   `json:"headingRadians"`
}

// TrafficView это видимая машина
type TrafficView struct {
	ID    entity.ID `json:"id"`
	Type  string    `json:"type"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Speed float64   `json:"speed"`
	Mode  string    `json:"mode,omitempty"`
}

// PedestrianView это видимый прохожий
type PedestrianView struct {
	ID      entity.ID `json:"id"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Panic   float64   `json:"panic"`
	Stunned float64   `json:"stunned"`
}

// OfficerView это видимый офицер
type OfficerView struct {
	ID          entity.ID `json:"id"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	HP          float64   `json:"hp"`
	Stunned     float64   `json:"stunned"`
	HomeVehicle entity.ID `json:"homeVehicle,omitempty"`
}

// ProjectileView это видимая пуля
type ProjectileView struct {
	ID entity.ID `json:"id"`
	X  float64   `json:"x"`
	Y  float64   `json:"y"`
}

// TargetView это видимая мишень
type TargetView struct {
	ID    entity.ID `json:"id"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	HP    float64   `json:"hp"`
	MaxHP float64   `json:"maxHp"`
}

// Counts это размеры всех коллекций
type Counts struct {
	entity.Counts
	Buildings int `json:"buildings"`
}

// MissionView это прогресс заданий
type MissionView struct {
	Stage    int           `json:"stage"`
	Cash     float64       `json:"cash"`
	Cooldown float64       `json:"cooldown"`
	Active   *mission.Task `json:"active"`
}

// Snapshot это состояние для отображения и автоматической проверки.
// Строится только между тиками.
type Snapshot struct {
	Mode               Mode             `json:"mode"`
	Paused             bool             `json:"paused"`
	CoordinateSystem   CoordinateSystem `json:"coordinateSystem"`
	TimeSeconds        float64          `json:"timeSeconds"`
	Tick               uint64           `json:"tick"`
	Camera             Camera           `json:"camera"`
	Player             PlayerView       `json:"player"`
	ControlledVehicle  *VehicleView     `json:"controlledVehicle"`
	PolicePressure     float64          `json:"policePressure"`
	CollisionFlash     float64          `json:"collisionFlash"`
	VisibleTraffic     []TrafficView    `json:"visibleTraffic"`
	VisiblePedestrians []PedestrianView `json:"visiblePedestrians"`
	VisibleOfficers    []OfficerView    `json:"visibleOfficers"`
	Projectiles        []ProjectileView `json:"projectiles"`
	Targets            []TargetView     `json:"targets"`
	Counts             Counts           `json:"counts"`
	Mission            MissionView      `json:"mission"`
}

// round округляет до заданного числа знаков, как в текстовом снапшоте
func round(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}

// Camera возвращает прямоугольник обзора с центром на якоре, прижатый к краям мира
func (s *Session) Camera() Camera {
	anchor := s.store.Anchor()
	b := s.city.Bounds
	w, h := s.opts.ViewportWidth, s.opts.ViewportHeight
	return Camera{
		X:      physics.Clamp(anchor.X-w*0.5, b.X, math.Max(b.X, b.Right()-w)),
		Y:      physics.Clamp(anchor.Y-h*0.5, b.Y, math.Max(b.Y, b.Bottom()-h)),
		Width:  w,
		Height: h,
	}
}

// Snapshot собирает снапшот текущего состояния
func (s *Session) Snapshot() Snapshot {
	st := s.store
	p := st.Player
	cam := s.Camera()

	snap := Snapshot{
		Mode:             s.mode,
		Paused:           s.paused,
		CoordinateSystem: worldCoordinates,
		TimeSeconds:      round(s.time, 2),
		Tick:             s.tick,
		Camera: Camera{
			X:      round(cam.X, 1),
			Y:      round(cam.Y, 1),
			Width:  cam.Width,
			Height: cam.Height,
		},
		Player: PlayerView{
			OnFoot: p.OnFoot(),
			X:      round(p.Pos.X, 1),
			Y:      round(p.Pos.Y, 1),
			VX:     round(p.Vel.X, 1),
			VY:     round(p.Vel.Y, 1),
			Health: round(p.Health, 1),
			Wanted: round(s.pursuit.Wanted, 2),
			Facing: round(p.Facing, 2),
		},
		PolicePressure:     round(s.pursuit.Busted, 2),
		CollisionFlash:     round(s.flash, 2),
		VisibleTraffic:     []TrafficView{},
		VisiblePedestrians: []PedestrianView{},
		VisibleOfficers:    []OfficerView{},
		Projectiles:        []ProjectileView{},
		Targets:            []TargetView{},
		Counts:             Counts{Counts: st.Counts(), Buildings: len(s.city.Buildings)},
		Mission: MissionView{
			Stage:    s.missions.Stage,
			Cash:     s.missions.Cash,
			Cooldown: round(s.missions.Cooldown, 2),
		},
	}
	if task := s.missions.Active; task != nil {
		active := *task
		snap.Mission.Active = &active
	}

	if car, ok := st.ControlledVehicle(); ok {
		snap.ControlledVehicle = &VehicleView{
			ID:             car.ID,
			Type:           car.Role.String(),
			X:              round(car.Pos.X, 1),
			Y:              round(car.Pos.Y, 1),
			Speed:          round(car.ForwardSpeed, 1),
			HeadingRadians: round(car.Heading, 2),
		}
	}

	ctx := s.aiContext()
	for _, v := range st.Vehicles {
		if len(snap.VisibleTraffic) >= MaxVisibleTraffic {
			break
		}
		if !cam.sees(v.Pos) {
			continue
		}
		view := TrafficView{
			ID:    v.ID,
			Type:  v.Role.String(),
			X:     round(v.Pos.X, 1),
			Y:     round(v.Pos.Y, 1),
			Speed: round(v.ForwardSpeed, 1),
		}
		if v.Police() {
			view.Mode = ai.PoliceModeFor(ctx, v).String()
		}
		snap.VisibleTraffic = append(snap.VisibleTraffic, view)
	}

	for _, ped := range st.Pedestrians {
		if len(snap.VisiblePedestrians) >= MaxVisiblePedestrians {
			break
		}
		if !cam.sees(ped.Pos) {
			continue
		}
		snap.VisiblePedestrians = append(snap.VisiblePedestrians, PedestrianView{
			ID:      ped.ID,
			X:       round(ped.Pos.X, 1),
			Y:       round(ped.Pos.Y, 1),
			Panic:   round(ped.Panic, 2),
			Stunned: round(ped.Stun, 2),
		})
	}

	for _, o := range st.Officers {
		if len(snap.VisibleOfficers) >= MaxVisibleOfficers {
			break
		}
		if !cam.sees(o.Pos) {
			continue
		}
		snap.VisibleOfficers = append(snap.VisibleOfficers, OfficerView{
			ID:          o.ID,
			X:           round(o.Pos.X, 1),
			Y:           round(o.Pos.Y, 1),
			HP:          round(o.HP, 1),
			Stunned:     round(o.Stun, 2),
			HomeVehicle: o.HomeVehicle,
		})
	}

	for _, pr := range st.Projectiles {
		if len(snap.Projectiles) >= MaxVisibleProjectiles {
			break
		}
		if !cam.sees(pr.Pos) {
			continue
		}
		snap.Projectiles = append(snap.Projectiles, ProjectileView{
			ID: pr.ID,
			X:  round(pr.Pos.X, 1),
			Y:  round(pr.Pos.Y, 1),
		})
	}

	for _, t := range st.Targets {
		if len(snap.Targets) >= MaxVisibleTargets {
			break
		}
		if !cam.sees(t.Pos) {
			continue
		}
		snap.Targets = append(snap.Targets, TargetView{
			ID:    t.ID,
			X:     round(t.Pos.X, 1),
			Y:     round(t.Pos.Y, 1),
			HP:    round(t.HP, 1),
			MaxHP: t.MaxHP,
		})
	}

	return snap
}
