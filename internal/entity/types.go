package entity

import (
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/vec"
)

// ID это слабая ссылка на сущность. Ноль означает «нет ссылки».
type ID uint32

// None это отсутствующая ссылка
const None ID = 0

// Valid проверяет, что ссылка задана
func (id ID) Valid() bool { return id != None }

// Role определяет роль автомобиля
type Role uint8

const (
	RoleTraffic Role = iota
	RolePolice
)

// String возвращает имя роли для снапшота
func (r Role) String() string {
	if r == RolePolice {
		return "police"
	}
	return "traffic"
}

// Player это персонаж игрока. Создаётся при сбросе и никогда не удаляется.
type Player struct {
	physics.Circle
	Facing        float64
	Health        float64 // [0, 100]
	VehicleID     ID      // автомобиль, которым управляет игрок
	WeaponReadyAt float64 // время сессии, с которого разрешён выстрел
}

// OnFoot проверяет, что игрок не в машине
func (p *Player) OnFoot() bool { return !p.VehicleID.Valid() }

// Vehicle это автомобиль трафика или полиции
type Vehicle struct {
	ID ID
	physics.Car
	Role        Role
	Width       float64
	Length      float64
	Palette     int
	Path        int // индекс маршрута в CityMap.CarPaths
	PathIndex   int // следующая точка маршрута
	CruiseSpeed float64
	Parked      bool
	SirenPhase  float64

	OfficerID  ID      // высаженный офицер, пока он жив
	RedeployAt float64 // не высаживать офицера раньше этого времени
}

// Police проверяет, полицейская ли машина
func (v *Vehicle) Police() bool { return v.Role == RolePolice }

// Pedestrian это прохожий, гуляющий между узлами тротуаров
type Pedestrian struct {
	ID ID
	physics.Circle
	MaxSpeed   float64
	TargetNode int // индекс в CityMap.SidewalkNodes
	Panic      float64
	Stun       float64
	Outfit     int
}

// Officer это пеший полицейский, высаженный из машины
type Officer struct {
	ID ID
	physics.Circle
	HP          float64
	Stun        float64
	Facing      float64
	HomeVehicle ID
}

// Alive проверяет, что офицер ещё в строю
func (o *Officer) Alive() bool { return o.HP > 0 }

// Projectile это пуля. Масса не участвует в импульсах.
type Projectile struct {
	ID ID
	physics.Circle
	Prev   vec.Vec2Float
	Life   float64
	Damage float64
}

// MissionTarget это статичная мишень задания, не участвует в физике
type MissionTarget struct {
	ID     ID
	Pos    vec.Vec2Float
	Radius float64
	HP     float64
	MaxHP  float64
}
