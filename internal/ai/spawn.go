package ai

import (
	"math"
	"math/rand"

	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/physics"
	"github.com/annel0/street-pursuit/internal/util"
	"github.com/annel0/street-pursuit/internal/vec"
	"github.com/annel0/street-pursuit/internal/world"
)

// VehicleClass это ходовые характеристики и габариты класса машин
type VehicleClass struct {
	Radius    float64
	Mass      float64
	Width     float64
	Length    float64
	CruiseMin float64
	CruiseMax float64
	Spec      physics.VehicleSpec
}

// TrafficClass это гражданская машина
var TrafficClass = VehicleClass{
	Radius: 20, Mass: 1650, Width: 34, Length: 62,
	CruiseMin: 120, CruiseMax: 190,
	Spec: physics.VehicleSpec{
		EngineAccel: 660, BrakePower: 900, SteerPower: 2.45,
		MaxForward: 280, MaxReverse: 110, Grip: 8.3,
	},
}

// PoliceClass это патрульная машина
var PoliceClass = VehicleClass{
	Radius: 22, Mass: 1950, Width: 38, Length: 68,
	CruiseMin: 175, CruiseMax: 230,
	Spec: physics.VehicleSpec{
		EngineAccel: 810, BrakePower: 1050, SteerPower: 2.65,
		MaxForward: 360, MaxReverse: 140, Grip: 9.3,
	},
}

// ClassFor возвращает класс машины по роли
func ClassFor(role entity.Role) VehicleClass {
	if role == entity.RolePolice {
		return PoliceClass
	}
	return TrafficClass
}

// NewVehicle ставит машину на отрезок segment маршрута pathIdx в долю t
// и направляет её вдоль отрезка.
func NewVehicle(rng *rand.Rand, city *world.CityMap, role entity.Role, pathIdx, segment int, t float64, palette int) *entity.Vehicle {
	class := ClassFor(role)
	path := city.CarPaths[pathIdx]
	a := path.At(segment)
	b := path.At(segment + 1)

	v := &entity.Vehicle{
		Car: physics.Car{
			Circle:  physics.Circle{Pos: a.Lerp(b, t), Radius: class.Radius, Mass: class.Mass},
			Heading: b.Sub(a).Angle(),
			Spec:    class.Spec,
		},
		Role:      role,
		Width:     class.Width,
		Length:    class.Length,
		Palette:   palette,
		Path:      pathIdx,
		PathIndex: (segment + 1) % len(path),
	}
	v.CruiseSpeed = util.Range(rng, class.CruiseMin, class.CruiseMax)
	v.SirenPhase = util.Range(rng, 0, 2*math.Pi)
	return v
}

// NewPedestrian создаёт прохожего в точке pos со случайной целью
func NewPedestrian(rng *rand.Rand, city *world.CityMap, pos vec.Vec2Float) *entity.Pedestrian {
	p := &entity.Pedestrian{
		Circle: physics.Circle{Pos: pos, Radius: PedestrianRadius, Mass: PedestrianMass},
	}
	p.MaxSpeed = util.Range(rng, PedestrianMinSpeed, PedestrianMaxSpeed)
	p.TargetNode = util.Index(rng, len(city.SidewalkNodes))
	p.Outfit = util.Index(rng, OutfitCount)
	return p
}
