package sim

import (
	"math"

	"github.com/annel0/street-pursuit/internal/physics"
)

// Коэффициенты восстановления по парам тел
const (
	RestitutionVehicleVehicle    = 0.12
	RestitutionVehiclePedestrian = 0.14
	RestitutionVehicleOfficer    = 0.10
	RestitutionVehiclePlayer     = 0.12
	RestitutionPlayerPedestrian  = 0.22
	RestitutionPlayerOfficer     = 0.15
)

// Пороги удара и последствия. Подобраны эмпирически.
const (
	BuildingForwardDamp = 0.4

	PedestrianPanicImpact = 36.0
	PedestrianPanicTime   = 1.8
	PedestrianStunImpact  = 86.0
	PedestrianStunTime    = 2.4
	RamPedestrianImpact   = 78.0
	RamPedestrianWanted   = 0.55
	RamPedestrianSelfHurt = 0.008

	OfficerHurtImpact = 60.0
	OfficerHurtScale  = 0.35
	OfficerHurtStun   = 1.2
	RamOfficerWanted  = 0.8

	PlayerHurtImpact = 42.0
	PlayerHurtScale  = 0.18
	PlayerHurtFlash  = 0.32
	PlayerPushImpact = 26.0
	PlayerPushPanic  = 1.5
)

// resolveCollisions разрешает все перекрытия за один проход:
// сначала статика, затем машины между собой, затем машины с пешими,
// и в конце пеший игрок со всеми
func (s *Session) resolveCollisions() {
	st := s.store
	p := st.Player
	playerCar := p.VehicleID

	var hits int
	for _, car := range st.Vehicles {
		hits, s.scratch = s.city.ResolveAgainstBuildings(&car.Circle, s.scratch)
		for i := 0; i < hits; i++ {
			car.ForwardSpeed *= BuildingForwardDamp
		}
	}
	for _, ped := range st.Pedestrians {
		_, s.scratch = s.city.ResolveAgainstBuildings(&ped.Circle, s.scratch)
	}
	for _, o := range st.Officers {
		_, s.scratch = s.city.ResolveAgainstBuildings(&o.Circle, s.scratch)
	}
	if p.OnFoot() {
		_, s.scratch = s.city.ResolveAgainstBuildings(&p.Circle, s.scratch)
	}

	for i := 0; i < len(st.Vehicles); i++ {
		for j := i + 1; j < len(st.Vehicles); j++ {
			physics.ResolveDynamicCircle(&st.Vehicles[i].Circle, &st.Vehicles[j].Circle, RestitutionVehicleVehicle)
		}
	}

	for _, car := range st.Vehicles {
		driven := car.ID == playerCar
		for _, ped := range st.Pedestrians {
			impact := physics.ResolveDynamicCircle(&car.Circle, &ped.Circle, RestitutionVehiclePedestrian)
			if impact > PedestrianPanicImpact {
				ped.Panic = PedestrianPanicTime
			}
			if impact > PedestrianStunImpact {
				ped.Stun = PedestrianStunTime
			}
			if driven && impact > RamPedestrianImpact {
				s.pursuit.AddWanted(RamPedestrianWanted, s.time)
				p.Health = physics.Clamp(p.Health-impact*RamPedestrianSelfHurt, 0, MaxHealth)
			}
		}
		for _, o := range st.Officers {
			impact := physics.ResolveDynamicCircle(&car.Circle, &o.Circle, RestitutionVehicleOfficer)
			if impact <= OfficerHurtImpact {
				continue
			}
			o.HP -= impact * OfficerHurtScale
			o.Stun = math.Max(o.Stun, OfficerHurtStun)
			if driven {
				s.pursuit.AddWanted(RamOfficerWanted, s.time)
			}
		}
	}

	if p.OnFoot() {
		for _, car := range st.Vehicles {
			impact := physics.ResolveDynamicCircle(&car.Circle, &p.Circle, RestitutionVehiclePlayer)
			if impact > PlayerHurtImpact {
				p.Health = physics.Clamp(p.Health-impact*PlayerHurtScale, 0, MaxHealth)
				s.flash = PlayerHurtFlash
			}
		}
		for _, ped := range st.Pedestrians {
			if impact := physics.ResolveDynamicCircle(&p.Circle, &ped.Circle, RestitutionPlayerPedestrian); impact > PlayerPushImpact {
				ped.Panic = PlayerPushPanic
			}
		}
		for _, o := range st.Officers {
			physics.ResolveDynamicCircle(&p.Circle, &o.Circle, RestitutionPlayerOfficer)
		}
	}

	s.syncPlayerToVehicle()
}
