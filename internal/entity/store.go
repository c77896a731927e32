package entity

import (
	"github.com/annel0/street-pursuit/internal/vec"
)

// Store владеет всеми изменяемыми телами сессии. Коллекции: упорядоченные
// срезы: обход всегда идёт в порядке создания, что держит тик детерминированным.
type Store struct {
	nextID ID

	Player      *Player
	Vehicles    []*Vehicle
	Pedestrians []*Pedestrian
	Officers    []*Officer
	Projectiles []*Projectile
	Targets     []*MissionTarget
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{nextID: 1}
}

func (s *Store) allocID() ID {
	id := s.nextID
	s.nextID++
	return id
}

// AddVehicle присваивает ID и добавляет автомобиль
func (s *Store) AddVehicle(v *Vehicle) *Vehicle {
	v.ID = s.allocID()
	s.Vehicles = append(s.Vehicles, v)
	return v
}

// AddPedestrian присваивает ID и добавляет прохожего
func (s *Store) AddPedestrian(p *Pedestrian) *Pedestrian {
	p.ID = s.allocID()
	s.Pedestrians = append(s.Pedestrians, p)
	return p
}

// AddOfficer присваивает ID и добавляет офицера
func (s *Store) AddOfficer(o *Officer) *Officer {
	o.ID = s.allocID()
	s.Officers = append(s.Officers, o)
	return o
}

// AddProjectile присваивает ID и добавляет пулю
func (s *Store) AddProjectile(p *Projectile) *Projectile {
	p.ID = s.allocID()
	s.Projectiles = append(s.Projectiles, p)
	return p
}

// AddTarget присваивает ID и добавляет мишень
func (s *Store) AddTarget(t *MissionTarget) *MissionTarget {
	t.ID = s.allocID()
	s.Targets = append(s.Targets, t)
	return t
}

// Vehicle находит автомобиль по ID
func (s *Store) Vehicle(id ID) (*Vehicle, bool) {
	if !id.Valid() {
		return nil, false
	}
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// Officer находит живого офицера по ID
func (s *Store) Officer(id ID) (*Officer, bool) {
	if !id.Valid() {
		return nil, false
	}
	for _, o := range s.Officers {
		if o.ID == id {
			return o, o.Alive()
		}
	}
	return nil, false
}

// ControlledVehicle находит машину игрока, ничего не меняя
func (s *Store) ControlledVehicle() (*Vehicle, bool) {
	if s.Player == nil || s.Player.OnFoot() {
		return nil, false
	}
	return s.Vehicle(s.Player.VehicleID)
}

// PlayerVehicle возвращает машину игрока. Висячая ссылка сбрасывается,
// поэтому вызывается только внутри тика.
func (s *Store) PlayerVehicle() (*Vehicle, bool) {
	v, ok := s.ControlledVehicle()
	if !ok && s.Player != nil {
		s.Player.VehicleID = None
	}
	return v, ok
}

// Anchor возвращает точку, за которой следит ИИ: игрок или его машина
func (s *Store) Anchor() vec.Vec2Float {
	if v, ok := s.ControlledVehicle(); ok {
		return v.Pos
	}
	return s.Player.Pos
}

// AnchorRadius возвращает радиус тела, представляющего игрока
func (s *Store) AnchorRadius() float64 {
	if v, ok := s.ControlledVehicle(); ok {
		return v.Radius
	}
	return s.Player.Radius
}

// RemoveOfficers удаляет офицеров, для которых drop вернул true,
// и освобождает слот высадки у их машин.
func (s *Store) RemoveOfficers(drop func(*Officer) bool) []*Officer {
	var removed []*Officer
	kept := s.Officers[:0]
	for _, o := range s.Officers {
		if drop(o) {
			removed = append(removed, o)
			if v, ok := s.Vehicle(o.HomeVehicle); ok && v.OfficerID == o.ID {
				v.OfficerID = None
			}
			continue
		}
		kept = append(kept, o)
	}
	clearTail(s.Officers, len(kept))
	s.Officers = kept
	return removed
}

// RemoveProjectiles удаляет пули, для которых drop вернул true
func (s *Store) RemoveProjectiles(drop func(*Projectile) bool) {
	s.Projectiles = filter(s.Projectiles, drop)
}

// RemoveTargets удаляет мишени, для которых drop вернул true
func (s *Store) RemoveTargets(drop func(*MissionTarget) bool) {
	s.Targets = filter(s.Targets, drop)
}

// ClearTargets удаляет все мишени
func (s *Store) ClearTargets() {
	clearTail(s.Targets, 0)
	s.Targets = s.Targets[:0]
}

// Counts возвращает размеры коллекций
func (s *Store) Counts() Counts {
	return Counts{
		Vehicles:    len(s.Vehicles),
		Pedestrians: len(s.Pedestrians),
		Officers:    len(s.Officers),
		Projectiles: len(s.Projectiles),
		Targets:     len(s.Targets),
	}
}

// Counts это размеры коллекций для снапшота и метрик
type Counts struct {
	Vehicles    int `json:"vehicles"`
	Pedestrians int `json:"pedestrians"`
	Officers    int `json:"officers"`
	Projectiles int `json:"projectiles"`
	Targets     int `json:"targets"`
}

func filter[T any](items []*T, drop func(*T) bool) []*T {
	kept := items[:0]
	for _, item := range items {
		if !drop(item) {
			kept = append(kept, item)
		}
	}
	clearTail(items, len(kept))
	return kept
}

// clearTail обнуляет хвост среза после компактизации, чтобы не держать указатели
func clearTail[T any](items []*T, from int) {
	for i := from; i < len(items); i++ {
		items[i] = nil
	}
}
