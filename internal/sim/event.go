package sim

import (
	"github.com/annel0/street-pursuit/internal/entity"
	"github.com/annel0/street-pursuit/internal/mission"
)

// EventKind это тип события симуляции
type EventKind string

const (
	EventReset           EventKind = "reset"
	EventStarted         EventKind = "started"
	EventPaused          EventKind = "paused"
	EventResumed         EventKind = "resumed"
	EventVehicleEntered  EventKind = "vehicle_entered"
	EventVehicleExited   EventKind = "vehicle_exited"
	EventShotFired       EventKind = "shot_fired"
	EventOfficerDeployed EventKind = "officer_deployed"
	EventOfficerDown     EventKind = "officer_down"
	EventOfficerReturned EventKind = "officer_returned"
	EventBusted          EventKind = "busted"
	EventWasted          EventKind = "wasted"
	EventTaskAssigned    EventKind = "task_assigned"
	EventTaskCompleted   EventKind = "task_completed"
	EventTargetDestroyed EventKind = "target_destroyed"
)

// Event это что-то значимое, случившееся за тик. События копятся в сессии
// и забираются вызывающим через DrainEvents.
type Event struct {
	Kind   EventKind     `json:"kind"`
	Tick   uint64        `json:"tick"`
	Time   float64       `json:"time"`
	Entity entity.ID     `json:"entity,omitempty"`
	Value  float64       `json:"value,omitempty"`
	Task   *mission.Task `json:"task,omitempty"`
}

// MaxQueuedEvents это предел очереди событий; при переполнении старые отбрасываются
const MaxQueuedEvents = 4096

func (s *Session) emit(ev Event) {
	ev.Tick = s.tick
	ev.Time = s.time
	if len(s.events) >= MaxQueuedEvents {
		s.events = append(s.events[:0], s.events[1:]...)
	}
	s.events = append(s.events, ev)
}

// DrainEvents возвращает накопленные события и очищает очередь
func (s *Session) DrainEvents() []Event {
	if len(s.events) == 0 {
		return nil
	}
	out := s.events
	s.events = nil
	return out
}
