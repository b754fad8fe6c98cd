// pkg/event/event.go
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

// Type represents the type of a logged world occurrence.
type Type string

const (
	BurnEvent    Type = "burn"
	CaptureEvent Type = "capture"
	DefenseEvent Type = "defense"
)

// Payload is the type-specific body of an event. Exactly one concrete
// payload type exists per event type, so handling is exhaustive at compile
// time instead of routing through open-ended maps.
type Payload interface {
	eventType() Type
}

// Burn records a scheduled acceleration change taking effect. Accel is the
// applied (clamped) acceleration; Kinematics is the vessel's state after it
// was applied.
type Burn struct {
	Vessel     string            `json:"vessel"`
	Accel      physics.Vector3   `json:"a"`
	Kinematics entity.Kinematics `json:"kinematics"`
}

func (Burn) eventType() Type { return BurnEvent }

// Capture records an attacker craft capturing a planet.
type Capture struct {
	Attacker   string            `json:"attacker"`
	Planet     string            `json:"planet"`
	Kinematics entity.Kinematics `json:"kinematics"`
}

func (Capture) eventType() Type { return CaptureEvent }

// Defense records a defender craft destroying an attacker. The victim is
// removed from the game permanently.
type Defense struct {
	Defender           string            `json:"defender"`
	Victim             string            `json:"victim"`
	DefenderKinematics entity.Kinematics `json:"defender_kinematics"`
	VictimKinematics   entity.Kinematics `json:"victim_kinematics"`
}

func (Defense) eventType() Type { return DefenseEvent }

// Event is one record in a game's append-only event log. Events are never
// deleted or mutated after creation.
type Event struct {
	// ID is globally unique within a game: previous id + 1, or 0 for the
	// first event. Strictly monotonic and gapless.
	ID   int     `json:"event_id"`
	Type Type    `json:"type"`
	Args Payload `json:"args"`
	// Time is the simulated time of occurrence, not wall-clock.
	Time time.Time `json:"time"`
}

// eventJSON mirrors Event with a raw args body for two-phase decoding.
type eventJSON struct {
	ID   int             `json:"event_id"`
	Type Type            `json:"type"`
	Args json.RawMessage `json:"args"`
	Time time.Time       `json:"time"`
}

// UnmarshalJSON decodes the payload into the concrete type selected by the
// event's type tag.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var payload Payload
	switch raw.Type {
	case BurnEvent:
		var p Burn
		if err := json.Unmarshal(raw.Args, &p); err != nil {
			return fmt.Errorf("decoding burn event args: %w", err)
		}
		payload = p
	case CaptureEvent:
		var p Capture
		if err := json.Unmarshal(raw.Args, &p); err != nil {
			return fmt.Errorf("decoding capture event args: %w", err)
		}
		payload = p
	case DefenseEvent:
		var p Defense
		if err := json.Unmarshal(raw.Args, &p); err != nil {
			return fmt.Errorf("decoding defense event args: %w", err)
		}
		payload = p
	default:
		return fmt.Errorf("unknown event type %q", raw.Type)
	}

	e.ID = raw.ID
	e.Type = raw.Type
	e.Args = payload
	e.Time = raw.Time
	return nil
}

// Log is a game's append-only event log.
type Log struct {
	events []Event
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{events: []Event{}}
}

// RestoreLog rebuilds a log from persisted events, preserving order.
func RestoreLog(events []Event) *Log {
	if events == nil {
		events = []Event{}
	}
	return &Log{events: events}
}

// Append assigns the next event id and appends a new record, returning it.
func (l *Log) Append(payload Payload, at time.Time) Event {
	id := 0
	if len(l.events) > 0 {
		id = l.events[len(l.events)-1].ID + 1
	}
	ev := Event{
		ID:   id,
		Type: payload.eventType(),
		Args: payload,
		Time: at,
	}
	l.events = append(l.events, ev)
	return ev
}

// Events returns all logged events in append order.
func (l *Log) Events() []Event {
	return l.events
}

// Len returns the number of logged events.
func (l *Log) Len() int {
	return len(l.events)
}

// Between returns events with occurrence time in [start, end], inclusive on
// both ends.
func (l *Log) Between(start, end time.Time) []Event {
	var out []Event
	for _, ev := range l.events {
		if !ev.Time.Before(start) && !ev.Time.After(end) {
			out = append(out, ev)
		}
	}
	return out
}
