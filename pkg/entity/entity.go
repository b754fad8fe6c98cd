// pkg/entity/entity.go
package entity

import (
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

// Type identifies the kind of body an entity is.
type Type string

const (
	Craft  Type = "craft"
	Planet Type = "planet"
)

// Team is an entity's allegiance.
type Team int

const (
	TeamSelf     Team = -1
	TeamDefender Team = 0
	TeamAttacker Team = 1
)

// String returns the display name of the team.
func (t Team) String() string {
	switch t {
	case TeamSelf:
		return "Itself"
	case TeamDefender:
		return "Defenders"
	case TeamAttacker:
		return "Attackers"
	default:
		return "Unknown"
	}
}

// Entity is the mutable state of one spacecraft or planet. Entities are
// owned exclusively by their Game and referenced by name; Name is the
// primary key within a game.
type Entity struct {
	Name    string          `json:"name"`
	Captain *string         `json:"captain"`
	R       physics.Vector3 `json:"r"` // position, km
	V       physics.Vector3 `json:"v"` // velocity, km/hr
	A       physics.Vector3 `json:"a"` // acceleration, km/hr²
	Type    Type            `json:"type"`
	Pending []Order         `json:"pending"`
	Team    Team            `json:"team"`
	// CreatedOn is set once at creation and never changes.
	CreatedOn time.Time `json:"created_on"`
	// Authcode, once set, never changes. Its presence marks the entity as
	// player-controllable.
	Authcode string `json:"authcode,omitempty"`
	// Captured is meaningful only for planets. It starts false for
	// capturable planets and becomes permanently true on capture.
	Captured *bool `json:"captured,omitempty"`
}

// New creates an entity with an empty order queue.
func New(name string, captain *string, r, v, a physics.Vector3, entityType Type, team Team, createdOn time.Time) *Entity {
	return &Entity{
		Name:      name,
		Captain:   captain,
		R:         r,
		V:         v,
		A:         a,
		Type:      entityType,
		Pending:   []Order{},
		Team:      team,
		CreatedOn: createdOn,
	}
}

// Controllable reports whether orders can be issued to this entity.
func (e *Entity) Controllable() bool {
	return e.Authcode != ""
}

// IsCaptured reports whether a planet has been captured. Planets with no
// captured flag are not capturable.
func (e *Entity) IsCaptured() bool {
	return e.Captured != nil && *e.Captured
}

// Capturable reports whether the entity is a planet that can still be
// captured.
func (e *Entity) Capturable() bool {
	return e.Type == Planet && e.Captured != nil && !*e.Captured
}

// MarkCaptured permanently flips the captured flag. The transition is
// one-way; captured planets never revert.
func (e *Entity) MarkCaptured() {
	captured := true
	e.Captured = &captured
}

// Kinematics returns a snapshot of the entity's current motion state.
func (e *Entity) Kinematics() Kinematics {
	return Kinematics{R: e.R, V: e.V, A: e.A}
}

// Kinematics is a point-in-time snapshot of position, velocity and
// acceleration, recorded in events.
type Kinematics struct {
	R physics.Vector3 `json:"r"`
	V physics.Vector3 `json:"v"`
	A physics.Vector3 `json:"a"`
}
