// pkg/engine/game.go
package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZDSRepositories/dotwar/pkg/config"
	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/event"
	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

// Game is the authoritative world state of one running game: its entities,
// the simulated clock and the append-only event log. All mutation goes
// through the Game; entities are owned exclusively by it.
type Game struct {
	name         string
	createdOn    time.Time
	lastModified time.Time
	systemTime   time.Time

	entities map[string]*entity.Entity
	log      *event.Log
	physics  config.PhysicsConfig

	mu sync.RWMutex
}

// NewGame creates a fresh world whose clocks start at now.
func NewGame(name string, phys config.PhysicsConfig, now time.Time) *Game {
	return &Game{
		name:         name,
		createdOn:    now,
		lastModified: now,
		systemTime:   now,
		entities:     make(map[string]*entity.Entity),
		log:          event.NewLog(),
		physics:      phys,
	}
}

// Restore rebuilds a world from persisted state.
func Restore(name string, createdOn, lastModified, systemTime time.Time, entities []*entity.Entity, events []event.Event, phys config.PhysicsConfig) *Game {
	g := &Game{
		name:         name,
		createdOn:    createdOn,
		lastModified: lastModified,
		systemTime:   systemTime,
		entities:     make(map[string]*entity.Entity, len(entities)),
		log:          event.RestoreLog(events),
		physics:      phys,
	}
	for _, e := range entities {
		g.entities[e.Name] = e
	}
	return g
}

// Name returns the game's name.
func (g *Game) Name() string { return g.name }

// CreatedOn returns the game's creation timestamp.
func (g *Game) CreatedOn() time.Time { return g.createdOn }

// LastModified returns the last persistence timestamp.
func (g *Game) LastModified() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastModified
}

// Touch records a modification timestamp, set on save.
func (g *Game) Touch(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastModified = now
}

// SystemTime returns the authoritative simulated clock. It is monotonically
// non-decreasing under normal operation.
func (g *Game) SystemTime() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.systemTime
}

// Physics returns the game's physical constants.
func (g *Game) Physics() config.PhysicsConfig { return g.physics }

// EntitySpec describes an entity to add to a game.
type EntitySpec struct {
	Name    string
	Captain *string
	R, V, A physics.Vector3
	Type    entity.Type
	Team    entity.Team
	// NewAuthcode generates a secret authcode, making the entity
	// player-controllable.
	NewAuthcode bool
	// Capturable initializes a planet's captured flag to false.
	Capturable bool
}

// AddEntity creates a new entity. It reports false, without error, when the
// name is already taken.
func (g *Game) AddEntity(spec EntitySpec) (*entity.Entity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.entities[spec.Name]; exists {
		return nil, false
	}

	e := entity.New(spec.Name, spec.Captain, spec.R, spec.V, spec.A, spec.Type, spec.Team, g.systemTime)
	if spec.NewAuthcode {
		e.Authcode = uuid.NewString()
	}
	if spec.Capturable {
		captured := false
		e.Captured = &captured
	}

	g.entities[spec.Name] = e
	return e, true
}

// Entity returns the named entity, if present.
func (g *Game) Entity(name string) (*entity.Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.entities[name]
	return e, ok
}

// Entities returns all entities sorted by name.
func (g *Game) Entities() []*entity.Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sortedEntities()
}

// sortedEntities returns the entity list in name order. Callers must hold
// the lock.
func (g *Game) sortedEntities() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(g.entities))
	for _, e := range g.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AuthorizedEntity maps an entity name and secret authcode to a mutation
// handle. It fails with ErrEntityNotFound for unknown names,
// ErrNotControllable for entities without an authcode, and ErrForbidden on
// a code mismatch. Every order creation or deletion goes through this
// check first.
func (g *Game) AuthorizedEntity(name, authcode string) (*entity.Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.entities[name]
	if !ok {
		return nil, fmt.Errorf("no vessel named %q: %w", name, ErrEntityNotFound)
	}
	if !e.Controllable() {
		return nil, fmt.Errorf("entity %q has no authcode: %w", name, ErrNotControllable)
	}
	if e.Authcode != authcode {
		return nil, fmt.Errorf("%w: wrong authcode for vessel %q", ErrForbidden, name)
	}
	return e, nil
}

// AddOrder validates, authorizes and schedules an order for a vessel.
func (g *Game) AddOrder(vessel, authcode string, task entity.Task, args entity.OrderArgs, at time.Time) (int, error) {
	e, err := g.AuthorizedEntity(vessel, authcode)
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return e.AddOrder(task, args, at)
}

// DeleteOrder removes a pending order after authorization, returning the
// number of orders still pending.
func (g *Game) DeleteOrder(vessel, authcode string, orderID int) (int, error) {
	e, err := g.AuthorizedEntity(vessel, authcode)
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !e.ClearOrder(orderID) {
		return 0, fmt.Errorf("no pending order #%d for vessel %q: %w", orderID, vessel, ErrOrderNotFound)
	}
	return len(e.PendingOrders()), nil
}

// Agenda returns a vessel's pending orders after authorization.
func (g *Game) Agenda(vessel, authcode string) ([]entity.Order, error) {
	e, err := g.AuthorizedEntity(vessel, authcode)
	if err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]entity.Order{}, e.PendingOrders()...), nil
}

// Events returns logged events with occurrence time in [start, end]. A zero
// start means the epoch; a zero end means the current system time.
func (g *Game) Events(start, end time.Time) []event.Event {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if start.IsZero() {
		start = time.Unix(0, 0)
	}
	if end.IsZero() {
		end = g.systemTime
	}
	return g.log.Between(start, end)
}

// AllEvents returns the complete event log in append order.
func (g *Game) AllEvents() []event.Event {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]event.Event{}, g.log.Events()...)
}

// EventCount returns the number of logged events.
func (g *Game) EventCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.log.Len()
}

// EventsSince returns events appended after the first count events. Used to
// publish exactly the events a state advancement produced.
func (g *Game) EventsSince(count int) []event.Event {
	g.mu.RLock()
	defer g.mu.RUnlock()

	all := g.log.Events()
	if count >= len(all) {
		return nil
	}
	return append([]event.Event{}, all[count:]...)
}
