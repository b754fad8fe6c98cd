// Package registry is the service layer between transports and the
// simulation. Each operation loads the target game from storage, advances
// the simulation to the present, applies the operation, and persists the
// result. A per-game mutex serializes the load, mutate, save cycle so two
// requests never interleave writes to one save file.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/engine"
	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/event"
	"github.com/ZDSRepositories/dotwar/pkg/logging"
	"github.com/ZDSRepositories/dotwar/pkg/physics"
	"github.com/ZDSRepositories/dotwar/pkg/storage"
)

// ErrGameExists reports an attempt to create a game over an existing save.
var ErrGameExists = errors.New("game already exists")

// Clock supplies the wall-clock time operations advance the simulation to.
// Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Status is the game metadata block returned by GetStatus.
type Status struct {
	Name         string    `json:"name"`
	CreatedOn    time.Time `json:"created_on"`
	LastModified time.Time `json:"last_modified"`
	SystemTime   time.Time `json:"system_time"`
}

// EntityView is the public projection of an entity: everything except the
// pending order queue and the authcode.
type EntityView struct {
	Name      string          `json:"name"`
	Captain   *string         `json:"captain"`
	R         physics.Vector3 `json:"r"`
	V         physics.Vector3 `json:"v"`
	A         physics.Vector3 `json:"a"`
	Type      entity.Type     `json:"type"`
	Team      entity.Team     `json:"team"`
	CreatedOn time.Time       `json:"created_on"`
	Captured  *bool           `json:"captured,omitempty"`
}

// viewOf projects an entity into its public form.
func viewOf(e *entity.Entity) EntityView {
	return EntityView{
		Name:      e.Name,
		Captain:   e.Captain,
		R:         e.R,
		V:         e.V,
		A:         e.A,
		Type:      e.Type,
		Team:      e.Team,
		CreatedOn: e.CreatedOn,
		Captured:  e.Captured,
	}
}

// ScanFilter selects entities by exact match on any combination of fields.
// Nil fields match everything.
type ScanFilter struct {
	Name    *string      `json:"name,omitempty"`
	Captain *string      `json:"captain,omitempty"`
	Type    *entity.Type `json:"type,omitempty"`
	Team    *entity.Team `json:"team,omitempty"`
}

// Match reports whether a view passes the filter.
func (f ScanFilter) Match(v EntityView) bool {
	if f.Name != nil && v.Name != *f.Name {
		return false
	}
	if f.Captain != nil && (v.Captain == nil || *v.Captain != *f.Captain) {
		return false
	}
	if f.Type != nil && v.Type != *f.Type {
		return false
	}
	if f.Team != nil && v.Team != *f.Team {
		return false
	}
	return true
}

// OrderTime says when a new order should execute. A non-zero At wins;
// otherwise the order executes In after the current wall-clock time, which
// for the zero value means immediately.
type OrderTime struct {
	At time.Time
	In time.Duration
}

// resolve maps an OrderTime to an absolute execution time.
func (o OrderTime) resolve(now time.Time) time.Time {
	if !o.At.IsZero() {
		return o.At
	}
	return now.Add(o.In)
}

// Registry owns all game access for a server process.
type Registry struct {
	store  *storage.Store
	clock  Clock
	logger *logging.Logger
	bus    *event.Bus

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry creates a registry over a store. The bus may be nil when no
// observer needs live events.
func NewRegistry(store *storage.Store, clock Clock, logger *logging.Logger, bus *event.Bus) *Registry {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Registry{
		store:  store,
		clock:  clock,
		logger: logger,
		bus:    bus,
	}
}

// gameLock returns the mutex serializing access to one game, creating it on
// first use. Lock entries are never removed; a server hosts a bounded set
// of games.
func (r *Registry) gameLock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	mu, ok := r.locks[name]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[name] = mu
	}
	return mu
}

// withGame runs fn against the named game under its lock, after advancing
// the simulation to the present. The game is saved and any events logged
// during the call are published, whether fn succeeded or not; catch-up
// progress is never thrown away.
func (r *Registry) withGame(ctx context.Context, name string, fn func(g *engine.Game) error) error {
	lock := r.gameLock(name)
	lock.Lock()
	defer lock.Unlock()

	g, err := r.store.Load(name)
	if err != nil {
		return err
	}

	before := g.EventCount()
	now := r.clock.Now()
	if err := g.UpdateTo(now); err != nil {
		return fmt.Errorf("advancing game %q: %w", name, err)
	}

	opErr := fn(g)

	g.Touch(now)
	if err := r.store.Save(g); err != nil {
		r.logger.Error(ctx, "failed to save game", err, "game", name)
		if opErr == nil {
			return err
		}
		return opErr
	}

	r.publish(name, g.EventsSince(before))
	return opErr
}

// publish fans newly logged events out to the bus.
func (r *Registry) publish(game string, events []event.Event) {
	if r.bus == nil {
		return
	}
	for _, ev := range events {
		r.bus.Publish(game, ev)
	}
}

// ListGames returns the names of all games in the store.
func (r *Registry) ListGames(ctx context.Context) ([]string, error) {
	return r.store.List()
}

// GetStatus returns a game's metadata after catching it up to the present.
func (r *Registry) GetStatus(ctx context.Context, name string) (Status, error) {
	var status Status
	err := r.withGame(ctx, name, func(g *engine.Game) error {
		status = Status{
			Name:         g.Name(),
			CreatedOn:    g.CreatedOn(),
			LastModified: g.LastModified(),
			SystemTime:   g.SystemTime(),
		}
		return nil
	})
	return status, err
}

// Scan returns the public view of a game's entities, optionally filtered.
// Pending orders and authcodes are never exposed.
func (r *Registry) Scan(ctx context.Context, name string, filter ScanFilter) ([]EntityView, error) {
	var views []EntityView
	err := r.withGame(ctx, name, func(g *engine.Game) error {
		for _, e := range g.Entities() {
			v := viewOf(e)
			if filter.Match(v) {
				views = append(views, v)
			}
		}
		return nil
	})
	return views, err
}

// GetEventLog returns events with occurrence time in [start, end]. A zero
// start means the epoch, a zero end the current system time.
func (r *Registry) GetEventLog(ctx context.Context, name string, start, end time.Time) ([]event.Event, error) {
	var events []event.Event
	err := r.withGame(ctx, name, func(g *engine.Game) error {
		events = g.Events(start, end)
		return nil
	})
	return events, err
}

// GetAgenda returns a vessel's pending orders. Requires the vessel's
// authcode.
func (r *Registry) GetAgenda(ctx context.Context, name, vessel, authcode string) ([]entity.Order, error) {
	var agenda []entity.Order
	err := r.withGame(ctx, name, func(g *engine.Game) error {
		var err error
		agenda, err = g.Agenda(vessel, authcode)
		return err
	})
	return agenda, err
}

// AddOrder schedules an order for a vessel and returns its id. Requires
// the vessel's authcode. Orders dated before the simulated clock are
// accepted but never fire; they stay on the agenda until deleted.
func (r *Registry) AddOrder(ctx context.Context, name, vessel, authcode string, task entity.Task, args entity.OrderArgs, when OrderTime) (int, error) {
	var id int
	err := r.withGame(ctx, name, func(g *engine.Game) error {
		at := when.resolve(r.clock.Now())
		var err error
		id, err = g.AddOrder(vessel, authcode, task, args, at)
		if err == nil {
			r.logger.Info(ctx, "order added",
				"game", name, "vessel", vessel, "task", string(task), "order_id", id, "time", at)
		}
		return err
	})
	return id, err
}

// DeleteOrder removes a pending order, returning the removed id and the
// number of orders still pending. Requires the vessel's authcode.
func (r *Registry) DeleteOrder(ctx context.Context, name, vessel, authcode string, orderID int) (removed, pending int, err error) {
	err = r.withGame(ctx, name, func(g *engine.Game) error {
		var err error
		pending, err = g.DeleteOrder(vessel, authcode, orderID)
		if err == nil {
			removed = orderID
			r.logger.Info(ctx, "order removed",
				"game", name, "vessel", vessel, "order_id", orderID, "pending_count", pending)
		}
		return err
	})
	return removed, pending, err
}

// CreateGame creates a fresh world containing the uncaptured planet Earth
// at the origin, and persists it.
func (r *Registry) CreateGame(ctx context.Context, name string) error {
	lock := r.gameLock(name)
	lock.Lock()
	defer lock.Unlock()

	if r.store.Exists(name) {
		return fmt.Errorf("game %q: %w", name, ErrGameExists)
	}

	g := engine.NewGame(name, r.store.Physics(), r.clock.Now())
	g.AddEntity(engine.EntitySpec{
		Name:       "Earth",
		Type:       entity.Planet,
		Team:       entity.TeamSelf,
		Capturable: true,
	})

	if err := r.store.Save(g); err != nil {
		return err
	}
	r.logger.Info(ctx, "game created", "game", name)
	return nil
}

// AddShip adds a player-controllable craft to a game and returns its view
// along with the generated authcode. The authcode is returned exactly once,
// here; scans never include it.
func (r *Registry) AddShip(ctx context.Context, name, ship string, captain *string, team entity.Team, pos physics.Vector3) (EntityView, string, error) {
	var view EntityView
	var authcode string
	err := r.withGame(ctx, name, func(g *engine.Game) error {
		e, ok := g.AddEntity(engine.EntitySpec{
			Name:        ship,
			Captain:     captain,
			R:           pos,
			Type:        entity.Craft,
			Team:        team,
			NewAuthcode: true,
		})
		if !ok {
			return fmt.Errorf("entity %q already exists in game %q", ship, name)
		}
		view = viewOf(e)
		authcode = e.Authcode
		r.logger.Info(ctx, "ship added", "game", name, "vessel", ship, "team", team.String())
		return nil
	})
	return view, authcode, err
}
