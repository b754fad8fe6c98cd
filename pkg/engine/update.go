// pkg/engine/update.go
package engine

import (
	"sort"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/event"
	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

// UpdateTo advances the simulation to the given instant, folding in every
// order scheduled before it. End times earlier than the current system time
// are rejected with ErrTimeTravel; the clock never rewinds.
func (g *Game) UpdateTo(end time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	interval := end.Sub(g.systemTime)
	if interval < 0 {
		return ErrTimeTravel
	}
	g.update(interval)
	return nil
}

// Update advances the simulation by the given interval.
func (g *Game) Update(interval time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if interval < 0 {
		return ErrTimeTravel
	}
	g.update(interval)
	return nil
}

// update is the order scheduler: it merges every pending order whose time
// falls inside [systemTime, systemTime+interval] into the integration
// timeline in ascending time order, then integrates the remaining span.
// Motion for any sub-interval always completes before orders scheduled at
// or after that sub-interval's end are applied. Callers must hold the lock.
func (g *Game) update(interval time.Duration) {
	start := g.systemTime
	end := start.Add(interval)

	orders := g.ordersBetween(start, end)
	for _, order := range orders {
		if span := order.Time.Sub(g.systemTime); span > 0 {
			g.updateInterval(span)
		}

		// The parent may have been destroyed by a defense encounter while
		// integrating up to the order's time.
		e, ok := g.entities[order.ParentEntity]
		if !ok {
			continue
		}

		switch order.Task {
		case entity.TaskBurn:
			accel := order.Args.Accel.ClampLength(g.physics.MaxInstantAcc)
			e.A = accel
			g.log.Append(event.Burn{
				Vessel:     e.Name,
				Accel:      accel,
				Kinematics: e.Kinematics(),
			}, order.Time)
		}
	}

	if remaining := end.Sub(g.systemTime); remaining > 0 {
		g.updateInterval(remaining)
	}

	// Consumed orders are removed from their parents; parents destroyed
	// during the update take their queues with them.
	for _, order := range orders {
		if e, ok := g.entities[order.ParentEntity]; ok {
			e.ClearOrder(order.ID)
		}
	}
}

// ordersBetween collects pending orders across all entities with scheduled
// time in [start, end], sorted ascending by time. Ties are stable: orders
// keep submission order within an entity, entities are visited in name
// order. Callers must hold the lock.
func (g *Game) ordersBetween(start, end time.Time) []entity.Order {
	var orders []entity.Order
	for _, e := range g.sortedEntities() {
		for _, order := range e.PendingOrders() {
			if !order.Time.Before(start) && !order.Time.After(end) {
				orders = append(orders, order)
			}
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Time.Before(orders[j].Time)
	})
	return orders
}

// encounterKind discriminates proximity encounter candidates.
type encounterKind int

const (
	captureEncounter encounterKind = iota
	defenseEncounter
)

// encounter is one proximity pair detected in a tick.
type encounter struct {
	kind encounterKind
	a    string // craft driving the encounter
	b    string // planet captured or attacker destroyed
}

// updateInterval is the integration engine: it advances all entities in
// fixed sub-steps, clamping velocity to lightspeed, and detects and
// resolves proximity encounters exactly once per encounter. The loop runs
// while elapsed < interval, so the final tick may overshoot the requested
// interval by less than one tick; the system clock advances by the
// accumulated tick total once the loop completes. Callers must hold the
// lock.
func (g *Game) updateInterval(interval time.Duration) {
	tick := g.physics.SimTick()
	tickSeconds := tick.Seconds()

	var elapsed time.Duration
	// Encounter pairs active in the previous tick. Pairs that linger
	// within radius across ticks fire once when they enter, not every
	// tick. The set lives only for this call.
	previous := make(map[encounter]bool)

	for elapsed < interval {
		for _, e := range g.entities {
			dr, dv := physics.MotionSeconds(e.V, e.A, tickSeconds)
			e.R = e.R.Add(dr)
			e.V = e.V.Add(dv).ClampLength(g.physics.LightspeedKmPerHr)
		}

		active := g.detectEncounters()
		at := g.systemTime.Add(elapsed)
		for _, enc := range active {
			if previous[enc] {
				continue
			}
			g.resolveEncounter(enc, at)
		}

		previous = make(map[encounter]bool, len(active))
		for _, enc := range active {
			previous[enc] = true
		}

		elapsed += tick
	}

	g.systemTime = g.systemTime.Add(elapsed)
}

// detectEncounters scans every ordered craft/entity pair for capture and
// defense candidates. The result is sorted so event order is deterministic
// regardless of map iteration. Callers must hold the lock.
func (g *Game) detectEncounters() []encounter {
	var found []encounter
	for _, a := range g.entities {
		if a.Type != entity.Craft {
			continue
		}
		for _, b := range g.entities {
			if b.Name == a.Name {
				continue
			}

			if a.Team == entity.TeamAttacker && b.Capturable() &&
				a.R.Distance(b.R) <= g.physics.CaptureRadiusKm {
				found = append(found, encounter{kind: captureEncounter, a: a.Name, b: b.Name})
			}

			if a.Team == entity.TeamDefender && b.Team == entity.TeamAttacker &&
				a.R.Distance(b.R) <= g.physics.DefenseRadiusKm {
				found = append(found, encounter{kind: defenseEncounter, a: a.Name, b: b.Name})
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].kind != found[j].kind {
			return found[i].kind < found[j].kind
		}
		if found[i].a != found[j].a {
			return found[i].a < found[j].a
		}
		return found[i].b < found[j].b
	})
	return found
}

// resolveEncounter applies one new encounter: captures flip the planet's
// flag, defenses remove the victim from the world. Both append to the event
// log at the encounter's simulated time. Callers must hold the lock.
func (g *Game) resolveEncounter(enc encounter, at time.Time) {
	a, okA := g.entities[enc.a]
	b, okB := g.entities[enc.b]
	// Either side may already have been destroyed this tick.
	if !okA || !okB {
		return
	}

	switch enc.kind {
	case captureEncounter:
		if !b.Capturable() {
			return
		}
		b.MarkCaptured()
		g.log.Append(event.Capture{
			Attacker:   a.Name,
			Planet:     b.Name,
			Kinematics: a.Kinematics(),
		}, at)

	case defenseEncounter:
		g.log.Append(event.Defense{
			Defender:           a.Name,
			Victim:             b.Name,
			DefenderKinematics: a.Kinematics(),
			VictimKinematics:   b.Kinematics(),
		}, at)
		delete(g.entities, b.Name)
	}
}
