// pkg/entity/order.go
package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

// Task identifies what a scheduled order does.
type Task string

// TaskBurn is the only task currently defined: replace the entity's
// acceleration at the scheduled time.
const TaskBurn Task = "burn"

// ErrInvalidOrder is wrapped by every order validation failure. Rejected
// orders are never partially recorded.
var ErrInvalidOrder = errors.New("invalid order")

// OrderArgs is the task-specific payload of an order. For burn orders the
// acceleration vector is required and must be finite.
type OrderArgs struct {
	Accel physics.Vector3 `json:"a"`
}

// Order is a scheduled command owned by its parent entity. Orders are
// immutable once created and are consumed (removed) when the simulation
// advances past their scheduled time.
type Order struct {
	Task Task      `json:"task"`
	Args OrderArgs `json:"args"`
	// Time may be in the past, present or future relative to the
	// simulated clock.
	Time time.Time `json:"time"`
	// ID is unique per parent entity, monotonic but not globally unique.
	ID int `json:"order_id"`
	// ParentEntity names the owning entity. Lookup only, never ownership.
	ParentEntity string `json:"parent_entity"`
}

// AddOrder validates and appends a new order, returning its id. Ids are
// assigned as max(existing)+1, or 0 for an empty queue. The queue is not
// re-sorted at insertion; the scheduler sorts by time when consuming.
func (e *Entity) AddOrder(task Task, args OrderArgs, at time.Time) (int, error) {
	if task != TaskBurn {
		return 0, fmt.Errorf("%w: unknown task %q", ErrInvalidOrder, task)
	}
	if !args.Accel.IsFinite() {
		return 0, fmt.Errorf("%w: NaN and Inf not allowed in acceleration", ErrInvalidOrder)
	}
	if at.IsZero() {
		return 0, fmt.Errorf("%w: order time is required", ErrInvalidOrder)
	}

	id := 0
	for _, pending := range e.Pending {
		if pending.ID >= id {
			id = pending.ID + 1
		}
	}

	e.Pending = append(e.Pending, Order{
		Task:         task,
		Args:         args,
		Time:         at,
		ID:           id,
		ParentEntity: e.Name,
	})
	return id, nil
}

// Order returns the pending order with the given id, if present.
func (e *Entity) Order(id int) (Order, bool) {
	for _, order := range e.Pending {
		if order.ID == id {
			return order, true
		}
	}
	return Order{}, false
}

// ClearOrder removes the pending order with the given id and reports
// whether it was found. Callers that need to fail on absence check the
// result instead of relying on a panic.
func (e *Entity) ClearOrder(id int) bool {
	for i, order := range e.Pending {
		if order.ID == id {
			e.Pending = append(e.Pending[:i], e.Pending[i+1:]...)
			return true
		}
	}
	return false
}

// PendingOrders returns the entity's pending order queue.
func (e *Entity) PendingOrders() []Order {
	return e.Pending
}
