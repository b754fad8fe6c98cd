// pkg/engine/errors.go
package engine

import "errors"

// Error taxonomy for the simulation core. Callers branch on these with
// errors.Is; the transport layer maps them to status codes.
var (
	// ErrEntityNotFound reports a lookup for an entity name that does not
	// exist in the game.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrNotControllable reports an attempt to command an entity that has
	// no authcode (planets, uncontrolled bodies).
	ErrNotControllable = errors.New("entity is not controllable")

	// ErrForbidden reports an authcode mismatch. Distinguished internally
	// from ErrNotControllable even though both surface as an authorization
	// failure to external callers.
	ErrForbidden = errors.New("not authorized")

	// ErrOrderNotFound reports a delete of an order id with no pending
	// order.
	ErrOrderNotFound = errors.New("order not found")

	// ErrTimeTravel reports an explicit request to advance simulated time
	// backward. Rejected outright, never reinterpreted as a positive
	// interval.
	ErrTimeTravel = errors.New("simulation cannot move backward in time")
)
