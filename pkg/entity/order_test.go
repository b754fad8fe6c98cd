// pkg/entity/order_test.go
package entity

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

func TestAddOrder_AssignsMonotonicIDs(t *testing.T) {
	e := testCraft("TEST1")
	at := time.Now()

	id0, err := e.AddOrder(TaskBurn, OrderArgs{Accel: physics.Vector3{X: 1}}, at)
	if err != nil {
		t.Fatalf("AddOrder() failed: %v", err)
	}
	if id0 != 0 {
		t.Errorf("first order id = %d, expected 0", id0)
	}

	id1, err := e.AddOrder(TaskBurn, OrderArgs{Accel: physics.Vector3{Y: 1}}, at)
	if err != nil {
		t.Fatalf("AddOrder() failed: %v", err)
	}
	if id1 != 1 {
		t.Errorf("second order id = %d, expected 1", id1)
	}

	// Ids continue from the max, not the count: clearing order 0 must not
	// cause id reuse.
	e.ClearOrder(id0)
	id2, err := e.AddOrder(TaskBurn, OrderArgs{Accel: physics.Vector3{Z: 1}}, at)
	if err != nil {
		t.Fatalf("AddOrder() failed: %v", err)
	}
	if id2 != 2 {
		t.Errorf("third order id = %d, expected 2", id2)
	}
}

func TestAddOrder_Validation(t *testing.T) {
	at := time.Now()
	tests := []struct {
		name string
		task Task
		args OrderArgs
		at   time.Time
	}{
		{"unknown_task", Task("warp"), OrderArgs{}, at},
		{"nan_component", TaskBurn, OrderArgs{Accel: physics.Vector3{X: math.NaN()}}, at},
		{"inf_component", TaskBurn, OrderArgs{Accel: physics.Vector3{Y: math.Inf(1)}}, at},
		{"zero_time", TaskBurn, OrderArgs{Accel: physics.Vector3{X: 1}}, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testCraft("TEST1")
			if _, err := e.AddOrder(tt.task, tt.args, tt.at); !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("expected ErrInvalidOrder, got %v", err)
			}
			// Rejected as a whole: nothing partially recorded.
			if len(e.PendingOrders()) != 0 {
				t.Errorf("rejected order appeared in pending list: %v", e.PendingOrders())
			}
		})
	}
}

func TestAddOrder_SetsParentEntity(t *testing.T) {
	e := testCraft("TEST1")
	id, err := e.AddOrder(TaskBurn, OrderArgs{Accel: physics.Vector3{X: 1}}, time.Now())
	if err != nil {
		t.Fatalf("AddOrder() failed: %v", err)
	}
	order, ok := e.Order(id)
	if !ok {
		t.Fatal("order not found after AddOrder")
	}
	if order.ParentEntity != "TEST1" {
		t.Errorf("ParentEntity = %q, expected TEST1", order.ParentEntity)
	}
}

func TestOrder_Lookup(t *testing.T) {
	e := testCraft("TEST1")
	id, _ := e.AddOrder(TaskBurn, OrderArgs{Accel: physics.Vector3{X: 1}}, time.Now())

	if _, ok := e.Order(id); !ok {
		t.Error("Order() did not find existing order")
	}
	if _, ok := e.Order(999); ok {
		t.Error("Order() found a nonexistent order")
	}
}

func TestClearOrder(t *testing.T) {
	e := testCraft("TEST1")
	id, _ := e.AddOrder(TaskBurn, OrderArgs{Accel: physics.Vector3{X: 1}}, time.Now())

	if !e.ClearOrder(id) {
		t.Error("ClearOrder() did not find existing order")
	}
	if len(e.PendingOrders()) != 0 {
		t.Errorf("pending list not empty after ClearOrder: %v", e.PendingOrders())
	}
	if e.ClearOrder(id) {
		t.Error("ClearOrder() reported success for already-removed order")
	}
}
