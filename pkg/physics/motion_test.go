// pkg/physics/motion_test.go
package physics

import (
	"math"
	"testing"
)

func TestMotion_ConstantVelocity(t *testing.T) {
	v := Vector3{X: 100, Y: 0, Z: 0} // km/hr
	dr, dv := Motion(v, Vector3{}, 2)
	if dr != (Vector3{X: 200}) {
		t.Errorf("dr = %v, expected {200 0 0}", dr)
	}
	if dv != (Vector3{}) {
		t.Errorf("dv = %v, expected zero", dv)
	}
}

func TestMotion_ConstantAcceleration(t *testing.T) {
	a := Vector3{X: 10, Y: 0, Z: 0} // km/hr²
	dr, dv := Motion(Vector3{}, a, 2)
	// dr = ½·10·2² = 20 km, dv = 10·2 = 20 km/hr
	if math.Abs(dr.X-20) > 1e-9 {
		t.Errorf("dr.X = %v, expected 20", dr.X)
	}
	if math.Abs(dv.X-20) > 1e-9 {
		t.Errorf("dv.X = %v, expected 20", dv.X)
	}
}

func TestMotionSeconds_ConvertsToHours(t *testing.T) {
	v := Vector3{X: 3600, Y: 0, Z: 0} // km/hr
	dr, _ := MotionSeconds(v, Vector3{}, 1)
	// 3600 km/hr over one second is one kilometer.
	if math.Abs(dr.X-1) > 1e-9 {
		t.Errorf("dr.X = %v, expected 1", dr.X)
	}
}

func TestMotion_ZeroInterval(t *testing.T) {
	dr, dv := Motion(Vector3{X: 5}, Vector3{X: 5}, 0)
	if dr != (Vector3{}) || dv != (Vector3{}) {
		t.Errorf("zero interval produced motion: dr=%v dv=%v", dr, dv)
	}
}
