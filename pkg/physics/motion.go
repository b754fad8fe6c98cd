// pkg/physics/motion.go
package physics

// Motion integrates constant acceleration over an interval given in hours,
// returning the displacement and velocity delta:
//
//	dr = v·t + ½·a·t²
//	dv = a·t
//
// Entity kinematics are per-hour (km/hr, km/hr²), so the interval must be
// in hours.
func Motion(v, a Vector3, hours float64) (dr, dv Vector3) {
	dr = v.Scale(hours).Add(a.Scale(0.5 * hours * hours))
	dv = a.Scale(hours)
	return dr, dv
}

// MotionSeconds integrates constant acceleration over an interval given in
// seconds, converting to hours before integrating.
func MotionSeconds(v, a Vector3, seconds float64) (dr, dv Vector3) {
	return Motion(v, a, seconds/3600.0)
}
