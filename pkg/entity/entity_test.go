// pkg/entity/entity_test.go
package entity

import (
	"testing"
	"time"

	"github.com/ZDSRepositories/dotwar/pkg/physics"
)

func testCraft(name string) *Entity {
	captain := "ADMIN"
	e := New(name, &captain, physics.Vector3{}, physics.Vector3{}, physics.Vector3{}, Craft, TeamDefender, time.Now())
	e.Authcode = "secret"
	return e
}

func testPlanet(name string) *Entity {
	e := New(name, nil, physics.Vector3{}, physics.Vector3{}, physics.Vector3{}, Planet, TeamSelf, time.Now())
	captured := false
	e.Captured = &captured
	return e
}

func TestEntity_Controllable(t *testing.T) {
	craft := testCraft("TEST1")
	if !craft.Controllable() {
		t.Error("craft with authcode should be controllable")
	}
	planet := testPlanet("Earth")
	if planet.Controllable() {
		t.Error("planet without authcode should not be controllable")
	}
}

func TestEntity_CaptureTransition(t *testing.T) {
	planet := testPlanet("Earth")
	if !planet.Capturable() {
		t.Fatal("uncaptured planet should be capturable")
	}
	if planet.IsCaptured() {
		t.Fatal("planet should start uncaptured")
	}

	planet.MarkCaptured()
	if !planet.IsCaptured() {
		t.Error("planet should be captured after MarkCaptured")
	}
	if planet.Capturable() {
		t.Error("captured planet must not be capturable again")
	}

	// The transition is one-way.
	planet.MarkCaptured()
	if !planet.IsCaptured() {
		t.Error("captured flag must never revert")
	}
}

func TestEntity_Capturable_NoFlag(t *testing.T) {
	e := New("Moon", nil, physics.Vector3{}, physics.Vector3{}, physics.Vector3{}, Planet, TeamSelf, time.Now())
	if e.Capturable() {
		t.Error("planet without captured flag should not be capturable")
	}

	craft := testCraft("TEST1")
	if craft.Capturable() {
		t.Error("craft should never be capturable")
	}
}

func TestEntity_Kinematics(t *testing.T) {
	e := testCraft("TEST1")
	e.R = physics.Vector3{X: 1}
	e.V = physics.Vector3{Y: 2}
	e.A = physics.Vector3{Z: 3}

	k := e.Kinematics()
	if k.R != e.R || k.V != e.V || k.A != e.A {
		t.Errorf("Kinematics() = %+v, expected snapshot of entity state", k)
	}

	// The snapshot must not alias entity state.
	e.R = physics.Vector3{X: 9}
	if k.R.X != 1 {
		t.Error("kinematics snapshot changed after entity mutation")
	}
}

func TestTeam_String(t *testing.T) {
	tests := []struct {
		team     Team
		expected string
	}{
		{TeamSelf, "Itself"},
		{TeamDefender, "Defenders"},
		{TeamAttacker, "Attackers"},
		{Team(5), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.team.String(); got != tt.expected {
			t.Errorf("Team(%d).String() = %q, expected %q", tt.team, got, tt.expected)
		}
	}
}
