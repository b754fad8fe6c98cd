// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PhysicsConfig holds the physical constants of one game instance. They are
// carried per game rather than as module-level constants so different games
// can run with different physics.
type PhysicsConfig struct {
	// LightspeedKmPerHr caps entity velocity.
	LightspeedKmPerHr float64 `json:"lightspeed"`
	// CaptureRadiusKm is the attacker-planet proximity for capture.
	CaptureRadiusKm float64 `json:"captureRadius"`
	// DefenseRadiusKm is the defender-attacker proximity for destruction.
	DefenseRadiusKm float64 `json:"defenseRadius"`
	// MaxInstantAcc caps burn acceleration, km/hr².
	MaxInstantAcc float64 `json:"maxInstantAcc"`
	// SimTickSeconds is the fixed integration sub-step.
	SimTickSeconds float64 `json:"simTickSeconds"`
}

// SimTick returns the integration sub-step as a duration.
func (p PhysicsConfig) SimTick() time.Duration {
	return time.Duration(p.SimTickSeconds * float64(time.Second))
}

// GameConfig contains configuration for a dotwar game server.
type GameConfig struct {
	GameDir string        `json:"gameDir"`
	Physics PhysicsConfig `json:"physics"`
	Welcome string        `json:"welcome"`
}

// LoadConfig loads a configuration from a file
func LoadConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *GameConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultPhysics returns the stock physical constants: a lightspeed
// velocity cap and the encounter radii of the classic rule set.
func DefaultPhysics() PhysicsConfig {
	return PhysicsConfig{
		LightspeedKmPerHr: 1079251200, // km/hr
		CaptureRadiusKm:   1.6e7,
		DefenseRadiusKm:   1.12e7,
		MaxInstantAcc:     1.6e7, // km/hr²
		SimTickSeconds:    30,
	}
}

// DefaultConfig returns a default game configuration
func DefaultConfig() *GameConfig {
	return &GameConfig{
		GameDir: ".",
		Physics: DefaultPhysics(),
		Welcome: "Welcome to the dotwar test server!",
	}
}

// Validate checks the configuration for values the simulation cannot run
// with.
func (c *GameConfig) Validate() error {
	if c.Physics.SimTickSeconds <= 0 {
		return fmt.Errorf("simTickSeconds must be positive, got %v", c.Physics.SimTickSeconds)
	}
	if c.Physics.LightspeedKmPerHr <= 0 {
		return fmt.Errorf("lightspeed must be positive, got %v", c.Physics.LightspeedKmPerHr)
	}
	if c.Physics.CaptureRadiusKm < 0 || c.Physics.DefenseRadiusKm < 0 {
		return fmt.Errorf("encounter radii must be non-negative")
	}
	if c.Physics.MaxInstantAcc <= 0 {
		return fmt.Errorf("maxInstantAcc must be positive, got %v", c.Physics.MaxInstantAcc)
	}
	return nil
}
