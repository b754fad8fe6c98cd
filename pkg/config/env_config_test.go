// pkg/config/env_config_test.go
package config

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	envVars := []string{
		"DOTWAR_SERVER_ADDR",
		"DOTWAR_SERVER_PORT",
		"DOTWAR_GAME_DIR",
		"DOTWAR_READ_TIMEOUT",
		"DOTWAR_WRITE_TIMEOUT",
		"DOTWAR_SHUTDOWN_TIMEOUT",
		"DOTWAR_CB_MAX_REQUESTS",
		"DOTWAR_CB_INTERVAL",
		"DOTWAR_CB_TIMEOUT",
		"DOTWAR_CB_MAX_CONSECUTIVE_FAILS",
	}
	for _, key := range envVars {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() failed: %v", err)
	}

	if cfg.ServerAddr != "localhost" {
		t.Errorf("ServerAddr = %q, expected localhost", cfg.ServerAddr)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, expected 8080", cfg.ServerPort)
	}
	if cfg.GameDir != "." {
		t.Errorf("GameDir = %q, expected .", cfg.GameDir)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, expected 30s", cfg.ReadTimeout)
	}
	if cfg.CircuitBreakerInterval != 60*time.Second {
		t.Errorf("CircuitBreakerInterval = %v, expected 60s", cfg.CircuitBreakerInterval)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("DOTWAR_SERVER_ADDR", "0.0.0.0")
	t.Setenv("DOTWAR_SERVER_PORT", "9000")
	t.Setenv("DOTWAR_GAME_DIR", "/var/games")
	t.Setenv("DOTWAR_READ_TIMEOUT", "5s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv() failed: %v", err)
	}

	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, expected 0.0.0.0", cfg.ServerAddr)
	}
	if cfg.ServerPort != 9000 {
		t.Errorf("ServerPort = %d, expected 9000", cfg.ServerPort)
	}
	if cfg.GameDir != "/var/games" {
		t.Errorf("GameDir = %q, expected /var/games", cfg.GameDir)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, expected 5s", cfg.ReadTimeout)
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad_port", "DOTWAR_SERVER_PORT", "not-a-number"},
		{"port_out_of_range", "DOTWAR_SERVER_PORT", "70000"},
		{"bad_duration", "DOTWAR_READ_TIMEOUT", "thirty seconds"},
		{"negative_timeout", "DOTWAR_WRITE_TIMEOUT", "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfigFromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
