// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvironmentConfig holds deployment settings read from DOTWAR_* environment
// variables. Every field has a safe default; invalid values fail loading
// rather than being silently replaced.
type EnvironmentConfig struct {
	ServerAddr      string
	ServerPort      int
	GameDir         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Circuit breaker configuration for the API client.
	CircuitBreakerMaxRequests         int
	CircuitBreakerInterval            time.Duration
	CircuitBreakerTimeout             time.Duration
	CircuitBreakerMaxConsecutiveFails int
}

// LoadConfigFromEnv builds an EnvironmentConfig from the process
// environment, applying defaults for unset variables.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	cfg := &EnvironmentConfig{
		ServerAddr:                        getEnvString("DOTWAR_SERVER_ADDR", "localhost"),
		GameDir:                           getEnvString("DOTWAR_GAME_DIR", "."),
		CircuitBreakerMaxRequests:         3,
		CircuitBreakerMaxConsecutiveFails: 5,
	}

	var err error
	if cfg.ServerPort, err = getEnvInt("DOTWAR_SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getEnvDuration("DOTWAR_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getEnvDuration("DOTWAR_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("DOTWAR_SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CircuitBreakerMaxRequests, err = getEnvInt("DOTWAR_CB_MAX_REQUESTS", 3); err != nil {
		return nil, err
	}
	if cfg.CircuitBreakerInterval, err = getEnvDuration("DOTWAR_CB_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.CircuitBreakerTimeout, err = getEnvDuration("DOTWAR_CB_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CircuitBreakerMaxConsecutiveFails, err = getEnvInt("DOTWAR_CB_MAX_CONSECUTIVE_FAILS", 5); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the environment configuration for unusable values.
func (c *EnvironmentConfig) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server port must be in 1..65535, got %d", c.ServerPort)
	}
	if c.GameDir == "" {
		return fmt.Errorf("game directory must not be empty")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.CircuitBreakerMaxRequests < 1 {
		return fmt.Errorf("circuit breaker max requests must be at least 1, got %d", c.CircuitBreakerMaxRequests)
	}
	if c.CircuitBreakerMaxConsecutiveFails < 1 {
		return fmt.Errorf("circuit breaker max consecutive fails must be at least 1, got %d", c.CircuitBreakerMaxConsecutiveFails)
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", key, value, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s, got %q: %w", key, value, err)
	}
	return parsed, nil
}
