// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ZDSRepositories/dotwar/pkg/config"
	"github.com/ZDSRepositories/dotwar/pkg/event"
	"github.com/ZDSRepositories/dotwar/pkg/health"
	"github.com/ZDSRepositories/dotwar/pkg/logging"
	"github.com/ZDSRepositories/dotwar/pkg/network"
	"github.com/ZDSRepositories/dotwar/pkg/registry"
	"github.com/ZDSRepositories/dotwar/pkg/storage"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "config.json", "Path to game configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	envFile := flag.String("env", ".env", "Path to .env file with DOTWAR_* settings")
	flag.Parse()

	// Create default configuration file if requested
	if *createDefault {
		defaultConfig := config.DefaultConfig()
		if err := config.SaveConfig(defaultConfig, *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	// The .env file is optional; the environment itself always wins.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		logger.Error(ctx, "Failed to load .env file", err, "env_file", *envFile)
		os.Exit(1)
	}

	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		logger.Error(ctx, "Failed to load environment configuration", err)
		os.Exit(1)
	}

	// Load game configuration
	var gameConfig *config.GameConfig
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", *configPath,
		)
		gameConfig = config.DefaultConfig()
	} else {
		gameConfig, err = config.LoadConfig(*configPath)
		if err != nil {
			logger.Error(ctx, "Failed to load configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
	}

	// The environment overrides the config file, per the env-config
	// contract.
	gameDir := gameConfig.GameDir
	if os.Getenv("DOTWAR_GAME_DIR") != "" || gameDir == "" {
		gameDir = envConfig.GameDir
	}
	if err := os.MkdirAll(gameDir, 0o755); err != nil {
		logger.Error(ctx, "Failed to create game directory", err, "game_dir", gameDir)
		os.Exit(1)
	}

	store := storage.NewStore(gameDir, gameConfig.Physics)
	bus := event.NewBus()
	reg := registry.NewRegistry(store, registry.SystemClock{}, logger, bus)

	// Setup health checks
	healthChecker := health.NewHealthChecker()
	healthChecker.AddCheck(health.NewGameStoreHealthCheck(
		func() string { return store.Dir() },
	))

	server := network.NewServer(reg, logger, healthChecker)
	bus.SubscribeAll(server.Hub().Broadcast)

	healthChecker.AddCheck(health.NewNetworkHealthCheck(
		func() string { return server.ListenerAddr() },
	))

	serverAddr := fmt.Sprintf("%s:%d", envConfig.ServerAddr, envConfig.ServerPort)
	logger.Info(ctx, "Starting server",
		"address", serverAddr,
		"game_dir", gameDir,
	)
	if err := server.Start(serverAddr, envConfig.ReadTimeout, envConfig.WriteTimeout); err != nil {
		logger.Error(ctx, "Failed to start server", err,
			"address", serverAddr,
		)
		os.Exit(1)
	}

	games, err := reg.ListGames(ctx)
	if err != nil {
		logger.Warn(ctx, "Failed to list games at startup", "error", err)
	} else {
		logger.Info(ctx, "Detected games", "games", games)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), envConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown failed", err)
	}
}
