package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"pulsemon/config"
	"pulsemon/internals/app"
	"pulsemon/internals/server"
	"pulsemon/pkg/db"
	"pulsemon/pkg/logger"
)

func main() {
	// Load envs
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Context tied to SIGINT/SIGTERM, cancelled when a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize base logger
	logg := logger.Init(cfg)
	logg.Info().Msg("logger initialized")

	// Initialize DB pool
	dbPool, err := db.ConnectToDB(ctx, cfg.DB, logg)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	logg.Info().Msg("database pool initialized")
	defer dbPool.Close()

	if err := db.EnsureSchema(ctx, dbPool); err != nil {
		logg.Fatal().Err(err).Msg("failed to ensure schema")
	}

	// Inject dependencies
	container, err := app.NewContainer(ctx, dbPool, cfg, logg)
	if err != nil {
		logg.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	logg.Info().Msg("dependencies initialized")

	// start alert workers
	container.AlertSvc.Start()
	// start evaluator loop
	go container.Evaluator.Run()

	// Register routes
	router := app.RegisterRoutes(container)
	logg.Info().Msg("routes registered")

	// Start HTTP server in the background
	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, logg)
	srv.Start()

	// main goroutine waits for graceful shutdown
	<-ctx.Done()
	logg.Info().Msg("shutdown signal received")

	// 1. Stop HTTP server (stop accepting heartbeats)
	if err := srv.Shutdown(context.Background()); err != nil {
		logg.Error().Err(err).Msg("server shutdown failed")
	}

	// 2. Wait for the evaluator to finish its last cycle
	<-container.Evaluator.Done()

	// 3. Drain alert workers and close infra
	if err := container.Shutdown(); err != nil {
		logg.Error().Err(err).Msg("dependencies shutdown failed")
	}

	logg.Info().Msg("graceful shutdown complete")
}
