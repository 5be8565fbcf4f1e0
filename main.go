// main.go
package main

import (
	"context"
	"log"
	"time"

	"rental-marketplace/cmd"
	"rental-marketplace/internal/data/repository"
	"rental-marketplace/internal/scheduler"
	"rental-marketplace/internal/wire"
	"rental-marketplace/pkg/database"
	"rental-marketplace/pkg/payment"
	"rental-marketplace/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Apply schema migrations before taking traffic
	if err := database.RunMigrations(config.Database); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Payment gateway client
	gateway := payment.NewClient(config.Payment.BaseURL, config.Payment.APIKey, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, gateway, config, logger)

	// Background sweep keeps held dates from leaking when checkouts are
	// abandoned
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweep := scheduler.New(
		app.Service.Reaper,
		time.Duration(config.Reaper.SweepIntervalMinutes)*time.Minute,
		logger,
	)
	go sweep.Start(ctx)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
