package main

import (
	"context"

	"lenta/parser/internal/config"
	"lenta/parser/internal/container"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("Starting Lenta catalog parser...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize container with all dependencies
	app, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	// Run the application
	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("Application exited with error: %v", err)
	}

	log.Info("Done.")
}
