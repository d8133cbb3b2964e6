package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"ecocausal/internal/config"
	"ecocausal/internal/container"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create dependency injection container
	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	// Preflight the configured data file so malformed inputs surface at
	// startup instead of first use
	if appConfig.Paths.DataFile != "" {
		seriesList, err := appContainer.Reader.ReadSeries(appConfig.Paths.DataFile)
		if err != nil {
			log.Fatalf("Failed to read data file: %v", err)
		}
		log.Printf("Data file %s parsed: %d series available", appConfig.Paths.DataFile, len(seriesList))
	}

	// Start the server
	log.Printf("🚀 Starting ecocausal server on port %s", appConfig.Server.Port)
	log.Fatal(appContainer.Server.Start(":" + appConfig.Server.Port))
}
