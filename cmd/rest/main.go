package main

import (
	"context"
	"log"

	"ai-assistant-be/internal/bootstrap"
	"ai-assistant-be/internal/config"
	"ai-assistant-be/internal/server"
	"ai-assistant-be/internal/tracer"
	"ai-assistant-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Consumer Service. The gochannel bus is non-persistent, so
	// the subscription must exist before anything is published.
	log.Println("Starting Consumer Service...")
	if err := container.ConsumerService.Consume(context.Background()); err != nil {
		log.Panicf("Unable to start Consumer Service: %v", err)
	}

	// 5. Seed the index from the documents directory
	go func() {
		if _, err := container.IngestService.IngestDirectory(context.Background()); err != nil {
			log.Printf("Background Ingest Error: %v", err)
		}
	}()

	// 6. Initialize and Run Server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
