package main

import (
	"context"
	"log"

	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"github.com/paperbase/paperbase/internal/blob"
	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/database"
	"github.com/paperbase/paperbase/internal/handler"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize the blob store
	gcsClient, err := storage.NewClient(context.Background())
	if err != nil {
		log.Fatalf("Failed to create storage client: %v", err)
	}
	blobs := blob.NewGCSStore(gcsClient, cfg.BlobBucket, cfg.BlobBaseURL)

	// Setup router
	r := handler.SetupRouter(cfg, db, blobs)

	// Start server
	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Paperbase starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
