package main

import (
	"context"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"vehicle-scheduling-service/internal/adapters/repositories"
	"vehicle-scheduling-service/internal/config"
	"vehicle-scheduling-service/internal/platform/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")
}
