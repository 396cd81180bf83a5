// migrate applies the schema to the database at DATABASE_URL.
// Run: go run ./cmd/migrate
package main

import (
	"context"
	_ "embed"
	"log"
	"os"
	"time"

	"github.com/rhivo/premium-api/internal/infrastructure/postgres"
)

//go:embed schema.sql
var schema string

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}

	log.Println("schema applied")
}
