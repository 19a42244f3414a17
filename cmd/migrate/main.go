package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"poll-be/internal/repository"
	"poll-be/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed|mongo-indexes]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if command == "mongo-indexes" {
		if err := ensureMongoIndexes(ctx); err != nil {
			log.Fatalf("Failed to create mongo indexes: %v", err)
		}
		fmt.Println("✅ Mongo indexes created successfully")
		return
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS polls CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			full_name VARCHAR(100) NOT NULL,
			user_name VARCHAR(50) NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			profile_image_url TEXT NOT NULL DEFAULT '',
			bookmarked_polls TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS polls (
			id TEXT PRIMARY KEY,
			question VARCHAR(500) NOT NULL,
			type VARCHAR(20) NOT NULL CHECK (type IN ('single-choice', 'yes/no', 'rating', 'image-based', 'open-ended')),
			options JSONB NOT NULL DEFAULT '[]'::jsonb,
			responses JSONB NOT NULL DEFAULT '[]'::jsonb,
			creator_id TEXT NOT NULL,
			voters TEXT[] NOT NULL DEFAULT '{}',
			closed BOOLEAN NOT NULL DEFAULT false,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_polls_created_at ON polls(created_at DESC, id DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_polls_creator_id ON polls(creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_polls_type ON polls(type)`,
		`CREATE INDEX IF NOT EXISTS idx_polls_voters ON polls USING GIN(voters)`,
		`CREATE INDEX IF NOT EXISTS idx_users_bookmarked_polls ON users USING GIN(bookmarked_polls)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

// seedData inserts a demo user and one open poll per type
func seedData(ctx context.Context, conn *pgx.Conn) error {
	const demoUser = "demo-user"

	_, err := conn.Exec(ctx, `
		INSERT INTO users (id, full_name, user_name, email)
		VALUES ($1, 'Demo User', 'demo', 'demo@example.com')
		ON CONFLICT (id) DO NOTHING
	`, demoUser)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	fmt.Println("  Seeded demo user")

	polls := []struct {
		question string
		pollType string
		options  string
	}{
		{"Which language should the next workshop cover?", "single-choice",
			`[{"optionText":"Go","votes":0},{"optionText":"Rust","votes":0},{"optionText":"TypeScript","votes":0}]`},
		{"Should meetings start at 9am?", "yes/no",
			`[{"optionText":"Yes","votes":0},{"optionText":"No","votes":0}]`},
		{"How would you rate the new office?", "rating",
			`[{"optionText":"1","votes":0},{"optionText":"2","votes":0},{"optionText":"3","votes":0},{"optionText":"4","votes":0},{"optionText":"5","votes":0}]`},
		{"What should we improve next quarter?", "open-ended", `[]`},
	}

	for _, p := range polls {
		_, err := conn.Exec(ctx, `
			INSERT INTO polls (id, question, type, options, creator_id)
			VALUES ($1, $2, $3, $4::jsonb, $5)
		`, uuid.NewString(), p.question, p.pollType, p.options, demoUser)
		if err != nil {
			return fmt.Errorf("failed to seed poll %q: %w", p.question, err)
		}
	}
	fmt.Printf("  Seeded %d polls\n", len(polls))

	return nil
}

func ensureMongoIndexes(ctx context.Context) error {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		return fmt.Errorf("MONGO_URI environment variable is not set")
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "polls"
	}

	db, err := database.NewMongoDB(ctx, uri, dbName)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := repository.EnsurePollIndexes(ctx, db); err != nil {
		return err
	}
	return repository.EnsureUserIndexes(ctx, db)
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
