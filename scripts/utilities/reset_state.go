//go:build ignore

package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	// Get database URL from environment
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// Connect to database
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	fmt.Println("Resetting monitoring state and rules...")
	fmt.Println("Keeping: settings (page credential)")
	fmt.Println()

	// Start transaction
	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}
	defer tx.Rollback()

	// Clear rules
	fmt.Print("Clearing rules... ")
	result, err := tx.Exec("DELETE FROM rules")
	if err != nil {
		log.Fatalf("Failed to clear rules: %v", err)
	}
	ruleCount, _ := result.RowsAffected()
	fmt.Printf("%d rows deleted\n", ruleCount)

	// Reset monitoring counters
	fmt.Print("Resetting monitor state... ")
	_, err = tx.Exec(`UPDATE monitor_state SET
		is_running = FALSE,
		enabled = FALSE,
		last_check_at = NULL,
		total_checks = 0,
		total_replies = 0,
		last_error = NULL,
		last_error_at = NULL
		WHERE id = 1`)
	if err != nil {
		log.Fatalf("Failed to reset monitor state: %v", err)
	}
	fmt.Println("done")

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	fmt.Println()
	fmt.Println("Reset complete.")
}
