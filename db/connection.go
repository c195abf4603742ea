package db

import (
	"database/sql"
	"fmt"

	"membership-portal/config"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and makes sure the collections exist.
func Open(cfg *config.Config) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.DBConnString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := createTables(conn); err != nil {
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return conn, nil
}

func createTables(conn *sql.DB) error {
	// payments and sponsor_payments share a shape; both are keyed by the
	// gateway-assigned payment id so a redelivered notification replaces
	// its row instead of appending a second one.
	paymentColumns := `(
		payment_id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL DEFAULT '',
		amount NUMERIC NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		payer_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT '',
		notes JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		csv_exported BOOLEAN NOT NULL DEFAULT FALSE
	)`

	cacheTable := `
	CREATE TABLE IF NOT EXISTS members_cache (
		subscription_id TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := conn.Exec("CREATE TABLE IF NOT EXISTS payments " + paymentColumns); err != nil {
		return fmt.Errorf("error creating payments table: %w", err)
	}

	if _, err := conn.Exec("CREATE TABLE IF NOT EXISTS sponsor_payments " + paymentColumns); err != nil {
		return fmt.Errorf("error creating sponsor_payments table: %w", err)
	}

	if _, err := conn.Exec(cacheTable); err != nil {
		return fmt.Errorf("error creating members_cache table: %w", err)
	}

	return nil
}
