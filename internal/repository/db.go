package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// An in-memory database exists per connection; keep the pool at one so
	// every query sees the same database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cdrs (
			call_id TEXT PRIMARY KEY,
			caller_number TEXT NOT NULL,
			called_number TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			duration_seconds INTEGER NOT NULL,
			carrier_id TEXT NOT NULL,
			call_type TEXT NOT NULL,
			country_code TEXT,
			country_name TEXT,
			caller_prefix TEXT NOT NULL,
			called_prefix TEXT NOT NULL,
			cost REAL NOT NULL,
			revenue REAL NOT NULL,
			profit_margin REAL NOT NULL,
			billable_seconds INTEGER NOT NULL,
			rate_per_minute REAL NOT NULL,
			successful INTEGER NOT NULL,
			duration_mismatch INTEGER NOT NULL DEFAULT 0,
			processed_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cdrs_carrier ON cdrs(carrier_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cdrs_call_type ON cdrs(call_type)`,
		`CREATE INDEX IF NOT EXISTS idx_cdrs_country ON cdrs(country_code)`,
		`CREATE INDEX IF NOT EXISTS idx_cdrs_start_time ON cdrs(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_cdrs_processed_at ON cdrs(processed_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
