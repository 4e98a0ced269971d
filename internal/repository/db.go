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

	// One connection: writes serialize anyway, and an in-memory database
	// must not be split across pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transfers (
			id TEXT PRIMARY KEY,
			source_paybill TEXT NOT NULL,
			destination_paybill TEXT NOT NULL,
			amount TEXT NOT NULL,
			fee TEXT NOT NULL,
			payout TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_source ON transfers(source_paybill)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_destination ON transfers(destination_paybill)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_created_at ON transfers(created_at)`,

		`CREATE TABLE IF NOT EXISTS transfer_steps (
			transfer_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			status TEXT NOT NULL,
			description TEXT NOT NULL,
			details TEXT NOT NULL,
			PRIMARY KEY (transfer_id, seq),
			FOREIGN KEY (transfer_id) REFERENCES transfers(id)
		)`,

		`CREATE TABLE IF NOT EXISTS saga_events (
			id TEXT PRIMARY KEY,
			correlation_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			result_code TEXT,
			result_desc TEXT,
			disbursed INTEGER NOT NULL DEFAULT 0,
			amount TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saga_events_correlation ON saga_events(correlation_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
