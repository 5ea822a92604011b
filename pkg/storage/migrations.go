package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: users and budgets
	`CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		email       TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS budgets (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		amount          TEXT NOT NULL CHECK(CAST(amount AS REAL) > 0),
		start_date      TEXT,
		end_date        TEXT,
		last_alert_sent INTEGER,
		created_at      INTEGER NOT NULL,
		updated_at      INTEGER NOT NULL
	);`,

	// Migration 2: sensor series
	`CREATE TABLE IF NOT EXISTS sensor_data (
		id      TEXT PRIMARY KEY,
		ts      INTEGER NOT NULL,
		voltage REAL NOT NULL DEFAULT 0,
		ampere  REAL NOT NULL DEFAULT 0,
		power   REAL NOT NULL DEFAULT 0,
		energy  REAL NOT NULL DEFAULT 0,
		pf      REAL NOT NULL DEFAULT 0,
		price   REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_sensor_data_ts ON sensor_data(ts);

	CREATE TABLE IF NOT EXISTS sensor_data_2 (
		id      TEXT PRIMARY KEY,
		ts      INTEGER NOT NULL,
		voltage REAL NOT NULL DEFAULT 0,
		ampere  REAL NOT NULL DEFAULT 0,
		power   REAL NOT NULL DEFAULT 0,
		energy  REAL NOT NULL DEFAULT 0,
		pf      REAL NOT NULL DEFAULT 0,
		price   REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_sensor_data_2_ts ON sensor_data_2(ts);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
