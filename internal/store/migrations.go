package store

import "fmt"

// runMigrations creates every table and index. Statements are idempotent.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Journal of emitted gesture events; occurred_at is unix milliseconds.
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			lane INTEGER NOT NULL,
			label TEXT NOT NULL,
			confidence REAL NOT NULL,
			occurred_at INTEGER NOT NULL
		)`,

		// One plugin action per gesture label.
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL UNIQUE,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events(occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_label ON events(label)`,
	}

	for i, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
