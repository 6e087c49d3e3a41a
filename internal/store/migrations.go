package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Key/value application settings; engine parameters live under "engine" as JSON
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// One row per pipeline run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			mode TEXT NOT NULL CHECK(mode IN ('continuous', 'discrete')),
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Every applied volume change
		`CREATE TABLE IF NOT EXISTS volume_events (
			id TEXT PRIMARY KEY,
			session_id TEXT REFERENCES sessions(id) ON DELETE CASCADE,
			volume REAL NOT NULL CHECK(volume >= 0 AND volume <= 100),
			delta REAL NOT NULL,
			mode TEXT NOT NULL,
			direction TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT 'gesture',
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_volume_events_session_id ON volume_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_volume_events_created_at ON volume_events(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
