package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per run of the piano
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			layout TEXT NOT NULL DEFAULT '',
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Note events table - every triggered key
		`CREATE TABLE IF NOT EXISTS note_events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			key_id TEXT NOT NULL,
			side TEXT NOT NULL CHECK(side IN ('left', 'right')),
			sound TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			played_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_note_events_session_id ON note_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_note_events_played_at ON note_events(played_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
