package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// NoteEvent is one triggered key.
type NoteEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	KeyID     string    `json:"key"`
	Side      string    `json:"side"`
	Sound     string    `json:"sound"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	PlayedAt  time.Time `json:"played_at"`
}

// KeyCount is the number of times a key was played.
type KeyCount struct {
	KeyID string `json:"key"`
	Count int    `json:"count"`
}

// NoteRepository provides access to note events.
type NoteRepository struct {
	db *sql.DB
}

// Notes returns the note event repository for this store.
func (s *Store) Notes() *NoteRepository {
	return &NoteRepository{db: s.db}
}

// Create inserts a note event, assigning an ID and timestamp when unset.
func (r *NoteRepository) Create(n *NoteEvent) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.PlayedAt.IsZero() {
		n.PlayedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO note_events (id, session_id, key_id, side, sound, x, y, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.SessionID, n.KeyID, n.Side, n.Sound, n.X, n.Y, n.PlayedAt,
	)
	return err
}

// ListRecent returns the latest note events, newest first. An empty
// sessionID lists across all sessions.
func (r *NoteRepository) ListRecent(sessionID string, limit int) ([]*NoteEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, session_id, key_id, side, sound, x, y, played_at FROM note_events`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY played_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*NoteEvent
	for rows.Next() {
		n := &NoteEvent{}
		if err := rows.Scan(&n.ID, &n.SessionID, &n.KeyID, &n.Side, &n.Sound, &n.X, &n.Y, &n.PlayedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

// CountsByKey returns how often each key was played, most played first.
// An empty sessionID counts across all sessions.
func (r *NoteRepository) CountsByKey(sessionID string) ([]KeyCount, error) {
	query := `SELECT key_id, COUNT(*) FROM note_events`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` GROUP BY key_id ORDER BY COUNT(*) DESC, key_id ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []KeyCount
	for rows.Next() {
		var c KeyCount
		if err := rows.Scan(&c.KeyID, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
