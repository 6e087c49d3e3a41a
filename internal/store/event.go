package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event sources.
const (
	SourceGesture = "gesture"
	SourceAPI     = "api"
)

// VolumeEvent records one applied volume change.
type VolumeEvent struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Volume    float64   `json:"volume"`
	Delta     float64   `json:"delta"`
	Mode      string    `json:"mode"`
	Direction string    `json:"direction,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository provides access to volume events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the volume event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts e, assigning an ID, a source and a timestamp when they are empty.
func (r *EventRepository) Create(e *VolumeEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Source == "" {
		e.Source = SourceGesture
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	var sessionID any
	if e.SessionID != "" {
		sessionID = e.SessionID
	}

	_, err := r.db.Exec(
		`INSERT INTO volume_events (id, session_id, volume, delta, mode, direction, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, sessionID, e.Volume, e.Delta, e.Mode, e.Direction, e.Source, e.CreatedAt,
	)
	return err
}

// ListBySession returns up to limit events of a session in chronological
// order. A non-positive limit returns all.
func (r *EventRepository) ListBySession(sessionID string, limit int) ([]*VolumeEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(
		`SELECT id, session_id, volume, delta, mode, direction, source, created_at
		 FROM volume_events WHERE session_id = ? ORDER BY created_at, rowid LIMIT ?`,
		sessionID, limit,
	)
}

// Recent returns the latest limit events across all sessions, newest first.
func (r *EventRepository) Recent(limit int) ([]*VolumeEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(
		`SELECT id, session_id, volume, delta, mode, direction, source, created_at
		 FROM volume_events ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
}

// DeleteBySession removes all events of a session and returns how many were deleted.
func (r *EventRepository) DeleteBySession(sessionID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM volume_events WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *EventRepository) query(q string, args ...any) ([]*VolumeEvent, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*VolumeEvent
	for rows.Next() {
		e := &VolumeEvent{}
		var sessionID sql.NullString
		if err := rows.Scan(&e.ID, &sessionID, &e.Volume, &e.Delta, &e.Mode, &e.Direction, &e.Source, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.SessionID = sessionID.String
		events = append(events, e)
	}
	return events, rows.Err()
}
