package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is one journaled gesture event.
type Event struct {
	ID         string    `json:"id"`
	Lane       int       `json:"lane"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventRepository appends to and queries the event journal.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create appends e, assigning an ID if it has none.
func (r *EventRepository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, lane, label, confidence, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Lane, e.Label, e.Confidence, e.OccurredAt.UnixMilli(),
	)
	return err
}

// List returns the most recent events, newest first. A limit <= 0 returns all.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, lane, label, confidence, occurred_at
		 FROM events ORDER BY occurred_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var ms int64
		if err := rows.Scan(&e.ID, &e.Lane, &e.Label, &e.Confidence, &ms); err != nil {
			return nil, err
		}
		e.OccurredAt = time.UnixMilli(ms)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByLabel returns how many events each label has produced.
func (r *EventRepository) CountByLabel() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT label, COUNT(*) FROM events GROUP BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

// DeleteBefore removes events older than t and reports how many went.
func (r *EventRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, t.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
