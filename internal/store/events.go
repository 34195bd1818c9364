package store

import (
	"context"
	"fmt"
	"time"
)

// EventKind names a lifecycle transition.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventUpdated  EventKind = "updated"
	EventAccessed EventKind = "accessed"
	EventArchived EventKind = "archived"
	EventRemoved  EventKind = "removed"
	EventImported EventKind = "imported"
	EventMigrated EventKind = "migrated"
)

// Event is one row of the module event log.
type Event struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Key       string    `json:"key"`
	Kind      EventKind `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventParams filters the event log.
type EventParams struct {
	User  string
	Key   string
	Limit int
}

// RecordEvents appends events to the log. Missing IDs are assigned as ULIDs
// and missing times default to now.
func (s *SQLiteStore) RecordEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for i := range events {
		e := &events[i]
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.ID == "" {
			e.ID = s.newID(e.CreatedAt)
		}
		var detail *string
		if e.Detail != "" {
			detail = &e.Detail
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO module_events (id, user, key, kind, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.User, e.Key, string(e.Kind), detail, formatTime(e.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// Events returns logged events, newest first.
func (s *SQLiteStore) Events(ctx context.Context, p EventParams) ([]Event, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, user, key, kind, detail, created_at FROM module_events WHERE 1 = 1`
	args := []interface{}{}
	if p.User != "" {
		query += ` AND user = ?`
		args = append(args, p.User)
	}
	if p.Key != "" {
		query += ` AND key = ?`
		args = append(args, p.Key)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e         Event
			kind      string
			detail    *string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.User, &e.Key, &kind, &detail, &createdAt); err != nil {
			return nil, err
		}
		e.Kind = EventKind(kind)
		if detail != nil {
			e.Detail = *detail
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
