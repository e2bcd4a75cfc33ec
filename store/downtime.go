package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"downtimelog/models"
)

type DowntimeStore struct {
	db *sql.DB
}

func NewDowntimeStore(db *sql.DB) *DowntimeStore {
	return &DowntimeStore{db: db}
}

// ListByUsername returns every entry whose username matches exactly
// (case-sensitive). The slice is empty when there are none.
func (s *DowntimeStore) ListByUsername(ctx context.Context, username string) ([]models.DowntimeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, username, clock_in, clock_out, notes, created_at, updated_at FROM downtimes WHERE username = ?",
		username)
	if err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()

	entries := []models.DowntimeEntry{}
	for rows.Next() {
		var e models.DowntimeEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.ClockIn, &e.ClockOut, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Create inserts a new entry and returns it with its assigned id.
func (s *DowntimeStore) Create(ctx context.Context, username string, clockIn time.Time, clockOut *time.Time, notes *string) (*models.DowntimeEntry, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO downtimes (username, clock_in, clock_out, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		username, clockIn, clockOut, notes, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("entry id: %w", err)
	}
	return s.get(ctx, int(id))
}

// Update merges the supplied fields into the existing row and returns
// the updated entry. Returns ErrNotFound when the id does not exist.
func (s *DowntimeStore) Update(ctx context.Context, id int, patch EntryPatch) (*models.DowntimeEntry, error) {
	entry, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		entry.Username = *patch.Username
	}
	if patch.ClockIn != nil {
		entry.ClockIn = *patch.ClockIn
	}
	if patch.ClockOut != nil {
		if patch.ClockOut.Valid {
			t := patch.ClockOut.Time
			entry.ClockOut = &t
		} else {
			entry.ClockOut = nil
		}
	}
	if patch.Notes != nil {
		if patch.Notes.Valid {
			n := patch.Notes.String
			entry.Notes = &n
		} else {
			entry.Notes = nil
		}
	}
	entry.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		"UPDATE downtimes SET username = ?, clock_in = ?, clock_out = ?, notes = ?, updated_at = ? WHERE id = ?",
		entry.Username, entry.ClockIn, entry.ClockOut, entry.Notes, entry.UpdatedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return entry, nil
}

// Delete removes the row permanently. Returns ErrNotFound when the id
// does not exist.
func (s *DowntimeStore) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM downtimes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DowntimeStore) get(ctx context.Context, id int) (*models.DowntimeEntry, error) {
	var e models.DowntimeEntry
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, clock_in, clock_out, notes, created_at, updated_at FROM downtimes WHERE id = ?",
		id).Scan(&e.ID, &e.Username, &e.ClockIn, &e.ClockOut, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select entry: %w", err)
	}
	return &e, nil
}
