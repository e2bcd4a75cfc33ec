package store

import (
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
)

// EntryPatch carries a partial update for a downtime entry. A nil
// field is left untouched; ClockOut and Notes use the Null types so a
// supplied null clears the column.
type EntryPatch struct {
	Username *string
	ClockIn  *time.Time
	ClockOut *sql.NullTime
	Notes    *sql.NullString
}
