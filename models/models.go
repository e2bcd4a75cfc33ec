package models

import "time"

type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
}

// DowntimeEntry is one logged downtime interval. ClockOut is nil while
// the interval is still open; open entries are excluded from totals.
type DowntimeEntry struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	ClockIn   time.Time  `json:"clockIn"`
	ClockOut  *time.Time `json:"clockOut"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
