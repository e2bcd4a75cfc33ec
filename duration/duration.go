// Package duration implements the downtime aggregation and display
// formatting used by the web view and the CLI.
package duration

import (
	"fmt"
	"time"

	"downtimelog/models"
)

const minutesPerDay = 1440

// TotalMillis sums clockOut - clockIn over all closed entries. Open
// entries (nil clockOut) are skipped. Negative differences are not
// special-cased.
func TotalMillis(entries []models.DowntimeEntry) int64 {
	var total int64
	for _, e := range entries {
		if e.ClockOut != nil {
			total += e.ClockOut.Sub(e.ClockIn).Milliseconds()
		}
	}
	return total
}

// FormatTotal renders a millisecond total as "{d}d {h}h {m}m" when it
// reaches a full day, "{h}h {m}m" otherwise. Fractional minutes are
// truncated, not rounded.
func FormatTotal(totalMillis int64) string {
	totalMinutes := totalMillis / 60000

	if totalMinutes >= minutesPerDay {
		days := totalMinutes / minutesPerDay
		remaining := totalMinutes % minutesPerDay
		return fmt.Sprintf("%dd %dh %dm", days, remaining/60, remaining%60)
	}
	return fmt.Sprintf("%dh %dm", totalMinutes/60, totalMinutes%60)
}

// FormatLength renders the length of a single entry. Open entries
// display "N/A"; closed ones show "{h}h {m}m", or a bare "{m}m" when
// under an hour.
func FormatLength(clockIn time.Time, clockOut *time.Time) string {
	if clockOut == nil {
		return "N/A"
	}
	minutes := clockOut.Sub(clockIn).Milliseconds() / 60000
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// Total is the display string for the aggregate over entries.
func Total(entries []models.DowntimeEntry) string {
	return FormatTotal(TotalMillis(entries))
}
