package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"downtimelog/models"
)

func entry(clockIn time.Time, clockOut *time.Time) models.DowntimeEntry {
	return models.DowntimeEntry{ClockIn: clockIn, ClockOut: clockOut}
}

func TestTotalExcludesOpenEntries(t *testing.T) {
	t0 := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	closed := t0.Add(90 * time.Minute)

	entries := []models.DowntimeEntry{
		entry(t0, &closed),
		entry(t0.Add(3*time.Hour), nil),
	}

	assert.Equal(t, "1h 30m", Total(entries))
}

func TestTotalEmpty(t *testing.T) {
	assert.Equal(t, "0h 0m", Total(nil))
}

func TestFormatTotalDayRollover(t *testing.T) {
	// 1500 minutes = 1440 + 60
	assert.Equal(t, "1d 1h 0m", FormatTotal(1500*60000))
}

func TestFormatTotalUnderADay(t *testing.T) {
	assert.Equal(t, "23h 59m", FormatTotal(1439*60000))
}

func TestFormatTotalTruncatesFractionalMinutes(t *testing.T) {
	// 90 minutes and 59 seconds still displays as 1h 30m
	assert.Equal(t, "1h 30m", FormatTotal(90*60000+59000))
}

func TestFormatLength(t *testing.T) {
	t0 := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	short := t0.Add(45 * time.Minute)
	assert.Equal(t, "45m", FormatLength(t0, &short))

	long := t0.Add(75 * time.Minute)
	assert.Equal(t, "1h 15m", FormatLength(t0, &long))

	assert.Equal(t, "N/A", FormatLength(t0, nil))
}
