package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLocal(t *testing.T) {
	// 2025-06-15 07:05 UTC is 09:05 in Madrid (UTC+2 in summer).
	instant := time.Date(2025, 6, 15, 7, 5, 0, 0, time.UTC)

	clock := ResolveLocal(instant, "Europe/Madrid")
	assert.Equal(t, 9, clock.Hour)
	assert.Equal(t, 5, clock.Minute)
	assert.Equal(t, 0, clock.Weekday) // Sunday
	assert.Equal(t, 9*60+5, clock.MinutesOfDay())
}

func TestResolveLocalUnknownZoneFallsBackToUTC(t *testing.T) {
	instant := time.Date(2025, 6, 15, 7, 5, 0, 0, time.UTC)

	for _, tz := range []string{"", "Not/AZone", "garbage"} {
		clock := ResolveLocal(instant, tz)
		assert.Equal(t, 7, clock.Hour, "tz=%q", tz)
		assert.Equal(t, 5, clock.Minute, "tz=%q", tz)
	}
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 7, hour)
	assert.Equal(t, 30, minute)

	hour, _, err = ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, 9, hour)

	for _, bad := range []string{"", "25:00", "12:60", "noon", "12", "12:3:4"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, "input=%q", bad)
	}
}

func TestInQuietHours(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		hour       int
		want       bool
	}{
		{"wrap suppressed late night", "22:00", "07:00", 23, true},
		{"wrap suppressed early morning", "22:00", "07:00", 3, true},
		{"wrap not suppressed midday", "22:00", "07:00", 12, false},
		{"wrap boundary start inclusive", "22:00", "07:00", 22, true},
		{"wrap boundary end exclusive", "22:00", "07:00", 7, false},
		{"same day suppressed", "09:00", "17:00", 10, true},
		{"same day not suppressed", "09:00", "17:00", 20, false},
		{"same day start inclusive", "09:00", "17:00", 9, true},
		{"same day end exclusive", "09:00", "17:00", 17, false},
		{"missing start", "", "07:00", 3, false},
		{"missing end", "22:00", "", 23, false},
		{"unparseable start", "late", "07:00", 3, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InQuietHours(tc.start, tc.end, tc.hour))
		})
	}
}

func TestInWindow(t *testing.T) {
	target := 9 * 60 // 09:00

	assert.True(t, InWindow(9*60, target, 15))    // 09:00
	assert.True(t, InWindow(9*60+5, target, 15))  // 09:05
	assert.True(t, InWindow(9*60+14, target, 15)) // 09:14
	assert.False(t, InWindow(9*60+15, target, 15))
	assert.False(t, InWindow(9*60+20, target, 15))
	assert.False(t, InWindow(8*60+59, target, 15))
}

func TestMinutesUntil(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.InDelta(t, 130, MinutesUntil(now, now.Add(130*time.Minute)), 0.001)
	assert.InDelta(t, -30, MinutesUntil(now, now.Add(-30*time.Minute)), 0.001)
}

func TestNextReminderTime(t *testing.T) {
	base := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

	next, err := NextReminderTime(base, "daily", 1)
	require.NoError(t, err)
	assert.Equal(t, base.AddDate(0, 0, 1), next)

	next, err = NextReminderTime(base, "weekly", 2)
	require.NoError(t, err)
	assert.Equal(t, base.AddDate(0, 0, 14), next)

	next, err = NextReminderTime(base, "monthly", 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 15, 9, 0, 0, 0, time.UTC), next)

	next, err = NextReminderTime(base, "yearly", 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC), next)

	// Zero and negative intervals advance by one unit.
	next, err = NextReminderTime(base, "daily", 0)
	require.NoError(t, err)
	assert.Equal(t, base.AddDate(0, 0, 1), next)

	_, err = NextReminderTime(base, "none", 1)
	assert.Error(t, err)

	// Month-end overflow follows AddDate normalization.
	jan31 := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	next, err = NextReminderTime(jan31, "monthly", 1)
	require.NoError(t, err)
	assert.Equal(t, time.March, next.Month())
}
