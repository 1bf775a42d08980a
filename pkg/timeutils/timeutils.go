package timeutils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LocalClock is an instant projected into a user's timezone, reduced to the
// fields scheduling decisions need.
type LocalClock struct {
	Hour    int // 0-23
	Minute  int // 0-59
	Weekday int // 0=Sunday ... 6=Saturday
}

// MinutesOfDay returns the clock position as minutes since local midnight.
func (c LocalClock) MinutesOfDay() int {
	return c.Hour*60 + c.Minute
}

// ResolveLocal projects t into the named IANA timezone. Unknown or empty
// zones resolve as UTC so a bad preference value degrades the schedule
// instead of breaking it. Never panics.
func ResolveLocal(t time.Time, timezone string) LocalClock {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	local := t.In(loc)
	return LocalClock{
		Hour:    local.Hour(),
		Minute:  local.Minute(),
		Weekday: int(local.Weekday()),
	}
}

// ParseClock parses "HH:MM" (24h). Accepts "9:30" as well as "09:30".
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// InQuietHours reports whether the local hour falls inside the suppression
// range. Ranges compare at hour granularity; minutes in the preference values
// are ignored. A range whose start is not before its end wraps midnight.
// Missing or unparseable bounds never suppress.
func InQuietHours(start, end string, hour int) bool {
	if start == "" || end == "" {
		return false
	}
	startHour, _, err := ParseClock(start)
	if err != nil {
		return false
	}
	endHour, _, err := ParseClock(end)
	if err != nil {
		return false
	}
	if startHour < endHour {
		return hour >= startHour && hour < endHour
	}
	return hour >= startHour || hour < endHour
}

// InWindow reports whether nowMinutes falls in [targetMinutes,
// targetMinutes+width), both as minutes since local midnight. The width
// equals the tick cadence so exactly one tick lands in each window.
func InWindow(nowMinutes, targetMinutes, width int) bool {
	return nowMinutes >= targetMinutes && nowMinutes < targetMinutes+width
}

// MinutesUntil returns the signed distance from now to t in minutes,
// fractional part included so bucket bounds compare exactly.
func MinutesUntil(now, t time.Time) float64 {
	return t.Sub(now).Minutes()
}

// NextReminderTime advances a recurring reminder by interval units of its
// frequency. Month and year arithmetic follow time.AddDate normalization, so
// Jan 31 + 1 month lands in early March rather than being clamped.
func NextReminderTime(t time.Time, frequency string, interval int) (time.Time, error) {
	if interval < 1 {
		interval = 1
	}
	switch frequency {
	case "daily":
		return t.AddDate(0, 0, interval), nil
	case "weekly":
		return t.AddDate(0, 0, 7*interval), nil
	case "monthly":
		return t.AddDate(0, interval, 0), nil
	case "yearly":
		return t.AddDate(interval, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("frequency %q does not recur", frequency)
	}
}
