// Package eligibility implements the pure due-reminder evaluation rules:
// local calendar rendering, reminder-time normalization and the observance
// day window. All functions are side-effect free and take the current instant
// as an argument so callers control the clock.
package eligibility

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ramadantracker.app/models"
)

// DefaultReminderTime is used whenever a reminder time is missing or invalid.
const DefaultReminderTime = "20:00"

const (
	dateKeyLayout   = "2006-01-02"
	timeOfDayLayout = "15:04"
)

// NormalizeTime clamps a "HH:MM" string to valid ranges. An unparseable or
// out-of-range hour falls back to 20 and an unparseable or out-of-range
// minute falls back to 0, so any input yields a valid reminder time.
func NormalizeTime(value string) string {
	parts := strings.SplitN(value, ":", 2)

	hour := 20
	if h, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil && h >= 0 && h <= 23 {
		hour = h
	}

	minute := 0
	if len(parts) == 2 {
		if m, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && m >= 0 && m <= 59 {
			minute = m
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// Location resolves an IANA timezone name, falling back to UTC when the name
// is empty or cannot be loaded from the zone database.
func Location(timezone string) *time.Location {
	if timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DateKey renders now as a "YYYY-MM-DD" calendar date as observed in timezone.
func DateKey(timezone string, now time.Time) string {
	return now.In(Location(timezone)).Format(dateKeyLayout)
}

// TimeOfDay renders now as "HH:MM" 24-hour time as observed in timezone.
func TimeOfDay(timezone string, now time.Time) string {
	return now.In(Location(timezone)).Format(timeOfDayLayout)
}

// ObservanceDay returns the 1-based day number of todayKey within the
// observance window starting at startDate, and whether todayKey falls inside
// the window at all. The difference is computed between noon-anchored UTC
// instants so daylight-saving shifts cannot move a date across a day boundary.
func ObservanceDay(startDate, todayKey string, days int) (int, bool) {
	if startDate == "" {
		return 0, false
	}
	start, err := noonUTC(startDate)
	if err != nil {
		return 0, false
	}
	today, err := noonUTC(todayKey)
	if err != nil {
		return 0, false
	}

	day := int(today.Sub(start).Hours()/24) + 1
	if day < 1 || day > days {
		return 0, false
	}
	return day, true
}

func noonUTC(dateKey string) (time.Time, error) {
	d, err := time.ParseInLocation(dateKeyLayout, dateKey, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(12 * time.Hour), nil
}

// IsDue reports whether a reminder should be dispatched for sub right now:
// the record is enabled, nothing was sent today (in the subscriber's zone),
// the current local minute equals the normalized reminder time, and today
// falls inside the observance window. The minute comparison is exact string
// equality, so callers must evaluate at least once per minute.
func IsDue(sub *models.Subscription, now time.Time) bool {
	if !sub.Enabled {
		return false
	}

	today := DateKey(sub.Timezone, now)
	if sub.LastSentDate == today {
		return false
	}
	if TimeOfDay(sub.Timezone, now) != NormalizeTime(sub.ReminderTime) {
		return false
	}

	startDate := ""
	if sub.RamadanStartDate != nil {
		startDate = *sub.RamadanStartDate
	}
	_, inWindow := ObservanceDay(startDate, today, sub.RamadanDays)
	return inWindow
}
