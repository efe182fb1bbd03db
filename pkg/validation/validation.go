package validation

import (
	"net/url"
	"strings"
	"time"
)

// IsValidEndpoint reports whether s is an absolute http(s) URL, the only
// shape a push delivery target can take.
func IsValidEndpoint(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidTimezone reports whether name resolves in the IANA zone database.
func IsValidTimezone(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// IsValidDateKey reports whether s is a "YYYY-MM-DD" calendar date.
func IsValidDateKey(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsNotEmpty checks if string is not empty after trimming
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
