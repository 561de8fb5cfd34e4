package utils

import (
	"strings"
	"time"
)

// DayKey formats a timestamp as the calendar-day bucket used by usage counters.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// NormalizeEmailAddress trims and lowercases an email address. Leads are
// keyed on this form.
func NormalizeEmailAddress(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
