package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for labels and query params.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	DateLayout,
	"02-01-2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ParseDate normalizes a user supplied date to UTC. Accepts YYYY-MM-DD,
// DD-MM-YYYY, MM/DD/YYYY, RFC3339 and unix seconds.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// FormatISO renders midnight-UTC instants as a calendar date and anything
// else as RFC3339.
func FormatISO(t time.Time) string {
	u := t.UTC()
	if u.Equal(StartOfDay(u)) {
		return u.Format(DateLayout)
	}
	return u.Format(time.RFC3339)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
