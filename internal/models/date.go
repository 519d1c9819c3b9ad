package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage format of review dates.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order when coercing a date value.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// ParseDate accepts the layouts commonly found in review exports and returns
// the calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
