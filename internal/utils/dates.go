// Package utils carries small helpers shared across handlers and services.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// IST is the server's business timezone. All "today" calculations and
// timestamps use it.
var IST = time.FixedZone("IST", 5*3600+30*60)

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// TodayIST returns midnight of the current IST day.
func TodayIST() time.Time {
	now := NowIST()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, IST)
}

// dateLayouts in acceptance order: DD-MM-YYYY first, then ISO.
var dateLayouts = []string{"02-01-2006", "2006-01-02"}

// ParseDate accepts DD-MM-YYYY or YYYY-MM-DD and returns midnight IST of
// that day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, IST); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected DD-MM-YYYY or YYYY-MM-DD", s)
}

// DateOnly truncates t to midnight in IST.
func DateOnly(t time.Time) time.Time {
	t = t.In(IST)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, IST)
}

// SameDay reports whether a and b fall on the same IST calendar day.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// DaysBetween returns the whole-day span from from to to, inclusive of both
// endpoints (from == to yields 1).
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours()/24) + 1
}
