package dto

import (
	"regexp"
	"strconv"
	"time"
)

// captureLayouts are tried in order against the camera's "d" field.
// The GR firmware reports local wall-clock time without a zone,
// e.g. "2025-06-07T09:32:40".
var captureLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// datePrefix accepts any value that starts with a year-month-day triple.
var datePrefix = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)

// ParseCaptureTime parses a capture timestamp reported by the camera.
//
// The full layouts are tried first; failing those, any value starting with
// a valid YYYY-MM-DD date is accepted and the rest ignored. The returned time
// is in the local zone unless the value carried its own offset.
//
// Example:
//
//	t, ok := ParseCaptureTime("2024-05-01T10:00:00") // 2024-05-01 10:00:00 local, true
//	t, ok = ParseCaptureTime("2024-05-01Tgarbage")   // 2024-05-01 00:00:00 local, true
//	t, ok = ParseCaptureTime("yesterday")            // zero, false
func ParseCaptureTime(s string) (time.Time, bool) {
	for _, layout := range captureLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}

	m := datePrefix.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// time.Date normalizes out-of-range values; reject anything it moved.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
