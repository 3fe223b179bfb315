package agg

import (
	"strings"
	"time"

	"github.com/huangsam/defectset/schema"
)

// commitDateLayouts are tried in order. The first is what `git log --date=iso` emits.
var commitDateLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseCommitDate parses a commit date and returns its wall-clock reading in UTC.
// The zone offset is dropped so commit dates compare directly with release dates,
// which carry no zone.
func ParseCommitDate(s string, line int) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range commitDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return WallClock(t), nil
		}
	}
	return time.Time{}, &schema.DateParseError{Line: line, Value: s}
}

// WallClock keeps the calendar reading of t and discards its location.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
