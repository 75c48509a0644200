package digest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimezone anchors the default window and the default title.
const DefaultTimezone = "Asia/Shanghai"

// windowStartHour is the local hour the default window opens at, on the previous day.
const windowStartHour = 7

// LoadLocation resolves a tz name, falling back to UTC when it is unknown.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		slog.Warn("digest: unknown timezone, using UTC", slog.String("tz", name), slog.Any("error", err))
		return time.UTC
	}
	return loc
}

// DefaultWindow returns [previous day 07:00 in loc, now].
func DefaultWindow(now time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc).AddDate(0, 0, -1)
	start = time.Date(local.Year(), local.Month(), local.Day(), windowStartHour, 0, 0, 0, loc)
	return start.UTC(), now.UTC()
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts ISO 8601 timestamps. A trailing Z means UTC and values
// without an offset are taken as UTC. The result is always in UTC.
func ParseTime(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("parse time: empty value")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: not an ISO 8601 timestamp", s)
}

// DefaultTitle names a digest after the local date its window starts on.
func DefaultTitle(start time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return start.In(loc).Format("2006-01-02")
}

// resolveWindow applies defaults to the raw option strings.
func resolveWindow(startRaw, endRaw string, now time.Time, loc *time.Location) (start, end time.Time, err error) {
	start, end = DefaultWindow(now, loc)
	if startRaw != "" {
		if start, err = ParseTime(startRaw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endRaw != "" {
		if end, err = ParseTime(endRaw); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return start, end, nil
}
