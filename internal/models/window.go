package models

import (
	"strings"
	"time"
)

// Window names a time range used to scope aggregation queries.
type Window string

const (
	// WindowToday is the current calendar day in the stats time zone.
	WindowToday Window = "today"
	// WindowWeek is the rolling seven days ending now.
	WindowWeek Window = "week"
	// WindowMonth is the rolling thirty days ending now.
	WindowMonth Window = "month"
	// WindowAll has no bounds.
	WindowAll Window = "all"
)

// DefaultWindow is used whenever a window key is not recognised.
const DefaultWindow = WindowWeek

// Windows lists every window in display order.
var Windows = []Window{WindowToday, WindowWeek, WindowMonth, WindowAll}

var windowAliases = map[string]Window{
	"today":        WindowToday,
	"day":          WindowToday,
	"week":         WindowWeek,
	"7d":           WindowWeek,
	"last-7-days":  WindowWeek,
	"month":        WindowMonth,
	"30d":          WindowMonth,
	"last-30-days": WindowMonth,
	"all":          WindowAll,
	"all-time":     WindowAll,
}

// ParseWindow resolves a user supplied window key. Unknown keys fall back to
// DefaultWindow and report ok=false.
func ParseWindow(key string) (Window, bool) {
	if w, ok := windowAliases[strings.ToLower(strings.TrimSpace(key))]; ok {
		return w, true
	}
	return DefaultWindow, false
}

// Label returns a human readable name for the window.
func (w Window) Label() string {
	switch w {
	case WindowToday:
		return "today"
	case WindowWeek:
		return "last 7 days"
	case WindowMonth:
		return "last 30 days"
	case WindowAll:
		return "all time"
	default:
		return DefaultWindow.Label()
	}
}

// TimeRange is a half-open interval [From, To). A zero bound is open.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// Range resolves the window against now. "today" is a calendar day in loc,
// the day windows are rolling and anchored to now with an inclusive lower
// bound. Rolling windows end at now inclusive, at the millisecond precision
// timestamps are stored with, so rows from the future are not counted.
func (w Window) Range(now time.Time, loc *time.Location) TimeRange {
	if loc == nil {
		loc = time.UTC
	}
	switch w {
	case WindowToday:
		local := now.In(loc)
		start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		return TimeRange{From: start, To: start.AddDate(0, 0, 1)}
	case WindowWeek:
		return TimeRange{From: now.Add(-7 * 24 * time.Hour), To: rollingEnd(now)}
	case WindowMonth:
		return TimeRange{From: now.Add(-30 * 24 * time.Hour), To: rollingEnd(now)}
	case WindowAll:
		return TimeRange{}
	default:
		return DefaultWindow.Range(now, loc)
	}
}

func rollingEnd(now time.Time) time.Time {
	return now.Truncate(time.Millisecond).Add(time.Millisecond)
}

// WindowCount is the number of trigger events inside one window.
type WindowCount struct {
	Window Window `json:"window"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}
