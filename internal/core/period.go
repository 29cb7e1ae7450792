package core

import "time"

// Period is a closed interval used to scope the monthly aggregate.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthPeriod spans from the first instant of the month to the first
// instant of the next month minus one millisecond, in loc.
func MonthPeriod(year int, month time.Month, loc *time.Location) Period {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	next := time.Date(year, month+1, 1, 0, 0, 0, 0, loc)
	return Period{Start: start, End: next.Add(-time.Millisecond)}
}

// CurrentMonth returns the calendar month containing now, in now's location.
func CurrentMonth(now time.Time) Period {
	return MonthPeriod(now.Year(), now.Month(), now.Location())
}

// Bounds returns whole-second Unix timestamps, fraction truncated toward zero.
func (p Period) Bounds() (start, end int64) {
	return unixSeconds(p.Start), unixSeconds(p.End)
}

// Contains reports whether ts lies within the inclusive bounds.
func (p Period) Contains(ts int64) bool {
	start, end := p.Bounds()
	return ts >= start && ts <= end
}

// Key identifies the period for caching.
func (p Period) Key() string {
	start, end := p.Bounds()
	return formatInt(start) + ":" + formatInt(end)
}

// Title renders the period the way the summary card does, e.g. "October 2026".
func (p Period) Title() string {
	return p.Start.Format("January 2006")
}

func unixSeconds(t time.Time) int64 {
	// Go's integer division truncates toward zero.
	return t.UnixMilli() / 1000
}
