package core

import "time"

// Window is a [Start, End] timestamp range used to scope queries and
// totals to one calendar month.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthBounds returns the bounds of the calendar month containing ref,
// in ref's location: the first day at 00:00:00.000 and the last day at
// 23:59:59.999. It is pure; callers must recompute per query rather
// than cache the result, so long-lived sessions pick up a new month on
// the next invocation.
func MonthBounds(ref time.Time) (start, end time.Time) {
	year, month, _ := ref.Date()
	loc := ref.Location()
	start = time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Day 0 of the next month is the last day of this one.
	end = time.Date(year, month+1, 0, 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

// MonthWindow is MonthBounds packaged as a Window.
func MonthWindow(ref time.Time) Window {
	start, end := MonthBounds(ref)
	return Window{Start: start, End: end}
}

// Contains reports whether t falls inside the window, inclusive of both
// bounds to match the store's range filters.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// IsZero reports whether the window is unset; an unset window means the
// query is not time-scoped (the all-time goal subscription uses this).
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}
