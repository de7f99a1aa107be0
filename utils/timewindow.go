// utils/timewindow.go - Week boundary and deadline math
//
// Every overdue/deadline computation in the system goes through these
// functions so the dashboard summary, the detail view and batch reports all
// agree. They are pure: results depend only on the arguments.
package utils

import "time"

// DaysPerWeek is the logbook cadence; a logbook week always spans
// Monday..Sunday.
const DaysPerWeek = 7

// WeekStart truncates t to the Monday of its ISO week, at midnight in t's
// location.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 { // Sunday
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// WeekEnd returns the Sunday closing the week that starts at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, DaysPerWeek-1)
}

// OverdueThreshold is the last day a logbook for the given week may still be
// worked on without counting as overdue: week end plus the grace period.
func OverdueThreshold(weekStart time.Time, graceDays int) time.Time {
	return WeekEnd(weekStart).AddDate(0, 0, graceDays)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// OverdueExemptStatuses are workflow states that never count as overdue: the
// logbook is either actively awaiting review or already decided. A logbook
// submitted late but still pending review is deliberately not overdue; that
// is the audited business rule, not an oversight.
var OverdueExemptStatuses = map[string]bool{
	"submitted": true,
	"approved":  true,
	"rejected":  true,
}

// IsOverdue reports whether a logbook for the week starting weekStart, in
// the given status, is overdue as of today.
func IsOverdue(today, weekStart time.Time, graceDays int, status string) bool {
	if OverdueExemptStatuses[status] {
		return false
	}
	return StartOfDay(today).After(OverdueThreshold(weekStart, graceDays))
}

// NextDueDate returns the earliest deadline that is today or later among the
// given week starts. When none qualifies (or the slice is empty) the
// deadline is projected forward from today on the weekly cadence: the
// current week's deadline if still open, otherwise next week's.
func NextDueDate(today time.Time, weekStarts []time.Time, graceDays int) time.Time {
	day := StartOfDay(today)

	var next time.Time
	for _, ws := range weekStarts {
		due := OverdueThreshold(ws, graceDays)
		if due.Before(day) {
			continue
		}
		if next.IsZero() || due.Before(next) {
			next = due
		}
	}
	if !next.IsZero() {
		return next
	}

	due := OverdueThreshold(WeekStart(day), graceDays)
	for due.Before(day) {
		due = due.AddDate(0, 0, DaysPerWeek)
	}
	return due
}
