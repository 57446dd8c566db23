// Package schedule implements the recurring-assignment calendar math:
// day classification, expected-day counts, compliance percentages and
// streaks. Everything here is pure and safe for concurrent use.
//
// All functions operate on date-only values. Callers normalize any
// timestamp to midnight (UTC) in the practice's reference time zone via
// Day or Today before passing it in; no function looks at the clock.
package schedule

import "time"

// DefaultHorizonDays bounds the forward scan in NextScheduledDay. A weekly
// pattern always matches within 7 days, so 14 never truncates a real set.
const DefaultHorizonDays = 14

// Day truncates a timestamp to its calendar date, represented as midnight UTC.
// The year/month/day are taken in the timestamp's own location, so passing a
// zoned "now" yields that zone's current date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current date in the given location, normalized via Day.
// A nil location falls back to UTC.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(time.Now().In(loc))
}

// IsScheduledDay reports whether the date's weekday is in the active set.
func IsScheduledDay(day time.Time, days WeekdaySet) bool {
	return days.Contains(WeekdayOf(day))
}

// CountScheduledDays counts the scheduled days in the inclusive range
// [start, end]. An inverted range counts as zero.
func CountScheduledDays(days WeekdaySet, start, end time.Time) int {
	start, end = Day(start), Day(end)
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if days.Contains(WeekdayOf(d)) {
			count++
		}
	}
	return count
}

// NextScheduledDay scans forward from the day after `after` for the next
// scheduled day. The scan stops at `notAfter` (inclusive) and at
// horizonDays steps; horizonDays <= 0 uses DefaultHorizonDays. With a
// non-empty weekly set a match always exists within 7 days.
func NextScheduledDay(days WeekdaySet, after, notAfter time.Time, horizonDays int) (time.Time, bool) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	notAfter = Day(notAfter)
	d := Day(after)
	for i := 0; i < horizonDays; i++ {
		d = d.AddDate(0, 0, 1)
		if d.After(notAfter) {
			return time.Time{}, false
		}
		if days.Contains(WeekdayOf(d)) {
			return d, true
		}
	}
	return time.Time{}, false
}
