package schedule

import (
	"math"
	"time"
)

// Compliance computes the completion percentage for an assignment over the
// window [windowStart, windowEnd], clipped to the assignment's own
// [startDate, endDate] range.
//
// Rules:
//   - an empty or inverted clipped window yields 0,
//   - zero expected days yields 0 rather than a division error,
//   - every completion inside the window counts toward done, even when it
//     landed on a non-scheduled day (make-up sessions count),
//   - the result is capped at 100: extra completions never push past it.
func Compliance(days WeekdaySet, startDate, endDate time.Time, completed []time.Time, windowStart, windowEnd time.Time) int {
	start := maxDay(Day(windowStart), Day(startDate))
	end := minDay(Day(windowEnd), Day(endDate))
	if end.Before(start) {
		return 0
	}

	expected := CountScheduledDays(days, start, end)
	if expected == 0 {
		return 0
	}

	done := 0
	for _, c := range completed {
		d := Day(c)
		if !d.Before(start) && !d.After(end) {
			done++
		}
	}

	pct := int(math.Round(100 * float64(done) / float64(expected)))
	if pct > 100 {
		pct = 100
	}
	return pct
}

// RollingWindow returns the 7-day window [today-6, today] used for the
// rolling compliance figure.
func RollingWindow(today time.Time) (time.Time, time.Time) {
	end := Day(today)
	return end.AddDate(0, 0, -6), end
}

// LifetimeWindow returns the window [startDate, min(today, endDate)] used
// for the lifetime compliance figure.
func LifetimeWindow(today, startDate, endDate time.Time) (time.Time, time.Time) {
	return Day(startDate), minDay(Day(today), Day(endDate))
}

func minDay(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxDay(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
