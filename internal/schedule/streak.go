package schedule

import "time"

// streakMaxDays bounds the backward walk; a year-long unbroken streak is
// already far outside clinical reality.
const streakMaxDays = 365

// DateSet is a membership set of calendar dates. It is generic over "days
// on which an event occurred": completion dates for the training streak,
// diary entries for the check-in streak.
type DateSet map[time.Time]struct{}

// NewDateSet builds a DateSet, normalizing each entry to its calendar date.
func NewDateSet(dates ...time.Time) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set[Day(d)] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds the given date.
func (s DateSet) Contains(t time.Time) bool {
	_, ok := s[Day(t)]
	return ok
}

// CurrentStreak counts consecutive event days walking backward from today.
//
// Today itself may be absent without breaking the streak: a patient who has
// not trained yet still carries yesterday's streak until the day ends. Any
// other gap ends the walk.
func CurrentStreak(today time.Time, events DateSet) int {
	streak := 0
	day := Day(today)
	for i := 0; i < streakMaxDays; i++ {
		if events.Contains(day) {
			streak++
		} else if i > 0 {
			break
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
