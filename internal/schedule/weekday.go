package schedule

import (
	"fmt"
	"time"
)

// Weekday is the symbol used to store recurrence days ("mon".."sun").
// Stored in MongoDB as plain strings, so keep the alphabet stable.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

// AllWeekdays lists every valid symbol, Monday first.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var timeToSymbol = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf maps a calendar date to its recurrence symbol.
func WeekdayOf(t time.Time) Weekday {
	return timeToSymbol[t.Weekday()]
}

// ParseWeekday validates a raw symbol coming from a request body.
func ParseWeekday(s string) (Weekday, error) {
	for _, wd := range AllWeekdays {
		if Weekday(s) == wd {
			return wd, nil
		}
	}
	return "", fmt.Errorf("unknown weekday symbol %q", s)
}

// WeekdaySet is the set of weekdays an assignment expects training on.
// At most 7 entries, so membership tests stay on the slice.
type WeekdaySet []Weekday

// Contains reports whether the set includes the given weekday.
func (s WeekdaySet) Contains(wd Weekday) bool {
	for _, d := range s {
		if d == wd {
			return true
		}
	}
	return false
}

// Validate checks the set is non-empty and holds only distinct, known symbols.
func (s WeekdaySet) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("active days must not be empty")
	}
	seen := make(map[Weekday]bool, len(s))
	for _, d := range s {
		if _, err := ParseWeekday(string(d)); err != nil {
			return err
		}
		if seen[d] {
			return fmt.Errorf("duplicate weekday symbol %q", d)
		}
		seen[d] = true
	}
	return nil
}

// ParseWeekdaySet converts raw request symbols into a validated set.
func ParseWeekdaySet(raw []string) (WeekdaySet, error) {
	set := make(WeekdaySet, 0, len(raw))
	for _, s := range raw {
		wd, err := ParseWeekday(s)
		if err != nil {
			return nil, err
		}
		set = append(set, wd)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}
