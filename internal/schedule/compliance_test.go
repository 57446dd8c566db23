package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"physiotrack/practice-app/internal/schedule"
)

func TestCompliance(t *testing.T) {
	days := mustDays(t, "mon", "wed", "fri")
	start := date(2024, time.January, 1)
	end := date(2024, time.January, 31)

	tests := []struct {
		name             string
		completed        []time.Time
		winStart, winEnd time.Time
		want             int
	}{
		{
			// Mon 8, Wed 10 and Fri 12 are scheduled in that week; two done.
			name:      "two of three expected days",
			completed: []time.Time{date(2024, time.January, 8), date(2024, time.January, 10)},
			winStart:  date(2024, time.January, 8),
			winEnd:    date(2024, time.January, 14),
			want:      67,
		},
		{
			name:      "no completions",
			completed: nil,
			winStart:  date(2024, time.January, 8),
			winEnd:    date(2024, time.January, 14),
			want:      0,
		},
		{
			name: "all expected days done",
			completed: []time.Time{
				date(2024, time.January, 8), date(2024, time.January, 10), date(2024, time.January, 12),
			},
			winStart: date(2024, time.January, 8),
			winEnd:   date(2024, time.January, 14),
			want:     100,
		},
		{
			// Make-up sessions beyond the expected count never exceed 100.
			name: "capped at 100",
			completed: []time.Time{
				date(2024, time.January, 8), date(2024, time.January, 9), date(2024, time.January, 10),
				date(2024, time.January, 11), date(2024, time.January, 12),
			},
			winStart: date(2024, time.January, 8),
			winEnd:   date(2024, time.January, 14),
			want:     100,
		},
		{
			// A Tuesday completion is off-schedule but still counts toward done.
			name:      "off-schedule completion counts",
			completed: []time.Time{date(2024, time.January, 9)},
			winStart:  date(2024, time.January, 8),
			winEnd:    date(2024, time.January, 14),
			want:      33,
		},
		{
			name:      "completion outside window ignored",
			completed: []time.Time{date(2024, time.January, 5)},
			winStart:  date(2024, time.January, 8),
			winEnd:    date(2024, time.January, 14),
			want:      0,
		},
		{
			name:      "inverted window",
			completed: []time.Time{date(2024, time.January, 10)},
			winStart:  date(2024, time.January, 14),
			winEnd:    date(2024, time.January, 8),
			want:      0,
		},
		{
			name:      "window entirely before assignment start",
			completed: nil,
			winStart:  date(2023, time.December, 1),
			winEnd:    date(2023, time.December, 7),
			want:      0,
		},
		{
			// Window clipped to the assignment range: only Jan 29 and 31 remain.
			name:      "window clipped to end date",
			completed: []time.Time{date(2024, time.January, 29)},
			winStart:  date(2024, time.January, 29),
			winEnd:    date(2024, time.February, 4),
			want:      50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schedule.Compliance(days, start, end, tt.completed, tt.winStart, tt.winEnd)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestCompliance_ZeroExpectedDays(t *testing.T) {
	sundaysOnly := mustDays(t, "sun")
	// Mon Jan 8 .. Sat Jan 13 contains no Sunday.
	got := schedule.Compliance(sundaysOnly,
		date(2024, time.January, 1), date(2024, time.January, 31),
		[]time.Time{date(2024, time.January, 9)},
		date(2024, time.January, 8), date(2024, time.January, 13))
	assert.Equal(t, 0, got)
}

func TestCompliance_MonotoneInCompletions(t *testing.T) {
	days := mustDays(t, "mon", "wed", "fri")
	start := date(2024, time.January, 1)
	end := date(2024, time.January, 31)
	winStart, winEnd := date(2024, time.January, 8), date(2024, time.January, 14)

	var completed []time.Time
	prev := 0
	for d := winStart; !d.After(winEnd); d = d.AddDate(0, 0, 1) {
		completed = append(completed, d)
		got := schedule.Compliance(days, start, end, completed, winStart, winEnd)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestRollingWindow(t *testing.T) {
	winStart, winEnd := schedule.RollingWindow(date(2024, time.January, 14))
	assert.Equal(t, date(2024, time.January, 8), winStart)
	assert.Equal(t, date(2024, time.January, 14), winEnd)
}

func TestLifetimeWindow(t *testing.T) {
	start := date(2024, time.January, 1)
	end := date(2024, time.January, 31)

	winStart, winEnd := schedule.LifetimeWindow(date(2024, time.January, 15), start, end)
	assert.Equal(t, start, winStart)
	assert.Equal(t, date(2024, time.January, 15), winEnd)

	// Once the assignment is over, the window stops at the end date.
	winStart, winEnd = schedule.LifetimeWindow(date(2024, time.March, 1), start, end)
	assert.Equal(t, start, winStart)
	assert.Equal(t, end, winEnd)
}
