package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"physiotrack/practice-app/internal/schedule"
)

func TestCurrentStreak(t *testing.T) {
	today := date(2024, time.January, 15)

	tests := []struct {
		name   string
		events []time.Time
		want   int
	}{
		{
			name:   "no events",
			events: nil,
			want:   0,
		},
		{
			name:   "only today",
			events: []time.Time{today},
			want:   1,
		},
		{
			// Today not yet trained: yesterday's streak is still intact.
			name:   "today missing, yesterday present",
			events: []time.Time{today.AddDate(0, 0, -1)},
			want:   1,
		},
		{
			name:   "today missing, yesterday missing",
			events: []time.Time{today.AddDate(0, 0, -2)},
			want:   0,
		},
		{
			name: "three day run including today",
			events: []time.Time{
				today, today.AddDate(0, 0, -1), today.AddDate(0, 0, -2),
			},
			want: 3,
		},
		{
			name: "run broken by a gap",
			events: []time.Time{
				today, today.AddDate(0, 0, -1),
				// gap on day -2
				today.AddDate(0, 0, -3), today.AddDate(0, 0, -4),
			},
			want: 2,
		},
		{
			name: "today missing then unbroken run",
			events: []time.Time{
				today.AddDate(0, 0, -1), today.AddDate(0, 0, -2), today.AddDate(0, 0, -3),
			},
			want: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := schedule.NewDateSet(tt.events...)
			assert.Equal(t, tt.want, schedule.CurrentStreak(today, set))
		})
	}
}

func TestCurrentStreak_BoundedWalk(t *testing.T) {
	today := date(2024, time.January, 15)
	events := make([]time.Time, 0, 500)
	for i := 0; i < 500; i++ {
		events = append(events, today.AddDate(0, 0, -i))
	}
	// The walk terminates at the 365-day bound rather than the data.
	assert.Equal(t, 365, schedule.CurrentStreak(today, schedule.NewDateSet(events...)))
}

func TestDateSet_NormalizesTimestamps(t *testing.T) {
	set := schedule.NewDateSet(time.Date(2024, time.January, 15, 18, 45, 3, 0, time.UTC))
	assert.True(t, set.Contains(date(2024, time.January, 15)))
	assert.False(t, set.Contains(date(2024, time.January, 16)))
}
