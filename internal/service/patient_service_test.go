package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"physiotrack/practice-app/internal/apperr"
	"physiotrack/practice-app/internal/domain"
)

type patientFixture struct {
	svc         PatientService
	assignments *fakeAssignmentRepo
	completions *fakeCompletionRepo
	exercises   *fakeExerciseRepo
	diary       *fakeDiaryRepo

	patientID   primitive.ObjectID
	therapistID primitive.ObjectID
	clock       *fakeClock
}

func newPatientFixture(t *testing.T, now time.Time) *patientFixture {
	t.Helper()
	clock := &fakeClock{t: now}
	f := &patientFixture{
		assignments: newFakeAssignmentRepo(),
		completions: newFakeCompletionRepo(),
		exercises:   newFakeExerciseRepo(),
		diary:       newFakeDiaryRepo(),
		patientID:   primitive.NewObjectID(),
		therapistID: primitive.NewObjectID(),
		clock:       clock,
	}
	f.svc = NewPatientService(f.assignments, f.completions, f.exercises, f.diary, zap.NewNop(), time.UTC, clock.now)
	return f
}

func (f *patientFixture) actor() domain.Actor {
	return domain.Actor{ID: f.patientID, Role: domain.RolePatient}
}

// seedAssignment stores a mon/wed/fri assignment covering January 2024.
func (f *patientFixture) seedAssignment(status domain.AssignmentStatus) *domain.Assignment {
	return f.assignments.put(&domain.Assignment{
		PatientID:   f.patientID,
		TherapistID: f.therapistID,
		StartDate:   date(2024, time.January, 1),
		EndDate:     date(2024, time.January, 31),
		ActiveDays:  monWedFri(),
		Status:      status,
	})
}

func TestRecordCompletionDefaultsToToday(t *testing.T) {
	// Wednesday, Jan 10 2024, mid-morning local time.
	f := newPatientFixture(t, date(2024, time.January, 10).Add(10*time.Hour+30*time.Minute))
	a := f.seedAssignment(domain.StatusActive)

	record, err := f.svc.RecordCompletion(context.Background(), f.actor(), a.ID, CompletionInput{})
	require.NoError(t, err)

	assert.Equal(t, date(2024, time.January, 10), record.CompletedDate)
	assert.Equal(t, f.patientID, record.PatientID)
	assert.Equal(t, a.ID, record.AssignmentID)
	assert.False(t, record.ID.IsZero())
}

func TestRecordCompletionDuplicateDay(t *testing.T) {
	f := newPatientFixture(t, date(2024, time.January, 10))
	a := f.seedAssignment(domain.StatusActive)

	_, err := f.svc.RecordCompletion(context.Background(), f.actor(), a.ID, CompletionInput{})
	require.NoError(t, err)

	// The second tap for the same day conflicts; the ledger stays at one row.
	_, err = f.svc.RecordCompletion(context.Background(), f.actor(), a.ID, CompletionInput{})
	assert.ErrorIs(t, err, ErrAlreadyRecorded)
	assert.True(t, apperr.IsConflict(err))

	records, err := f.completions.ListByAssignment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecordCompletionDateChecks(t *testing.T) {
	f := newPatientFixture(t, date(2024, time.January, 10))
	a := f.seedAssignment(domain.StatusActive)
	ctx := context.Background()

	t.Run("future date rejected", func(t *testing.T) {
		_, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{Date: date(2024, time.January, 11)})
		assert.ErrorIs(t, err, ErrFutureDate)
	})

	t.Run("date before the range rejected", func(t *testing.T) {
		_, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{Date: date(2023, time.December, 31)})
		assert.ErrorIs(t, err, ErrDateOutsideWindow)
	})

	t.Run("backfill inside the range accepted", func(t *testing.T) {
		record, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{Date: date(2024, time.January, 8)})
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.January, 8), record.CompletedDate)
	})

	t.Run("off-schedule weekday accepted", func(t *testing.T) {
		// Jan 9 2024 is a Tuesday, not in the mon/wed/fri set.
		record, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{Date: date(2024, time.January, 9)})
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.January, 9), record.CompletedDate)
	})
}

func TestRecordCompletionLifecycleChecks(t *testing.T) {
	f := newPatientFixture(t, date(2024, time.February, 5))
	ctx := context.Background()

	t.Run("unknown assignment", func(t *testing.T) {
		_, err := f.svc.RecordCompletion(ctx, f.actor(), primitive.NewObjectID(), CompletionInput{})
		assert.ErrorIs(t, err, ErrAssignmentNotFound)
	})

	t.Run("stale active assignment counts as expired", func(t *testing.T) {
		// Ends Jan 31 but the sweep has not flipped it yet.
		a := f.seedAssignment(domain.StatusActive)
		_, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{})
		assert.ErrorIs(t, err, ErrAssignmentNotActive)
	})

	t.Run("deactivated assignment rejected", func(t *testing.T) {
		a := f.seedAssignment(domain.StatusDeactivated)
		_, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{})
		assert.ErrorIs(t, err, ErrAssignmentNotActive)
	})
}

func TestRecordCompletionAuthorization(t *testing.T) {
	f := newPatientFixture(t, date(2024, time.January, 10))
	a := f.seedAssignment(domain.StatusActive)
	ctx := context.Background()

	t.Run("foreign patient rejected", func(t *testing.T) {
		stranger := domain.Actor{ID: primitive.NewObjectID(), Role: domain.RolePatient}
		_, err := f.svc.RecordCompletion(ctx, stranger, a.ID, CompletionInput{})
		assert.True(t, apperr.IsAuthorization(err))
	})

	t.Run("owning therapist may backfill", func(t *testing.T) {
		therapist := domain.Actor{ID: f.therapistID, Role: domain.RoleTherapist}
		record, err := f.svc.RecordCompletion(ctx, therapist, a.ID, CompletionInput{Date: date(2024, time.January, 8)})
		require.NoError(t, err)
		// Attribution follows the assignment, not the caller.
		assert.Equal(t, f.patientID, record.PatientID)
	})
}

func TestRecordCompletionExerciseTag(t *testing.T) {
	f := newPatientFixture(t, date(2024, time.January, 10))
	ctx := context.Background()

	listed, err := f.exercises.Create(ctx, &domain.Exercise{TherapistID: f.therapistID, Name: "Squat"})
	require.NoError(t, err)
	unlisted, err := f.exercises.Create(ctx, &domain.Exercise{TherapistID: f.therapistID, Name: "Lunge"})
	require.NoError(t, err)

	a := f.assignments.put(&domain.Assignment{
		PatientID:   f.patientID,
		TherapistID: f.therapistID,
		StartDate:   date(2024, time.January, 1),
		EndDate:     date(2024, time.January, 31),
		ActiveDays:  monWedFri(),
		Status:      domain.StatusActive,
		ExerciseIDs: []primitive.ObjectID{listed},
	})

	t.Run("unknown exercise rejected", func(t *testing.T) {
		missing := primitive.NewObjectID()
		_, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{ExerciseID: &missing})
		assert.ErrorIs(t, err, ErrExerciseNotFound)
	})

	t.Run("exercise outside the prescription rejected", func(t *testing.T) {
		_, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{ExerciseID: &unlisted})
		assert.ErrorIs(t, err, ErrExerciseNotInPlan)
	})

	t.Run("prescribed exercise recorded", func(t *testing.T) {
		record, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{ExerciseID: &listed})
		require.NoError(t, err)
		require.NotNil(t, record.ExerciseID)
		assert.Equal(t, listed, *record.ExerciseID)
	})
}

func TestMyAssignmentsEnrichment(t *testing.T) {
	// Wednesday, Jan 10 2024.
	f := newPatientFixture(t, date(2024, time.January, 10))
	a := f.seedAssignment(domain.StatusActive)
	ctx := context.Background()

	_, err := f.svc.RecordCompletion(ctx, f.actor(), a.ID, CompletionInput{Date: date(2024, time.January, 8)})
	require.NoError(t, err)

	details, err := f.svc.MyAssignments(ctx, f.patientID)
	require.NoError(t, err)
	require.Len(t, details, 1)

	d := details[0]
	// Rolling window Jan 4..10 schedules three days; one done.
	assert.Equal(t, 33, d.Compliance7Days)
	assert.True(t, d.IsTrainingToday)
	assert.False(t, d.CompletedToday)
	require.NotNil(t, d.NextTrainingDay)
	assert.Equal(t, date(2024, time.January, 12), *d.NextTrainingDay)
}

func TestMyAssignmentsNotYetStarted(t *testing.T) {
	// Thursday, Jan 25 2024. The assignment only begins in February.
	f := newPatientFixture(t, date(2024, time.January, 25))
	ctx := context.Background()

	t.Run("first training day is the start, not an earlier weekday match", func(t *testing.T) {
		f.assignments.put(&domain.Assignment{
			PatientID:   f.patientID,
			TherapistID: f.therapistID,
			StartDate:   date(2024, time.February, 5), // a Monday
			EndDate:     date(2024, time.March, 1),
			ActiveDays:  monWedFri(),
			Status:      domain.StatusActive,
		})

		details, err := f.svc.MyAssignments(ctx, f.patientID)
		require.NoError(t, err)
		require.Len(t, details, 1)

		d := details[0]
		assert.False(t, d.IsTrainingToday)
		require.NotNil(t, d.NextTrainingDay)
		assert.Equal(t, date(2024, time.February, 5), *d.NextTrainingDay)
	})

	t.Run("start beyond the scan horizon is still found", func(t *testing.T) {
		f := newPatientFixture(t, date(2024, time.January, 25))
		f.assignments.put(&domain.Assignment{
			PatientID:   f.patientID,
			TherapistID: f.therapistID,
			StartDate:   date(2024, time.March, 4), // a Monday, 39 days out
			EndDate:     date(2024, time.March, 29),
			ActiveDays:  monWedFri(),
			Status:      domain.StatusActive,
		})

		details, err := f.svc.MyAssignments(ctx, f.patientID)
		require.NoError(t, err)
		require.Len(t, details, 1)
		require.NotNil(t, details[0].NextTrainingDay)
		assert.Equal(t, date(2024, time.March, 4), *details[0].NextTrainingDay)
	})
}

func TestCheckIn(t *testing.T) {
	f := newPatientFixture(t, date(2024, time.January, 10).Add(8*time.Hour))
	ctx := context.Background()

	t.Run("mood out of range rejected", func(t *testing.T) {
		_, err := f.svc.CheckIn(ctx, f.patientID, 6, "")
		assert.ErrorIs(t, err, ErrInvalidMood)
	})

	t.Run("first check-in of the day stored", func(t *testing.T) {
		entry, err := f.svc.CheckIn(ctx, f.patientID, 4, "less stiffness today")
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.January, 10), entry.EntryDate)
		assert.Equal(t, 4, entry.Mood)
	})

	t.Run("second check-in conflicts", func(t *testing.T) {
		_, err := f.svc.CheckIn(ctx, f.patientID, 3, "")
		assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	})
}

func TestCheckInStreak(t *testing.T) {
	today := date(2024, time.January, 10)
	ctx := context.Background()

	t.Run("unbroken run counted through today", func(t *testing.T) {
		f := newPatientFixture(t, today)
		for _, d := range []time.Time{today, today.AddDate(0, 0, -1), today.AddDate(0, 0, -2)} {
			f.diary.seed(f.patientID, d)
		}
		streak, err := f.svc.CheckInStreak(ctx, f.patientID)
		require.NoError(t, err)
		assert.Equal(t, 3, streak)
	})

	t.Run("today still pending keeps the run", func(t *testing.T) {
		f := newPatientFixture(t, today)
		f.diary.seed(f.patientID, today.AddDate(0, 0, -1))
		f.diary.seed(f.patientID, today.AddDate(0, 0, -2))
		streak, err := f.svc.CheckInStreak(ctx, f.patientID)
		require.NoError(t, err)
		assert.Equal(t, 2, streak)
	})

	t.Run("gap before yesterday breaks the run", func(t *testing.T) {
		f := newPatientFixture(t, today)
		f.diary.seed(f.patientID, today)
		f.diary.seed(f.patientID, today.AddDate(0, 0, -3))
		streak, err := f.svc.CheckInStreak(ctx, f.patientID)
		require.NoError(t, err)
		assert.Equal(t, 1, streak)
	})

	t.Run("no entries at all", func(t *testing.T) {
		f := newPatientFixture(t, today)
		streak, err := f.svc.CheckInStreak(ctx, f.patientID)
		require.NoError(t, err)
		assert.Equal(t, 0, streak)
	})
}
