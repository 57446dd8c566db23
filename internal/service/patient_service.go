package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"physiotrack/practice-app/internal/access"
	"physiotrack/practice-app/internal/apperr"
	"physiotrack/practice-app/internal/domain"
	"physiotrack/practice-app/internal/repository"
	"physiotrack/practice-app/internal/schedule"
)

// --- Error Definitions ---
var (
	ErrAssignmentNotActive = apperr.Conflict("assignment is not active")
	ErrAlreadyRecorded     = apperr.Conflict("completion already recorded for this date")
	ErrFutureDate          = apperr.Validation("completion date must not be in the future")
	ErrDateOutsideWindow   = apperr.Validation("completion date is outside the assignment date range")
	ErrExerciseNotInPlan   = apperr.Validation("exercise does not belong to this assignment")
	ErrInvalidMood         = apperr.Validation("mood must be between 1 and 5")
	ErrAlreadyCheckedIn    = apperr.Conflict("check-in already recorded for today")
)

// CompletionInput is the payload for recording a training day. Date zero
// means today; ExerciseID is an optional tag of which exercise was done.
type CompletionInput struct {
	Date       time.Time
	ExerciseID *primitive.ObjectID
}

// PatientService covers the patient's side: their assignment views, the
// completion ledger and the daily check-in diary.
type PatientService interface {
	MyAssignments(ctx context.Context, patientID primitive.ObjectID) ([]AssignmentDetails, error)
	RecordCompletion(ctx context.Context, actor domain.Actor, assignmentID primitive.ObjectID, input CompletionInput) (*domain.CompletionRecord, error)
	ListCompletions(ctx context.Context, actor domain.Actor, assignmentID primitive.ObjectID) ([]domain.CompletionRecord, error)

	CheckIn(ctx context.Context, patientID primitive.ObjectID, mood int, note string) (*domain.DiaryEntry, error)
	CheckInStreak(ctx context.Context, patientID primitive.ObjectID) (int, error)
}

// patientService implements the PatientService interface.
type patientService struct {
	*assignmentLifecycle
	assignmentRepo repository.AssignmentRepository
	completionRepo repository.CompletionRepository
	exerciseRepo   repository.ExerciseRepository
	diaryRepo      repository.DiaryRepository
	logger         *zap.Logger
}

// NewPatientService creates a new instance of patientService. A nil now
// falls back to time.Now; loc is the practice's reference time zone.
func NewPatientService(
	assignmentRepo repository.AssignmentRepository,
	completionRepo repository.CompletionRepository,
	exerciseRepo repository.ExerciseRepository,
	diaryRepo repository.DiaryRepository,
	logger *zap.Logger,
	loc *time.Location,
	now func() time.Time,
) PatientService {
	return &patientService{
		assignmentLifecycle: newAssignmentLifecycle(assignmentRepo, logger, loc, now),
		assignmentRepo:      assignmentRepo,
		completionRepo:      completionRepo,
		exerciseRepo:        exerciseRepo,
		diaryRepo:           diaryRepo,
		logger:              logger,
	}
}

// MyAssignments returns the patient's enriched assignment views, firing
// the expiry sweep on the way in.
func (s *patientService) MyAssignments(ctx context.Context, patientID primitive.ObjectID) ([]AssignmentDetails, error) {
	s.sweepExpired()

	assignments, err := s.assignmentRepo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.ID)
	}
	completions, err := s.completionRepo.ListByAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	grouped := groupCompletions(completions)

	today := s.today()
	details := make([]AssignmentDetails, 0, len(assignments))
	for _, a := range assignments {
		details = append(details, buildAssignmentDetails(a, grouped[a.ID], today))
	}
	return details, nil
}

// RecordCompletion appends one training day to the assignment's ledger.
// The date defaults to today and must lie inside the assignment range and
// not in the future; a scheduled weekday is not required. The unique
// (assignment, date) index is the only duplicate guard, so a concurrent
// double tap yields exactly one record.
func (s *patientService) RecordCompletion(ctx context.Context, actor domain.Actor, assignmentID primitive.ObjectID, input CompletionInput) (*domain.CompletionRecord, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if err := access.CanRecordCompletion(actor, assignment); err != nil {
		return nil, err
	}

	today := s.today()
	// The stored status may lag the calendar until a sweep runs, so the
	// check is against the derived status.
	if assignment.DeriveStatus(today) != domain.StatusActive {
		return nil, ErrAssignmentNotActive
	}

	completedDate := today
	if !input.Date.IsZero() {
		completedDate = schedule.Day(input.Date)
	}
	if completedDate.After(today) {
		return nil, ErrFutureDate
	}
	if !assignment.InWindow(completedDate) {
		return nil, ErrDateOutsideWindow
	}

	if input.ExerciseID != nil {
		if err := s.resolveExercise(ctx, assignment, *input.ExerciseID); err != nil {
			return nil, err
		}
	}

	record := &domain.CompletionRecord{
		AssignmentID:  assignmentID,
		PatientID:     assignment.PatientID,
		CompletedDate: completedDate,
		ExerciseID:    input.ExerciseID,
		CompletedAt:   s.now().UTC(),
	}

	id, err := s.completionRepo.InsertIfAbsent(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRecorded
		}
		return nil, err
	}
	record.ID = id
	return record, nil
}

// ListCompletions returns the assignment's full ledger, newest first.
func (s *patientService) ListCompletions(ctx context.Context, actor domain.Actor, assignmentID primitive.ObjectID) ([]domain.CompletionRecord, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if err := access.CanRecordCompletion(actor, assignment); err != nil {
		return nil, err
	}
	return s.completionRepo.ListByAssignment(ctx, assignmentID)
}

// CheckIn stores today's diary entry. One entry per day; a second attempt
// conflicts.
func (s *patientService) CheckIn(ctx context.Context, patientID primitive.ObjectID, mood int, note string) (*domain.DiaryEntry, error) {
	if mood != 0 && (mood < 1 || mood > 5) {
		return nil, ErrInvalidMood
	}

	entry := &domain.DiaryEntry{
		PatientID: patientID,
		EntryDate: s.today(),
		Mood:      mood,
		Note:      note,
	}

	id, err := s.diaryRepo.InsertIfAbsent(ctx, entry)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}
	entry.ID = id
	return entry, nil
}

// CheckInStreak counts consecutive check-in days ending today. Missing
// today's entry does not break the streak; yesterday's does.
func (s *patientService) CheckInStreak(ctx context.Context, patientID primitive.ObjectID) (int, error) {
	entries, err := s.diaryRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return 0, err
	}
	dates := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		dates = append(dates, e.EntryDate)
	}
	return schedule.CurrentStreak(s.today(), schedule.NewDateSet(dates...)), nil
}

// resolveExercise verifies an optional exercise tag: the exercise must
// exist, and on ad-hoc assignments it must be in the prescribed list.
// Plan-backed assignments accept any existing exercise; the plan contents
// are a snapshot the service does not re-expand on the hot path.
func (s *patientService) resolveExercise(ctx context.Context, assignment *domain.Assignment, exerciseID primitive.ObjectID) error {
	if _, err := s.exerciseRepo.GetByID(ctx, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	if assignment.PlanID != nil {
		return nil
	}
	for _, id := range assignment.ExerciseIDs {
		if id == exerciseID {
			return nil
		}
	}
	return ErrExerciseNotInPlan
}
