package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"physiotrack/practice-app/internal/domain"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate record")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddPatientToTherapist(ctx context.Context, therapistID, patientID primitive.ObjectID) error
	SetTherapistForPatient(ctx context.Context, patientID, therapistID primitive.ObjectID) error
	GetPatientsByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.User, error)
}

// ExerciseRepository defines the interface for interacting with the
// exercise library.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id, therapistID primitive.ObjectID) error // Owner-scoped delete
}

// TreatmentPlanRepository defines the interface for treatment plan data.
type TreatmentPlanRepository interface {
	Create(ctx context.Context, plan *domain.TreatmentPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TreatmentPlan, error)
	GetByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.TreatmentPlan, error)
}

// AssignmentRepository defines the interface for recurring assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
	GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error)
	GetByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Assignment, error)
	Update(ctx context.Context, assignment *domain.Assignment) error

	// ExpireStale flips every active assignment whose end date lies before
	// today to expired. The update is idempotent and safe to run
	// concurrently with itself and with reads; it returns the number of
	// assignments flipped.
	ExpireStale(ctx context.Context, today time.Time) (int64, error)
}

// CompletionRepository is the append-only completion ledger.
type CompletionRepository interface {
	// InsertIfAbsent stores a completion record unless one already exists
	// for the same (assignment, date); the duplicate case returns
	// ErrDuplicate. Uniqueness is enforced by the store, not by a prior
	// read, so concurrent attempts yield exactly one row.
	InsertIfAbsent(ctx context.Context, record *domain.CompletionRecord) (primitive.ObjectID, error)
	ListByAssignment(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.CompletionRecord, error)
	ListByAssignments(ctx context.Context, assignmentIDs []primitive.ObjectID) ([]domain.CompletionRecord, error)
}

// TreatmentSessionRepository defines the interface for clinical session
// records.
type TreatmentSessionRepository interface {
	Create(ctx context.Context, session *domain.TreatmentSession) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TreatmentSession, error)
	GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.TreatmentSession, error)
	Update(ctx context.Context, session *domain.TreatmentSession) error
}

// DiaryRepository stores patient check-in entries, one per day.
type DiaryRepository interface {
	// InsertIfAbsent rejects a second entry for the same (patient, date)
	// with ErrDuplicate.
	InsertIfAbsent(ctx context.Context, entry *domain.DiaryEntry) (primitive.ObjectID, error)
	ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]domain.DiaryEntry, error)
}
