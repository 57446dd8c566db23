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
	ErrPatientNotFound        = apperr.NotFound("patient not found")
	ErrPatientNotRole         = apperr.Validation("user found but is not a patient")
	ErrPatientAlreadyAssigned = apperr.Conflict("patient is already assigned to another therapist")
	ErrPatientNotManaged      = apperr.Authorization("patient is not managed by this therapist")
	ErrAssignmentNotFound     = apperr.NotFound("assignment not found")
	ErrAssignmentDeactivated  = apperr.Conflict("assignment is deactivated")
	ErrInvalidDateRange       = apperr.Validation("start date must not be after end date")
	ErrPlanXorExercises       = apperr.Validation("assignment requires exactly one of plan or exercise list")
	ErrPlanNotFound           = apperr.NotFound("treatment plan not found")
	ErrPlanAccessDenied       = apperr.Authorization("treatment plan is owned by another therapist")
	ErrSessionNotFound        = apperr.NotFound("treatment session not found")
	ErrFinalizedRevert        = apperr.Conflict("finalized session cannot revert to draft")
	ErrInvalidSessionStatus   = apperr.Validation("session status must be draft or finalized")
)

// AssignmentInput is the creation payload for a recurring assignment.
type AssignmentInput struct {
	PatientID   primitive.ObjectID
	StartDate   time.Time
	EndDate     time.Time
	ActiveDays  schedule.WeekdaySet
	PlanID      *primitive.ObjectID
	ExerciseIDs []primitive.ObjectID
	Notes       string
}

// AssignmentPatch carries the editable assignment fields; nil means
// unchanged. The plan reference is deliberately absent: it is a snapshot
// fixed at creation.
type AssignmentPatch struct {
	StartDate  *time.Time
	EndDate    *time.Time
	ActiveDays schedule.WeekdaySet
	Notes      *string
}

// SessionPatch carries the editable treatment session fields.
type SessionPatch struct {
	Status *domain.SessionStatus
	Notes  *string
}

// TherapistService covers the therapist's side of the practice: patient
// roster, treatment plans, recurring assignments and clinical session
// records.
type TherapistService interface {
	AddPatientByEmail(ctx context.Context, therapistID primitive.ObjectID, patientEmail string) (*domain.User, error)
	GetManagedPatients(ctx context.Context, therapistID primitive.ObjectID) ([]domain.User, error)

	CreateTreatmentPlan(ctx context.Context, plan *domain.TreatmentPlan) (*domain.TreatmentPlan, error)
	GetTreatmentPlans(ctx context.Context, therapistID primitive.ObjectID) ([]domain.TreatmentPlan, error)

	CreateAssignment(ctx context.Context, actor domain.Actor, input AssignmentInput) (*domain.Assignment, error)
	UpdateAssignment(ctx context.Context, actor domain.Actor, assignmentID primitive.ObjectID, patch AssignmentPatch) (*domain.Assignment, error)
	DeactivateAssignment(ctx context.Context, actor domain.Actor, assignmentID primitive.ObjectID) error
	GetPatientAssignments(ctx context.Context, actor domain.Actor, patientID primitive.ObjectID) ([]AssignmentDetails, error)
	GetPatientSummaries(ctx context.Context, therapistID primitive.ObjectID) ([]PatientSummary, error)

	CreateTreatmentSession(ctx context.Context, actor domain.Actor, patientID primitive.ObjectID, status domain.SessionStatus, notes string) (*domain.TreatmentSession, error)
	GetTreatmentSessions(ctx context.Context, actor domain.Actor, patientID primitive.ObjectID) ([]domain.TreatmentSession, error)
	UpdateTreatmentSession(ctx context.Context, actor domain.Actor, sessionID primitive.ObjectID, patch SessionPatch) (*domain.TreatmentSession, error)
}

// therapistService implements the TherapistService interface.
type therapistService struct {
	*assignmentLifecycle
	userRepo       repository.UserRepository
	planRepo       repository.TreatmentPlanRepository
	exerciseRepo   repository.ExerciseRepository
	assignmentRepo repository.AssignmentRepository
	completionRepo repository.CompletionRepository
	sessionRepo    repository.TreatmentSessionRepository
	logger         *zap.Logger
}

// NewTherapistService creates a new instance of therapistService. A nil
// now falls back to time.Now; loc is the practice's reference time zone.
func NewTherapistService(
	userRepo repository.UserRepository,
	planRepo repository.TreatmentPlanRepository,
	exerciseRepo repository.ExerciseRepository,
	assignmentRepo repository.AssignmentRepository,
	completionRepo repository.CompletionRepository,
	sessionRepo repository.TreatmentSessionRepository,
	logger *zap.Logger,
	loc *time.Location,
	now func() time.Time,
) TherapistService {
	return &therapistService{
		assignmentLifecycle: newAssignmentLifecycle(assignmentRepo, logger, loc, now),
		userRepo:            userRepo,
		planRepo:            planRepo,
		exerciseRepo:        exerciseRepo,
		assignmentRepo:      assignmentRepo,
		completionRepo:      completionRepo,
		sessionRepo:         sessionRepo,
		logger:              logger,
	}
}

// === Patient roster ===

// AddPatientByEmail links an existing patient account to the therapist.
func (s *therapistService) AddPatientByEmail(ctx context.Context, therapistID primitive.ObjectID, patientEmail string) (*domain.User, error) {
	if therapistID == primitive.NilObjectID || patientEmail == "" {
		return nil, errors.New("therapist ID and patient email are required")
	}

	patient, err := s.userRepo.GetByEmail(ctx, patientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if patient.Role != domain.RolePatient {
		return nil, ErrPatientNotRole
	}

	if patient.TherapistID != nil && *patient.TherapistID != primitive.NilObjectID {
		if *patient.TherapistID == therapistID {
			return patient, nil // Already on this therapist's roster
		}
		return nil, ErrPatientAlreadyAssigned
	}

	if err := s.userRepo.AddPatientToTherapist(ctx, therapistID, patient.ID); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetTherapistForPatient(ctx, patient.ID, therapistID); err != nil {
		return nil, err
	}

	patient.TherapistID = &therapistID
	return patient, nil
}

// GetManagedPatients retrieves the therapist's patient roster.
func (s *therapistService) GetManagedPatients(ctx context.Context, therapistID primitive.ObjectID) ([]domain.User, error) {
	if therapistID == primitive.NilObjectID {
		return nil, errors.New("therapist ID is required")
	}
	patients, err := s.userRepo.GetPatientsByTherapistID(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	for i := range patients {
		patients[i].PasswordHash = ""
	}
	return patients, nil
}

// === Treatment plans ===

// CreateTreatmentPlan stores a plan after checking every referenced
// exercise exists and belongs to the therapist.
func (s *therapistService) CreateTreatmentPlan(ctx context.Context, plan *domain.TreatmentPlan) (*domain.TreatmentPlan, error) {
	if plan.TherapistID == primitive.NilObjectID || plan.Name == "" {
		return nil, errors.New("therapist ID and plan name are required")
	}
	if len(plan.ExerciseIDs) == 0 {
		return nil, apperr.Validation("plan requires at least one exercise")
	}
	for _, exerciseID := range plan.ExerciseIDs {
		exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrExerciseNotFound
			}
			return nil, err
		}
		if exercise.TherapistID != plan.TherapistID {
			return nil, ErrExerciseAccessDenied
		}
	}

	id, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return plan, nil
}

// GetTreatmentPlans lists the therapist's plans.
func (s *therapistService) GetTreatmentPlans(ctx context.Context, therapistID primitive.ObjectID) ([]domain.TreatmentPlan, error) {
	return s.planRepo.GetByTherapistID(ctx, therapistID)
}

// === Assignments ===

// CreateAssignment prescribes recurring homework to a managed patient.
// Exactly one of plan or ad-hoc exercise list must be given.
func (s *therapistService) CreateAssignment(ctx context.Context, actor domain.Actor, input AssignmentInput) (*domain.Assignment, error) {
	start := schedule.Day(input.StartDate)
	end := schedule.Day(input.EndDate)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	if err := input.ActiveDays.Validate(); err != nil {
		return nil, apperr.Validation("%s", err)
	}

	hasPlan := input.PlanID != nil && *input.PlanID != primitive.NilObjectID
	if hasPlan == (len(input.ExerciseIDs) > 0) {
		return nil, ErrPlanXorExercises
	}

	if hasPlan {
		plan, err := s.planRepo.GetByID(ctx, *input.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		if plan.TherapistID != actor.ID && actor.Role != domain.RoleAdmin {
			return nil, ErrPlanAccessDenied
		}
	} else {
		for _, exerciseID := range input.ExerciseIDs {
			if _, err := s.exerciseRepo.GetByID(ctx, exerciseID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, ErrExerciseNotFound
				}
				return nil, err
			}
		}
	}

	if err := s.requireManagedPatient(ctx, actor, input.PatientID); err != nil {
		return nil, err
	}

	assignment := &domain.Assignment{
		PatientID:   input.PatientID,
		TherapistID: actor.ID,
		StartDate:   start,
		EndDate:     end,
		ActiveDays:  input.ActiveDays,
		PlanID:      input.PlanID,
		ExerciseIDs: input.ExerciseIDs,
		Notes:       input.Notes,
	}
	assignment.Status = assignment.DeriveStatus(s.today())

	id, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		return nil, err
	}
	assignment.ID = id
	return assignment, nil
}

// UpdateAssignment edits dates, active days or notes. The status is
// re-derived from the new end date, so extending it past today resurrects
// an expired assignment. Deactivated assignments reject every edit.
func (s *therapistService) UpdateAssignment(ctx context.Context, actor domain.Actor, assignmentID primitive.ObjectID, patch AssignmentPatch) (*domain.Assignment, error) {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status == domain.StatusDeactivated {
		return nil, ErrAssignmentDeactivated
	}
	if err := access.CanModifyAssignment(actor, assignment); err != nil {
		return nil, err
	}

	if patch.StartDate != nil {
		assignment.StartDate = schedule.Day(*patch.StartDate)
	}
	if patch.EndDate != nil {
		assignment.EndDate = schedule.Day(*patch.EndDate)
	}
	if assignment.EndDate.Before(assignment.StartDate) {
		return nil, ErrInvalidDateRange
	}
	if patch.ActiveDays != nil {
		if err := patch.ActiveDays.Validate(); err != nil {
			return nil, apperr.Validation("%s", err)
		}
		assignment.ActiveDays = patch.ActiveDays
	}
	if patch.Notes != nil {
		assignment.Notes = *patch.Notes
	}

	assignment.Status = assignment.DeriveStatus(s.today())

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

// DeactivateAssignment soft-deletes an assignment. The transition is
// terminal; a second deactivation attempt conflicts.
func (s *therapistService) DeactivateAssignment(ctx context.Context, actor domain.Actor, assignmentID primitive.ObjectID) error {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if assignment.Status == domain.StatusDeactivated {
		return ErrAssignmentDeactivated
	}
	if err := access.CanModifyAssignment(actor, assignment); err != nil {
		return err
	}

	assignment.Status = domain.StatusDeactivated
	return s.assignmentRepo.Update(ctx, assignment)
}

// GetPatientAssignments returns the enriched assignment views for one
// managed patient, firing the expiry sweep on the way in.
func (s *therapistService) GetPatientAssignments(ctx context.Context, actor domain.Actor, patientID primitive.ObjectID) ([]AssignmentDetails, error) {
	s.sweepExpired()

	if err := s.requireManagedPatient(ctx, actor, patientID); err != nil {
		return nil, err
	}

	assignments, err := s.assignmentRepo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.enrichAssignments(ctx, assignments)
}

// GetPatientSummaries builds the therapist's dashboard: one row per
// managed patient.
func (s *therapistService) GetPatientSummaries(ctx context.Context, therapistID primitive.ObjectID) ([]PatientSummary, error) {
	s.sweepExpired()

	patients, err := s.userRepo.GetPatientsByTherapistID(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.GetByTherapistID(ctx, therapistID)
	if err != nil {
		return nil, err
	}

	byPatient := make(map[primitive.ObjectID][]domain.Assignment)
	ids := make([]primitive.ObjectID, 0, len(assignments))
	for _, a := range assignments {
		byPatient[a.PatientID] = append(byPatient[a.PatientID], a)
		ids = append(ids, a.ID)
	}

	completions, err := s.completionRepo.ListByAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	grouped := groupCompletions(completions)

	today := s.today()
	summaries := make([]PatientSummary, 0, len(patients))
	for _, patient := range patients {
		var patientCompletions []domain.CompletionRecord
		for _, a := range byPatient[patient.ID] {
			patientCompletions = append(patientCompletions, grouped[a.ID]...)
		}
		summaries = append(summaries, buildPatientSummary(patient, byPatient[patient.ID], patientCompletions, today))
	}
	return summaries, nil
}

// === Treatment sessions ===

// CreateTreatmentSession records a clinical session note. A session
// created directly as finalized gets its confirmation timestamp
// immediately.
func (s *therapistService) CreateTreatmentSession(ctx context.Context, actor domain.Actor, patientID primitive.ObjectID, status domain.SessionStatus, notes string) (*domain.TreatmentSession, error) {
	if status != domain.SessionDraft && status != domain.SessionFinalized {
		return nil, ErrInvalidSessionStatus
	}
	if err := s.requireManagedPatient(ctx, actor, patientID); err != nil {
		return nil, err
	}

	session := &domain.TreatmentSession{
		TherapistID: actor.ID,
		PatientID:   patientID,
		Status:      status,
		Notes:       notes,
	}
	if status == domain.SessionFinalized {
		confirmedAt := s.now().UTC()
		session.ConfirmedAt = &confirmedAt
	}

	id, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = id
	return session, nil
}

// GetTreatmentSessions lists a managed patient's session records.
func (s *therapistService) GetTreatmentSessions(ctx context.Context, actor domain.Actor, patientID primitive.ObjectID) ([]domain.TreatmentSession, error) {
	if err := s.requireManagedPatient(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.sessionRepo.GetByPatientID(ctx, patientID)
}

// UpdateTreatmentSession mutates a session under both edit guards:
// ownership and the 24-hour time lock, either overridden by an admin. A
// finalized session never reverts to draft; the confirmation timestamp is
// written once, on the transition into finalized.
func (s *therapistService) UpdateTreatmentSession(ctx context.Context, actor domain.Actor, sessionID primitive.ObjectID, patch SessionPatch) (*domain.TreatmentSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if err := access.CanEditSession(actor, session, s.now()); err != nil {
		return nil, err
	}

	if patch.Status != nil {
		newStatus := *patch.Status
		if newStatus != domain.SessionDraft && newStatus != domain.SessionFinalized {
			return nil, ErrInvalidSessionStatus
		}
		if session.Status == domain.SessionFinalized && newStatus == domain.SessionDraft {
			return nil, ErrFinalizedRevert
		}
		if session.Status == domain.SessionDraft && newStatus == domain.SessionFinalized && session.ConfirmedAt == nil {
			confirmedAt := s.now().UTC()
			session.ConfirmedAt = &confirmedAt
		}
		session.Status = newStatus
	}
	if patch.Notes != nil {
		session.Notes = *patch.Notes
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// === helpers ===

func (s *therapistService) getAssignment(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

// requireManagedPatient checks the target is a patient on the actor's
// roster; admins skip the roster check.
func (s *therapistService) requireManagedPatient(ctx context.Context, actor domain.Actor, patientID primitive.ObjectID) error {
	patient, err := s.userRepo.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPatientNotFound
		}
		return err
	}
	if patient.Role != domain.RolePatient {
		return ErrPatientNotRole
	}
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if patient.TherapistID == nil || *patient.TherapistID != actor.ID {
		return ErrPatientNotManaged
	}
	return nil
}

// enrichAssignments loads the relevant completion ledgers in one query and
// derives the view for each assignment.
func (s *therapistService) enrichAssignments(ctx context.Context, assignments []domain.Assignment) ([]AssignmentDetails, error) {
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
