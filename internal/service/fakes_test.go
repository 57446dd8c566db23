package service

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"physiotrack/practice-app/internal/domain"
	"physiotrack/practice-app/internal/repository"
	"physiotrack/practice-app/internal/schedule"
)

// In-memory repository fakes. Each one guards its map with a mutex because
// the expiry sweep runs on a detached goroutine during reads.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) put(user *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == primitive.NilObjectID {
		user.ID = primitive.NewObjectID()
	}
	copied := *user
	r.users[user.ID] = &copied
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	copied := *user
	r.users[user.ID] = &copied
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) AddPatientToTherapist(ctx context.Context, therapistID, patientID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	therapist, ok := r.users[therapistID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, id := range therapist.PatientIDs {
		if id == patientID {
			return nil
		}
	}
	therapist.PatientIDs = append(therapist.PatientIDs, patientID)
	return nil
}

func (r *fakeUserRepo) SetTherapistForPatient(ctx context.Context, patientID, therapistID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	patient, ok := r.users[patientID]
	if !ok {
		return repository.ErrNotFound
	}
	patient.TherapistID = &therapistID
	return nil
}

func (r *fakeUserRepo) GetPatientsByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var patients []domain.User
	for _, u := range r.users {
		if u.Role == domain.RolePatient && u.TherapistID != nil && *u.TherapistID == therapistID {
			patients = append(patients, *u)
		}
	}
	return patients, nil
}

type fakeExerciseRepo struct {
	mu        sync.Mutex
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newFakeExerciseRepo() *fakeExerciseRepo {
	return &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]*domain.Exercise)}
}

func (r *fakeExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exercise.ID = primitive.NewObjectID()
	copied := *exercise
	r.exercises[exercise.ID] = &copied
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeExerciseRepo) GetByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Exercise
	for _, e := range r.exercises {
		if e.TherapistID == therapistID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *exercise
	r.exercises[exercise.ID] = &copied
	return nil
}

func (r *fakeExerciseRepo) Delete(ctx context.Context, id, therapistID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exercises[id]
	if !ok || e.TherapistID != therapistID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}

type fakePlanRepo struct {
	mu    sync.Mutex
	plans map[primitive.ObjectID]*domain.TreatmentPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.TreatmentPlan)}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *domain.TreatmentPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.ID = primitive.NewObjectID()
	copied := *plan
	r.plans[plan.ID] = &copied
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TreatmentPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePlanRepo) GetByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.TreatmentPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TreatmentPlan
	for _, p := range r.plans {
		if p.TherapistID == therapistID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[primitive.ObjectID]*domain.Assignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[primitive.ObjectID]*domain.Assignment)}
}

func (r *fakeAssignmentRepo) put(a *domain.Assignment) *domain.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == primitive.NilObjectID {
		a.ID = primitive.NewObjectID()
	}
	copied := *a
	r.assignments[a.ID] = &copied
	return a
}

func (r *fakeAssignmentRepo) Create(ctx context.Context, a *domain.Assignment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = primitive.NewObjectID()
	copied := *a
	r.assignments[a.ID] = &copied
	return a.ID, nil
}

func (r *fakeAssignmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAssignmentRepo) GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Assignment
	for _, a := range r.assignments {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) GetByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Assignment
	for _, a := range r.assignments {
		if a.TherapistID == therapistID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) Update(ctx context.Context, a *domain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *a
	r.assignments[a.ID] = &copied
	return nil
}

func (r *fakeAssignmentRepo) ExpireStale(ctx context.Context, today time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var flipped int64
	day := schedule.Day(today)
	for _, a := range r.assignments {
		if a.Status == domain.StatusActive && a.EndDate.Before(day) {
			a.Status = domain.StatusExpired
			flipped++
		}
	}
	return flipped, nil
}

type fakeCompletionRepo struct {
	mu      sync.Mutex
	records map[string]*domain.CompletionRecord
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{records: make(map[string]*domain.CompletionRecord)}
}

func completionKey(assignmentID primitive.ObjectID, date time.Time) string {
	return assignmentID.Hex() + "/" + schedule.Day(date).Format("2006-01-02")
}

func (r *fakeCompletionRepo) InsertIfAbsent(ctx context.Context, record *domain.CompletionRecord) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := completionKey(record.AssignmentID, record.CompletedDate)
	if _, ok := r.records[key]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	record.ID = primitive.NewObjectID()
	record.CompletedDate = schedule.Day(record.CompletedDate)
	copied := *record
	r.records[key] = &copied
	return record.ID, nil
}

func (r *fakeCompletionRepo) ListByAssignment(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.CompletionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CompletionRecord
	for _, rec := range r.records {
		if rec.AssignmentID == assignmentID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeCompletionRepo) ListByAssignments(ctx context.Context, assignmentIDs []primitive.ObjectID) ([]domain.CompletionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[primitive.ObjectID]bool, len(assignmentIDs))
	for _, id := range assignmentIDs {
		wanted[id] = true
	}
	var out []domain.CompletionRecord
	for _, rec := range r.records {
		if wanted[rec.AssignmentID] {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[primitive.ObjectID]*domain.TreatmentSession
}

func newFakeSessionRepo(now func() time.Time) *fakeSessionRepo {
	if now == nil {
		now = time.Now
	}
	return &fakeSessionRepo{now: now, sessions: make(map[primitive.ObjectID]*domain.TreatmentSession)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, session *domain.TreatmentSession) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = primitive.NewObjectID()
	session.CreatedAt = r.now().UTC()
	session.LockedAt = session.CreatedAt.Add(domain.SessionEditWindow)
	session.UpdatedAt = session.CreatedAt
	copied := *session
	r.sessions[session.ID] = &copied
	return session.ID, nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TreatmentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSessionRepo) GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.TreatmentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TreatmentSession
	for _, s := range r.sessions {
		if s.PatientID == patientID {
			out = append(out, *s)
		}
	}
	return out, nil
}

// Update mirrors the real store: creation and lock timestamps never move.
func (r *fakeSessionRepo) Update(ctx context.Context, session *domain.TreatmentSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = session.Status
	stored.Notes = session.Notes
	if session.ConfirmedAt != nil {
		stored.ConfirmedAt = session.ConfirmedAt
	}
	stored.UpdatedAt = r.now().UTC()
	return nil
}

type fakeDiaryRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.DiaryEntry
}

func newFakeDiaryRepo() *fakeDiaryRepo {
	return &fakeDiaryRepo{entries: make(map[string]*domain.DiaryEntry)}
}

func diaryKey(patientID primitive.ObjectID, date time.Time) string {
	return patientID.Hex() + "/" + schedule.Day(date).Format("2006-01-02")
}

func (r *fakeDiaryRepo) InsertIfAbsent(ctx context.Context, entry *domain.DiaryEntry) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := diaryKey(entry.PatientID, entry.EntryDate)
	if _, ok := r.entries[key]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	entry.ID = primitive.NewObjectID()
	entry.EntryDate = schedule.Day(entry.EntryDate)
	copied := *entry
	r.entries[key] = &copied
	return entry.ID, nil
}

func (r *fakeDiaryRepo) ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]domain.DiaryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DiaryEntry
	for _, e := range r.entries {
		if e.PatientID == patientID {
			out = append(out, *e)
		}
	}
	return out, nil
}

// seed puts a diary entry without the uniqueness check, for streak setups.
func (r *fakeDiaryRepo) seed(patientID primitive.ObjectID, date time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := &domain.DiaryEntry{
		ID:        primitive.NewObjectID(),
		PatientID: patientID,
		EntryDate: schedule.Day(date),
	}
	r.entries[diaryKey(patientID, date)] = entry
}
