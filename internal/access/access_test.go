package access_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"physiotrack/practice-app/internal/access"
	"physiotrack/practice-app/internal/apperr"
	"physiotrack/practice-app/internal/domain"
)

func newSession(therapistID primitive.ObjectID, createdAt time.Time) *domain.TreatmentSession {
	return &domain.TreatmentSession{
		ID:          primitive.NewObjectID(),
		TherapistID: therapistID,
		PatientID:   primitive.NewObjectID(),
		Status:      domain.SessionDraft,
		CreatedAt:   createdAt,
		LockedAt:    createdAt.Add(domain.SessionEditWindow),
	}
}

func TestCanEditSession_TimeLock(t *testing.T) {
	owner := domain.Actor{ID: primitive.NewObjectID(), Role: domain.RoleTherapist}
	createdAt := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	session := newSession(owner.ID, createdAt)

	t.Run("editable one minute before the window closes", func(t *testing.T) {
		now := createdAt.Add(23*time.Hour + 59*time.Minute)
		assert.NoError(t, access.CanEditSession(owner, session, now))
	})

	t.Run("rejected exactly at the window boundary", func(t *testing.T) {
		now := createdAt.Add(24 * time.Hour)
		err := access.CanEditSession(owner, session, now)
		require.Error(t, err)
		assert.True(t, apperr.IsConflict(err))

		var locked *apperr.LockedError
		require.True(t, errors.As(err, &locked))
		assert.Equal(t, session.LockedAt, locked.LockedAt)
	})

	t.Run("rejected after the window", func(t *testing.T) {
		now := createdAt.Add(24*time.Hour + time.Second)
		err := access.CanEditSession(owner, session, now)
		assert.True(t, apperr.IsConflict(err))
	})
}

func TestCanEditSession_Ownership(t *testing.T) {
	owner := domain.Actor{ID: primitive.NewObjectID(), Role: domain.RoleTherapist}
	other := domain.Actor{ID: primitive.NewObjectID(), Role: domain.RoleTherapist}
	createdAt := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	session := newSession(owner.ID, createdAt)

	// Another therapist is rejected even while the window is still open.
	err := access.CanEditSession(other, session, createdAt.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, apperr.IsAuthorization(err))
}

func TestCanEditSession_AdminOverride(t *testing.T) {
	owner := domain.Actor{ID: primitive.NewObjectID(), Role: domain.RoleTherapist}
	admin := domain.Actor{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}
	createdAt := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	session := newSession(owner.ID, createdAt)

	// Admins edit regardless of elapsed time and ownership.
	assert.NoError(t, access.CanEditSession(admin, session, createdAt.Add(30*24*time.Hour)))
}

func TestCanModifyAssignment(t *testing.T) {
	owner := domain.Actor{ID: primitive.NewObjectID(), Role: domain.RoleTherapist}
	assignment := &domain.Assignment{TherapistID: owner.ID}

	assert.NoError(t, access.CanModifyAssignment(owner, assignment))
	assert.NoError(t, access.CanModifyAssignment(domain.Actor{ID: primitive.NewObjectID(), Role: domain.RoleAdmin}, assignment))

	err := access.CanModifyAssignment(domain.Actor{ID: primitive.NewObjectID(), Role: domain.RoleTherapist}, assignment)
	assert.True(t, apperr.IsAuthorization(err))

	err = access.CanModifyAssignment(domain.Actor{ID: owner.ID, Role: domain.RolePatient}, assignment)
	assert.True(t, apperr.IsAuthorization(err))
}
