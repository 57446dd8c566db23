package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionEditWindow is the fixed offset after which a treatment session
// becomes read-only for its creator. LockedAt is stamped once at creation
// and never recomputed.
const SessionEditWindow = 24 * time.Hour

// SessionStatus tracks whether a session note is still a draft.
type SessionStatus string

const (
	SessionDraft     SessionStatus = "draft"
	SessionFinalized SessionStatus = "finalized"
)

// TreatmentSession is the clinical record of a single treatment. Whether it
// is editable is derived at evaluation time from LockedAt and the actor; the
// lock state itself is never stored.
type TreatmentSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TherapistID primitive.ObjectID `bson:"therapistId" json:"therapistId"` // Creating therapist, the only non-admin editor
	PatientID   primitive.ObjectID `bson:"patientId" json:"patientId"`
	Status      SessionStatus      `bson:"status" json:"status"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	LockedAt    time.Time          `bson:"lockedAt" json:"lockedAt"` // CreatedAt + SessionEditWindow, immutable
	// ConfirmedAt is set exactly once, on the transition into finalized,
	// and never cleared.
	ConfirmedAt *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// Locked reports whether the edit window has elapsed at the given instant.
// Override-holders bypass this via the access checks, not here.
func (s *TreatmentSession) Locked(now time.Time) bool {
	return !now.Before(s.LockedAt)
}
