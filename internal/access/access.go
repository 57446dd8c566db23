// Package access defines the capability checks shared by the completion
// ledger and the treatment-session edit path. Ownership and override logic
// live here once instead of per endpoint.
package access

import (
	"time"

	"physiotrack/practice-app/internal/apperr"
	"physiotrack/practice-app/internal/domain"
)

// CanModifyAssignment allows the owning therapist and admins to edit or
// deactivate an assignment.
func CanModifyAssignment(actor domain.Actor, a *domain.Assignment) error {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.Role == domain.RoleTherapist && actor.ID == a.TherapistID {
		return nil
	}
	return apperr.Authorization("not allowed to modify this assignment")
}

// CanRecordCompletion allows the assigned patient, the owning therapist and
// admins to append to an assignment's completion ledger.
func CanRecordCompletion(actor domain.Actor, a *domain.Assignment) error {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.Role == domain.RolePatient && actor.ID == a.PatientID {
		return nil
	}
	if actor.Role == domain.RoleTherapist && actor.ID == a.TherapistID {
		return nil
	}
	return apperr.Authorization("not allowed to record completions for this assignment")
}

// CanEditSession decides whether an actor may mutate a treatment session at
// the given instant. Two independent guards must both pass: the actor must
// be the creating therapist, and the edit window must still be open. An
// admin bypasses both.
//
// A locked rejection carries the lock timestamp so the caller can see when
// the window closed; a non-owner gets an authorization error instead.
func CanEditSession(actor domain.Actor, s *domain.TreatmentSession, now time.Time) error {
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.ID != s.TherapistID {
		return apperr.Authorization("only the creating therapist may edit this session")
	}
	if s.Locked(now) {
		return &apperr.LockedError{LockedAt: s.LockedAt}
	}
	return nil
}
