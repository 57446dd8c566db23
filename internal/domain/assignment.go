package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"physiotrack/practice-app/internal/schedule"
)

// AssignmentStatus tracks the assignment lifecycle.
type AssignmentStatus string

const (
	StatusActive  AssignmentStatus = "active"
	StatusExpired AssignmentStatus = "expired" // End date passed; flipped lazily on read
	// StatusDeactivated is terminal: no edits, deletes or completions are
	// accepted afterwards.
	StatusDeactivated AssignmentStatus = "deactivated"
)

// Assignment is a patient's recurring homework prescription: train on the
// given weekdays between StartDate and EndDate (inclusive). Exactly one of
// PlanID or ExerciseIDs is set: either a plan snapshot or an ad-hoc list.
type Assignment struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	PatientID   primitive.ObjectID   `bson:"patientId" json:"patientId"`
	TherapistID primitive.ObjectID   `bson:"therapistId" json:"therapistId"`
	StartDate   time.Time            `bson:"startDate" json:"startDate"` // Date-only, UTC midnight
	EndDate     time.Time            `bson:"endDate" json:"endDate"`     // Date-only, inclusive
	ActiveDays  schedule.WeekdaySet  `bson:"activeDays" json:"activeDays"`
	Status      AssignmentStatus     `bson:"status" json:"status"`
	PlanID      *primitive.ObjectID  `bson:"planId,omitempty" json:"planId,omitempty"`
	ExerciseIDs []primitive.ObjectID `bson:"exerciseIds,omitempty" json:"exerciseIds,omitempty"`
	Notes       string               `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// DeriveStatus returns the status a non-deactivated assignment should carry
// given today's date. Used on creation and after every date edit, and by the
// lazy expiry sweep. An edit extending the end date past today resurrects an
// expired assignment.
func (a *Assignment) DeriveStatus(today time.Time) AssignmentStatus {
	if a.Status == StatusDeactivated {
		return StatusDeactivated
	}
	if a.EndDate.Before(schedule.Day(today)) {
		return StatusExpired
	}
	return StatusActive
}

// InWindow reports whether a date falls inside the assignment's inclusive
// date range.
func (a *Assignment) InWindow(day time.Time) bool {
	d := schedule.Day(day)
	return !d.Before(a.StartDate) && !d.After(a.EndDate)
}
