package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role distinguishes the actors of the practice.
type Role string

const (
	RoleTherapist Role = "therapist"
	RolePatient   Role = "patient"
	// RoleAdmin holds the override privilege: edit locks and ownership
	// checks never apply to admins.
	RoleAdmin Role = "admin"
)

// User represents a therapist, patient or practice admin.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Therapist-specific: patients under this therapist's care.
	PatientIDs []primitive.ObjectID `bson:"patientIds,omitempty" json:"patientIds,omitempty"`

	// Patient-specific: the treating therapist, once assigned.
	TherapistID *primitive.ObjectID `bson:"therapistId,omitempty" json:"therapistId,omitempty"`
}

func (u *User) IsTherapist() bool { return u.Role == RoleTherapist }
func (u *User) IsPatient() bool   { return u.Role == RolePatient }
func (u *User) IsAdmin() bool     { return u.Role == RoleAdmin }

// Actor is the caller identity resolved from the auth token. Only the ID
// and role matter for the capability checks.
type Actor struct {
	ID   primitive.ObjectID
	Role Role
}
