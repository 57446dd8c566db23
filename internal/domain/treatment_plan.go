package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TreatmentPlan is a named, ordered set of exercises a therapist prescribes
// as a unit. An assignment referencing a plan treats the plan's content as a
// snapshot: the reference is fixed at assignment time and never changes.
type TreatmentPlan struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TherapistID primitive.ObjectID   `bson:"therapistId" json:"therapistId"`
	Name        string               `bson:"name" json:"name"` // e.g. "Phase 1: Mobilization"
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	ExerciseIDs []primitive.ObjectID `bson:"exerciseIds" json:"exerciseIds"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}
