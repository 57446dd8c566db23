package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletionRecord is one entry in the append-only completion ledger: the
// patient trained on CompletedDate for the given assignment. At most one
// record may exist per (assignment, date); the pair is guarded by a unique
// index, never by a check-then-insert.
//
// PatientID is always copied from the assignment on the server side. It is
// never taken from a request body, so a record cannot be misattributed.
type CompletionRecord struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AssignmentID  primitive.ObjectID  `bson:"assignmentId" json:"assignmentId"`
	PatientID     primitive.ObjectID  `bson:"patientId" json:"patientId"`
	CompletedDate time.Time           `bson:"completedDate" json:"completedDate"` // Date-only, UTC midnight
	ExerciseID    *primitive.ObjectID `bson:"exerciseId,omitempty" json:"exerciseId,omitempty"`
	CompletedAt   time.Time           `bson:"completedAt" json:"completedAt"` // Wall-clock insert time
}
