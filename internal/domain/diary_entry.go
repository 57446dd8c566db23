package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DiaryEntry is a patient's daily check-in note. Its dates feed the
// check-in streak, the second consumer of the generic streak walk.
type DiaryEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID primitive.ObjectID `bson:"patientId" json:"patientId"`
	EntryDate time.Time          `bson:"entryDate" json:"entryDate"` // Date-only, UTC midnight
	Mood      int                `bson:"mood,omitempty" json:"mood,omitempty"` // 1..5, optional
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
