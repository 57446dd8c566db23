package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a single entry in a therapist's exercise library. Completions
// may reference the exercise that was trained.
type Exercise struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TherapistID primitive.ObjectID `bson:"therapistId" json:"therapistId"` // Owner
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	BodyRegion  string `bson:"bodyRegion,omitempty" json:"bodyRegion,omitempty"`   // e.g. "Shoulder", "Lower Back"
	Difficulty  string `bson:"difficulty,omitempty" json:"difficulty,omitempty"`   // e.g. "Easy", "Moderate", "Hard"
	Instruction string `bson:"instruction,omitempty" json:"instruction,omitempty"` // Execution guidance for the patient

	// Key of the demo video in the media bucket; empty until a video is
	// uploaded. The actual file lives in object storage.
	VideoObjectKey string `bson:"videoObjectKey,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
