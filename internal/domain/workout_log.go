package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutLog is a client's record of a completed workout, optionally backed
// by a photo proof stored in S3. The actual image resides in the bucket; only
// its metadata is kept here.
type WorkoutLog struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID  `bson:"clientId" json:"clientId"`
	TrainerID   primitive.ObjectID  `bson:"trainerId" json:"trainerId"` // Denormalized for trainer queries
	PlanID      *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	PerformedAt time.Time           `bson:"performedAt" json:"performedAt"`
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`

	// Photo proof metadata. PhotoKey is the S3 object key - internal use.
	PhotoKey         string `bson:"photoKey,omitempty" json:"-"`
	PhotoContentType string `bson:"photoContentType,omitempty" json:"photoContentType,omitempty"`
	PhotoSize        int64  `bson:"photoSize,omitempty" json:"photoSize,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// HasPhoto reports whether a photo proof was confirmed for this log.
func (w *WorkoutLog) HasPhoto() bool {
	return w.PhotoKey != ""
}
