package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification event types emitted by the platform.
const (
	EventRequestSubmitted = "request_submitted"
	EventRequestApproved  = "request_approved"
	EventRequestRejected  = "request_rejected"
	EventClientJoined     = "client_joined"
	EventClientUnlinked   = "client_unlinked"
	EventTrainerValidated = "trainer_validated"
	EventChatMessage      = "chat_message"
)

// Notification is an in-app message delivered to a single user. It is
// persisted for the notification list and pushed over the realtime hub
// best-effort.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	EventType string             `bson:"eventType" json:"eventType"`
	Message   string             `bson:"message" json:"message"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	ReadAt    *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
}
