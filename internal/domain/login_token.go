package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginToken is a single-use token backing QR code login: the logged-in user
// requests one, renders it as a QR code, and another device exchanges it for
// a regular JWT. Exchange marks the token used; a token can be exchanged at
// most once and only before ExpiresAt.
type LoginToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token     string             `bson:"token" json:"token"` // uuid, unique
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	UsedAt    *time.Time         `bson:"usedAt,omitempty" json:"usedAt,omitempty"`
}
