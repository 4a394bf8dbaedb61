package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleClient  Role = "client"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// DefaultMaxClients is the roster ceiling applied to trainers at registration
// unless an admin raises it later.
const DefaultMaxClients = 15

// User represents a user in the system (Client, Trainer or Admin).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"` // Should be unique
	Email        string             `bson:"email" json:"email"`       // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"`    // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// AvatarKey is the S3 object key of the user's avatar, if one was uploaded.
	AvatarKey string `bson:"avatarKey,omitempty" json:"-"`

	// --- Trainer-specific ---
	// IsValidated is false until an admin approves the trainer account.
	// Clients and admins are validated from creation.
	IsValidated bool `bson:"isValidated" json:"isValidated"`
	// ClientIDs is the trainer's active roster. Its length is the trainer's
	// current client count; approvals must never push it past MaxClients.
	ClientIDs []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`
	// MaxClients is the roster ceiling enforced when a request is approved.
	MaxClients int `bson:"maxClients,omitempty" json:"maxClients,omitempty"`

	// --- Client-specific ---
	// TrainerID points at the client's current trainer. Nil until a request
	// is approved. Only the association resolver (or an unlink) mutates it.
	TrainerID *primitive.ObjectID `bson:"trainerId,omitempty" json:"trainerId,omitempty"`
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasTrainer reports whether a client currently has an active association.
func (u *User) HasTrainer() bool {
	return u.TrainerID != nil && *u.TrainerID != primitive.NilObjectID
}

// CurrentClients is the trainer's active client count, derived from the roster.
func (u *User) CurrentClients() int {
	return len(u.ClientIDs)
}

// RosterCeiling is the trainer's effective capacity; documents written before
// maxClients existed fall back to the default.
func (u *User) RosterCeiling() int {
	if u.MaxClients > 0 {
		return u.MaxClients
	}
	return DefaultMaxClients
}
