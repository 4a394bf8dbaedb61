package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus type for the association request lifecycle
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved" // Client's trainer was set to the target
	RequestRejected RequestStatus = "rejected" // No directory mutation
)

// IsTerminal reports whether the status can no longer change.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// AssociationRequest records a client's ask to be coached by a trainer.
// CurrentTrainerID is snapshotted at submission time: nil means the client had
// no trainer (a "new" request, resolvable by the target trainer), non-nil
// means the client asked to switch (a "change" request, resolvable only by an
// admin). A client may have at most one pending request at a time.
type AssociationRequest struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID         primitive.ObjectID  `bson:"clientId" json:"clientId"`
	TargetTrainerID  primitive.ObjectID  `bson:"targetTrainerId" json:"targetTrainerId"`
	CurrentTrainerID *primitive.ObjectID `bson:"currentTrainerId,omitempty" json:"currentTrainerId,omitempty"`
	Reason           string              `bson:"reason" json:"reason"`
	Status           RequestStatus       `bson:"status" json:"status"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	ResolvedAt       *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy       *primitive.ObjectID `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
}

// IsChange reports whether this is a trainer-change request.
func (r *AssociationRequest) IsChange() bool {
	return r.CurrentTrainerID != nil && *r.CurrentTrainerID != primitive.NilObjectID
}
