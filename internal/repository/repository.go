package repository

import (
	"coachlink/fitness-platform/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflict")
	ErrStaleState   = RepositoryError("document not in expected state")
	ErrNoCapacity   = RepositoryError("trainer roster is full")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxRunner executes fn within a single storage transaction. Every repository
// call made with the ctx passed to fn joins the transaction; if fn returns an
// error the transaction is aborted and nothing fn wrote is visible.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	ListUnvalidatedTrainers(ctx context.Context) ([]domain.User, error)
	GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)

	// SetValidated flips a trainer's isValidated flag.
	SetValidated(ctx context.Context, trainerID primitive.ObjectID) error
	// SetMaxClients changes a trainer's roster ceiling. Lowering it below the
	// current roster size is allowed; existing clients are never evicted.
	SetMaxClients(ctx context.Context, trainerID primitive.ObjectID, max int) error

	// AddClientWithinCapacity adds a client to a trainer's roster only if the
	// roster is below the trainer's ceiling. The check and the insert are one
	// atomic document update; returns ErrNoCapacity when the roster is full.
	AddClientWithinCapacity(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	RemoveClientFromTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error
	UnsetTrainerForClient(ctx context.Context, clientID primitive.ObjectID) error
	// UnsetTrainerForClientsOf clears trainerId on every client coached by the
	// given trainer. Used before a trainer account is deleted so no client is
	// left with a dangling reference.
	UnsetTrainerForClientsOf(ctx context.Context, trainerID primitive.ObjectID) error

	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ResolvedRequestFilter narrows the admin history listing.
type ResolvedRequestFilter struct {
	Status    domain.RequestStatus // empty means both terminal states
	TrainerID *primitive.ObjectID  // filter on target trainer
}

// AssociationRequestRepository defines the interface for the request ledger.
type AssociationRequestRepository interface {
	// Create stores a new pending request. Returns ErrConflict when the client
	// already has a pending request (backed by a partial unique index).
	Create(ctx context.Context, req *domain.AssociationRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AssociationRequest, error)
	GetPendingByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.AssociationRequest, error)
	// ListPendingByTrainer returns pending requests targeting the trainer,
	// oldest first (FIFO review queue).
	ListPendingByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssociationRequest, error)
	// ListPendingChanges returns all pending trainer-change requests
	// (currentTrainerId set), oldest first. Admin review queue.
	ListPendingChanges(ctx context.Context) ([]domain.AssociationRequest, error)
	CountPending(ctx context.Context) (int64, error)
	// ListResolved returns terminal requests, newest first.
	ListResolved(ctx context.Context, filter ResolvedRequestFilter) ([]domain.AssociationRequest, error)

	// MarkResolved transitions a request from pending to the given terminal
	// status as a compare-and-swap on the status field: of two concurrent
	// calls for the same request exactly one succeeds, the other gets
	// ErrStaleState.
	MarkResolved(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus, resolvedBy primitive.ObjectID, resolvedAt time.Time) error

	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TrainingPlanRepository defines the interface for interacting with training plan data.
type TrainingPlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	GetByClientAndTrainerID(ctx context.Context, clientID, trainerID primitive.ObjectID) ([]domain.TrainingPlan, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.TrainingPlan, error)
	SetActive(ctx context.Context, planID primitive.ObjectID) error
	DeactivateForClient(ctx context.Context, clientID primitive.ObjectID) error
}

// WorkoutLogRepository defines the interface for workout log data.
type WorkoutLogRepository interface {
	Create(ctx context.Context, log *domain.WorkoutLog) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutLog, error)
	ListByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WorkoutLog, error)
	ListByTrainerAndClient(ctx context.Context, trainerID, clientID primitive.ObjectID) ([]domain.WorkoutLog, error)
}

// ChatMessageRepository defines the interface for chat message data.
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) (primitive.ObjectID, error)
	// ListConversation returns all messages between the two users, oldest first.
	ListConversation(ctx context.Context, userA, userB primitive.ObjectID) ([]domain.ChatMessage, error)
	// MarkConversationRead stamps readAt on unread messages sent by senderID
	// to recipientID.
	MarkConversationRead(ctx context.Context, recipientID, senderID primitive.ObjectID, at time.Time) error
}

// NotificationRepository defines the interface for notification data.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) (primitive.ObjectID, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID primitive.ObjectID, at time.Time) error
}

// LoginTokenRepository defines the interface for one-time login tokens.
type LoginTokenRepository interface {
	Create(ctx context.Context, token *domain.LoginToken) (primitive.ObjectID, error)
	// Consume atomically marks the token used and returns it. Returns
	// ErrStaleState when the token was already used and ErrNotFound when it
	// does not exist or has expired.
	Consume(ctx context.Context, token string, now time.Time) (*domain.LoginToken, error)
}
