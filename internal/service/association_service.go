package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrEmptyReason          = errors.New("request reason cannot be empty")
	ErrClientNotFound       = errors.New("client user not found")
	ErrNotAClient           = errors.New("user is not a client")
	ErrTrainerNotFound      = errors.New("target trainer not found or not validated")
	ErrPendingRequestExists = errors.New("client already has a pending request")
	ErrRequestNotFound      = errors.New("association request not found")
	ErrRequestNotPending    = errors.New("association request is not pending")
	ErrTrainerCapacityFull  = errors.New("trainer has reached their client limit")
	ErrResolutionForbidden  = errors.New("actor is not allowed to resolve this request")
	ErrUnlinkForbidden      = errors.New("actor is not allowed to unlink this client")
	ErrNoActiveAssociation  = errors.New("client has no active trainer association")
)

// --- Service Interface ---

// AssociationService owns the trainer/client association lifecycle: the
// request ledger, the capacity guard and the resolver. It is the only code
// path allowed to mutate a client's trainer reference.
type AssociationService interface {
	// Ledger
	Submit(ctx context.Context, clientID, trainerID primitive.ObjectID, reason string) (*domain.AssociationRequest, error)
	ListMine(ctx context.Context, clientID primitive.ObjectID) ([]domain.AssociationRequest, error)
	ListPendingForTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssociationRequest, error)
	ListPendingChanges(ctx context.Context) ([]domain.AssociationRequest, error)
	ListHistory(ctx context.Context, filter repository.ResolvedRequestFilter) ([]domain.AssociationRequest, error)
	DeleteRequest(ctx context.Context, requestID primitive.ObjectID) error

	// Resolver
	Resolve(ctx context.Context, requestID, actorID primitive.ObjectID, actorRole domain.Role, approve bool) (*domain.AssociationRequest, error)
	UnlinkClient(ctx context.Context, clientID, actorID primitive.ObjectID, actorRole domain.Role) error

	// Roster
	ListClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
}

// --- Service Implementation ---

type associationService struct {
	userRepo    repository.UserRepository
	requestRepo repository.AssociationRequestRepository
	tx          repository.TxRunner
	notifier    Notifier
}

// NewAssociationService creates a new instance of associationService.
func NewAssociationService(
	userRepo repository.UserRepository,
	requestRepo repository.AssociationRequestRepository,
	tx repository.TxRunner,
	notifier Notifier,
) AssociationService {
	return &associationService{
		userRepo:    userRepo,
		requestRepo: requestRepo,
		tx:          tx,
		notifier:    notifier,
	}
}

// === Ledger ===

// Submit records a client's request to be coached by a trainer. The client's
// current trainer (if any) is snapshotted into the request, turning it into a
// change request that only an admin may resolve.
func (s *associationService) Submit(ctx context.Context, clientID, trainerID primitive.ObjectID, reason string) (*domain.AssociationRequest, error) {
	if clientID == primitive.NilObjectID || trainerID == primitive.NilObjectID {
		return nil, errors.New("client ID and trainer ID are required")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, ErrEmptyReason
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrNotAClient
	}

	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if !trainer.IsTrainer() || !trainer.IsValidated {
		return nil, ErrTrainerNotFound
	}

	// One pending request per client. The partial unique index backs this up
	// against a race between the check and the insert.
	if _, err := s.requestRepo.GetPendingByClientID(ctx, clientID); err == nil {
		return nil, ErrPendingRequestExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	req := &domain.AssociationRequest{
		ClientID:        clientID,
		TargetTrainerID: trainerID,
		Reason:          strings.TrimSpace(reason),
		Status:          domain.RequestPending,
	}
	if client.HasTrainer() {
		current := *client.TrainerID
		req.CurrentTrainerID = &current
	}

	id, err := s.requestRepo.Create(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrPendingRequestExists
		}
		return nil, err
	}
	req.ID = id

	s.emit(ctx, trainerID, domain.EventRequestSubmitted,
		"A client asked to join your roster")

	return req, nil
}

// ListMine returns the client's open requests. At most one exists, so the
// slice has zero or one element.
func (s *associationService) ListMine(ctx context.Context, clientID primitive.ObjectID) ([]domain.AssociationRequest, error) {
	req, err := s.requestRepo.GetPendingByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.AssociationRequest{}, nil
		}
		return nil, err
	}
	return []domain.AssociationRequest{*req}, nil
}

// ListPendingForTrainer returns the trainer's review queue, oldest first.
func (s *associationService) ListPendingForTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssociationRequest, error) {
	return s.requestRepo.ListPendingByTrainer(ctx, trainerID)
}

// ListPendingChanges returns pending trainer-change requests for admins.
func (s *associationService) ListPendingChanges(ctx context.Context) ([]domain.AssociationRequest, error) {
	return s.requestRepo.ListPendingChanges(ctx)
}

// ListHistory returns terminal requests, newest first.
func (s *associationService) ListHistory(ctx context.Context, filter repository.ResolvedRequestFilter) ([]domain.AssociationRequest, error) {
	return s.requestRepo.ListResolved(ctx, filter)
}

// DeleteRequest hard-removes a ledger entry. Admin request management only;
// resolution never deletes.
func (s *associationService) DeleteRequest(ctx context.Context, requestID primitive.ObjectID) error {
	err := s.requestRepo.Delete(ctx, requestID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRequestNotFound
	}
	return err
}

// === Resolver ===

// Resolve transitions a pending request to approved or rejected.
//
// Authorization: a new request (no current trainer) may only be resolved by
// its target trainer; a change request only by an admin, since it alters an
// existing trainer's roster and needs independent arbitration.
//
// The approve path runs as one transaction: the status flip is a
// compare-and-swap on "pending", the roster insert re-checks capacity inside
// the same unit, and the client's trainer field moves with them. Of two
// concurrent resolutions exactly one commits; the loser sees
// ErrRequestNotPending (same request) or ErrTrainerCapacityFull (capacity
// race), with the request left pending in the latter case.
func (s *associationService) Resolve(ctx context.Context, requestID, actorID primitive.ObjectID, actorRole domain.Role, approve bool) (*domain.AssociationRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status.IsTerminal() {
		// Retried resolutions land here: a safe no-op error, no mutation.
		return nil, ErrRequestNotPending
	}

	if err := authorizeResolution(req, actorID, actorRole); err != nil {
		return nil, err
	}

	resolvedAt := time.Now().UTC()

	if approve {
		err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			// CAS first: the same-request race is settled before any roster
			// mutation happens.
			if err := s.requestRepo.MarkResolved(txCtx, req.ID, domain.RequestApproved, actorID, resolvedAt); err != nil {
				return err
			}
			// Capacity is re-checked here, inside the transaction, not via an
			// earlier read.
			if err := s.userRepo.AddClientWithinCapacity(txCtx, req.TargetTrainerID, req.ClientID); err != nil {
				return err
			}
			if req.IsChange() {
				if err := s.userRepo.RemoveClientFromTrainer(txCtx, *req.CurrentTrainerID, req.ClientID); err != nil && !errors.Is(err, repository.ErrNotFound) {
					return err
				}
			}
			return s.userRepo.SetTrainerForClient(txCtx, req.ClientID, req.TargetTrainerID)
		})
	} else {
		err = s.requestRepo.MarkResolved(ctx, req.ID, domain.RequestRejected, actorID, resolvedAt)
	}

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStaleState):
			return nil, ErrRequestNotPending
		case errors.Is(err, repository.ErrNoCapacity):
			return nil, ErrTrainerCapacityFull
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrRequestNotFound
		default:
			return nil, err
		}
	}

	if approve {
		req.Status = domain.RequestApproved
		s.emit(ctx, req.ClientID, domain.EventRequestApproved,
			"Your trainer request was approved")
		s.emit(ctx, req.TargetTrainerID, domain.EventClientJoined,
			"A client joined your roster")
	} else {
		req.Status = domain.RequestRejected
		s.emit(ctx, req.ClientID, domain.EventRequestRejected,
			"Your trainer request was rejected")
	}
	req.ResolvedAt = &resolvedAt
	req.ResolvedBy = &actorID

	return req, nil
}

// authorizeResolution applies the actor rule: target trainer for new
// requests, admin for change requests.
func authorizeResolution(req *domain.AssociationRequest, actorID primitive.ObjectID, actorRole domain.Role) error {
	if req.IsChange() {
		if actorRole != domain.RoleAdmin {
			return ErrResolutionForbidden
		}
		return nil
	}
	if actorRole != domain.RoleTrainer || actorID != req.TargetTrainerID {
		return ErrResolutionForbidden
	}
	return nil
}

// UnlinkClient clears a client's trainer reference out-of-band of the request
// flow. Only the owning trainer or an admin may do it; the ledger is never
// touched.
func (s *associationService) UnlinkClient(ctx context.Context, clientID, actorID primitive.ObjectID, actorRole domain.Role) error {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if !client.IsClient() {
		return ErrNotAClient
	}
	if !client.HasTrainer() {
		return ErrNoActiveAssociation
	}

	trainerID := *client.TrainerID
	if actorRole != domain.RoleAdmin && !(actorRole == domain.RoleTrainer && actorID == trainerID) {
		return ErrUnlinkForbidden
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.userRepo.UnsetTrainerForClient(txCtx, clientID); err != nil {
			return err
		}
		err := s.userRepo.RemoveClientFromTrainer(txCtx, trainerID, clientID)
		if errors.Is(err, repository.ErrNotFound) {
			// Trainer record already gone; the client side is what matters.
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}

	s.emit(ctx, clientID, domain.EventClientUnlinked,
		"Your trainer association was removed")
	return nil
}

// ListClients returns the trainer's current roster.
func (s *associationService) ListClients(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	clients, err := s.userRepo.GetClientsByTrainerID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}

// emit delivers a notification best-effort; failures are logged and swallowed
// so they can never roll back a committed transition.
func (s *associationService) emit(ctx context.Context, userID primitive.ObjectID, eventType, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, eventType, message); err != nil {
		log.Printf("WARN: failed to deliver %s notification to %s: %v", eventType, userID.Hex(), err)
	}
}
