package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrNotATrainer       = errors.New("user is not a trainer")
	ErrInvalidMaxClients = errors.New("max clients must be at least 1")
	ErrCannotDeleteAdmin = errors.New("admin accounts cannot be deleted through this endpoint")
)

// PlatformStats is the admin dashboard read model. It is assembled from
// Directory and Ledger queries and imposes no write contract on the core.
type PlatformStats struct {
	TotalClients         int64 `json:"totalClients"`
	TotalTrainers        int64 `json:"totalTrainers"`
	PendingTrainers      int   `json:"pendingTrainers"`
	PendingRequests      int64 `json:"pendingRequests"`
	OverCapacityTrainers int   `json:"overCapacityTrainers"`
}

// --- Service Interface ---
type AdminService interface {
	ListPendingTrainers(ctx context.Context) ([]domain.User, error)
	ValidateTrainer(ctx context.Context, trainerID primitive.ObjectID) (*domain.User, error)
	SetTrainerCapacity(ctx context.Context, trainerID primitive.ObjectID, max int) error
	DeleteUser(ctx context.Context, userID primitive.ObjectID) error
	GetPlatformStats(ctx context.Context) (*PlatformStats, error)
}

// --- Service Implementation ---

type adminService struct {
	userRepo    repository.UserRepository
	requestRepo repository.AssociationRequestRepository
	tx          repository.TxRunner
	notifier    Notifier
}

// NewAdminService creates a new instance of adminService.
func NewAdminService(
	userRepo repository.UserRepository,
	requestRepo repository.AssociationRequestRepository,
	tx repository.TxRunner,
	notifier Notifier,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		requestRepo: requestRepo,
		tx:          tx,
		notifier:    notifier,
	}
}

// ListPendingTrainers returns trainers awaiting approval, oldest first.
func (s *adminService) ListPendingTrainers(ctx context.Context) ([]domain.User, error) {
	trainers, err := s.userRepo.ListUnvalidatedTrainers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range trainers {
		trainers[i].PasswordHash = ""
	}
	return trainers, nil
}

// ValidateTrainer approves a trainer account so it can log in and receive
// association requests.
func (s *adminService) ValidateTrainer(ctx context.Context, trainerID primitive.ObjectID) (*domain.User, error) {
	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, ErrNotATrainer
	}

	if err := s.userRepo.SetValidated(ctx, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	trainer.IsValidated = true
	trainer.PasswordHash = ""

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, trainerID, domain.EventTrainerValidated, "Your trainer account was approved"); err != nil {
			log.Printf("WARN: failed to deliver validation notification to %s: %v", trainerID.Hex(), err)
		}
	}

	return trainer, nil
}

// SetTrainerCapacity changes a trainer's roster ceiling. A ceiling below the
// current roster is accepted: existing clients stay, only new approvals are
// blocked.
func (s *adminService) SetTrainerCapacity(ctx context.Context, trainerID primitive.ObjectID, max int) error {
	if max < 1 {
		return ErrInvalidMaxClients
	}
	err := s.userRepo.SetMaxClients(ctx, trainerID, max)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// DeleteUser removes a user account. Deleting a trainer first clears the
// trainer reference on every dependent client so none is left dangling;
// deleting a client removes them from their trainer's roster.
func (s *adminService) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsAdmin() {
		return ErrCannotDeleteAdmin
	}

	return s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if user.IsTrainer() {
			if err := s.userRepo.UnsetTrainerForClientsOf(txCtx, userID); err != nil {
				return err
			}
		}
		if user.IsClient() && user.HasTrainer() {
			if err := s.userRepo.RemoveClientFromTrainer(txCtx, *user.TrainerID, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}
		return s.userRepo.Delete(txCtx, userID)
	})
}

// GetPlatformStats assembles the admin dashboard counters.
func (s *adminService) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{}

	var err error
	if stats.TotalClients, err = s.userRepo.CountByRole(ctx, domain.RoleClient); err != nil {
		return nil, err
	}
	if stats.TotalTrainers, err = s.userRepo.CountByRole(ctx, domain.RoleTrainer); err != nil {
		return nil, err
	}
	if stats.PendingRequests, err = s.requestRepo.CountPending(ctx); err != nil {
		return nil, err
	}

	pending, err := s.userRepo.ListUnvalidatedTrainers(ctx)
	if err != nil {
		return nil, err
	}
	stats.PendingTrainers = len(pending)

	// Over-capacity rosters can exist when an admin lowers maxClients below
	// current load; they are reported, never auto-evicted.
	trainers, err := s.userRepo.ListByRole(ctx, domain.RoleTrainer)
	if err != nil {
		return nil, err
	}
	for _, t := range trainers {
		if t.CurrentClients() > t.RosterCeiling() {
			stats.OverCapacityTrainers++
		}
	}

	return stats, nil
}
