package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/realtime"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

// Notifier is the emission side consumed by the other services. Callers treat
// delivery as best-effort: they log a returned error and move on, a failed
// emission never rolls back the state transition that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID primitive.ObjectID, eventType, message string) error
}

// --- Service Interface ---
type NotificationService interface {
	Notifier
	ListMine(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
}

// --- Service Implementation ---

// notificationService persists notifications and pushes them over the
// realtime hub.
type notificationService struct {
	notificationRepo repository.NotificationRepository
	hub              *realtime.Hub
}

// NewNotificationService creates a new instance of notificationService.
// The hub may be nil (e.g. in tests); persistence still happens.
func NewNotificationService(notificationRepo repository.NotificationRepository, hub *realtime.Hub) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		hub:              hub,
	}
}

// Notify stores the notification and pushes it to the user's live connections.
func (s *notificationService) Notify(ctx context.Context, userID primitive.ObjectID, eventType, message string) error {
	n := &domain.Notification{
		UserID:    userID,
		EventType: eventType,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.notificationRepo.Create(ctx, n)
	if err != nil {
		return err
	}
	n.ID = id

	if s.hub != nil {
		s.hub.Push(userID.Hex(), map[string]any{
			"kind":         "notification",
			"notification": n,
		})
	}
	return nil
}

// ListMine retrieves the user's notifications, newest first.
func (s *notificationService) ListMine(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error) {
	return s.notificationRepo.ListByUserID(ctx, userID)
}

// MarkRead stamps one of the user's notifications as read.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	err := s.notificationRepo.MarkRead(ctx, notificationID, userID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
