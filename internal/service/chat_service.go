package service

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/realtime"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrEmptyMessage      = errors.New("message body cannot be empty")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrChatForbidden     = errors.New("users are not allowed to chat with each other")
)

// --- Service Interface ---
type ChatService interface {
	Send(ctx context.Context, senderID, recipientID primitive.ObjectID, body string) (*domain.ChatMessage, error)
	// Conversation lists the messages between the caller and the other user,
	// oldest first, and marks the caller's incoming messages read.
	Conversation(ctx context.Context, callerID, otherID primitive.ObjectID) ([]domain.ChatMessage, error)
}

// --- Service Implementation ---

type chatService struct {
	userRepo    repository.UserRepository
	messageRepo repository.ChatMessageRepository
	hub         *realtime.Hub
}

// NewChatService creates a new instance of chatService.
func NewChatService(userRepo repository.UserRepository, messageRepo repository.ChatMessageRepository, hub *realtime.Hub) ChatService {
	return &chatService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		hub:         hub,
	}
}

// Send persists a message and pushes it to the recipient's live connections.
func (s *chatService) Send(ctx context.Context, senderID, recipientID primitive.ObjectID, body string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	sender, recipient, err := s.loadPair(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if !mayChat(sender, recipient) {
		return nil, ErrChatForbidden
	}

	msg := &domain.ChatMessage{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        strings.TrimSpace(body),
		SentAt:      time.Now().UTC(),
	}

	id, err := s.messageRepo.Create(ctx, msg)
	if err != nil {
		return nil, err
	}
	msg.ID = id

	// Best-effort realtime delivery; the conversation listing is the durable
	// record.
	if s.hub != nil {
		s.hub.Push(recipientID.Hex(), map[string]any{
			"kind":    domain.EventChatMessage,
			"message": msg,
		})
	}

	return msg, nil
}

// Conversation lists messages between the caller and the other user.
func (s *chatService) Conversation(ctx context.Context, callerID, otherID primitive.ObjectID) ([]domain.ChatMessage, error) {
	caller, other, err := s.loadPair(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}
	if !mayChat(caller, other) {
		return nil, ErrChatForbidden
	}

	messages, err := s.messageRepo.ListConversation(ctx, callerID, otherID)
	if err != nil {
		return nil, err
	}

	// Opening the conversation reads it.
	if err := s.messageRepo.MarkConversationRead(ctx, callerID, otherID, time.Now().UTC()); err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *chatService) loadPair(ctx context.Context, aID, bID primitive.ObjectID) (*domain.User, *domain.User, error) {
	a, err := s.userRepo.GetByID(ctx, aID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrRecipientNotFound
		}
		return nil, nil, err
	}
	b, err := s.userRepo.GetByID(ctx, bID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrRecipientNotFound
		}
		return nil, nil, err
	}
	return a, b, nil
}

// mayChat allows an associated trainer/client pair, and admins with anyone.
func mayChat(a, b *domain.User) bool {
	if a.IsAdmin() || b.IsAdmin() {
		return true
	}
	if a.IsClient() && b.IsTrainer() {
		return a.TrainerID != nil && *a.TrainerID == b.ID
	}
	if a.IsTrainer() && b.IsClient() {
		return b.TrainerID != nil && *b.TrainerID == a.ID
	}
	return false
}
