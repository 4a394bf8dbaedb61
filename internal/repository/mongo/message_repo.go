package mongo

import (
	"coachlink/fitness-platform/internal/domain"
	"coachlink/fitness-platform/internal/repository"
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCollectionName = "messages"

// mongoMessageRepository implements repository.ChatMessageRepository
type mongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new chat message repository backed by MongoDB.
func NewMongoMessageRepository(db *mongo.Database) repository.ChatMessageRepository {
	return &mongoMessageRepository{
		collection: db.Collection(messageCollectionName),
	}
}

// Create inserts a new chat message.
func (r *mongoMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) (primitive.ObjectID, error) {
	if msg.SenderID == primitive.NilObjectID || msg.RecipientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("chat message requires senderId and recipientId")
	}
	if msg.Body == "" {
		return primitive.NilObjectID, errors.New("chat message body is required")
	}

	msg.ID = primitive.NewObjectID()
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, msg)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted message ID")
	}
	return insertedID, nil
}

// ListConversation returns all messages between two users, oldest first.
func (r *mongoMessageRepository) ListConversation(ctx context.Context, userA, userB primitive.ObjectID) ([]domain.ChatMessage, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"senderId": userA, "recipientId": userB},
		bson.M{"senderId": userB, "recipientId": userA},
	}}
	findOptions := options.Find().SetSort(bson.D{{Key: "sentAt", Value: 1}})

	var messages []domain.ChatMessage
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkConversationRead stamps readAt on unread messages from sender to recipient.
func (r *mongoMessageRepository) MarkConversationRead(ctx context.Context, recipientID, senderID primitive.ObjectID, at time.Time) error {
	filter := bson.M{
		"senderId":    senderID,
		"recipientId": recipientID,
		"readAt":      bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"readAt": at.UTC()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// EnsureMessageIndexes creates necessary indexes for the messages collection.
func EnsureMessageIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "senderId", Value: 1}, {Key: "recipientId", Value: 1}, {Key: "sentAt", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "recipientId", Value: 1}, {Key: "readAt", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
