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

const loginTokenCollectionName = "login_tokens"

// mongoLoginTokenRepository implements repository.LoginTokenRepository
type mongoLoginTokenRepository struct {
	collection *mongo.Collection
}

// NewMongoLoginTokenRepository creates a new one-time login token repository.
func NewMongoLoginTokenRepository(db *mongo.Database) repository.LoginTokenRepository {
	return &mongoLoginTokenRepository{
		collection: db.Collection(loginTokenCollectionName),
	}
}

// Create inserts a new login token.
func (r *mongoLoginTokenRepository) Create(ctx context.Context, token *domain.LoginToken) (primitive.ObjectID, error) {
	if token.Token == "" || token.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("login token requires token and userId")
	}

	token.ID = primitive.NewObjectID()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, token)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted token ID")
	}
	return insertedID, nil
}

// Consume marks a token used and returns it. The filter pins usedAt to unset
// and expiresAt to the future, so a token can be exchanged at most once: the
// second of two concurrent exchanges matches nothing.
func (r *mongoLoginTokenRepository) Consume(ctx context.Context, token string, now time.Time) (*domain.LoginToken, error) {
	filter := bson.M{
		"token":     token,
		"usedAt":    bson.M{"$exists": false},
		"expiresAt": bson.M{"$gt": now.UTC()},
	}
	update := bson.M{"$set": bson.M{"usedAt": now.UTC()}}

	var consumed domain.LoginToken
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&consumed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Already used tokens get a distinct error so the caller can log
			// a possible replay.
			var existing domain.LoginToken
			getErr := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&existing)
			if getErr == nil && existing.UsedAt != nil {
				return nil, repository.ErrStaleState
			}
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &consumed, nil
}

// EnsureLoginTokenIndexes creates necessary indexes for the login tokens collection.
func EnsureLoginTokenIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// TTL cleanup of expired tokens
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
