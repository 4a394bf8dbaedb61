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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.Username == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, username, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		// Unique indexes on email and username surface here.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByUsername retrieves a user by their username.
func (r *mongoUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListByRole retrieves all users with the given role, newest first.
func (r *mongoUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.findMany(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// ListUnvalidatedTrainers retrieves trainers still awaiting admin approval,
// oldest first so the admin reviews them in submission order.
func (r *mongoUserRepository) ListUnvalidatedTrainers(ctx context.Context) ([]domain.User, error) {
	filter := bson.M{"role": domain.RoleTrainer, "isValidated": false}
	return r.findMany(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *mongoUserRepository) findMany(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.User, error) {
	var users []domain.User
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetClientsByTrainerID retrieves all client users on a trainer's roster.
func (r *mongoUserRepository) GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	trainer, err := r.GetByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.IsTrainer() {
		return nil, repository.ErrNotFound
	}
	if len(trainer.ClientIDs) == 0 {
		return []domain.User{}, nil
	}
	return r.findMany(ctx, bson.M{"_id": bson.M{"$in": trainer.ClientIDs}})
}

// CountByRole counts users with the given role.
func (r *mongoUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"role": role})
}

// SetValidated flips a trainer's isValidated flag.
func (r *mongoUserRepository) SetValidated(ctx context.Context, trainerID primitive.ObjectID) error {
	filter := bson.M{"_id": trainerID, "role": domain.RoleTrainer}
	update := bson.M{"$set": bson.M{"isValidated": true, "updatedAt": time.Now().UTC()}}
	return r.updateOne(ctx, filter, update)
}

// SetMaxClients changes a trainer's roster ceiling. A ceiling below the
// current roster size is accepted; the guard only blocks new approvals.
func (r *mongoUserRepository) SetMaxClients(ctx context.Context, trainerID primitive.ObjectID, max int) error {
	filter := bson.M{"_id": trainerID, "role": domain.RoleTrainer}
	update := bson.M{"$set": bson.M{"maxClients": max, "updatedAt": time.Now().UTC()}}
	return r.updateOne(ctx, filter, update)
}

// AddClientWithinCapacity adds a client to a trainer's roster only while the
// roster is below the ceiling. The capacity check and the insert are a single
// conditional update on the trainer document, so two concurrent approvals
// cannot both take the last slot.
func (r *mongoUserRepository) AddClientWithinCapacity(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	filter := bson.M{
		"_id":  trainerID,
		"role": domain.RoleTrainer,
		"$expr": bson.M{"$lt": bson.A{
			bson.M{"$size": bson.M{"$ifNull": bson.A{"$clientIds", bson.A{}}}},
			bson.M{"$ifNull": bson.A{"$maxClients", domain.DefaultMaxClients}},
		}},
	}
	update := bson.M{
		"$addToSet": bson.M{"clientIds": clientID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// No match: either the trainer is missing or the roster is full.
	trainer, err := r.GetByID(ctx, trainerID)
	if err != nil {
		return err
	}
	if !trainer.IsTrainer() {
		return repository.ErrNotFound
	}
	for _, id := range trainer.ClientIDs {
		if id == clientID {
			return nil // already on the roster, $addToSet would have been a no-op
		}
	}
	return repository.ErrNoCapacity
}

// RemoveClientFromTrainer removes a client from a trainer's roster.
func (r *mongoUserRepository) RemoveClientFromTrainer(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	filter := bson.M{"_id": trainerID, "role": domain.RoleTrainer}
	update := bson.M{
		"$pull": bson.M{"clientIds": clientID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, filter, update)
}

// SetTrainerForClient sets the TrainerID field for a specific client user.
func (r *mongoUserRepository) SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error {
	filter := bson.M{"_id": clientID, "role": domain.RoleClient}
	update := bson.M{
		"$set": bson.M{
			"trainerId": trainerID,
			"updatedAt": time.Now().UTC(),
		},
	}
	return r.updateOne(ctx, filter, update)
}

// UnsetTrainerForClient clears the TrainerID field for a client.
func (r *mongoUserRepository) UnsetTrainerForClient(ctx context.Context, clientID primitive.ObjectID) error {
	filter := bson.M{"_id": clientID, "role": domain.RoleClient}
	update := bson.M{
		"$unset": bson.M{"trainerId": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, filter, update)
}

// UnsetTrainerForClientsOf clears trainerId on every client coached by the
// given trainer. Run before deleting a trainer account.
func (r *mongoUserRepository) UnsetTrainerForClientsOf(ctx context.Context, trainerID primitive.ObjectID) error {
	filter := bson.M{"role": domain.RoleClient, "trainerId": trainerID}
	update := bson.M{
		"$unset": bson.M{"trainerId": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// Delete removes a user record.
func (r *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}}, // Index for finding clients by trainer
			Options: options.Index().SetSparse(true),      // Sparse because not all users have trainerId
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
