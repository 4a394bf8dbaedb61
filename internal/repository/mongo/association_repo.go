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

const associationCollectionName = "association_requests"

// mongoAssociationRepository implements repository.AssociationRequestRepository
type mongoAssociationRepository struct {
	collection *mongo.Collection
}

// NewMongoAssociationRepository creates a new request ledger backed by MongoDB.
func NewMongoAssociationRepository(db *mongo.Database) repository.AssociationRequestRepository {
	return &mongoAssociationRepository{
		collection: db.Collection(associationCollectionName),
	}
}

// Create inserts a new pending request into the ledger.
func (r *mongoAssociationRepository) Create(ctx context.Context, req *domain.AssociationRequest) (primitive.ObjectID, error) {
	if req.ClientID == primitive.NilObjectID || req.TargetTrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("association request requires clientId and targetTrainerId")
	}

	req.ID = primitive.NewObjectID()
	req.CreatedAt = time.Now().UTC()
	if req.Status == "" {
		req.Status = domain.RequestPending
	}

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		// The partial unique index on {clientId, status:pending} catches a
		// second pending request racing past the service-level check.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted request ID")
	}

	return insertedID, nil
}

// GetByID retrieves a request by its ID.
func (r *mongoAssociationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.AssociationRequest, error) {
	var req domain.AssociationRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetPendingByClientID retrieves the client's pending request, if any.
func (r *mongoAssociationRepository) GetPendingByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.AssociationRequest, error) {
	var req domain.AssociationRequest
	filter := bson.M{"clientId": clientID, "status": domain.RequestPending}
	err := r.collection.FindOne(ctx, filter).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListPendingByTrainer returns pending requests targeting the trainer, oldest
// first so the trainer works through their queue in submission order.
func (r *mongoAssociationRepository) ListPendingByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.AssociationRequest, error) {
	filter := bson.M{"targetTrainerId": trainerID, "status": domain.RequestPending}
	return r.findMany(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// ListPendingChanges returns all pending trainer-change requests, oldest first.
func (r *mongoAssociationRepository) ListPendingChanges(ctx context.Context) ([]domain.AssociationRequest, error) {
	filter := bson.M{
		"status":           domain.RequestPending,
		"currentTrainerId": bson.M{"$exists": true, "$ne": nil},
	}
	return r.findMany(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

// CountPending counts all pending requests system-wide.
func (r *mongoAssociationRepository) CountPending(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": domain.RequestPending})
}

// ListResolved returns terminal requests, newest resolution first.
func (r *mongoAssociationRepository) ListResolved(ctx context.Context, filter repository.ResolvedRequestFilter) ([]domain.AssociationRequest, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	} else {
		query["status"] = bson.M{"$in": bson.A{domain.RequestApproved, domain.RequestRejected}}
	}
	if filter.TrainerID != nil {
		query["targetTrainerId"] = *filter.TrainerID
	}
	return r.findMany(ctx, query, options.Find().SetSort(bson.D{{Key: "resolvedAt", Value: -1}}))
}

// MarkResolved flips a pending request to a terminal status. The filter pins
// status to pending, making the flip a compare-and-swap: a concurrent
// resolution that already won leaves nothing to match and the caller gets
// ErrStaleState.
func (r *mongoAssociationRepository) MarkResolved(ctx context.Context, id primitive.ObjectID, status domain.RequestStatus, resolvedBy primitive.ObjectID, resolvedAt time.Time) error {
	if !status.IsTerminal() {
		return errors.New("resolution status must be terminal")
	}

	filter := bson.M{"_id": id, "status": domain.RequestPending}
	update := bson.M{"$set": bson.M{
		"status":     status,
		"resolvedAt": resolvedAt.UTC(),
		"resolvedBy": resolvedBy,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish "never existed" from "already terminal".
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrStaleState
	}
	return nil
}

// Delete hard-removes a ledger entry (admin request management only).
func (r *mongoAssociationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoAssociationRepository) findMany(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]domain.AssociationRequest, error) {
	var requests []domain.AssociationRequest
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// EnsureAssociationIndexes creates necessary indexes for the request ledger.
func EnsureAssociationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One pending request per client, enforced at the storage level.
			Keys: bson.D{{Key: "clientId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.RequestPending)}),
		},
		{
			// Trainer review queue
			Keys:    bson.D{{Key: "targetTrainerId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
		{
			// Admin history, newest first
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "resolvedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
