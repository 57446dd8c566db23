package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"physiotrack/practice-app/internal/domain"
	"physiotrack/practice-app/internal/repository"
	"physiotrack/practice-app/internal/schedule"
)

const completionCollectionName = "completions"

// mongoCompletionRepository implements repository.CompletionRepository.
//
// The (assignmentId, completedDate) pair carries a unique index, so the
// insert itself is the uniqueness check: two concurrent attempts for the
// same day produce one row and one duplicate-key error.
type mongoCompletionRepository struct {
	collection *mongo.Collection
}

// NewMongoCompletionRepository creates a new Completion repository backed by MongoDB.
func NewMongoCompletionRepository(db *mongo.Database) repository.CompletionRepository {
	return &mongoCompletionRepository{
		collection: db.Collection(completionCollectionName),
	}
}

// InsertIfAbsent stores the record, mapping a duplicate-key rejection to
// repository.ErrDuplicate.
func (r *mongoCompletionRepository) InsertIfAbsent(ctx context.Context, record *domain.CompletionRecord) (primitive.ObjectID, error) {
	if record.AssignmentID == primitive.NilObjectID || record.PatientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("completion requires assignmentId and patientId")
	}

	record.ID = primitive.NewObjectID()
	record.CompletedDate = schedule.Day(record.CompletedDate)
	record.CompletedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted completion ID")
	}
	return insertedID, nil
}

// ListByAssignment returns every completion for the assignment, newest first.
func (r *mongoCompletionRepository) ListByAssignment(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.CompletionRecord, error) {
	return r.find(ctx, bson.M{"assignmentId": assignmentID})
}

// ListByAssignments returns the completions of several assignments in one
// query, newest first.
func (r *mongoCompletionRepository) ListByAssignments(ctx context.Context, assignmentIDs []primitive.ObjectID) ([]domain.CompletionRecord, error) {
	if len(assignmentIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"assignmentId": bson.M{"$in": assignmentIDs}})
}

func (r *mongoCompletionRepository) find(ctx context.Context, filter bson.M) ([]domain.CompletionRecord, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "completedDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.CompletionRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsureCompletionIndexes creates the indexes for the completions
// collection. The unique compound index is load-bearing: it is what makes
// InsertIfAbsent atomic.
func EnsureCompletionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "assignmentId", Value: 1}, {Key: "completedDate", Value: -1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "completedDate", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
