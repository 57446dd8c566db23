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

const assignmentCollectionName = "assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if assignment.PatientID == primitive.NilObjectID || assignment.TherapistID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires patientId and therapistId")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByPatientID retrieves all assignments for a patient, newest first.
func (r *mongoAssignmentRepository) GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.Assignment, error) {
	return r.find(ctx, bson.M{"patientId": patientID})
}

// GetByTherapistID retrieves all assignments created by a therapist, newest first.
func (r *mongoAssignmentRepository) GetByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Assignment, error) {
	return r.find(ctx, bson.M{"therapistId": therapistID})
}

func (r *mongoAssignmentRepository) find(ctx context.Context, filter bson.M) ([]domain.Assignment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.Assignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// Update persists the mutable fields of an assignment. The patient, the
// therapist and the plan reference are fixed at creation and deliberately
// excluded from the update document.
func (r *mongoAssignmentRepository) Update(ctx context.Context, assignment *domain.Assignment) error {
	if assignment.ID == primitive.NilObjectID {
		return errors.New("assignment ID is required for update")
	}

	filter := bson.M{"_id": assignment.ID}
	update := bson.M{"$set": bson.M{
		"startDate":  assignment.StartDate,
		"endDate":    assignment.EndDate,
		"activeDays": assignment.ActiveDays,
		"status":     assignment.Status,
		"notes":      assignment.Notes,
		"updatedAt":  time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ExpireStale bulk-flips active assignments whose end date lies before
// today. The predicate makes the update idempotent: a redundant or
// concurrent run matches nothing and changes nothing.
func (r *mongoAssignmentRepository) ExpireStale(ctx context.Context, today time.Time) (int64, error) {
	filter := bson.M{
		"status":  domain.StatusActive,
		"endDate": bson.M{"$lt": schedule.Day(today)},
	}
	update := bson.M{"$set": bson.M{
		"status":    domain.StatusExpired,
		"updatedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsureAssignmentIndexes creates the indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "therapistId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Serves the expiry sweep's predicate.
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
