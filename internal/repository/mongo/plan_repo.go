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
)

const planCollectionName = "treatment_plans"

// mongoTreatmentPlanRepository implements repository.TreatmentPlanRepository
type mongoTreatmentPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoTreatmentPlanRepository creates a new TreatmentPlan repository.
func NewMongoTreatmentPlanRepository(db *mongo.Database) repository.TreatmentPlanRepository {
	return &mongoTreatmentPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new treatment plan.
func (r *mongoTreatmentPlanRepository) Create(ctx context.Context, plan *domain.TreatmentPlan) (primitive.ObjectID, error) {
	if plan.TherapistID == primitive.NilObjectID || plan.Name == "" || len(plan.ExerciseIDs) == 0 {
		return primitive.NilObjectID, errors.New("plan requires therapistId, name and at least one exercise")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a treatment plan by its ID.
func (r *mongoTreatmentPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TreatmentPlan, error) {
	var plan domain.TreatmentPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByTherapistID retrieves all plans owned by a therapist.
func (r *mongoTreatmentPlanRepository) GetByTherapistID(ctx context.Context, therapistID primitive.ObjectID) ([]domain.TreatmentPlan, error) {
	filter := bson.M{"therapistId": therapistID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.TreatmentPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// EnsureTreatmentPlanIndexes creates the indexes for the treatment_plans collection.
func EnsureTreatmentPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "therapistId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
