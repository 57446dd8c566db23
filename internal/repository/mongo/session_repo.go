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

const sessionCollectionName = "treatment_sessions"

// mongoTreatmentSessionRepository implements repository.TreatmentSessionRepository
type mongoTreatmentSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoTreatmentSessionRepository creates a new TreatmentSession repository.
func NewMongoTreatmentSessionRepository(db *mongo.Database) repository.TreatmentSessionRepository {
	return &mongoTreatmentSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new treatment session, stamping LockedAt from CreatedAt.
func (r *mongoTreatmentSessionRepository) Create(ctx context.Context, session *domain.TreatmentSession) (primitive.ObjectID, error) {
	if session.TherapistID == primitive.NilObjectID || session.PatientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session requires therapistId and patientId")
	}

	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.LockedAt = now.Add(domain.SessionEditWindow)
	session.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a session by its ID.
func (r *mongoTreatmentSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TreatmentSession, error) {
	var session domain.TreatmentSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByPatientID retrieves a patient's sessions, newest first.
func (r *mongoTreatmentSessionRepository) GetByPatientID(ctx context.Context, patientID primitive.ObjectID) ([]domain.TreatmentSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"patientId": patientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.TreatmentSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update persists the mutable session fields. CreatedAt and LockedAt are
// fixed at creation and never part of the update document.
func (r *mongoTreatmentSessionRepository) Update(ctx context.Context, session *domain.TreatmentSession) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}

	set := bson.M{
		"status":    session.Status,
		"notes":     session.Notes,
		"updatedAt": time.Now().UTC(),
	}
	if session.ConfirmedAt != nil {
		set["confirmedAt"] = *session.ConfirmedAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureTreatmentSessionIndexes creates the indexes for the treatment_sessions collection.
func EnsureTreatmentSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "therapistId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
