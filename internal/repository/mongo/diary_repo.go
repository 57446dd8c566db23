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

const diaryCollectionName = "diary_entries"

// mongoDiaryRepository implements repository.DiaryRepository. Same
// insert-if-absent shape as the completion ledger: one entry per patient
// per day, guarded by a unique index.
type mongoDiaryRepository struct {
	collection *mongo.Collection
}

// NewMongoDiaryRepository creates a new Diary repository backed by MongoDB.
func NewMongoDiaryRepository(db *mongo.Database) repository.DiaryRepository {
	return &mongoDiaryRepository{
		collection: db.Collection(diaryCollectionName),
	}
}

// InsertIfAbsent stores the entry, mapping a duplicate-key rejection to
// repository.ErrDuplicate.
func (r *mongoDiaryRepository) InsertIfAbsent(ctx context.Context, entry *domain.DiaryEntry) (primitive.ObjectID, error) {
	if entry.PatientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("diary entry requires patientId")
	}

	entry.ID = primitive.NewObjectID()
	entry.EntryDate = schedule.Day(entry.EntryDate)
	entry.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted diary entry ID")
	}
	return insertedID, nil
}

// ListByPatient returns a patient's entries, newest first.
func (r *mongoDiaryRepository) ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]domain.DiaryEntry, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "entryDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"patientId": patientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.DiaryEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureDiaryIndexes creates the indexes for the diary_entries collection.
func EnsureDiaryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "entryDate", Value: -1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
