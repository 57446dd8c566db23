package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"physiotrack/practice-app/internal/apperr"
	"physiotrack/practice-app/internal/domain"
	"physiotrack/practice-app/internal/repository"
	"physiotrack/practice-app/internal/storage"
)

// --- Error Definitions ---
var (
	ErrExerciseNotFound     = apperr.NotFound("exercise not found")
	ErrExerciseAccessDenied = apperr.Authorization("exercise is owned by another therapist")
	ErrNoDemoVideo          = apperr.NotFound("exercise has no demo video")
)

// VideoUploadResponse carries the presigned PUT URL and the object key the
// client reports back on confirmation.
type VideoUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// ExerciseService manages the therapist's exercise library and the demo
// video media flow.
type ExerciseService interface {
	CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error)
	GetTherapistExercises(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, therapistID primitive.ObjectID, exercise *domain.Exercise) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, therapistID, exerciseID primitive.ObjectID) error

	RequestVideoUploadURL(ctx context.Context, therapistID, exerciseID primitive.ObjectID, contentType string) (*VideoUploadResponse, error)
	ConfirmVideoUpload(ctx context.Context, therapistID, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error)
	GetVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error)
}

type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	media        storage.MediaStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, media storage.MediaStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		media:        media,
	}
}

// CreateExercise adds a new exercise to the therapist's library.
func (s *exerciseService) CreateExercise(ctx context.Context, exercise *domain.Exercise) (*domain.Exercise, error) {
	if exercise.TherapistID == primitive.NilObjectID || exercise.Name == "" {
		return nil, errors.New("therapist ID and exercise name are required")
	}

	id, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	exercise.ID = id
	return exercise, nil
}

// GetTherapistExercises lists the therapist's library.
func (s *exerciseService) GetTherapistExercises(ctx context.Context, therapistID primitive.ObjectID) ([]domain.Exercise, error) {
	if therapistID == primitive.NilObjectID {
		return nil, errors.New("therapist ID is required")
	}
	return s.exerciseRepo.GetByTherapistID(ctx, therapistID)
}

// UpdateExercise modifies an exercise owned by the therapist.
func (s *exerciseService) UpdateExercise(ctx context.Context, therapistID primitive.ObjectID, exercise *domain.Exercise) (*domain.Exercise, error) {
	existing, err := s.getOwned(ctx, therapistID, exercise.ID)
	if err != nil {
		return nil, err
	}

	existing.Name = exercise.Name
	existing.Description = exercise.Description
	existing.BodyRegion = exercise.BodyRegion
	existing.Difficulty = exercise.Difficulty
	existing.Instruction = exercise.Instruction

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteExercise removes an exercise and its demo video, if any.
func (s *exerciseService) DeleteExercise(ctx context.Context, therapistID, exerciseID primitive.ObjectID) error {
	existing, err := s.getOwned(ctx, therapistID, exerciseID)
	if err != nil {
		return err
	}

	if err := s.exerciseRepo.Delete(ctx, exerciseID, therapistID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}

	if existing.VideoObjectKey != "" {
		// Best effort: the library entry is gone either way.
		_ = s.media.DeleteObject(ctx, existing.VideoObjectKey)
	}
	return nil
}

// RequestVideoUploadURL generates a presigned URL for uploading an
// exercise demo video.
func (s *exerciseService) RequestVideoUploadURL(ctx context.Context, therapistID, exerciseID primitive.ObjectID, contentType string) (*VideoUploadResponse, error) {
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return nil, apperr.Validation("invalid or missing video content type")
	}

	if _, err := s.getOwned(ctx, therapistID, exerciseID); err != nil {
		return nil, err
	}

	fileExtension := ""
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("exercise-videos", exerciseID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), fileExtension))

	uploadURL, err := s.media.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &VideoUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmVideoUpload records the uploaded object key on the exercise. The
// previous video, if any, is deleted from the bucket.
func (s *exerciseService) ConfirmVideoUpload(ctx context.Context, therapistID, exerciseID primitive.ObjectID, objectKey string) (*domain.Exercise, error) {
	if objectKey == "" {
		return nil, apperr.Validation("object key is required")
	}

	existing, err := s.getOwned(ctx, therapistID, exerciseID)
	if err != nil {
		return nil, err
	}

	previousKey := existing.VideoObjectKey
	existing.VideoObjectKey = objectKey
	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	if previousKey != "" && previousKey != objectKey {
		_ = s.media.DeleteObject(ctx, previousKey)
	}
	return existing, nil
}

// GetVideoDownloadURL returns a temporary URL for viewing the demo video.
func (s *exerciseService) GetVideoDownloadURL(ctx context.Context, exerciseID primitive.ObjectID) (string, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrExerciseNotFound
		}
		return "", err
	}
	if exercise.VideoObjectKey == "" {
		return "", ErrNoDemoVideo
	}
	return s.media.GeneratePresignedDownloadURL(ctx, exercise.VideoObjectKey, storage.DefaultPresignedURLExpiry)
}

func (s *exerciseService) getOwned(ctx context.Context, therapistID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if exercise.TherapistID != therapistID {
		return nil, ErrExerciseAccessDenied
	}
	return exercise, nil
}
