package service

import (
	"context"
	"fmt"
	"strings"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/repository"
	"octofit/tracker-api/internal/storage"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const exerciseImagePrefix = "exercise-images"

type ExerciseTypeInput struct {
	Name            string
	Description     string
	Category        domain.Category
	Difficulty      domain.Difficulty
	CaloriesPerHour int
	Instructions    string
	VideoURL        string
}

// ExerciseTypeUpdate holds catalog fields to change. Nil means unchanged.
type ExerciseTypeUpdate struct {
	Name            *string
	Description     *string
	Category        *domain.Category
	Difficulty      *domain.Difficulty
	CaloriesPerHour *int
	Instructions    *string
	VideoURL        *string
}

// ExerciseTypeDetails is a catalog entry with a temporary URL for its image.
type ExerciseTypeDetails struct {
	domain.ExerciseType
	ImageURL *string `json:"imageUrl,omitempty"`
}

type ExerciseTypeService interface {
	CreateExerciseType(ctx context.Context, in ExerciseTypeInput) (*ExerciseTypeDetails, error)
	GetExerciseType(ctx context.Context, id primitive.ObjectID) (*ExerciseTypeDetails, error)
	ListExerciseTypes(ctx context.Context, filter repository.ExerciseTypeFilter) ([]ExerciseTypeDetails, error)
	UpdateExerciseType(ctx context.Context, id primitive.ObjectID, upd ExerciseTypeUpdate) (*ExerciseTypeDetails, error)
	DeleteExerciseType(ctx context.Context, id primitive.ObjectID) error
	RequestExerciseImageUpload(ctx context.Context, id primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmExerciseImage(ctx context.Context, id primitive.ObjectID, objectKey string) (*ExerciseTypeDetails, error)
}

type exerciseTypeService struct {
	exerciseTypeRepo repository.ExerciseTypeRepository
	activityRepo     repository.ActivityRepository
	planRepo         repository.WorkoutPlanRepository
	fileStorage      storage.FileStorage // nil when uploads are disabled
}

func NewExerciseTypeService(
	exerciseTypeRepo repository.ExerciseTypeRepository,
	activityRepo repository.ActivityRepository,
	planRepo repository.WorkoutPlanRepository,
	fileStorage storage.FileStorage,
) ExerciseTypeService {
	return &exerciseTypeService{
		exerciseTypeRepo: exerciseTypeRepo,
		activityRepo:     activityRepo,
		planRepo:         planRepo,
		fileStorage:      fileStorage,
	}
}

func (s *exerciseTypeService) details(ctx context.Context, et domain.ExerciseType) ExerciseTypeDetails {
	out := ExerciseTypeDetails{ExerciseType: et}
	if et.ImageKey == "" || s.fileStorage == nil {
		return out
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, et.ImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		log.Warnf("presign exercise image %s: %s", et.ImageKey, err)
		return out
	}
	out.ImageURL = &url
	return out
}

func (s *exerciseTypeService) CreateExerciseType(ctx context.Context, in ExerciseTypeInput) (*ExerciseTypeDetails, error) {
	et := &domain.ExerciseType{
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Category:        in.Category,
		Difficulty:      in.Difficulty,
		CaloriesPerHour: in.CaloriesPerHour,
		Instructions:    in.Instructions,
		VideoURL:        in.VideoURL,
	}
	if err := et.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.exerciseTypeRepo.Create(ctx, et); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"exercise_type_id": et.ID.Hex(), "name": et.Name}).Info("exercise type created")

	out := s.details(ctx, *et)
	return &out, nil
}

func (s *exerciseTypeService) GetExerciseType(ctx context.Context, id primitive.ObjectID) (*ExerciseTypeDetails, error) {
	et, err := s.exerciseTypeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "exercise type %s", id.Hex())
	}
	out := s.details(ctx, *et)
	return &out, nil
}

func (s *exerciseTypeService) ListExerciseTypes(ctx context.Context, filter repository.ExerciseTypeFilter) ([]ExerciseTypeDetails, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, validation("unknown category %q", string(filter.Category))
	}
	filter.Search = strings.TrimSpace(filter.Search)

	types, err := s.exerciseTypeRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ExerciseTypeDetails, len(types))
	for i, et := range types {
		out[i] = s.details(ctx, et)
	}
	return out, nil
}

// UpdateExerciseType edits a catalog entry. Activities already scored keep
// their stored calories and points.
func (s *exerciseTypeService) UpdateExerciseType(ctx context.Context, id primitive.ObjectID, upd ExerciseTypeUpdate) (*ExerciseTypeDetails, error) {
	et, err := s.exerciseTypeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "exercise type %s", id.Hex())
	}

	if upd.Name != nil {
		et.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		et.Description = *upd.Description
	}
	if upd.Category != nil {
		et.Category = *upd.Category
	}
	if upd.Difficulty != nil {
		et.Difficulty = *upd.Difficulty
	}
	if upd.CaloriesPerHour != nil {
		et.CaloriesPerHour = *upd.CaloriesPerHour
	}
	if upd.Instructions != nil {
		et.Instructions = *upd.Instructions
	}
	if upd.VideoURL != nil {
		et.VideoURL = *upd.VideoURL
	}
	if err := et.Validate(); err != nil {
		return nil, err
	}

	if err := s.exerciseTypeRepo.Update(ctx, et); err != nil {
		return nil, notFound(err, "exercise type %s", id.Hex())
	}
	out := s.details(ctx, *et)
	return &out, nil
}

// DeleteExerciseType removes a catalog entry unless an activity or a workout
// plan still references it.
func (s *exerciseTypeService) DeleteExerciseType(ctx context.Context, id primitive.ObjectID) error {
	et, err := s.exerciseTypeRepo.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "exercise type %s", id.Hex())
	}

	// Logged activities and plans keep referencing the type, so it must be unused
	activities, err := s.activityRepo.CountByExerciseType(ctx, id)
	if err != nil {
		return err
	}
	if activities > 0 {
		return fmt.Errorf("%w: exercise type %s is referenced by %d activities", domain.ErrConflict, id.Hex(), activities)
	}
	plans, err := s.planRepo.CountByExerciseType(ctx, id)
	if err != nil {
		return err
	}
	if plans > 0 {
		return fmt.Errorf("%w: exercise type %s is used in %d workout plans", domain.ErrConflict, id.Hex(), plans)
	}

	if err := s.exerciseTypeRepo.Delete(ctx, id); err != nil {
		return notFound(err, "exercise type %s", id.Hex())
	}

	if et.ImageKey != "" && s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, et.ImageKey); err != nil {
			log.Warnf("remove image of deleted exercise type %s: %s", id.Hex(), err)
		}
	}
	log.WithField("exercise_type_id", id.Hex()).Info("exercise type deleted")
	return nil
}

func (s *exerciseTypeService) RequestExerciseImageUpload(ctx context.Context, id primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if s.fileStorage == nil {
		return nil, ErrUploadsDisabled
	}
	if _, err := s.exerciseTypeRepo.GetByID(ctx, id); err != nil {
		return nil, notFound(err, "exercise type %s", id.Hex())
	}
	return requestImageUpload(ctx, s.fileStorage, exerciseImagePrefix, id.Hex(), contentType)
}

func (s *exerciseTypeService) ConfirmExerciseImage(ctx context.Context, id primitive.ObjectID, objectKey string) (*ExerciseTypeDetails, error) {
	if s.fileStorage == nil {
		return nil, ErrUploadsDisabled
	}
	if !storage.KeyBelongsTo(objectKey, exerciseImagePrefix, id.Hex()) {
		return nil, validation("object key %q was not issued for this exercise type", objectKey)
	}

	et, err := s.exerciseTypeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "exercise type %s", id.Hex())
	}

	previous := et.ImageKey
	et.ImageKey = objectKey
	if err := s.exerciseTypeRepo.Update(ctx, et); err != nil {
		return nil, notFound(err, "exercise type %s", id.Hex())
	}
	if previous != "" && previous != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, previous); err != nil {
			log.Warnf("remove previous exercise image %s: %s", previous, err)
		}
	}

	out := s.details(ctx, *et)
	return &out, nil
}
