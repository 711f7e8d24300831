package mongo

import (
	"context"
	"errors"
	"time"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const exerciseTypeCollectionName = "exercise_types"

// mongoExerciseTypeRepository implements repository.ExerciseTypeRepository
type mongoExerciseTypeRepository struct {
	collection *mongo.Collection
}

// NewMongoExerciseTypeRepository creates a catalog repository backed by MongoDB.
func NewMongoExerciseTypeRepository(db *mongo.Database) repository.ExerciseTypeRepository {
	return &mongoExerciseTypeRepository{
		collection: db.Collection(exerciseTypeCollectionName),
	}
}

// Create inserts a new exercise type into the catalog.
func (r *mongoExerciseTypeRepository) Create(ctx context.Context, et *domain.ExerciseType) (primitive.ObjectID, error) {
	if et.Name == "" {
		return primitive.NilObjectID, errors.New("exercise type name is required")
	}

	et.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	et.CreatedAt = now
	et.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, et); err != nil {
		return primitive.NilObjectID, err
	}
	return et.ID, nil
}

// GetByID retrieves an exercise type by its ID.
func (r *mongoExerciseTypeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseType, error) {
	var et domain.ExerciseType
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&et); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &et, nil
}

// GetByIDs loads several exercise types at once, keyed by ID. Unknown IDs are skipped.
func (r *mongoExerciseTypeRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.ExerciseType, error) {
	out := make(map[primitive.ObjectID]domain.ExerciseType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	types, err := decodeAll[domain.ExerciseType](ctx, cursor)
	if err != nil {
		return nil, err
	}
	for _, et := range types {
		out[et.ID] = et
	}
	return out, nil
}

// List returns the catalog sorted by name.
func (r *mongoExerciseTypeRepository) List(ctx context.Context, filter repository.ExerciseTypeFilter) ([]domain.ExerciseType, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"name": caseInsensitive(filter.Search)},
			bson.M{"description": caseInsensitive(filter.Search)},
			bson.M{"category": caseInsensitive(filter.Search)},
		}
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.ExerciseType](ctx, cursor)
}

// Update modifies an existing exercise type.
func (r *mongoExerciseTypeRepository) Update(ctx context.Context, et *domain.ExerciseType) error {
	if et.ID == primitive.NilObjectID {
		return errors.New("exercise type ID is required for update")
	}

	et.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":            et.Name,
			"description":     et.Description,
			"category":        et.Category,
			"difficulty":      et.Difficulty,
			"caloriesPerHour": et.CaloriesPerHour,
			"instructions":    et.Instructions,
			"videoUrl":        et.VideoURL,
			"imageKey":        et.ImageKey,
			"updatedAt":       et.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": et.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an exercise type. Callers check references first.
func (r *mongoExerciseTypeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func exerciseTypeIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index(),
		},
	}
}
