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

const activityCollectionName = "activities"

// mongoActivityRepository implements repository.ActivityRepository
type mongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new Activity repository backed by MongoDB.
func NewMongoActivityRepository(db *mongo.Database) repository.ActivityRepository {
	return &mongoActivityRepository{
		collection: db.Collection(activityCollectionName),
	}
}

// Create inserts a new activity.
func (r *mongoActivityRepository) Create(ctx context.Context, activity *domain.Activity) (primitive.ObjectID, error) {
	if activity.UserID == primitive.NilObjectID || activity.ExerciseTypeID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("activity requires userId and exerciseTypeId")
	}

	activity.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, activity); err != nil {
		return primitive.NilObjectID, err
	}
	return activity.ID, nil
}

// GetByID retrieves an activity by its ID. Ownership is checked by the caller.
func (r *mongoActivityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	var activity domain.Activity
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&activity); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &activity, nil
}

// ListByUser returns a user's activities, newest date first.
func (r *mongoActivityRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, filter repository.ActivityFilter) ([]domain.Activity, error) {
	query := bson.M{"userId": userID}
	if filter.ExerciseTypeIDs != nil {
		query["exerciseTypeId"] = bson.M{"$in": filter.ExerciseTypeIDs}
	}

	dateRange := bson.M{}
	if filter.Date != nil {
		query["date"] = domain.CalendarDay(*filter.Date)
	}
	if filter.StartDate != nil {
		dateRange["$gte"] = domain.CalendarDay(*filter.StartDate)
	}
	if filter.EndDate != nil {
		dateRange["$lte"] = domain.CalendarDay(*filter.EndDate)
	}
	if len(dateRange) > 0 && filter.Date == nil {
		query["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Activity](ctx, cursor)
}

// Update rewrites the mutable fields of an activity owned by activity.UserID.
func (r *mongoActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == primitive.NilObjectID {
		return errors.New("activity ID is required for update")
	}

	activity.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": activity.ID, "userId": activity.UserID}
	update := bson.M{
		"$set": bson.M{
			"exerciseTypeId":  activity.ExerciseTypeID,
			"durationMinutes": activity.DurationMinutes,
			"caloriesBurned":  activity.CaloriesBurned,
			"points":          activity.Points,
			"date":            activity.Date,
			"notes":           activity.Notes,
			"updatedAt":       activity.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an activity, ensuring it belongs to the specified user.
func (r *mongoActivityRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoActivityRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// SumPointsByUsers groups the activities of the given users and sums their points.
func (r *mongoActivityRepository) SumPointsByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := make(map[primitive.ObjectID]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": bson.M{"$in": userIDs}}}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$userId",
			"points": bson.M{"$sum": "$points"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	rows, err := decodeAll[struct {
		UserID primitive.ObjectID `bson:"_id"`
		Points int                `bson:"points"`
	}](ctx, cursor)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row.Points
	}
	return out, nil
}

// TotalsByExerciseType sums a user's recent activities per exercise type.
func (r *mongoActivityRepository) TotalsByExerciseType(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]repository.ActivityTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"userId": userID,
			"date":   bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":             "$exerciseTypeId",
			"count":           bson.M{"$sum": 1},
			"caloriesBurned":  bson.M{"$sum": "$caloriesBurned"},
			"points":          bson.M{"$sum": "$points"},
			"durationMinutes": bson.M{"$sum": "$durationMinutes"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	rows, err := decodeAll[struct {
		ExerciseTypeID  primitive.ObjectID `bson:"_id"`
		Count           int                `bson:"count"`
		CaloriesBurned  int                `bson:"caloriesBurned"`
		Points          int                `bson:"points"`
		DurationMinutes int                `bson:"durationMinutes"`
	}](ctx, cursor)
	if err != nil {
		return nil, err
	}

	totals := make([]repository.ActivityTotals, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, repository.ActivityTotals{
			ExerciseTypeID:  row.ExerciseTypeID,
			Count:           row.Count,
			CaloriesBurned:  row.CaloriesBurned,
			Points:          row.Points,
			DurationMinutes: row.DurationMinutes,
		})
	}
	return totals, nil
}

func (r *mongoActivityRepository) CountByExerciseType(ctx context.Context, exerciseTypeID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"exerciseTypeId": exerciseTypeID})
}

func activityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			// Listing and statistics: one user's activities by date
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Reference checks before deleting an exercise type
			Keys:    bson.D{{Key: "exerciseTypeId", Value: 1}},
			Options: options.Index(),
		},
	}
}
