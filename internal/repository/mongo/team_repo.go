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

const teamCollectionName = "teams"

type mongoTeamRepository struct {
	collection *mongo.Collection
}

// NewMongoTeamRepository creates a new Team repository backed by MongoDB.
func NewMongoTeamRepository(db *mongo.Database) repository.TeamRepository {
	return &mongoTeamRepository{
		collection: db.Collection(teamCollectionName),
	}
}

func (r *mongoTeamRepository) Create(ctx context.Context, team *domain.Team) (primitive.ObjectID, error) {
	if team.Name == "" {
		return primitive.NilObjectID, errors.New("team name is required")
	}

	team.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	team.CreatedAt = now
	team.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, team); err != nil {
		return primitive.NilObjectID, err
	}
	return team.ID, nil
}

func (r *mongoTeamRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Team, error) {
	var team domain.Team
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&team); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &team, nil
}

// ListVisible applies the visibility rule in the query: public teams, or teams
// the requester is a member of.
func (r *mongoTeamRepository) ListVisible(ctx context.Context, memberTeamIDs []primitive.ObjectID, search string) ([]domain.Team, error) {
	if memberTeamIDs == nil {
		memberTeamIDs = []primitive.ObjectID{}
	}
	visible := bson.M{"$or": bson.A{
		bson.M{"isPrivate": false},
		bson.M{"_id": bson.M{"$in": memberTeamIDs}},
	}}

	query := visible
	if search != "" {
		query = bson.M{"$and": bson.A{
			visible,
			bson.M{"$or": bson.A{
				bson.M{"name": caseInsensitive(search)},
				bson.M{"description": caseInsensitive(search)},
			}},
		}}
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Team](ctx, cursor)
}

// Update modifies name, description and privacy. The creator never changes.
func (r *mongoTeamRepository) Update(ctx context.Context, team *domain.Team) error {
	team.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":        team.Name,
			"description": team.Description,
			"isPrivate":   team.IsPrivate,
			"updatedAt":   team.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": team.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTeamRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTeamRepository) CountByCreator(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"createdBy": userID})
}

func teamIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isPrivate", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}
}
