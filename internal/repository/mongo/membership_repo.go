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

const membershipCollectionName = "team_memberships"

type mongoMembershipRepository struct {
	collection *mongo.Collection
}

// NewMongoMembershipRepository creates a new TeamMembership repository backed by MongoDB.
func NewMongoMembershipRepository(db *mongo.Database) repository.MembershipRepository {
	return &mongoMembershipRepository{
		collection: db.Collection(membershipCollectionName),
	}
}

// Create inserts a membership. The unique (userId, teamId) index turns a second
// membership for the same pair into repository.ErrDuplicate.
func (r *mongoMembershipRepository) Create(ctx context.Context, m *domain.TeamMembership) (primitive.ObjectID, error) {
	if m.UserID == primitive.NilObjectID || m.TeamID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("membership requires userId and teamId")
	}

	m.ID = primitive.NewObjectID()
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return m.ID, nil
}

func (r *mongoMembershipRepository) Get(ctx context.Context, teamID, userID primitive.ObjectID) (*domain.TeamMembership, error) {
	var m domain.TeamMembership
	if err := r.collection.FindOne(ctx, bson.M{"teamId": teamID, "userId": userID}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *mongoMembershipRepository) list(ctx context.Context, filter bson.M) ([]domain.TeamMembership, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.TeamMembership](ctx, cursor)
}

func (r *mongoMembershipRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.TeamMembership, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *mongoMembershipRepository) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]domain.TeamMembership, error) {
	return r.list(ctx, bson.M{"teamId": teamID})
}

func (r *mongoMembershipRepository) ListByTeams(ctx context.Context, teamIDs []primitive.ObjectID) ([]domain.TeamMembership, error) {
	if len(teamIDs) == 0 {
		return []domain.TeamMembership{}, nil
	}
	return r.list(ctx, bson.M{"teamId": bson.M{"$in": teamIDs}})
}

func (r *mongoMembershipRepository) UpdateRole(ctx context.Context, teamID, userID primitive.ObjectID, role domain.TeamRole) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"teamId": teamID, "userId": userID},
		bson.M{"$set": bson.M{"role": role}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoMembershipRepository) Delete(ctx context.Context, teamID, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"teamId": teamID, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoMembershipRepository) DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"teamId": teamID})
	return err
}

func (r *mongoMembershipRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

func membershipIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "teamId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "teamId", Value: 1}, {Key: "joinedAt", Value: 1}},
			Options: options.Index(),
		},
	}
}
