package repository

import (
	"context"
	"time"

	"octofit/tracker-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository persists accounts together with their embedded profile.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateAccount(ctx context.Context, user *domain.User) error
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, profile domain.Profile) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ExerciseTypeFilter narrows catalog listings. Zero values mean "any".
type ExerciseTypeFilter struct {
	Search   string
	Category domain.Category
}

// ExerciseTypeRepository persists the exercise catalog.
type ExerciseTypeRepository interface {
	Create(ctx context.Context, et *domain.ExerciseType) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ExerciseType, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]domain.ExerciseType, error)
	List(ctx context.Context, filter ExerciseTypeFilter) ([]domain.ExerciseType, error)
	Update(ctx context.Context, et *domain.ExerciseType) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ActivityFilter narrows a user's activity listing. Nil/zero fields are ignored.
type ActivityFilter struct {
	ExerciseTypeIDs []primitive.ObjectID // Activities referencing any of these types
	Date            *time.Time
	StartDate       *time.Time // Inclusive
	EndDate         *time.Time // Inclusive
}

// ActivityTotals are sums over a set of activities grouped by exercise type.
type ActivityTotals struct {
	ExerciseTypeID  primitive.ObjectID
	Count           int
	CaloriesBurned  int
	Points          int
	DurationMinutes int
}

// ActivityRepository persists logged activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, filter ActivityFilter) ([]domain.Activity, error)
	Update(ctx context.Context, activity *domain.Activity) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
	// SumPointsByUsers returns the points total of each given user in a single
	// grouped query. Users without activities are absent from the map.
	SumPointsByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error)
	// TotalsByExerciseType sums a user's activities dated on or after since.
	TotalsByExerciseType(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]ActivityTotals, error)
	CountByExerciseType(ctx context.Context, exerciseTypeID primitive.ObjectID) (int64, error)
}

// TeamRepository persists teams.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Team, error)
	// ListVisible returns public teams plus the teams in memberTeamIDs,
	// optionally filtered by a case-insensitive search on name/description.
	ListVisible(ctx context.Context, memberTeamIDs []primitive.ObjectID, search string) ([]domain.Team, error)
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountByCreator(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// MembershipRepository persists team memberships. (userId, teamId) is unique;
// Create returns ErrDuplicate on a second membership for the same pair.
type MembershipRepository interface {
	Create(ctx context.Context, m *domain.TeamMembership) (primitive.ObjectID, error)
	Get(ctx context.Context, teamID, userID primitive.ObjectID) (*domain.TeamMembership, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.TeamMembership, error)
	ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]domain.TeamMembership, error)
	ListByTeams(ctx context.Context, teamIDs []primitive.ObjectID) ([]domain.TeamMembership, error)
	UpdateRole(ctx context.Context, teamID, userID primitive.ObjectID, role domain.TeamRole) error
	Delete(ctx context.Context, teamID, userID primitive.ObjectID) error
	DeleteByTeam(ctx context.Context, teamID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// WorkoutPlanRepository persists workout plans with their embedded exercises.
type WorkoutPlanRepository interface {
	Create(ctx context.Context, plan *domain.WorkoutPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutPlan, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, search string) ([]domain.WorkoutPlan, error)
	Update(ctx context.Context, plan *domain.WorkoutPlan) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
	CountByExerciseType(ctx context.Context, exerciseTypeID primitive.ObjectID) (int64, error)
}
