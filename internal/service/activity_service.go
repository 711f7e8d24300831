package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/metrics"
	"octofit/tracker-api/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const statisticsPeriodDays = 30

// LogActivityInput carries a new activity. Nil calories or points are derived
// from the exercise type.
type LogActivityInput struct {
	ExerciseTypeID  primitive.ObjectID
	DurationMinutes int
	Date            *time.Time // today when nil
	Notes           string
	CaloriesBurned  *int
	Points          *int
}

// ActivityUpdate holds the activity fields to change. Nil means unchanged.
// ResetScore drops the stored calories and points so they are derived again;
// values supplied in the same update still win.
type ActivityUpdate struct {
	ExerciseTypeID  *primitive.ObjectID
	DurationMinutes *int
	Date            *time.Time
	Notes           *string
	CaloriesBurned  *int
	Points          *int
	ResetScore      bool
}

type ActivityListFilter struct {
	ExerciseTypeID *primitive.ObjectID
	Date           *time.Time
	StartDate      *time.Time
	EndDate        *time.Time
	Category       domain.Category
}

type CategoryStatistics struct {
	Category        domain.Category `json:"category"`
	Count           int             `json:"count"`
	CaloriesBurned  int             `json:"caloriesBurned"`
	DurationMinutes int             `json:"durationMinutes"`
	Points          int             `json:"points"`
}

type ActivityStatistics struct {
	PeriodDays           int                  `json:"periodDays"`
	Since                time.Time            `json:"since"`
	TotalActivities      int                  `json:"totalActivities"`
	TotalCaloriesBurned  int                  `json:"totalCaloriesBurned"`
	TotalPoints          int                  `json:"totalPoints"`
	TotalDurationMinutes int                  `json:"totalDurationMinutes"`
	ByCategory           []CategoryStatistics `json:"byCategory"`
}

// categoryUnknown labels totals whose exercise type no longer resolves.
const categoryUnknown domain.Category = "unknown"

type ActivityService interface {
	LogActivity(ctx context.Context, userID primitive.ObjectID, in LogActivityInput) (*domain.Activity, error)
	GetActivity(ctx context.Context, userID, activityID primitive.ObjectID) (*domain.Activity, error)
	ListActivities(ctx context.Context, userID primitive.ObjectID, filter ActivityListFilter) ([]domain.Activity, error)
	UpdateActivity(ctx context.Context, userID, activityID primitive.ObjectID, upd ActivityUpdate) (*domain.Activity, error)
	DeleteActivity(ctx context.Context, userID, activityID primitive.ObjectID) error
	Statistics(ctx context.Context, userID primitive.ObjectID, now time.Time) (*ActivityStatistics, error)
}

type activityService struct {
	activityRepo     repository.ActivityRepository
	exerciseTypeRepo repository.ExerciseTypeRepository
	metrics          *metrics.Manager
	now              func() time.Time
}

func NewActivityService(
	activityRepo repository.ActivityRepository,
	exerciseTypeRepo repository.ExerciseTypeRepository,
	metricsManager *metrics.Manager,
) ActivityService {
	return &activityService{
		activityRepo:     activityRepo,
		exerciseTypeRepo: exerciseTypeRepo,
		metrics:          metricsManager,
		now:              time.Now,
	}
}

// LogActivity records an activity for userID and scores it.
func (s *activityService) LogActivity(ctx context.Context, userID primitive.ObjectID, in LogActivityInput) (*domain.Activity, error) {
	// 1. Validate Input
	if err := domain.ValidateDuration(in.DurationMinutes); err != nil {
		return nil, err
	}
	if err := domain.ValidateScore(in.CaloriesBurned, in.Points); err != nil {
		return nil, err
	}

	// 2. Resolve the exercise type (needed for scoring)
	et, err := s.exerciseTypeRepo.GetByID(ctx, in.ExerciseTypeID)
	if err != nil {
		return nil, notFound(err, "exercise type %s", in.ExerciseTypeID.Hex())
	}

	// 3. Build and score the activity
	date := s.now()
	if in.Date != nil {
		date = *in.Date
	}
	activity := &domain.Activity{
		UserID:          userID,
		ExerciseTypeID:  in.ExerciseTypeID,
		DurationMinutes: in.DurationMinutes,
		CaloriesBurned:  in.CaloriesBurned,
		Points:          in.Points,
		Date:            domain.CalendarDay(date),
		Notes:           in.Notes,
	}
	if err := domain.Score(activity, et); err != nil {
		return nil, err
	}

	// 4. Persist; ID and timestamps are set by the repository
	if _, err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}

	s.metrics.CounterActivitiesLogged.Inc()
	s.metrics.CounterPointsAwarded.Add(float64(activity.PointsValue()))
	log.WithFields(log.Fields{
		"activity_id": activity.ID.Hex(),
		"user_id":     userID.Hex(),
		"calories":    activity.CaloriesValue(),
		"points":      activity.PointsValue(),
	}).Info("activity logged")

	return activity, nil
}

func (s *activityService) ownedActivity(ctx context.Context, userID, activityID primitive.ObjectID) (*domain.Activity, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, notFound(err, "activity %s", activityID.Hex())
	}
	if activity.UserID != userID {
		return nil, fmt.Errorf("%w: activity %s belongs to another user", domain.ErrForbidden, activityID.Hex())
	}
	return activity, nil
}

func (s *activityService) GetActivity(ctx context.Context, userID, activityID primitive.ObjectID) (*domain.Activity, error) {
	return s.ownedActivity(ctx, userID, activityID)
}

// ListActivities returns the user's activities, newest first. A category
// filter is resolved to the exercise types of that category.
func (s *activityService) ListActivities(ctx context.Context, userID primitive.ObjectID, filter ActivityListFilter) ([]domain.Activity, error) {
	if filter.StartDate != nil && filter.EndDate != nil && domain.CalendarDay(*filter.StartDate).After(domain.CalendarDay(*filter.EndDate)) {
		return nil, validation("startDate must not be after endDate")
	}

	repoFilter := repository.ActivityFilter{
		Date:      filter.Date,
		StartDate: filter.StartDate,
		EndDate:   filter.EndDate,
	}
	if filter.ExerciseTypeID != nil {
		repoFilter.ExerciseTypeIDs = []primitive.ObjectID{*filter.ExerciseTypeID}
	}

	if filter.Category != "" {
		if !filter.Category.Valid() {
			return nil, validation("unknown category %q", string(filter.Category))
		}
		types, err := s.exerciseTypeRepo.List(ctx, repository.ExerciseTypeFilter{Category: filter.Category})
		if err != nil {
			return nil, err
		}
		inCategory := make([]primitive.ObjectID, 0, len(types))
		for _, et := range types {
			if filter.ExerciseTypeID == nil || et.ID == *filter.ExerciseTypeID {
				inCategory = append(inCategory, et.ID)
			}
		}
		repoFilter.ExerciseTypeIDs = inCategory
	}

	return s.activityRepo.ListByUser(ctx, userID, repoFilter)
}

// UpdateActivity applies upd and re-runs scoring. Stored calories and points
// are kept unless ResetScore is set or new values are supplied.
func (s *activityService) UpdateActivity(ctx context.Context, userID, activityID primitive.ObjectID, upd ActivityUpdate) (*domain.Activity, error) {
	activity, err := s.ownedActivity(ctx, userID, activityID)
	if err != nil {
		return nil, err
	}

	if upd.DurationMinutes != nil {
		if err := domain.ValidateDuration(*upd.DurationMinutes); err != nil {
			return nil, err
		}
		activity.DurationMinutes = *upd.DurationMinutes
	}
	if err := domain.ValidateScore(upd.CaloriesBurned, upd.Points); err != nil {
		return nil, err
	}

	var et *domain.ExerciseType
	if upd.ExerciseTypeID != nil {
		et, err = s.exerciseTypeRepo.GetByID(ctx, *upd.ExerciseTypeID)
		if err != nil {
			return nil, notFound(err, "exercise type %s", upd.ExerciseTypeID.Hex())
		}
		activity.ExerciseTypeID = *upd.ExerciseTypeID
	}
	if upd.Date != nil {
		activity.Date = domain.CalendarDay(*upd.Date)
	}
	if upd.Notes != nil {
		activity.Notes = *upd.Notes
	}

	if upd.ResetScore {
		activity.ResetScore()
	}
	if upd.CaloriesBurned != nil {
		activity.CaloriesBurned = upd.CaloriesBurned
	}
	if upd.Points != nil {
		activity.Points = upd.Points
	}

	if et == nil && (activity.CaloriesBurned == nil || activity.Points == nil) {
		et, err = s.exerciseTypeRepo.GetByID(ctx, activity.ExerciseTypeID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// a dangling reference leaves et nil and Score reports it
	}
	if err := domain.Score(activity, et); err != nil {
		return nil, err
	}

	if err := s.activityRepo.Update(ctx, activity); err != nil {
		return nil, notFound(err, "activity %s", activityID.Hex())
	}
	return activity, nil
}

func (s *activityService) DeleteActivity(ctx context.Context, userID, activityID primitive.ObjectID) error {
	if _, err := s.ownedActivity(ctx, userID, activityID); err != nil {
		return err
	}
	if err := s.activityRepo.Delete(ctx, activityID, userID); err != nil {
		return notFound(err, "activity %s", activityID.Hex())
	}
	return nil
}

// Statistics sums the user's activities of the last 30 days, overall and per
// exercise category.
func (s *activityService) Statistics(ctx context.Context, userID primitive.ObjectID, now time.Time) (*ActivityStatistics, error) {
	since := domain.CalendarDay(now).AddDate(0, 0, -statisticsPeriodDays)

	totals, err := s.activityRepo.TotalsByExerciseType(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	typeIDs := make([]primitive.ObjectID, len(totals))
	for i, t := range totals {
		typeIDs[i] = t.ExerciseTypeID
	}
	types, err := s.exerciseTypeRepo.GetByIDs(ctx, typeIDs)
	if err != nil {
		return nil, err
	}

	stats := &ActivityStatistics{PeriodDays: statisticsPeriodDays, Since: since}
	byCategory := make(map[domain.Category]*CategoryStatistics)
	for _, t := range totals {
		stats.TotalActivities += t.Count
		stats.TotalCaloriesBurned += t.CaloriesBurned
		stats.TotalPoints += t.Points
		stats.TotalDurationMinutes += t.DurationMinutes

		category := categoryUnknown
		if et, ok := types[t.ExerciseTypeID]; ok {
			category = et.Category
		}
		cs, ok := byCategory[category]
		if !ok {
			cs = &CategoryStatistics{Category: category}
			byCategory[category] = cs
		}
		cs.Count += t.Count
		cs.CaloriesBurned += t.CaloriesBurned
		cs.DurationMinutes += t.DurationMinutes
		cs.Points += t.Points
	}

	stats.ByCategory = make([]CategoryStatistics, 0, len(byCategory))
	for _, cs := range byCategory {
		stats.ByCategory = append(stats.ByCategory, *cs)
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		return stats.ByCategory[i].Category < stats.ByCategory[j].Category
	})
	return stats, nil
}
