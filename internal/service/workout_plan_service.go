package service

import (
	"context"
	"fmt"
	"strings"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanInput struct {
	Name        string
	Description string
	Difficulty  domain.Difficulty // beginner when empty
}

// PlanUpdate holds plan fields to change. Nil means unchanged.
type PlanUpdate struct {
	Name        *string
	Description *string
	Difficulty  *domain.Difficulty
}

type PlanExerciseInput struct {
	ExerciseTypeID  primitive.ObjectID
	Sets            *int
	Reps            *int
	DurationMinutes *int
	Order           *int
	Notes           string
}

// PlanExerciseUpdate holds plan exercise fields to change. Nil means unchanged.
type PlanExerciseUpdate struct {
	Sets            *int
	Reps            *int
	DurationMinutes *int
	Order           *int
	Notes           *string
}

type WorkoutPlanService interface {
	CreatePlan(ctx context.Context, userID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error)
	ListPlans(ctx context.Context, userID primitive.ObjectID, search string) ([]domain.WorkoutPlan, error)
	GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error)
	UpdatePlan(ctx context.Context, userID, planID primitive.ObjectID, upd PlanUpdate) (*domain.WorkoutPlan, error)
	DeletePlan(ctx context.Context, userID, planID primitive.ObjectID) error

	AddPlanExercise(ctx context.Context, userID, planID primitive.ObjectID, in PlanExerciseInput) (*domain.WorkoutPlan, error)
	UpdatePlanExercise(ctx context.Context, userID, planID, exerciseID primitive.ObjectID, upd PlanExerciseUpdate) (*domain.WorkoutPlan, error)
	RemovePlanExercise(ctx context.Context, userID, planID, exerciseID primitive.ObjectID) (*domain.WorkoutPlan, error)
}

type workoutPlanService struct {
	planRepo         repository.WorkoutPlanRepository
	exerciseTypeRepo repository.ExerciseTypeRepository
}

func NewWorkoutPlanService(planRepo repository.WorkoutPlanRepository, exerciseTypeRepo repository.ExerciseTypeRepository) WorkoutPlanService {
	return &workoutPlanService{
		planRepo:         planRepo,
		exerciseTypeRepo: exerciseTypeRepo,
	}
}

func validatePlanName(name string) error {
	if name == "" {
		return validation("plan name is required")
	}
	if len(name) > 100 {
		return validation("plan name must be at most 100 characters")
	}
	return nil
}

func validatePositive(field string, v *int) error {
	if v != nil && *v <= 0 {
		return validation("%s must be positive", field)
	}
	return nil
}

func validatePlanExerciseNumbers(sets, reps, duration, order *int) error {
	if err := validatePositive("sets", sets); err != nil {
		return err
	}
	if err := validatePositive("reps", reps); err != nil {
		return err
	}
	if err := validatePositive("durationMinutes", duration); err != nil {
		return err
	}
	if order != nil && *order < 0 {
		return validation("order must not be negative")
	}
	return nil
}

func (s *workoutPlanService) CreatePlan(ctx context.Context, userID primitive.ObjectID, in PlanInput) (*domain.WorkoutPlan, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validatePlanName(in.Name); err != nil {
		return nil, err
	}
	if in.Difficulty == "" {
		in.Difficulty = domain.DifficultyBeginner
	}
	if !in.Difficulty.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDifficulty, string(in.Difficulty))
	}

	plan := &domain.WorkoutPlan{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Difficulty:  in.Difficulty,
	}
	if _, err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *workoutPlanService) ListPlans(ctx context.Context, userID primitive.ObjectID, search string) ([]domain.WorkoutPlan, error) {
	plans, err := s.planRepo.ListByUser(ctx, userID, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	for i := range plans {
		plans[i].SortExercises()
	}
	return plans, nil
}

// ownedPlan loads a plan and checks that userID owns it.
func (s *workoutPlanService) ownedPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, notFound(err, "workout plan %s", planID.Hex())
	}
	if plan.UserID != userID {
		return nil, fmt.Errorf("%w: workout plan %s belongs to another user", domain.ErrForbidden, planID.Hex())
	}
	plan.SortExercises()
	return plan, nil
}

func (s *workoutPlanService) GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	return s.ownedPlan(ctx, userID, planID)
}

func (s *workoutPlanService) save(ctx context.Context, plan *domain.WorkoutPlan) (*domain.WorkoutPlan, error) {
	plan.SortExercises()
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, notFound(err, "workout plan %s", plan.ID.Hex())
	}
	return plan, nil
}

func (s *workoutPlanService) UpdatePlan(ctx context.Context, userID, planID primitive.ObjectID, upd PlanUpdate) (*domain.WorkoutPlan, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validatePlanName(name); err != nil {
			return nil, err
		}
		plan.Name = name
	}
	if upd.Description != nil {
		plan.Description = *upd.Description
	}
	if upd.Difficulty != nil {
		if !upd.Difficulty.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDifficulty, string(*upd.Difficulty))
		}
		plan.Difficulty = *upd.Difficulty
	}
	return s.save(ctx, plan)
}

func (s *workoutPlanService) DeletePlan(ctx context.Context, userID, planID primitive.ObjectID) error {
	if _, err := s.ownedPlan(ctx, userID, planID); err != nil {
		return err
	}
	if err := s.planRepo.Delete(ctx, planID, userID); err != nil {
		return notFound(err, "workout plan %s", planID.Hex())
	}
	return nil
}

func (s *workoutPlanService) AddPlanExercise(ctx context.Context, userID, planID primitive.ObjectID, in PlanExerciseInput) (*domain.WorkoutPlan, error) {
	if err := validatePlanExerciseNumbers(in.Sets, in.Reps, in.DurationMinutes, in.Order); err != nil {
		return nil, err
	}
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if _, err := s.exerciseTypeRepo.GetByID(ctx, in.ExerciseTypeID); err != nil {
		return nil, notFound(err, "exercise type %s", in.ExerciseTypeID.Hex())
	}

	plan.Exercises = append(plan.Exercises, domain.PlanExercise{
		ID:              primitive.NewObjectID(),
		ExerciseTypeID:  in.ExerciseTypeID,
		Sets:            in.Sets,
		Reps:            in.Reps,
		DurationMinutes: in.DurationMinutes,
		Order:           in.Order,
		Notes:           in.Notes,
	})
	return s.save(ctx, plan)
}

func (s *workoutPlanService) UpdatePlanExercise(ctx context.Context, userID, planID, exerciseID primitive.ObjectID, upd PlanExerciseUpdate) (*domain.WorkoutPlan, error) {
	if err := validatePlanExerciseNumbers(upd.Sets, upd.Reps, upd.DurationMinutes, upd.Order); err != nil {
		return nil, err
	}
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	idx := plan.FindExercise(exerciseID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: exercise %s in workout plan %s", domain.ErrNotFound, exerciseID.Hex(), planID.Hex())
	}

	pe := &plan.Exercises[idx]
	if upd.Sets != nil {
		pe.Sets = upd.Sets
	}
	if upd.Reps != nil {
		pe.Reps = upd.Reps
	}
	if upd.DurationMinutes != nil {
		pe.DurationMinutes = upd.DurationMinutes
	}
	if upd.Order != nil {
		pe.Order = upd.Order
	}
	if upd.Notes != nil {
		pe.Notes = *upd.Notes
	}
	return s.save(ctx, plan)
}

func (s *workoutPlanService) RemovePlanExercise(ctx context.Context, userID, planID, exerciseID primitive.ObjectID) (*domain.WorkoutPlan, error) {
	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	idx := plan.FindExercise(exerciseID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: exercise %s in workout plan %s", domain.ErrNotFound, exerciseID.Hex(), planID.Hex())
	}

	plan.Exercises = append(plan.Exercises[:idx], plan.Exercises[idx+1:]...)
	return s.save(ctx, plan)
}
