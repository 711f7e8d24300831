package service

import (
	"context"
	"testing"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newExerciseTypeService(f *fixture) ExerciseTypeService {
	return NewExerciseTypeService(f.types, f.activities, f.plans, f.storage)
}

func TestCreateExerciseType_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newExerciseTypeService(newFixture())

	valid := ExerciseTypeInput{
		Name:            "Burpees",
		Category:        domain.CategoryHIIT,
		Difficulty:      domain.DifficultyAdvanced,
		CaloriesPerHour: 700,
	}
	et, err := svc.CreateExerciseType(ctx, valid)
	require.NoError(t, err)
	assert.False(t, et.ID.IsZero())
	assert.InDelta(t, 11.67, et.CaloriesPerMinute(), 0.01)

	unknown := valid
	unknown.Difficulty = "expert"
	_, err = svc.CreateExerciseType(ctx, unknown)
	assert.ErrorIs(t, err, domain.ErrUnknownDifficulty)

	badCategory := valid
	badCategory.Category = "yoga"
	_, err = svc.CreateExerciseType(ctx, badCategory)
	assert.ErrorIs(t, err, domain.ErrValidation)

	noCalories := valid
	noCalories.CaloriesPerHour = 0
	_, err = svc.CreateExerciseType(ctx, noCalories)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListAndUpdateExerciseTypes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newExerciseTypeService(f)
	f.addType("Running", domain.CategoryCardio, domain.DifficultyBeginner, 600)
	squats := f.addType("Squats", domain.CategoryStrength, domain.DifficultyIntermediate, 300)

	strength, err := svc.ListExerciseTypes(ctx, repository.ExerciseTypeFilter{Category: domain.CategoryStrength})
	require.NoError(t, err)
	require.Len(t, strength, 1)
	assert.Equal(t, squats, strength[0].ID)

	found, err := svc.ListExerciseTypes(ctx, repository.ExerciseTypeFilter{Search: "run"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Running", found[0].Name)

	_, err = svc.ListExerciseTypes(ctx, repository.ExerciseTypeFilter{Category: "yoga"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	cph := 360
	updated, err := svc.UpdateExerciseType(ctx, squats, ExerciseTypeUpdate{CaloriesPerHour: &cph})
	require.NoError(t, err)
	assert.Equal(t, 360, updated.CaloriesPerHour)

	bad := domain.Difficulty("legendary")
	_, err = svc.UpdateExerciseType(ctx, squats, ExerciseTypeUpdate{Difficulty: &bad})
	assert.ErrorIs(t, err, domain.ErrUnknownDifficulty)

	_, err = svc.UpdateExerciseType(ctx, primitive.NewObjectID(), ExerciseTypeUpdate{CaloriesPerHour: &cph})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteExerciseType_RefusedWhileReferenced(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newExerciseTypeService(f)
	activities, _ := newActivityService(f)
	plans := NewWorkoutPlanService(f.plans, f.types)
	user := f.addUser("ada")
	running := f.addType("Running", domain.CategoryCardio, domain.DifficultyBeginner, 600)
	squats := f.addType("Squats", domain.CategoryStrength, domain.DifficultyIntermediate, 300)
	unused := f.addType("Plank", domain.CategoryBalance, domain.DifficultyBeginner, 200)

	a, err := activities.LogActivity(ctx, user, LogActivityInput{ExerciseTypeID: running, DurationMinutes: 30})
	require.NoError(t, err)
	plan, err := plans.CreatePlan(ctx, user, PlanInput{Name: "Legs"})
	require.NoError(t, err)
	_, err = plans.AddPlanExercise(ctx, user, plan.ID, PlanExerciseInput{ExerciseTypeID: squats, Sets: intPtr(3)})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteExerciseType(ctx, running), domain.ErrConflict)
	assert.ErrorIs(t, svc.DeleteExerciseType(ctx, squats), domain.ErrConflict)
	require.NoError(t, svc.DeleteExerciseType(ctx, unused))
	assert.ErrorIs(t, svc.DeleteExerciseType(ctx, unused), domain.ErrNotFound)

	require.NoError(t, activities.DeleteActivity(ctx, user, a.ID))
	require.NoError(t, svc.DeleteExerciseType(ctx, running))
}

func TestExerciseImageUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newExerciseTypeService(f)
	running := f.addType("Running", domain.CategoryCardio, domain.DifficultyBeginner, 600)

	upload, err := svc.RequestExerciseImageUpload(ctx, running, "image/webp")
	require.NoError(t, err)

	_, err = svc.ConfirmExerciseImage(ctx, primitive.NewObjectID(), upload.ObjectKey)
	assert.ErrorIs(t, err, domain.ErrValidation)

	et, err := svc.ConfirmExerciseImage(ctx, running, upload.ObjectKey)
	require.NoError(t, err)
	require.NotNil(t, et.ImageURL)
	assert.Contains(t, *et.ImageURL, upload.ObjectKey)

	got, err := svc.GetExerciseType(ctx, running)
	require.NoError(t, err)
	assert.Equal(t, upload.ObjectKey, got.ImageKey)
}
