// internal/domain/workout_plan.go
package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlan is a user's own structured plan of exercises.
type WorkoutPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"` // Owner
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Difficulty  Difficulty         `bson:"difficulty" json:"difficulty"`
	Exercises   []PlanExercise     `bson:"exercises" json:"exercises"` // Kept sorted by Order
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PlanExercise is one entry of a workout plan.
type PlanExercise struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	ExerciseTypeID  primitive.ObjectID `bson:"exerciseTypeId" json:"exerciseTypeId"`
	Sets            *int               `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps            *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	DurationMinutes *int               `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Order           *int               `bson:"order,omitempty" json:"order,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// SortExercises orders plan exercises by Order; entries without an order go last.
func (p *WorkoutPlan) SortExercises() {
	sort.SliceStable(p.Exercises, func(i, j int) bool {
		return orderLess(p.Exercises[i], p.Exercises[j])
	})
}

func orderLess(a, b PlanExercise) bool {
	switch {
	case a.Order == nil:
		return false
	case b.Order == nil:
		return true
	default:
		return *a.Order < *b.Order
	}
}

// FindExercise returns the index of the plan exercise with the given ID, or -1.
func (p *WorkoutPlan) FindExercise(id primitive.ObjectID) int {
	for i := range p.Exercises {
		if p.Exercises[i].ID == id {
			return i
		}
	}
	return -1
}
