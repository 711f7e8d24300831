// internal/domain/exercise_type.go
package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category groups exercise types in the catalog.
type Category string

const (
	CategoryCardio      Category = "cardio"
	CategoryStrength    Category = "strength"
	CategoryFlexibility Category = "flexibility"
	CategoryBalance     Category = "balance"
	CategoryHIIT        Category = "hiit"
)

// Valid reports whether c is one of the catalog categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCardio, CategoryStrength, CategoryFlexibility, CategoryBalance, CategoryHIIT:
		return true
	}
	return false
}

// Difficulty is the tier of an exercise type. It drives the points multiplier.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// multiplierHalves returns the points multiplier expressed in halves
// (beginner 1 = 2/2, intermediate 1.5 = 3/2, advanced 2 = 4/2) so points can be
// computed with integer arithmetic.
func (d Difficulty) multiplierHalves() (int, error) {
	switch d {
	case DifficultyBeginner:
		return 2, nil
	case DifficultyIntermediate:
		return 3, nil
	case DifficultyAdvanced:
		return 4, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, string(d))
}

// Multiplier returns the points multiplier for the tier.
func (d Difficulty) Multiplier() (float64, error) {
	halves, err := d.multiplierHalves()
	if err != nil {
		return 0, err
	}
	return float64(halves) / 2, nil
}

// Valid reports whether d belongs to the closed set of tiers.
func (d Difficulty) Valid() bool {
	_, err := d.multiplierHalves()
	return err == nil
}

// ExerciseType is a catalog entry describing a kind of exercise.
type ExerciseType struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Category        Category           `bson:"category" json:"category"`
	Difficulty      Difficulty         `bson:"difficulty" json:"difficulty"`
	CaloriesPerHour int                `bson:"caloriesPerHour" json:"caloriesPerHour"`
	Instructions    string             `bson:"instructions,omitempty" json:"instructions,omitempty"`
	VideoURL        string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	ImageKey        string             `bson:"imageKey,omitempty" json:"-"` // object key in the bucket
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MaxCaloriesPerHour caps the burn rate of a catalog entry.
const MaxCaloriesPerHour = 5000

// CaloriesPerMinute is the burn rate per minute.
func (e *ExerciseType) CaloriesPerMinute() float64 {
	return float64(e.CaloriesPerHour) / 60
}

// Validate checks the catalog invariants of an exercise type.
func (e *ExerciseType) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: exercise type name is required", ErrValidation)
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, string(e.Category))
	}
	if _, err := e.Difficulty.multiplierHalves(); err != nil {
		return err
	}
	if e.CaloriesPerHour <= 0 {
		return fmt.Errorf("%w: calories per hour must be positive", ErrValidation)
	}
	if e.CaloriesPerHour > MaxCaloriesPerHour {
		return fmt.Errorf("%w: calories per hour must not exceed %d", ErrValidation, MaxCaloriesPerHour)
	}
	return nil
}
