package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is a logged instance of performing an exercise.
// CaloriesBurned and Points are nil until supplied or derived by Score.
type Activity struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`                 // Owner, exclusive
	ExerciseTypeID  primitive.ObjectID `bson:"exerciseTypeId" json:"exerciseTypeId"` // Catalog reference
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes"`
	CaloriesBurned  *int               `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
	Points          *int               `bson:"points,omitempty" json:"points,omitempty"`
	Date            time.Time          `bson:"date" json:"date"` // Calendar day, midnight UTC
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PointsValue returns the stored points, treating an absent value as 0.
func (a *Activity) PointsValue() int {
	if a.Points == nil {
		return 0
	}
	return *a.Points
}

// CaloriesValue returns the stored calories, treating an absent value as 0.
func (a *Activity) CaloriesValue() int {
	if a.CaloriesBurned == nil {
		return 0
	}
	return *a.CaloriesBurned
}

// ResetScore clears calories and points so the next Score derives them again.
func (a *Activity) ResetScore() {
	a.CaloriesBurned = nil
	a.Points = nil
}

// Upper bounds of a single activity. Derived values stay below them, so
// scoring arithmetic cannot overflow.
const (
	MaxDurationMinutes = 24 * 60
	MaxCaloriesBurned  = MaxCaloriesPerHour * MaxDurationMinutes / 60
	MaxPoints          = MaxCaloriesBurned * 2
)

// ValidateDuration checks that the duration is a positive number of minutes
// no longer than one day.
func ValidateDuration(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of minutes, got %d", ErrValidation, minutes)
	}
	if minutes > MaxDurationMinutes {
		return fmt.Errorf("%w: duration must not exceed %d minutes, got %d", ErrValidation, MaxDurationMinutes, minutes)
	}
	return nil
}

// ValidateScore checks supplied calories and points. Nil values are skipped.
func ValidateScore(calories, points *int) error {
	if calories != nil && (*calories < 0 || *calories > MaxCaloriesBurned) {
		return fmt.Errorf("%w: caloriesBurned must be between 0 and %d", ErrValidation, MaxCaloriesBurned)
	}
	if points != nil && (*points < 0 || *points > MaxPoints) {
		return fmt.Errorf("%w: points must be between 0 and %d", ErrValidation, MaxPoints)
	}
	return nil
}

// CalendarDay truncates t to midnight UTC of its calendar date.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
