package domain

import "fmt"

// CaloriesBurned returns floor(caloriesPerHour * minutes / 60).
func CaloriesBurned(caloriesPerHour, minutes int) int {
	return caloriesPerHour * minutes / 60
}

// PointsFor returns floor(calories * multiplier) for the given tier.
func PointsFor(calories int, difficulty Difficulty) (int, error) {
	halves, err := difficulty.multiplierHalves()
	if err != nil {
		return 0, err
	}
	return calories * halves / 2, nil
}

// Score fills in the calories and points of a that are still unset.
// Values already present are kept as they are, even when duration or the
// exercise type changed since they were stored. It runs on every save.
//
// The exercise type is only consulted when something has to be derived; if it
// is needed and et is nil, Score fails with ErrMissingReference and leaves a
// untouched.
func Score(a *Activity, et *ExerciseType) error {
	if a.CaloriesBurned != nil && a.Points != nil {
		return nil
	}
	if et == nil {
		return fmt.Errorf("%w: activity %s has no resolvable exercise type", ErrMissingReference, a.ID.Hex())
	}

	calories := a.CaloriesValue()
	if a.CaloriesBurned == nil {
		if err := ValidateDuration(a.DurationMinutes); err != nil {
			return err
		}
		if et.CaloriesPerHour < 0 || et.CaloriesPerHour > MaxCaloriesPerHour {
			return fmt.Errorf("%w: exercise type %s burns %d calories per hour", ErrValidation, et.ID.Hex(), et.CaloriesPerHour)
		}
		calories = CaloriesBurned(et.CaloriesPerHour, a.DurationMinutes)
	}
	points := a.PointsValue()
	if a.Points == nil {
		if err := ValidateScore(&calories, nil); err != nil {
			return err
		}
		var err error
		points, err = PointsFor(calories, et.Difficulty)
		if err != nil {
			return err
		}
	}

	a.CaloriesBurned = &calories
	a.Points = &points
	return nil
}
