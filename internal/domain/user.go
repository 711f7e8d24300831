package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between account roles
type Role string

const (
	RoleAthlete Role = "athlete"
	RoleCurator Role = "curator" // May edit the exercise catalog
)

// FitnessGoal is the goal a user declares on their profile.
type FitnessGoal string

const (
	GoalWeightLoss     FitnessGoal = "weight_loss"
	GoalMuscleGain     FitnessGoal = "muscle_gain"
	GoalEndurance      FitnessGoal = "endurance"
	GoalFlexibility    FitnessGoal = "flexibility"
	GoalGeneralFitness FitnessGoal = "general_fitness"
)

func (g FitnessGoal) Valid() bool {
	switch g {
	case GoalWeightLoss, GoalMuscleGain, GoalEndurance, GoalFlexibility, GoalGeneralFitness:
		return true
	}
	return false
}

// ActivityLevel describes how active a user is day to day.
type ActivityLevel string

const (
	LevelSedentary   ActivityLevel = "sedentary"
	LevelLight       ActivityLevel = "light"
	LevelModerate    ActivityLevel = "moderate"
	LevelVeryActive  ActivityLevel = "very_active"
	LevelExtraActive ActivityLevel = "extra_active"
)

func (l ActivityLevel) Valid() bool {
	switch l {
	case LevelSedentary, LevelLight, LevelModerate, LevelVeryActive, LevelExtraActive:
		return true
	}
	return false
}

const maxBioLength = 500

// Profile holds a user's physical stats and preferences. It is embedded in the
// user document, so it is created and deleted together with the user.
type Profile struct {
	HeightCm      *float64      `bson:"heightCm,omitempty" json:"heightCm,omitempty"`
	WeightKg      *float64      `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	BirthDate     *time.Time    `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	FitnessGoal   FitnessGoal   `bson:"fitnessGoal,omitempty" json:"fitnessGoal,omitempty"`
	ActivityLevel ActivityLevel `bson:"activityLevel,omitempty" json:"activityLevel,omitempty"`
	Bio           string        `bson:"bio" json:"bio"`
	PictureKey    string        `bson:"pictureKey,omitempty" json:"-"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks enumerations and ranges of the profile.
func (p *Profile) Validate() error {
	if p.HeightCm != nil && *p.HeightCm <= 0 {
		return fmt.Errorf("%w: height must be positive", ErrValidation)
	}
	if p.WeightKg != nil && *p.WeightKg <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrValidation)
	}
	if p.FitnessGoal != "" && !p.FitnessGoal.Valid() {
		return fmt.Errorf("%w: unknown fitness goal %q", ErrValidation, string(p.FitnessGoal))
	}
	if p.ActivityLevel != "" && !p.ActivityLevel.Valid() {
		return fmt.Errorf("%w: unknown activity level %q", ErrValidation, string(p.ActivityLevel))
	}
	if len([]rune(p.Bio)) > maxBioLength {
		return fmt.Errorf("%w: bio must be at most %d characters", ErrValidation, maxBioLength)
	}
	return nil
}

// User is an account holder.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"` // Unique
	Email        string             `bson:"email" json:"email"`       // Unique
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Profile      Profile            `bson:"profile" json:"profile"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsCurator() bool {
	return u.Role == RoleCurator
}
