package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/repository"
	"octofit/tracker-api/internal/storage"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const profilePicturePrefix = "profile-pictures"

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // The key the client reports back on confirm
}

// AccountUpdate holds the account fields a user may change. Nil means unchanged.
type AccountUpdate struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// ProfileUpdate holds profile fields to change. Nil means unchanged.
type ProfileUpdate struct {
	HeightCm      *float64
	WeightKg      *float64
	BirthDate     *time.Time
	FitnessGoal   *domain.FitnessGoal
	ActivityLevel *domain.ActivityLevel
	Bio           *string
}

// ProfileDetails is a profile with a temporary URL to view its picture.
type ProfileDetails struct {
	domain.Profile
	PictureURL *string `json:"pictureUrl,omitempty"`
}

type UserService interface {
	GetMe(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateMe(ctx context.Context, userID primitive.ObjectID, upd AccountUpdate) (*domain.User, error)
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*ProfileDetails, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd ProfileUpdate) (*ProfileDetails, error)
	RequestProfilePictureUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmProfilePicture(ctx context.Context, userID primitive.ObjectID, objectKey string) (*ProfileDetails, error)
	DeleteAccount(ctx context.Context, userID primitive.ObjectID) error
}

type userService struct {
	userRepo       repository.UserRepository
	teamRepo       repository.TeamRepository
	membershipRepo repository.MembershipRepository
	activityRepo   repository.ActivityRepository
	planRepo       repository.WorkoutPlanRepository
	fileStorage    storage.FileStorage // nil when uploads are disabled
}

func NewUserService(
	userRepo repository.UserRepository,
	teamRepo repository.TeamRepository,
	membershipRepo repository.MembershipRepository,
	activityRepo repository.ActivityRepository,
	planRepo repository.WorkoutPlanRepository,
	fileStorage storage.FileStorage,
) UserService {
	return &userService{
		userRepo:       userRepo,
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		activityRepo:   activityRepo,
		planRepo:       planRepo,
		fileStorage:    fileStorage,
	}
}

func (s *userService) getUser(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user %s", userID.Hex())
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) GetMe(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	return s.getUser(ctx, userID)
}

func (s *userService) UpdateMe(ctx context.Context, userID primitive.ObjectID, upd AccountUpdate) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}

	if err := s.userRepo.UpdateAccount(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email %s is already registered", domain.ErrConflict, user.Email)
		}
		return nil, notFound(err, "user %s", userID.Hex())
	}
	return user, nil
}

func (s *userService) profileDetails(ctx context.Context, profile domain.Profile) *ProfileDetails {
	details := &ProfileDetails{Profile: profile}
	if profile.PictureKey == "" || s.fileStorage == nil {
		return details
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, profile.PictureKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		log.Warnf("presign profile picture %s: %s", profile.PictureKey, err)
		return details
	}
	details.PictureURL = &url
	return details
}

func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*ProfileDetails, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileDetails(ctx, user.Profile), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd ProfileUpdate) (*ProfileDetails, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := user.Profile
	if upd.HeightCm != nil {
		profile.HeightCm = upd.HeightCm
	}
	if upd.WeightKg != nil {
		profile.WeightKg = upd.WeightKg
	}
	if upd.BirthDate != nil {
		day := domain.CalendarDay(*upd.BirthDate)
		profile.BirthDate = &day
	}
	if upd.FitnessGoal != nil {
		profile.FitnessGoal = *upd.FitnessGoal
	}
	if upd.ActivityLevel != nil {
		profile.ActivityLevel = *upd.ActivityLevel
	}
	if upd.Bio != nil {
		profile.Bio = *upd.Bio
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	profile.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.UpdateProfile(ctx, userID, profile); err != nil {
		return nil, notFound(err, "user %s", userID.Hex())
	}
	return s.profileDetails(ctx, profile), nil
}

func (s *userService) RequestProfilePictureUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if s.fileStorage == nil {
		return nil, ErrUploadsDisabled
	}
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	return requestImageUpload(ctx, s.fileStorage, profilePicturePrefix, userID.Hex(), contentType)
}

// ConfirmProfilePicture records an uploaded picture on the profile and removes
// the previous one from the bucket.
func (s *userService) ConfirmProfilePicture(ctx context.Context, userID primitive.ObjectID, objectKey string) (*ProfileDetails, error) {
	if s.fileStorage == nil {
		return nil, ErrUploadsDisabled
	}
	if !storage.KeyBelongsTo(objectKey, profilePicturePrefix, userID.Hex()) {
		return nil, validation("object key %q was not issued for this profile", objectKey)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := user.Profile
	previous := profile.PictureKey
	profile.PictureKey = objectKey
	profile.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.UpdateProfile(ctx, userID, profile); err != nil {
		return nil, notFound(err, "user %s", userID.Hex())
	}

	if previous != "" && previous != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, previous); err != nil {
			log.Warnf("remove previous profile picture %s: %s", previous, err)
		}
	}
	return s.profileDetails(ctx, profile), nil
}

// DeleteAccount removes a user with everything they own. It is refused while
// the user is still recorded as the creator of a team.
func (s *userService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	// 1. Refuse while teams still point at this user as their creator
	owned, err := s.teamRepo.CountByCreator(ctx, userID)
	if err != nil {
		return err
	}
	if owned > 0 {
		return fmt.Errorf("%w: user still owns %d team(s); delete them first", domain.ErrConflict, owned)
	}

	// 2. Cascade to everything the user owns. Not transactional: a failure
	// half way leaves the rest for a retry.
	if err := s.activityRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete activities: %w", err)
	}
	if err := s.membershipRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	if err := s.planRepo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete workout plans: %w", err)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return notFound(err, "user %s", userID.Hex())
	}

	// 3. Best effort: an orphaned object in the bucket is not worth failing for
	if user.Profile.PictureKey != "" && s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, user.Profile.PictureKey); err != nil {
			log.Warnf("remove profile picture of deleted user %s: %s", userID.Hex(), err)
		}
	}

	log.WithField("user_id", userID.Hex()).Info("account deleted")
	return nil
}

func requestImageUpload(ctx context.Context, fileStorage storage.FileStorage, prefix, owner, contentType string) (*UploadURLResponse, error) {
	objectKey, err := storage.ImageObjectKey(prefix, owner, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	uploadURL, err := fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate upload URL: %w", err)
	}
	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
	}, nil
}
