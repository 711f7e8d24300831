package api

import (
	"fmt"
	"net/http"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the authenticated user's account and profile.
type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateMeRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName" binding:"omitempty,max=150"`
	LastName  *string `json:"lastName" binding:"omitempty,max=150"`
}

type UpdateProfileRequest struct {
	HeightCm      *float64              `json:"heightCm"`
	WeightKg      *float64              `json:"weightKg"`
	BirthDate     *string               `json:"birthDate"` // YYYY-MM-DD
	FitnessGoal   *domain.FitnessGoal   `json:"fitnessGoal"`
	ActivityLevel *domain.ActivityLevel `json:"activityLevel"`
	Bio           *string               `json:"bio"`
}

// UploadURLRequest asks for a presigned upload URL for an image of the given type.
type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// ConfirmUploadRequest reports the object key of a finished upload.
type ConfirmUploadRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// GetMe godoc
// @Summary Get the current user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetMe(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateMe godoc
// @Summary Update account fields of the current user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param account body UpdateMeRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 409 {object} gin.H "Email already registered"
// @Router /me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.userService.UpdateMe(c.Request.Context(), userID, service.AccountUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteMe godoc
// @Summary Delete the current user and everything they own
// @Tags Users
// @Security BearerAuth
// @Success 204
// @Failure 409 {object} gin.H "User still created teams"
// @Router /me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	if err := h.userService.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProfile godoc
// @Summary Get the current user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ProfileDetails
// @Router /me/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} service.ProfileDetails
// @Router /me/profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	birthDate, err := parseDate("birthDate", req.BirthDate)
	if err != nil {
		respondError(c, err)
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		HeightCm:      req.HeightCm,
		WeightKg:      req.WeightKg,
		BirthDate:     birthDate,
		FitnessGoal:   req.FitnessGoal,
		ActivityLevel: req.ActivityLevel,
		Bio:           req.Bio,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// RequestPictureUpload godoc
// @Summary Get a presigned URL to upload a profile picture
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UploadURLRequest true "Image content type"
// @Success 200 {object} service.UploadURLResponse
// @Failure 503 {object} gin.H "Uploads are not configured"
// @Router /me/profile/picture/upload-url [post]
func (h *UserHandler) RequestPictureUpload(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.userService.RequestProfilePictureUpload(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// ConfirmPicture godoc
// @Summary Attach an uploaded picture to the profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ConfirmUploadRequest true "Uploaded object key"
// @Success 200 {object} service.ProfileDetails
// @Router /me/profile/picture [put]
func (h *UserHandler) ConfirmPicture(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile, err := h.userService.ConfirmProfilePicture(c.Request.Context(), userID, req.ObjectKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
