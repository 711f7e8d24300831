package api

import (
	"fmt"
	"net/http"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/repository"
	"octofit/tracker-api/internal/service"

	"github.com/gin-gonic/gin"
)

// ExerciseTypeHandler serves the exercise catalog.
type ExerciseTypeHandler struct {
	exerciseTypeService service.ExerciseTypeService
}

func NewExerciseTypeHandler(exerciseTypeService service.ExerciseTypeService) *ExerciseTypeHandler {
	return &ExerciseTypeHandler{exerciseTypeService: exerciseTypeService}
}

// CreateExerciseTypeRequest defines the expected JSON for creating a catalog entry.
// Category and difficulty are checked by the service so that an unknown
// difficulty is reported as such.
type CreateExerciseTypeRequest struct {
	Name            string            `json:"name" binding:"required,max=100"`
	Description     string            `json:"description"`
	Category        domain.Category   `json:"category" binding:"required"`
	Difficulty      domain.Difficulty `json:"difficulty" binding:"required"`
	CaloriesPerHour int               `json:"caloriesPerHour" binding:"required"`
	Instructions    string            `json:"instructions"`
	VideoURL        string            `json:"videoUrl" binding:"omitempty,url"`
}

type UpdateExerciseTypeRequest struct {
	Name            *string            `json:"name" binding:"omitempty,max=100"`
	Description     *string            `json:"description"`
	Category        *domain.Category   `json:"category"`
	Difficulty      *domain.Difficulty `json:"difficulty"`
	CaloriesPerHour *int               `json:"caloriesPerHour"`
	Instructions    *string            `json:"instructions"`
	VideoURL        *string            `json:"videoUrl" binding:"omitempty,url"`
}

// CreateExerciseType godoc
// @Summary Create a catalog entry (curators only)
// @Tags ExerciseTypes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseType body CreateExerciseTypeRequest true "Exercise type details"
// @Success 201 {object} service.ExerciseTypeDetails
// @Failure 400 {object} gin.H "Invalid input or unknown difficulty"
// @Failure 403 {object} gin.H "Forbidden (not a curator)"
// @Router /exercise-types [post]
func (h *ExerciseTypeHandler) CreateExerciseType(c *gin.Context) {
	var req CreateExerciseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	et, err := h.exerciseTypeService.CreateExerciseType(c.Request.Context(), service.ExerciseTypeInput{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Difficulty:      req.Difficulty,
		CaloriesPerHour: req.CaloriesPerHour,
		Instructions:    req.Instructions,
		VideoURL:        req.VideoURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, et)
}

// ListExerciseTypes godoc
// @Summary List the catalog
// @Tags ExerciseTypes
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive name/description/category search"
// @Param category query string false "Category filter"
// @Success 200 {array} service.ExerciseTypeDetails
// @Router /exercise-types [get]
func (h *ExerciseTypeHandler) ListExerciseTypes(c *gin.Context) {
	types, err := h.exerciseTypeService.ListExerciseTypes(c.Request.Context(), repository.ExerciseTypeFilter{
		Search:   c.Query("search"),
		Category: domain.Category(c.Query("category")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

// GetExerciseType godoc
// @Summary Get a catalog entry
// @Tags ExerciseTypes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise type ID"
// @Success 200 {object} service.ExerciseTypeDetails
// @Router /exercise-types/{id} [get]
func (h *ExerciseTypeHandler) GetExerciseType(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	et, err := h.exerciseTypeService.GetExerciseType(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, et)
}

// UpdateExerciseType godoc
// @Summary Update a catalog entry (curators only)
// @Tags ExerciseTypes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise type ID"
// @Param exerciseType body UpdateExerciseTypeRequest true "Fields to change"
// @Success 200 {object} service.ExerciseTypeDetails
// @Router /exercise-types/{id} [put]
func (h *ExerciseTypeHandler) UpdateExerciseType(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateExerciseTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	et, err := h.exerciseTypeService.UpdateExerciseType(c.Request.Context(), id, service.ExerciseTypeUpdate{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Difficulty:      req.Difficulty,
		CaloriesPerHour: req.CaloriesPerHour,
		Instructions:    req.Instructions,
		VideoURL:        req.VideoURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, et)
}

// DeleteExerciseType godoc
// @Summary Delete an unreferenced catalog entry (curators only)
// @Tags ExerciseTypes
// @Security BearerAuth
// @Param id path string true "Exercise type ID"
// @Success 204
// @Failure 409 {object} gin.H "Still referenced by activities or plans"
// @Router /exercise-types/{id} [delete]
func (h *ExerciseTypeHandler) DeleteExerciseType(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.exerciseTypeService.DeleteExerciseType(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestImageUpload godoc
// @Summary Get a presigned URL to upload an exercise image (curators only)
// @Tags ExerciseTypes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise type ID"
// @Param request body UploadURLRequest true "Image content type"
// @Success 200 {object} service.UploadURLResponse
// @Router /exercise-types/{id}/image/upload-url [post]
func (h *ExerciseTypeHandler) RequestImageUpload(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	upload, err := h.exerciseTypeService.RequestExerciseImageUpload(c.Request.Context(), id, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// ConfirmImage godoc
// @Summary Attach an uploaded image to a catalog entry (curators only)
// @Tags ExerciseTypes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Exercise type ID"
// @Param request body ConfirmUploadRequest true "Uploaded object key"
// @Success 200 {object} service.ExerciseTypeDetails
// @Router /exercise-types/{id}/image [put]
func (h *ExerciseTypeHandler) ConfirmImage(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	et, err := h.exerciseTypeService.ConfirmExerciseImage(c.Request.Context(), id, req.ObjectKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, et)
}
