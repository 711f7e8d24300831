package api

import (
	"fmt"
	"net/http"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutPlanHandler serves the user's own workout plans.
type WorkoutPlanHandler struct {
	planService service.WorkoutPlanService
}

func NewWorkoutPlanHandler(planService service.WorkoutPlanService) *WorkoutPlanHandler {
	return &WorkoutPlanHandler{planService: planService}
}

type CreatePlanRequest struct {
	Name        string            `json:"name" binding:"required,max=100"`
	Description string            `json:"description"`
	Difficulty  domain.Difficulty `json:"difficulty"`
}

type UpdatePlanRequest struct {
	Name        *string            `json:"name" binding:"omitempty,max=100"`
	Description *string            `json:"description"`
	Difficulty  *domain.Difficulty `json:"difficulty"`
}

type AddPlanExerciseRequest struct {
	ExerciseTypeID  string `json:"exerciseTypeId" binding:"required"`
	Sets            *int   `json:"sets"`
	Reps            *int   `json:"reps"`
	DurationMinutes *int   `json:"durationMinutes"`
	Order           *int   `json:"order"`
	Notes           string `json:"notes"`
}

type UpdatePlanExerciseRequest struct {
	Sets            *int    `json:"sets"`
	Reps            *int    `json:"reps"`
	DurationMinutes *int    `json:"durationMinutes"`
	Order           *int    `json:"order"`
	Notes           *string `json:"notes"`
}

// CreatePlan godoc
// @Summary Create a workout plan
// @Tags WorkoutPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreatePlanRequest true "Plan details"
// @Success 201 {object} domain.WorkoutPlan
// @Router /workout-plans [post]
func (h *WorkoutPlanHandler) CreatePlan(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), userID, service.PlanInput{
		Name:        req.Name,
		Description: req.Description,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// ListPlans godoc
// @Summary List the current user's workout plans
// @Tags WorkoutPlans
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive name/description search"
// @Success 200 {array} domain.WorkoutPlan
// @Router /workout-plans [get]
func (h *WorkoutPlanHandler) ListPlans(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	plans, err := h.planService.ListPlans(c.Request.Context(), userID, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// GetPlan godoc
// @Summary Get a workout plan
// @Tags WorkoutPlans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} domain.WorkoutPlan
// @Failure 403 {object} gin.H "Plan belongs to another user"
// @Router /workout-plans/{planId} [get]
func (h *WorkoutPlanHandler) GetPlan(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "planId")
	if !ok {
		return
	}
	plan, err := h.planService.GetPlan(c.Request.Context(), userID, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// UpdatePlan godoc
// @Summary Update a workout plan
// @Tags WorkoutPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param plan body UpdatePlanRequest true "Fields to change"
// @Success 200 {object} domain.WorkoutPlan
// @Router /workout-plans/{planId} [put]
func (h *WorkoutPlanHandler) UpdatePlan(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "planId")
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), userID, planID, service.PlanUpdate{
		Name:        req.Name,
		Description: req.Description,
		Difficulty:  req.Difficulty,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlan godoc
// @Summary Delete a workout plan
// @Tags WorkoutPlans
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 204
// @Router /workout-plans/{planId} [delete]
func (h *WorkoutPlanHandler) DeletePlan(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "planId")
	if !ok {
		return
	}
	if err := h.planService.DeletePlan(c.Request.Context(), userID, planID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddPlanExercise godoc
// @Summary Add an exercise to a workout plan
// @Tags WorkoutPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param exercise body AddPlanExerciseRequest true "Exercise details"
// @Success 201 {object} domain.WorkoutPlan
// @Failure 404 {object} gin.H "Plan or exercise type not found"
// @Router /workout-plans/{planId}/exercises [post]
func (h *WorkoutPlanHandler) AddPlanExercise(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "planId")
	if !ok {
		return
	}
	var req AddPlanExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseTypeID, err := primitive.ObjectIDFromHex(req.ExerciseTypeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseTypeId format")
		return
	}

	plan, err := h.planService.AddPlanExercise(c.Request.Context(), userID, planID, service.PlanExerciseInput{
		ExerciseTypeID:  exerciseTypeID,
		Sets:            req.Sets,
		Reps:            req.Reps,
		DurationMinutes: req.DurationMinutes,
		Order:           req.Order,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlanExercise godoc
// @Summary Update an exercise of a workout plan
// @Tags WorkoutPlans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param exerciseId path string true "Plan exercise ID"
// @Param exercise body UpdatePlanExerciseRequest true "Fields to change"
// @Success 200 {object} domain.WorkoutPlan
// @Router /workout-plans/{planId}/exercises/{exerciseId} [put]
func (h *WorkoutPlanHandler) UpdatePlanExercise(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "planId")
	if !ok {
		return
	}
	exerciseID, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	var req UpdatePlanExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	plan, err := h.planService.UpdatePlanExercise(c.Request.Context(), userID, planID, exerciseID, service.PlanExerciseUpdate{
		Sets:            req.Sets,
		Reps:            req.Reps,
		DurationMinutes: req.DurationMinutes,
		Order:           req.Order,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// RemovePlanExercise godoc
// @Summary Remove an exercise from a workout plan
// @Tags WorkoutPlans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Param exerciseId path string true "Plan exercise ID"
// @Success 200 {object} domain.WorkoutPlan
// @Router /workout-plans/{planId}/exercises/{exerciseId} [delete]
func (h *WorkoutPlanHandler) RemovePlanExercise(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	planID, ok := objectIDParam(c, "planId")
	if !ok {
		return
	}
	exerciseID, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	plan, err := h.planService.RemovePlanExercise(c.Request.Context(), userID, planID, exerciseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
