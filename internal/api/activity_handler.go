package api

import (
	"fmt"
	"net/http"
	"time"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityHandler serves the user's logged activities.
type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// LogActivityRequest defines a new activity. Omitted calories and points are
// derived from the exercise type.
type LogActivityRequest struct {
	ExerciseTypeID  string  `json:"exerciseTypeId" binding:"required"`
	DurationMinutes int     `json:"durationMinutes"`
	Date            *string `json:"date"` // YYYY-MM-DD, today when omitted
	Notes           string  `json:"notes"`
	CaloriesBurned  *int    `json:"caloriesBurned"`
	Points          *int    `json:"points"`
}

type UpdateActivityRequest struct {
	ExerciseTypeID  *string `json:"exerciseTypeId"`
	DurationMinutes *int    `json:"durationMinutes"`
	Date            *string `json:"date"`
	Notes           *string `json:"notes"`
	CaloriesBurned  *int    `json:"caloriesBurned"`
	Points          *int    `json:"points"`
	ResetScore      bool    `json:"resetScore"`
}

// LogActivity godoc
// @Summary Log an activity
// @Description Calories and points are derived from the exercise type when omitted.
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param activity body LogActivityRequest true "Activity details"
// @Success 201 {object} domain.Activity
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Exercise type not found"
// @Router /activities [post]
func (h *ActivityHandler) LogActivity(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	var req LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseTypeID, err := primitive.ObjectIDFromHex(req.ExerciseTypeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exerciseTypeId format")
		return
	}
	// nil date means today, decided by the service clock
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	// Calories and points left out of the body are derived during scoring
	activity, err := h.activityService.LogActivity(c.Request.Context(), userID, service.LogActivityInput{
		ExerciseTypeID:  exerciseTypeID,
		DurationMinutes: req.DurationMinutes,
		Date:            date,
		Notes:           req.Notes,
		CaloriesBurned:  req.CaloriesBurned,
		Points:          req.Points,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// ListActivities godoc
// @Summary List the current user's activities
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param exerciseTypeId query string false "Exercise type filter"
// @Param date query string false "Exact day (YYYY-MM-DD)"
// @Param startDate query string false "First day, inclusive (YYYY-MM-DD)"
// @Param endDate query string false "Last day, inclusive (YYYY-MM-DD)"
// @Param category query string false "Exercise category filter"
// @Success 200 {array} domain.Activity
// @Router /activities [get]
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}

	// Every filter is optional; a malformed one is a 400, not an empty list
	filter := service.ActivityListFilter{Category: domain.Category(c.Query("category"))}
	var err error
	if filter.ExerciseTypeID, err = queryObjectID(c, "exerciseTypeId"); err != nil {
		respondError(c, err)
		return
	}
	if filter.Date, err = queryDate(c, "date"); err != nil {
		respondError(c, err)
		return
	}
	if filter.StartDate, err = queryDate(c, "startDate"); err != nil {
		respondError(c, err)
		return
	}
	if filter.EndDate, err = queryDate(c, "endDate"); err != nil {
		respondError(c, err)
		return
	}

	activities, err := h.activityService.ListActivities(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activities)
}

// Statistics godoc
// @Summary Totals of the last 30 days, by category
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ActivityStatistics
// @Router /activities/statistics [get]
func (h *ActivityHandler) Statistics(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	stats, err := h.activityService.Statistics(c.Request.Context(), userID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetActivity godoc
// @Summary Get an activity
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param activityId path string true "Activity ID"
// @Success 200 {object} domain.Activity
// @Failure 403 {object} gin.H "Activity belongs to another user"
// @Router /activities/{activityId} [get]
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	activityID, ok := objectIDParam(c, "activityId")
	if !ok {
		return
	}
	activity, err := h.activityService.GetActivity(c.Request.Context(), userID, activityID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// UpdateActivity godoc
// @Summary Update an activity
// @Description Stored calories and points are kept unless supplied or resetScore is set.
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param activityId path string true "Activity ID"
// @Param activity body UpdateActivityRequest true "Fields to change"
// @Success 200 {object} domain.Activity
// @Failure 422 {object} gin.H "Exercise type needed for scoring no longer exists"
// @Router /activities/{activityId} [put]
func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	activityID, ok := objectIDParam(c, "activityId")
	if !ok {
		return
	}
	var req UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	exerciseTypeID, err := parseObjectID("exerciseTypeId", req.ExerciseTypeID)
	if err != nil {
		respondError(c, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	activity, err := h.activityService.UpdateActivity(c.Request.Context(), userID, activityID, service.ActivityUpdate{
		ExerciseTypeID:  exerciseTypeID,
		DurationMinutes: req.DurationMinutes,
		Date:            date,
		Notes:           req.Notes,
		CaloriesBurned:  req.CaloriesBurned,
		Points:          req.Points,
		ResetScore:      req.ResetScore,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// DeleteActivity godoc
// @Summary Delete an activity
// @Tags Activities
// @Security BearerAuth
// @Param activityId path string true "Activity ID"
// @Success 204
// @Router /activities/{activityId} [delete]
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	activityID, ok := objectIDParam(c, "activityId")
	if !ok {
		return
	}
	if err := h.activityService.DeleteActivity(c.Request.Context(), userID, activityID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func queryDate(c *gin.Context, field string) (*time.Time, error) {
	value, ok := c.GetQuery(field)
	if !ok {
		return nil, nil
	}
	return parseDate(field, &value)
}

func queryObjectID(c *gin.Context, field string) (*primitive.ObjectID, error) {
	value, ok := c.GetQuery(field)
	if !ok {
		return nil, nil
	}
	return parseObjectID(field, &value)
}
