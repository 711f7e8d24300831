package api

import (
	"fmt"
	"net/http"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamHandler serves teams, their rosters and scores.
type TeamHandler struct {
	teamService service.TeamService
}

func NewTeamHandler(teamService service.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	IsPrivate   *bool   `json:"isPrivate"`
}

type AddMemberRequest struct {
	UserID string          `json:"userId" binding:"required"`
	Role   domain.TeamRole `json:"role" binding:"omitempty,oneof=member admin coach"`
}

type UpdateMemberRoleRequest struct {
	Role domain.TeamRole `json:"role" binding:"required,oneof=member admin coach"`
}

// CreateTeam godoc
// @Summary Create a team
// @Description The creator becomes the team's first admin.
// @Tags Teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param team body CreateTeamRequest true "Team details"
// @Success 201 {object} service.TeamDetails
// @Router /teams [post]
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), userID, service.TeamInput{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// ListTeams godoc
// @Summary List teams visible to the user, with their scores
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive name/description search"
// @Success 200 {array} service.TeamDetails
// @Router /teams [get]
func (h *TeamHandler) ListTeams(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teams, err := h.teamService.ListTeams(c.Request.Context(), userID, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// GetTeam godoc
// @Summary Get a team
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Success 200 {object} service.TeamDetails
// @Failure 404 {object} gin.H "Team not found or not visible"
// @Router /teams/{teamId} [get]
func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	team, err := h.teamService.GetTeam(c.Request.Context(), userID, teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// UpdateTeam godoc
// @Summary Update a team (team admins only)
// @Tags Teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Param team body UpdateTeamRequest true "Fields to change"
// @Success 200 {object} service.TeamDetails
// @Failure 403 {object} gin.H "Not a team admin"
// @Router /teams/{teamId} [put]
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	team, err := h.teamService.UpdateTeam(c.Request.Context(), userID, teamID, service.TeamUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// DeleteTeam godoc
// @Summary Delete a team and its memberships (team admins only)
// @Tags Teams
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Success 204
// @Router /teams/{teamId} [delete]
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	if err := h.teamService.DeleteTeam(c.Request.Context(), userID, teamID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// JoinTeam godoc
// @Summary Join a public team
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Success 200 {object} domain.TeamMembership
// @Failure 403 {object} gin.H "Team is private"
// @Router /teams/{teamId}/join [post]
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	membership, err := h.teamService.JoinTeam(c.Request.Context(), userID, teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// LeaveTeam godoc
// @Summary Leave a team
// @Tags Teams
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Success 204
// @Router /teams/{teamId}/leave [post]
func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	if err := h.teamService.LeaveTeam(c.Request.Context(), userID, teamID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTeamScore godoc
// @Summary Team score with a per-member breakdown
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Success 200 {object} service.TeamScoreboard
// @Router /teams/{teamId}/score [get]
func (h *TeamHandler) GetTeamScore(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	board, err := h.teamService.GetTeamScoreboard(c.Request.Context(), userID, teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// ListMembers godoc
// @Summary List the members of a team
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Success 200 {array} domain.TeamMembership
// @Router /teams/{teamId}/members [get]
func (h *TeamHandler) ListMembers(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	members, err := h.teamService.ListTeamMembers(c.Request.Context(), userID, teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// AddMember godoc
// @Summary Add a user to a team (team admins only)
// @Tags Teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Param member body AddMemberRequest true "User and role"
// @Success 201 {object} domain.TeamMembership
// @Failure 409 {object} gin.H "User is already a member"
// @Router /teams/{teamId}/members [post]
func (h *TeamHandler) AddMember(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid userId format")
		return
	}

	membership, err := h.teamService.AddMember(c.Request.Context(), userID, teamID, memberID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

// UpdateMemberRole godoc
// @Summary Change a member's role (team admins only)
// @Tags Teams
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Param userId path string true "Member user ID"
// @Param role body UpdateMemberRoleRequest true "New role"
// @Success 200 {object} domain.TeamMembership
// @Router /teams/{teamId}/members/{userId} [patch]
func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	memberID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	var req UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	membership, err := h.teamService.UpdateMemberRole(c.Request.Context(), userID, teamID, memberID, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// RemoveMember godoc
// @Summary Remove a member from a team (team admins only)
// @Tags Teams
// @Security BearerAuth
// @Param teamId path string true "Team ID"
// @Param userId path string true "Member user ID"
// @Success 204
// @Router /teams/{teamId}/members/{userId} [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	teamID, ok := objectIDParam(c, "teamId")
	if !ok {
		return
	}
	memberID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	if err := h.teamService.RemoveMember(c.Request.Context(), userID, teamID, memberID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMyMemberships godoc
// @Summary List the current user's memberships
// @Tags Teams
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TeamMembership
// @Router /memberships [get]
func (h *TeamHandler) ListMyMemberships(c *gin.Context) {
	userID, ok := requesterID(c)
	if !ok {
		return
	}
	memberships, err := h.teamService.ListMyMemberships(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberships)
}
