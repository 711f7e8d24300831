package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/metrics"
	"octofit/tracker-api/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TeamInput struct {
	Name        string
	Description string
	IsPrivate   bool
}

// TeamUpdate holds the team fields to change. Nil means unchanged.
type TeamUpdate struct {
	Name        *string
	Description *string
	IsPrivate   *bool
}

// TeamDetails is a team with its current score and the requester's role in it.
type TeamDetails struct {
	domain.Team
	TotalPoints int              `json:"totalPoints"`
	MyRole      *domain.TeamRole `json:"myRole,omitempty"`
}

type TeamScoreboard struct {
	TeamID      primitive.ObjectID   `json:"teamId"`
	TotalPoints int                  `json:"totalPoints"`
	Members     []domain.MemberScore `json:"members"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, creatorID primitive.ObjectID, in TeamInput) (*TeamDetails, error)
	ListTeams(ctx context.Context, requesterID primitive.ObjectID, search string) ([]TeamDetails, error)
	GetTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) (*TeamDetails, error)
	UpdateTeam(ctx context.Context, requesterID, teamID primitive.ObjectID, upd TeamUpdate) (*TeamDetails, error)
	DeleteTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) error

	JoinTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) (*domain.TeamMembership, error)
	LeaveTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) error
	AddMember(ctx context.Context, requesterID, teamID, userID primitive.ObjectID, role domain.TeamRole) (*domain.TeamMembership, error)
	UpdateMemberRole(ctx context.Context, requesterID, teamID, userID primitive.ObjectID, role domain.TeamRole) (*domain.TeamMembership, error)
	RemoveMember(ctx context.Context, requesterID, teamID, userID primitive.ObjectID) error
	ListMyMemberships(ctx context.Context, requesterID primitive.ObjectID) ([]domain.TeamMembership, error)
	ListTeamMembers(ctx context.Context, requesterID, teamID primitive.ObjectID) ([]domain.TeamMembership, error)

	GetTeamScore(ctx context.Context, teamID primitive.ObjectID) (int, error)
	GetTeamScoreboard(ctx context.Context, requesterID, teamID primitive.ObjectID) (*TeamScoreboard, error)
}

type teamService struct {
	teamRepo       repository.TeamRepository
	membershipRepo repository.MembershipRepository
	activityRepo   repository.ActivityRepository
	userRepo       repository.UserRepository
	metrics        *metrics.Manager
}

func NewTeamService(
	teamRepo repository.TeamRepository,
	membershipRepo repository.MembershipRepository,
	activityRepo repository.ActivityRepository,
	userRepo repository.UserRepository,
	metricsManager *metrics.Manager,
) TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		membershipRepo: membershipRepo,
		activityRepo:   activityRepo,
		userRepo:       userRepo,
		metrics:        metricsManager,
	}
}

// === Team Management ===

// CreateTeam stores the team and makes its creator the first admin.
func (s *teamService) CreateTeam(ctx context.Context, creatorID primitive.ObjectID, in TeamInput) (*TeamDetails, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := domain.ValidateTeamName(in.Name); err != nil {
		return nil, err
	}

	creator := creatorID
	team := &domain.Team{
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   &creator,
		IsPrivate:   in.IsPrivate,
	}
	if _, err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	// Creator becomes the first admin. No transactions here, so undo the team by hand.
	membership := &domain.TeamMembership{UserID: creatorID, TeamID: team.ID, Role: domain.TeamRoleAdmin}
	if _, err := s.membershipRepo.Create(ctx, membership); err != nil {
		if delErr := s.teamRepo.Delete(ctx, team.ID); delErr != nil {
			log.Errorf("roll back team %s after membership failure: %s", team.ID.Hex(), delErr)
		}
		return nil, fmt.Errorf("add creator as admin: %w", err)
	}

	log.WithFields(log.Fields{"team_id": team.ID.Hex(), "user_id": creatorID.Hex()}).Info("team created")

	role := domain.TeamRoleAdmin
	return &TeamDetails{Team: *team, MyRole: &role}, nil
}

// ListTeams returns the teams visible to the requester with their scores.
// Scores of all listed teams come from one grouped-sum query.
func (s *teamService) ListTeams(ctx context.Context, requesterID primitive.ObjectID, search string) ([]TeamDetails, error) {
	mine, err := s.membershipRepo.ListByUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	myRoles := make(map[primitive.ObjectID]domain.TeamRole, len(mine))
	myTeamIDs := make([]primitive.ObjectID, 0, len(mine))
	for _, m := range mine {
		myRoles[m.TeamID] = m.Role
		myTeamIDs = append(myTeamIDs, m.TeamID)
	}

	// Private teams are filtered in the query itself
	teams, err := s.teamRepo.ListVisible(ctx, myTeamIDs, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return []TeamDetails{}, nil
	}

	teamIDs := make([]primitive.ObjectID, len(teams))
	for i, t := range teams {
		teamIDs[i] = t.ID
	}
	memberships, err := s.membershipRepo.ListByTeams(ctx, teamIDs)
	if err != nil {
		return nil, err
	}

	membersByTeam := make(map[primitive.ObjectID][]primitive.ObjectID, len(teams))
	seen := make(map[primitive.ObjectID]bool)
	var allUsers []primitive.ObjectID
	for _, m := range memberships {
		membersByTeam[m.TeamID] = append(membersByTeam[m.TeamID], m.UserID)
		if !seen[m.UserID] {
			seen[m.UserID] = true
			allUsers = append(allUsers, m.UserID)
		}
	}

	// One aggregation for every member of every listed team
	points, err := s.activityRepo.SumPointsByUsers(ctx, allUsers)
	if err != nil {
		return nil, err
	}

	out := make([]TeamDetails, 0, len(teams))
	for _, t := range teams {
		_, isMember := myRoles[t.ID]
		if !t.VisibleTo(isMember) {
			continue
		}
		details := TeamDetails{Team: t, TotalPoints: domain.TeamScore(membersByTeam[t.ID], points)}
		if role, ok := myRoles[t.ID]; ok {
			details.MyRole = &role
		}
		out = append(out, details)
	}
	s.metrics.CounterTeamScoreComputed.Add(float64(len(out)))
	return out, nil
}

// visibleTeam loads a team and the requester's membership in it (nil when not
// a member). A team the requester may not see is reported as not found.
func (s *teamService) visibleTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) (*domain.Team, *domain.TeamMembership, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, nil, notFound(err, "team %s", teamID.Hex())
	}

	membership, err := s.membershipRepo.Get(ctx, teamID, requesterID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		membership = nil
	case err != nil:
		return nil, nil, err
	}

	if !team.VisibleTo(membership != nil) {
		return nil, nil, fmt.Errorf("%w: team %s", domain.ErrNotFound, teamID.Hex())
	}
	return team, membership, nil
}

func requireAdmin(membership *domain.TeamMembership) error {
	if membership == nil || membership.Role != domain.TeamRoleAdmin {
		return fmt.Errorf("%w: only team admins can do this", domain.ErrForbidden)
	}
	return nil
}

// ensureOtherAdmin fails with ErrConflict unless the team keeps at least one
// admin besides userID.
func (s *teamService) ensureOtherAdmin(ctx context.Context, teamID, userID primitive.ObjectID) error {
	members, err := s.membershipRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.Role == domain.TeamRoleAdmin && m.UserID != userID {
			return nil
		}
	}
	return fmt.Errorf("%w: team %s would be left without an admin", domain.ErrConflict, teamID.Hex())
}

func (s *teamService) GetTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) (*TeamDetails, error) {
	team, membership, err := s.visibleTeam(ctx, requesterID, teamID)
	if err != nil {
		return nil, err
	}

	score, err := s.GetTeamScore(ctx, teamID)
	if err != nil {
		return nil, err
	}

	details := &TeamDetails{Team: *team, TotalPoints: score}
	if membership != nil {
		details.MyRole = &membership.Role
	}
	return details, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, requesterID, teamID primitive.ObjectID, upd TeamUpdate) (*TeamDetails, error) {
	team, membership, err := s.visibleTeam(ctx, requesterID, teamID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(membership); err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := domain.ValidateTeamName(name); err != nil {
			return nil, err
		}
		team.Name = name
	}
	if upd.Description != nil {
		team.Description = *upd.Description
	}
	if upd.IsPrivate != nil {
		team.IsPrivate = *upd.IsPrivate
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, notFound(err, "team %s", teamID.Hex())
	}
	return s.GetTeam(ctx, requesterID, teamID)
}

// DeleteTeam removes a team and all its memberships. Activities are untouched.
// The recorded creator may always delete it, admin or not.
func (s *teamService) DeleteTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return notFound(err, "team %s", teamID.Hex())
	}
	if team.CreatedBy == nil || *team.CreatedBy != requesterID {
		_, membership, err := s.visibleTeam(ctx, requesterID, teamID)
		if err != nil {
			return err
		}
		if err := requireAdmin(membership); err != nil {
			return err
		}
	}

	if err := s.membershipRepo.DeleteByTeam(ctx, teamID); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return notFound(err, "team %s", teamID.Hex())
	}

	log.WithFields(log.Fields{"team_id": teamID.Hex(), "user_id": requesterID.Hex()}).Info("team deleted")
	return nil
}

// === Membership ===

// JoinTeam makes the requester a member of a public team. Joining a team the
// requester already belongs to returns the existing membership.
func (s *teamService) JoinTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) (*domain.TeamMembership, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, notFound(err, "team %s", teamID.Hex())
	}

	existing, err := s.membershipRepo.Get(ctx, teamID, requesterID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if team.IsPrivate {
		return nil, fmt.Errorf("%w: team %s is private; ask an admin to add you", domain.ErrForbidden, teamID.Hex())
	}

	membership := &domain.TeamMembership{UserID: requesterID, TeamID: teamID, Role: domain.TeamRoleMember}
	if _, err := s.membershipRepo.Create(ctx, membership); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.membershipRepo.Get(ctx, teamID, requesterID)
		}
		return nil, err
	}

	log.WithFields(log.Fields{"team_id": teamID.Hex(), "user_id": requesterID.Hex()}).Info("joined team")
	return membership, nil
}

// LeaveTeam ends the requester's membership. The last admin cannot leave;
// they hand the role to someone else or delete the team.
func (s *teamService) LeaveTeam(ctx context.Context, requesterID, teamID primitive.ObjectID) error {
	membership, err := s.membershipRepo.Get(ctx, teamID, requesterID)
	if err != nil {
		return notFound(err, "membership in team %s", teamID.Hex())
	}
	if membership.Role == domain.TeamRoleAdmin {
		if err := s.ensureOtherAdmin(ctx, teamID, requesterID); err != nil {
			return err
		}
	}

	if err := s.membershipRepo.Delete(ctx, teamID, requesterID); err != nil {
		return notFound(err, "membership in team %s", teamID.Hex())
	}
	log.WithFields(log.Fields{"team_id": teamID.Hex(), "user_id": requesterID.Hex()}).Info("left team")
	return nil
}

// AddMember lets a team admin add another user with the given role.
func (s *teamService) AddMember(ctx context.Context, requesterID, teamID, userID primitive.ObjectID, role domain.TeamRole) (*domain.TeamMembership, error) {
	if role == "" {
		role = domain.TeamRoleMember
	}
	if !role.Valid() {
		return nil, validation("unknown team role %q", string(role))
	}

	// 1. Only admins of a team the requester can see may add people
	_, membership, err := s.visibleTeam(ctx, requesterID, teamID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(membership); err != nil {
		return nil, err
	}

	// 2. Find the user being added
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, notFound(err, "user %s", userID.Hex())
	}

	// 3. Create the membership; the unique index reports duplicates
	added := &domain.TeamMembership{UserID: userID, TeamID: teamID, Role: role}
	if _, err := s.membershipRepo.Create(ctx, added); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user %s is already a member of team %s", domain.ErrConflict, userID.Hex(), teamID.Hex())
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"team_id": teamID.Hex(),
		"user_id": userID.Hex(),
		"role":    role,
	}).Info("membership added")
	return added, nil
}

func (s *teamService) UpdateMemberRole(ctx context.Context, requesterID, teamID, userID primitive.ObjectID, role domain.TeamRole) (*domain.TeamMembership, error) {
	if !role.Valid() {
		return nil, validation("unknown team role %q", string(role))
	}

	_, membership, err := s.visibleTeam(ctx, requesterID, teamID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(membership); err != nil {
		return nil, err
	}

	// demoting the only admin would leave nobody to manage the team
	if role != domain.TeamRoleAdmin {
		if err := s.ensureOtherAdmin(ctx, teamID, userID); err != nil {
			return nil, err
		}
	}

	if err := s.membershipRepo.UpdateRole(ctx, teamID, userID, role); err != nil {
		return nil, notFound(err, "membership of user %s in team %s", userID.Hex(), teamID.Hex())
	}
	updated, err := s.membershipRepo.Get(ctx, teamID, userID)
	if err != nil {
		return nil, notFound(err, "membership of user %s in team %s", userID.Hex(), teamID.Hex())
	}
	return updated, nil
}

func (s *teamService) RemoveMember(ctx context.Context, requesterID, teamID, userID primitive.ObjectID) error {
	_, membership, err := s.visibleTeam(ctx, requesterID, teamID)
	if err != nil {
		return err
	}
	if err := requireAdmin(membership); err != nil {
		return err
	}
	if err := s.ensureOtherAdmin(ctx, teamID, userID); err != nil {
		return err
	}

	if err := s.membershipRepo.Delete(ctx, teamID, userID); err != nil {
		return notFound(err, "membership of user %s in team %s", userID.Hex(), teamID.Hex())
	}
	log.WithFields(log.Fields{"team_id": teamID.Hex(), "user_id": userID.Hex()}).Info("membership removed")
	return nil
}

func (s *teamService) ListMyMemberships(ctx context.Context, requesterID primitive.ObjectID) ([]domain.TeamMembership, error) {
	return s.membershipRepo.ListByUser(ctx, requesterID)
}

func (s *teamService) ListTeamMembers(ctx context.Context, requesterID, teamID primitive.ObjectID) ([]domain.TeamMembership, error) {
	if _, _, err := s.visibleTeam(ctx, requesterID, teamID); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListByTeam(ctx, teamID)
}

// === Scores ===

// GetTeamScore returns the sum of all points of all members of the team. It
// is computed on every call and never stored.
func (s *teamService) GetTeamScore(ctx context.Context, teamID primitive.ObjectID) (int, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return 0, notFound(err, "team %s", teamID.Hex())
	}
	board, err := s.scoreboard(ctx, teamID)
	if err != nil {
		return 0, err
	}
	return board.TotalPoints, nil
}

func (s *teamService) GetTeamScoreboard(ctx context.Context, requesterID, teamID primitive.ObjectID) (*TeamScoreboard, error) {
	if _, _, err := s.visibleTeam(ctx, requesterID, teamID); err != nil {
		return nil, err
	}
	return s.scoreboard(ctx, teamID)
}

func (s *teamService) scoreboard(ctx context.Context, teamID primitive.ObjectID) (*TeamScoreboard, error) {
	memberships, err := s.membershipRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	members := make([]primitive.ObjectID, len(memberships))
	for i, m := range memberships {
		members[i] = m.UserID
	}

	points, err := s.activityRepo.SumPointsByUsers(ctx, members)
	if err != nil {
		return nil, err
	}

	s.metrics.CounterTeamScoreComputed.Inc()
	return &TeamScoreboard{
		TeamID:      teamID,
		TotalPoints: domain.TeamScore(members, points),
		Members:     domain.Scoreboard(members, points),
	}, nil
}
