package service

import (
	"context"
	"testing"

	"octofit/tracker-api/internal/domain"
	"octofit/tracker-api/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTeamService(f *fixture) (TeamService, *metrics.Manager) {
	m := metrics.NewTestManager()
	return NewTeamService(f.teams, f.memberships, f.activities, f.users, m), m
}

// seedPoints stores an already scored activity for user.
func (f *fixture) seedPoints(t *testing.T, user primitive.ObjectID, points int) {
	t.Helper()
	_, err := f.activities.Create(context.Background(), &domain.Activity{
		UserID:          user,
		ExerciseTypeID:  primitive.NewObjectID(),
		DurationMinutes: 30,
		CaloriesBurned:  intPtr(points),
		Points:          intPtr(points),
	})
	require.NoError(t, err)
}

func TestTeamScore_SumsMemberPoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc, m := newTeamService(f)
	alice := f.addUser("alice")
	bob := f.addUser("bob")
	outsider := f.addUser("carol")

	team, err := svc.CreateTeam(ctx, alice, TeamInput{Name: "Octocats"})
	require.NoError(t, err)
	_, err = svc.JoinTeam(ctx, bob, team.ID)
	require.NoError(t, err)

	f.seedPoints(t, alice, 300)
	f.seedPoints(t, bob, 200)
	f.seedPoints(t, bob, 250)
	f.seedPoints(t, outsider, 1000)

	score, err := svc.GetTeamScore(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 750, score)

	board, err := svc.GetTeamScoreboard(ctx, alice, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 750, board.TotalPoints)
	assert.Equal(t, []domain.MemberScore{{UserID: bob, Points: 450}, {UserID: alice, Points: 300}}, board.Members)

	details, err := svc.GetTeam(ctx, bob, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 750, details.TotalPoints)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.CounterTeamScoreComputed))
}

func TestTeamScore_EmptyAndUnknownTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc, _ := newTeamService(f)
	alice := f.addUser("alice")

	team, err := svc.CreateTeam(ctx, alice, TeamInput{Name: "Solo"})
	require.NoError(t, err)
	require.NoError(t, f.memberships.DeleteByTeam(ctx, team.ID))

	score, err := svc.GetTeamScore(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, score)

	_, err = svc.GetTeamScore(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTeams_UsesOneGroupedSum(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc, _ := newTeamService(f)
	alice := f.addUser("alice")
	bob := f.addUser("bob")

	a, err := svc.CreateTeam(ctx, alice, TeamInput{Name: "Alpha"})
	require.NoError(t, err)
	b, err := svc.CreateTeam(ctx, bob, TeamInput{Name: "Bravo"})
	require.NoError(t, err)
	f.seedPoints(t, alice, 100)
	f.seedPoints(t, bob, 40)

	f.activities.sumCalls = 0
	teams, err := svc.ListTeams(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 1, f.activities.sumCalls)

	assert.Equal(t, a.ID, teams[0].ID)
	assert.Equal(t, 100, teams[0].TotalPoints)
	require.NotNil(t, teams[0].MyRole)
	assert.Equal(t, domain.TeamRoleAdmin, *teams[0].MyRole)
	assert.Equal(t, b.ID, teams[1].ID)
	assert.Equal(t, 40, teams[1].TotalPoints)
	assert.Nil(t, teams[1].MyRole)

	found, err := svc.ListTeams(ctx, alice, "brav")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, b.ID, found[0].ID)
}

func TestPrivateTeam_HiddenUntilMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc, _ := newTeamService(f)
	admin := f.addUser("admin")
	requester := f.addUser("requester")

	private, err := svc.CreateTeam(ctx, admin, TeamInput{Name: "Secret", IsPrivate: true})
	require.NoError(t, err)
	public, err := svc.CreateTeam(ctx, admin, TeamInput{Name: "Open"})
	require.NoError(t, err)

	teams, err := svc.ListTeams(ctx, requester, "")
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, public.ID, teams[0].ID)

	_, err = svc.GetTeam(ctx, requester, private.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.ListTeamMembers(ctx, requester, private.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.JoinTeam(ctx, requester, private.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Any role grants visibility.
	_, err = svc.AddMember(ctx, admin, private.ID, requester, domain.TeamRoleCoach)
	require.NoError(t, err)

	teams, err = svc.ListTeams(ctx, requester, "")
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	got, err := svc.GetTeam(ctx, requester, private.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MyRole)
	assert.Equal(t, domain.TeamRoleCoach, *got.MyRole)
}

func TestMemberships_DuplicateAndRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc, _ := newTeamService(f)
	admin := f.addUser("admin")
	member := f.addUser("member")

	team, err := svc.CreateTeam(ctx, admin, TeamInput{Name: "Crew"})
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, admin, team.ID, member, "")
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, admin, team.ID, member, domain.TeamRoleMember)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Joining again is a no-op returning the existing membership.
	joined, err := svc.JoinTeam(ctx, member, team.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TeamRoleMember, joined.Role)

	_, err = svc.AddMember(ctx, admin, team.ID, f.addUser("x"), "captain")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddMember(ctx, admin, team.ID, primitive.NewObjectID(), domain.TeamRoleMember)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.AddMember(ctx, member, team.ID, f.addUser("y"), domain.TeamRoleMember)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	promoted, err := svc.UpdateMemberRole(ctx, admin, team.ID, member, domain.TeamRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.TeamRoleAdmin, promoted.Role)

	members, err := svc.ListTeamMembers(ctx, admin, team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	mine, err := svc.ListMyMemberships(ctx, member)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, team.ID, mine[0].TeamID)

	require.NoError(t, svc.RemoveMember(ctx, member, team.ID, admin))
	assert.ErrorIs(t, svc.RemoveMember(ctx, member, team.ID, admin), domain.ErrNotFound)
	assert.ErrorIs(t, svc.LeaveTeam(ctx, admin, team.ID), domain.ErrNotFound)
}

func TestUpdateAndDeleteTeam_AdminOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc, _ := newTeamService(f)
	admin := f.addUser("admin")
	member := f.addUser("member")

	team, err := svc.CreateTeam(ctx, admin, TeamInput{Name: "Crew"})
	require.NoError(t, err)
	_, err = svc.JoinTeam(ctx, member, team.ID)
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.UpdateTeam(ctx, member, team.ID, TeamUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteTeam(ctx, member, team.ID), domain.ErrForbidden)

	empty := " "
	_, err = svc.UpdateTeam(ctx, admin, team.ID, TeamUpdate{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)

	private := true
	updated, err := svc.UpdateTeam(ctx, admin, team.ID, TeamUpdate{Name: &name, IsPrivate: &private})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.IsPrivate)

	require.NoError(t, svc.DeleteTeam(ctx, admin, team.ID))
	assert.Empty(t, f.memberships.memberships)
	_, err = svc.GetTeam(ctx, admin, team.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLastAdminCannotLeave(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc, _ := newTeamService(f)
	users := newUserService(f)
	creator := f.addUser("creator")
	member := f.addUser("member")

	team, err := svc.CreateTeam(ctx, creator, TeamInput{Name: "Crew", IsPrivate: true})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, creator, team.ID, member, domain.TeamRoleMember)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.LeaveTeam(ctx, creator, team.ID), domain.ErrConflict)
	assert.ErrorIs(t, svc.RemoveMember(ctx, creator, team.ID, creator), domain.ErrConflict)
	_, err = svc.UpdateMemberRole(ctx, creator, team.ID, creator, domain.TeamRoleMember)
	assert.ErrorIs(t, err, domain.ErrConflict)

	still, err := f.memberships.Get(ctx, team.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, domain.TeamRoleAdmin, still.Role)

	// With a second admin the creator is free to go.
	_, err = svc.UpdateMemberRole(ctx, creator, team.ID, member, domain.TeamRoleAdmin)
	require.NoError(t, err)
	require.NoError(t, svc.LeaveTeam(ctx, creator, team.ID))

	// A plain member always may.
	other := f.addUser("other")
	_, err = svc.AddMember(ctx, member, team.ID, other, domain.TeamRoleMember)
	require.NoError(t, err)
	require.NoError(t, svc.LeaveTeam(ctx, other, team.ID))

	// The creator is no longer a member but can still delete the team, after
	// which the account can be deleted too.
	require.NoError(t, svc.DeleteTeam(ctx, creator, team.ID))
	require.NoError(t, users.DeleteAccount(ctx, creator))
}

func TestCreateTeam_Validation(t *testing.T) {
	f := newFixture()
	svc, _ := newTeamService(f)

	_, err := svc.CreateTeam(context.Background(), f.addUser("a"), TeamInput{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.teams.teams)
}
