package domain

import (
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamRole is a member's role within a team.
type TeamRole string

const (
	TeamRoleMember TeamRole = "member"
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleCoach  TeamRole = "coach"
)

// Valid reports whether r is a known team role.
func (r TeamRole) Valid() bool {
	switch r {
	case TeamRoleMember, TeamRoleAdmin, TeamRoleCoach:
		return true
	}
	return false
}

// Team groups users. Its score is never stored; see TeamScore.
type Team struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description" json:"description"`
	CreatedBy   *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	IsPrivate   bool                `bson:"isPrivate" json:"isPrivate"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// VisibleTo reports whether a requester may see the team in listings: the team
// is public, or the requester holds a membership in it with any role.
func (t *Team) VisibleTo(requesterIsMember bool) bool {
	return !t.IsPrivate || requesterIsMember
}

// TeamMembership joins a user to a team. (UserID, TeamID) is unique.
type TeamMembership struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"`
	TeamID   primitive.ObjectID `bson:"teamId" json:"teamId"`
	Role     TeamRole           `bson:"role" json:"role"`
	JoinedAt time.Time          `bson:"joinedAt" json:"joinedAt"`
}

// ValidateTeamName checks the name constraints of a team.
func ValidateTeamName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: team name is required", ErrValidation)
	}
	if len(name) > 100 {
		return fmt.Errorf("%w: team name must be at most 100 characters", ErrValidation)
	}
	return nil
}

// MemberScore is one member's lifetime points.
type MemberScore struct {
	UserID primitive.ObjectID `json:"userId"`
	Points int                `json:"points"`
}

// TeamScore sums the lifetime points of every member. pointsByUser holds the
// per-user sums as returned by a grouped-sum query; members without an entry
// contribute 0. A team with no members scores 0.
//
// Points earned before a member joined are counted as well.
func TeamScore(members []primitive.ObjectID, pointsByUser map[primitive.ObjectID]int) int {
	total := 0
	for _, id := range members {
		total += pointsByUser[id]
	}
	return total
}

// Scoreboard returns per-member points ordered by points descending, ties
// broken by user ID so the order is stable.
func Scoreboard(members []primitive.ObjectID, pointsByUser map[primitive.ObjectID]int) []MemberScore {
	board := make([]MemberScore, 0, len(members))
	for _, id := range members {
		board = append(board, MemberScore{UserID: id, Points: pointsByUser[id]})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Points != board[j].Points {
			return board[i].Points > board[j].Points
		}
		return board[i].UserID.Hex() < board[j].UserID.Hex()
	})
	return board
}
