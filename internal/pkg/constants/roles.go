package constants

const (
	HeadCoach      = "head_coach"
	AssistantCoach = "assistant_coach"
	TeamManager    = "team_manager"
	Player         = "player"
	ClubAdmin      = "club_admin"
	ClubStaff      = "club_staff"
	Parent         = "parent"
)

// ValidRoles is the set of allowed DB enum values for a role grant.
var ValidRoles = []string{HeadCoach, AssistantCoach, TeamManager, Player, ClubAdmin, ClubStaff, Parent}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
