package constants

const (
	InviteMember  = "INVITE_MEMBER"
	RevokeInvite  = "REVOKE_INVITE"
	ViewInvites   = "VIEW_INVITES"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	InviteMember: {HeadCoach, TeamManager, ClubAdmin},
	RevokeInvite: {HeadCoach, TeamManager, ClubAdmin},
	ViewInvites:  {HeadCoach, AssistantCoach, TeamManager, ClubAdmin, ClubStaff},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
