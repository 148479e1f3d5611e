package policies

import (
	"errors"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ValidateInviteCreationParams struct {
	ActorUserID string
	EntityKind  domain.EntityKind
	EntityID    uuid.UUID
	Role        string
}

// ValidateInviteCreation checks that the actor holds a role on the target
// entity that is allowed to invite members, and that the requested role is a
// known enum value.
func ValidateInviteCreation(db *gorm.DB, p ValidateInviteCreationParams) error {
	if !constants.IsValidRole(p.Role) {
		return errors.New("Invalid role")
	}

	actorID, err := uuid.Parse(p.ActorUserID)
	if err != nil {
		return errors.New("Invalid actor user ID")
	}

	var grants []domain.RoleGrant
	if err := db.Where("user_id = ? AND entity_kind = ? AND entity_id = ?", actorID, p.EntityKind, p.EntityID).
		Find(&grants).Error; err != nil {
		return err
	}
	for _, g := range grants {
		if constants.AllowedRole(constants.InviteMember, g.Role) {
			return nil
		}
	}
	return errors.New("You are not allowed to invite members to this " + string(p.EntityKind))
}
