package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityKind identifies the target entity type of a role grant.
type EntityKind string

const (
	EntityTeam EntityKind = "team"
	EntityClub EntityKind = "club"
)

// RoleGrant links an identity, a target entity, and a role label. The
// composite unique index makes a duplicate grant a detectable conflict so the
// provisioning transaction can treat it as an idempotent no-op.
type RoleGrant struct {
	GrantID    uuid.UUID      `gorm:"column:grant_id;type:uuid;primaryKey" json:"grant_id"`
	UserID     uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_grant_user_entity_role" json:"user_id"`
	EntityKind EntityKind     `gorm:"column:entity_kind;type:varchar(8);not null;uniqueIndex:idx_grant_user_entity_role" json:"entity_kind"`
	EntityID   uuid.UUID      `gorm:"column:entity_id;type:uuid;not null;uniqueIndex:idx_grant_user_entity_role" json:"entity_id"`
	Role       string         `gorm:"column:role;not null;uniqueIndex:idx_grant_user_entity_role" json:"role"`
	IsPrimary  bool           `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RoleGrant) TableName() string {
	return "RoleGrants"
}

func (g *RoleGrant) BeforeCreate(tx *gorm.DB) error {
	if g.GrantID == uuid.Nil {
		g.GrantID = uuid.New()
	}
	return nil
}
