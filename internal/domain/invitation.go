package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvitationKind discriminates the invitation variants. Each kind carries its
// own payload shape in the Payload column (see DisplayPayload).
type InvitationKind string

const (
	KindTeam        InvitationKind = "team"
	KindStaff       InvitationKind = "staff"
	KindClub        InvitationKind = "club"
	KindCoParent    InvitationKind = "co_parent"
	KindClaimPlayer InvitationKind = "claim_player"
)

// ValidKinds is the set of allowed DB enum values for invitation kind.
var ValidKinds = []InvitationKind{KindTeam, KindStaff, KindClub, KindCoParent, KindClaimPlayer}

func IsValidKind(kind InvitationKind) bool {
	for _, k := range ValidKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Invitation is a single-use grant of a role on a target entity. ConsumedAt
// is null until exactly one successful provisioning run sets it; every later
// consumption attempt must be rejected.
type Invitation struct {
	InviteID   uuid.UUID      `gorm:"column:invite_id;type:uuid;primaryKey" json:"invite_id"`
	Code       string         `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Kind       InvitationKind `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	TeamID     *uuid.UUID     `gorm:"column:team_id;type:uuid" json:"team_id"`
	ClubID     *uuid.UUID     `gorm:"column:club_id;type:uuid" json:"club_id"`
	Role       string         `gorm:"column:role;not null" json:"role"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedBy  string         `gorm:"column:created_by;not null" json:"created_by"`
	ExpiresAt  *time.Time     `gorm:"column:expires_at" json:"expires_at"`
	ConsumedAt *time.Time     `gorm:"column:consumed_at" json:"consumed_at"`
	ConsumedBy *uuid.UUID     `gorm:"column:consumed_by;type:uuid" json:"consumed_by"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invitation) TableName() string {
	return "Invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.InviteID == uuid.Nil {
		i.InviteID = uuid.New()
	}
	return nil
}

// EntityID returns the target entity reference for the granted role.
func (i *Invitation) EntityID() (EntityKind, uuid.UUID, error) {
	switch i.Kind {
	case KindClub, KindStaff:
		if i.ClubID == nil {
			return "", uuid.Nil, errors.New("invitation has no club target")
		}
		return EntityClub, *i.ClubID, nil
	default:
		if i.TeamID == nil {
			return "", uuid.Nil, errors.New("invitation has no team target")
		}
		return EntityTeam, *i.TeamID, nil
	}
}

// TeamInvitePayload is the display metadata for team and claim_player invites.
type TeamInvitePayload struct {
	TeamName   string  `json:"team_name"`
	Sport      string  `json:"sport"`
	Season     *string `json:"season,omitempty"`
	PlayerName *string `json:"player_name,omitempty"`
}

// StaffInvitePayload is the display metadata for staff and club invites.
type StaffInvitePayload struct {
	ClubName string `json:"club_name"`
	Title    string `json:"title"`
}

// CoParentPayload is the display metadata for co_parent invites.
type CoParentPayload struct {
	PlayerName string `json:"player_name"`
	TeamName   string `json:"team_name"`
}

// DisplayPayload decodes the kind-specific payload for rendering. The return
// type is one of TeamInvitePayload, StaffInvitePayload, CoParentPayload.
func (i *Invitation) DisplayPayload() (interface{}, error) {
	switch i.Kind {
	case KindTeam, KindClaimPlayer:
		var p TeamInvitePayload
		if err := json.Unmarshal(i.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindStaff, KindClub:
		var p StaffInvitePayload
		if err := json.Unmarshal(i.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	case KindCoParent:
		var p CoParentPayload
		if err := json.Unmarshal(i.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, errors.New("unknown invitation kind: " + string(i.Kind))
}
