package invitations

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"teamhub-backend/internal/application/emails"
	"teamhub-backend/internal/application/policies/invitations"
	"teamhub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const inviteExpiry = 30 * 24 * time.Hour

// Service creates and manages invitations (the inviter side of the flow).
type Service struct {
	DB            *gorm.DB
	Emails        emails.Sender
	InviteBaseURL string
}

type CreateInviteInput struct {
	ActorUserID string
	Kind        domain.InvitationKind
	TeamID      *uuid.UUID
	ClubID      *uuid.UUID
	Role        string
	Email       string // optional; when set the invite is emailed
}

// CreateInvite validates the actor's standing on the target entity, generates
// a single-use code, and optionally emails it to the invitee.
func (s *Service) CreateInvite(ctx context.Context, in CreateInviteInput) (*domain.Invitation, error) {
	if !domain.IsValidKind(in.Kind) {
		return nil, errors.New("Invalid invitation kind")
	}

	inv := &domain.Invitation{
		Code:      GenerateCode(),
		Kind:      in.Kind,
		TeamID:    in.TeamID,
		ClubID:    in.ClubID,
		Role:      in.Role,
		CreatedBy: in.ActorUserID,
	}
	entityKind, entityID, err := inv.EntityID()
	if err != nil {
		return nil, err
	}

	if err := policies.ValidateInviteCreation(s.DB, policies.ValidateInviteCreationParams{
		ActorUserID: in.ActorUserID,
		EntityKind:  entityKind,
		EntityID:    entityID,
		Role:        in.Role,
	}); err != nil {
		return nil, err
	}

	entityName, err := s.entityName(ctx, entityKind, entityID)
	if err != nil {
		return nil, err
	}
	payload, err := buildPayload(in.Kind, entityName)
	if err != nil {
		return nil, err
	}
	inv.Payload = payload

	expiresAt := time.Now().Add(inviteExpiry)
	inv.ExpiresAt = &expiresAt

	if err := s.DB.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}

	if in.Email != "" && s.Emails != nil {
		link := s.InviteBaseURL + "/join?code=" + inv.Code
		if err := s.Emails.SendInvite(ctx, strings.ToLower(in.Email), link, entityName, in.Role); err != nil {
			log.Warn().Err(err).Str("code", inv.Code).Msg("invite email failed")
		}
	}
	return inv, nil
}

type ListInvitesInput struct {
	EntityKind domain.EntityKind
	EntityID   uuid.UUID
}

// ListInvites returns the invitations targeting one entity, newest first.
func (s *Service) ListInvites(ctx context.Context, in ListInvitesInput) ([]domain.Invitation, error) {
	q := s.DB.WithContext(ctx)
	if in.EntityKind == domain.EntityClub {
		q = q.Where("club_id = ?", in.EntityID)
	} else {
		q = q.Where("team_id = ?", in.EntityID)
	}
	var invitations []domain.Invitation
	if err := q.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

// RevokeInvite soft-deletes an unconsumed invitation so its code stops
// validating. Consumed invitations are immutable history and cannot be revoked.
func (s *Service) RevokeInvite(ctx context.Context, code string) error {
	var inv domain.Invitation
	if err := s.DB.WithContext(ctx).Where("code = ?", code).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("Invitation not found")
		}
		return err
	}
	if inv.ConsumedAt != nil {
		return errors.New("Invitation has already been used")
	}
	return s.DB.WithContext(ctx).Delete(&inv).Error
}

func (s *Service) entityName(ctx context.Context, kind domain.EntityKind, id uuid.UUID) (string, error) {
	if kind == domain.EntityClub {
		var club domain.Club
		if err := s.DB.WithContext(ctx).Where("club_id = ?", id).First(&club).Error; err != nil {
			return "", errors.New("Club not found")
		}
		return club.ClubName, nil
	}
	var team domain.Team
	if err := s.DB.WithContext(ctx).Where("team_id = ?", id).First(&team).Error; err != nil {
		return "", errors.New("Team not found")
	}
	return team.TeamName, nil
}

func buildPayload(kind domain.InvitationKind, entityName string) (datatypes.JSON, error) {
	var p interface{}
	switch kind {
	case domain.KindTeam, domain.KindClaimPlayer:
		p = domain.TeamInvitePayload{TeamName: entityName, Sport: "unspecified"}
	case domain.KindStaff, domain.KindClub:
		p = domain.StaffInvitePayload{ClubName: entityName, Title: "Staff"}
	case domain.KindCoParent:
		p = domain.CoParentPayload{TeamName: entityName}
	default:
		return nil, errors.New("unknown invitation kind")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// codeAlphabet omits ambiguous characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode produces an opaque single-use code like "UPS-RV2RLR".
func GenerateCode() string {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	out := make([]byte, 0, 10)
	for i, c := range b {
		if i == 3 {
			out = append(out, '-')
		}
		out = append(out, codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return string(out)
}
