package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teamhub-backend/internal/application/emails"
	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProvisionError wraps the cause of a hard provisioning failure (step 1 or a
// malformed invitation). Soft failures in steps 2-4 never produce one.
type ProvisionError struct {
	Step string
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// ProvisionInput joins a validated invitation with a resolved identity.
type ProvisionInput struct {
	Invitation *domain.Invitation
	UserID     uuid.UUID
	Email      string
	Fullname   string
	Phone      string // optional; written best-effort to the profile
	Role       string
	IsPrimary  bool
}

// Service performs the ordered provisioning writes. The store gives no
// cross-write atomicity, so the sequence is built for safe partial completion
// and idempotent retry:
//
//  1. RoleGrant insert; a duplicate-key conflict counts as success.
//  2. Best-effort profile update; failure is logged, never fatal.
//  3. Conditional consume of the invitation; first writer wins, the loser's
//     write is advisory and its failure never rolls anything back.
//  4. Best-effort welcome email.
//
// The RoleGrant lands before the invitation is marked consumed, so a crash
// between steps leaves the invitation still valid and retryable rather than
// used-but-ungranted.
type Service struct {
	DB     *gorm.DB
	Emails emails.Sender

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Provision grants the invited role, links the identity to the target entity,
// and marks the invitation consumed.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) error {
	entityKind, entityID, err := in.Invitation.EntityID()
	if err != nil {
		return &ProvisionError{Step: "target resolution", Err: err}
	}

	// Step 1: the only write with real access consequence.
	grant := &domain.RoleGrant{
		UserID:     in.UserID,
		EntityKind: entityKind,
		EntityID:   entityID,
		Role:       in.Role,
		IsPrimary:  in.IsPrimary,
	}
	if err := s.DB.WithContext(ctx).Create(grant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// The grant already exists; the whole transaction stays idempotent
			// under retry. Foreign-key and other insert failures stay hard.
			log.Debug().
				Str("user_id", in.UserID.String()).
				Str("entity_id", entityID.String()).
				Str("role", in.Role).
				Msg("role grant already exists, continuing")
		} else {
			return &ProvisionError{Step: "role grant", Err: err}
		}
	}

	// Step 2: profile fields, best-effort.
	upd := map[string]interface{}{}
	if in.Phone != "" {
		upd["phone"] = validation.NormalizePhone(in.Phone)
	}
	if in.Fullname != "" {
		upd["fullname"] = in.Fullname
	}
	if len(upd) > 0 {
		if err := s.DB.WithContext(ctx).Model(&domain.User{}).
			Where("user_id = ?", in.UserID).Updates(upd).Error; err != nil {
			log.Warn().Err(err).Str("user_id", in.UserID.String()).Msg("profile update failed during provisioning")
		}
	}

	// Step 3: consume, conditioned on still being unconsumed.
	res := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("invite_id = ? AND consumed_at IS NULL", in.Invitation.InviteID).
		Updates(map[string]interface{}{
			"consumed_at": s.now(),
			"consumed_by": in.UserID,
		})
	if res.Error != nil {
		log.Warn().Err(res.Error).Str("code", in.Invitation.Code).Msg("consume write failed, grant already committed")
	} else if res.RowsAffected == 0 {
		log.Info().Str("code", in.Invitation.Code).Msg("invitation consumed by a concurrent attempt")
	}

	// Step 4: welcome email, fire-and-forget.
	if s.Emails != nil {
		if err := s.Emails.SendWelcome(ctx, in.Email, firstName(in.Fullname), entityDisplayName(in.Invitation), in.Role); err != nil {
			log.Warn().Err(err).Str("email", in.Email).Msg("welcome email failed")
		}
	}
	return nil
}

func firstName(fullname string) string {
	for i, r := range fullname {
		if r == ' ' {
			return fullname[:i]
		}
	}
	return fullname
}

func entityDisplayName(inv *domain.Invitation) string {
	p, err := inv.DisplayPayload()
	if err != nil {
		return "your team"
	}
	switch v := p.(type) {
	case domain.TeamInvitePayload:
		return v.TeamName
	case domain.StaffInvitePayload:
		return v.ClubName
	case domain.CoParentPayload:
		return v.TeamName
	}
	return "your team"
}
