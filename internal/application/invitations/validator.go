package invitations

import (
	"context"
	"errors"
	"strings"
	"time"

	"teamhub-backend/internal/domain"

	"gorm.io/gorm"
)

// StatusKind classifies an invitation lookup into a lifecycle state.
type StatusKind string

const (
	StatusValid          StatusKind = "valid"
	StatusUsed           StatusKind = "used"
	StatusExpired        StatusKind = "expired"
	StatusNotFound       StatusKind = "not_found"
	StatusTransientError StatusKind = "transient_error"
)

// InvitationStatus is the result of Validate. Invitation is set for Valid
// (full payload for rendering) and Used (consumed metadata); Cause is set for
// TransientError so callers can log it and offer a retry instead of a
// permanent rejection.
type InvitationStatus struct {
	Kind       StatusKind
	Invitation *domain.Invitation
	UsedAt     *time.Time
	ExpiresAt  *time.Time
	Cause      error
}

// Validator classifies invitation codes. Reads only, safely re-callable.
type Validator struct {
	DB *gorm.DB

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Validate looks up the invitation by code and classifies it.
// Used takes precedence over Expired: an invitation can be both past expiry
// and consumed, and the consumer-facing answer is Used.
func (v *Validator) Validate(ctx context.Context, code string) InvitationStatus {
	code = strings.TrimSpace(code)
	if code == "" {
		return InvitationStatus{Kind: StatusNotFound}
	}

	var inv domain.Invitation
	err := v.DB.WithContext(ctx).Where("code = ?", code).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return InvitationStatus{Kind: StatusNotFound}
	}
	if err != nil {
		return InvitationStatus{Kind: StatusTransientError, Cause: err}
	}

	if inv.ConsumedAt != nil {
		return InvitationStatus{Kind: StatusUsed, Invitation: &inv, UsedAt: inv.ConsumedAt}
	}
	if inv.ExpiresAt != nil && inv.ExpiresAt.Before(v.now()) {
		return InvitationStatus{Kind: StatusExpired, Invitation: &inv, ExpiresAt: inv.ExpiresAt}
	}
	return InvitationStatus{Kind: StatusValid, Invitation: &inv}
}
