package identity

import (
	"context"
	"fmt"
	"strings"

	"teamhub-backend/internal/pkg/validation"

	"github.com/google/uuid"
)

// Mode selects how the acting identity is produced.
type Mode string

const (
	ModeNewAccount Mode = "new_account"
	ModeExisting   Mode = "existing"
)

// Provenance records whether the identity was created during this flow.
type Provenance string

const (
	ProvenanceNew      Provenance = "new"
	ProvenanceExisting Provenance = "existing"
)

// Session is the caller's current authenticated session, passed in explicitly
// rather than read from a global.
type Session struct {
	UserID   string
	Email    string
	Fullname string
}

// VerifiedIdentity is the product of a completed out-of-band verification.
type VerifiedIdentity struct {
	UserID   uuid.UUID
	Email    string
	Fullname string
}

// ResolvedIdentity is a usable, authenticated identity for provisioning.
type ResolvedIdentity struct {
	UserID     uuid.UUID
	Email      string
	Fullname   string
	Provenance Provenance
}

// RegistrationForm is the new-account form data.
type RegistrationForm struct {
	Fullname        string `json:"fullname"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate returns field-scoped messages; nil means the form is acceptable.
func (f RegistrationForm) Validate() ValidationError {
	errs := ValidationError{}
	if strings.TrimSpace(f.Fullname) == "" {
		errs["fullname"] = "Full name is required"
	} else if !validation.IsValidFullname(strings.TrimSpace(f.Fullname)) {
		errs["fullname"] = "Full name contains invalid characters"
	}
	if !validation.IsValidEmail(strings.TrimSpace(f.Email)) {
		errs["email"] = "Enter a valid email address"
	}
	if !validation.IsValidPhone(f.Phone) {
		errs["phone"] = "Enter a valid 10-digit phone number"
	}
	if !validation.IsValidPassword(f.Password) {
		errs["password"] = "Password must be at least 8 characters with a letter, a number, and a symbol"
	}
	if f.Password != f.ConfirmPassword {
		errs["confirm_password"] = "Passwords do not match"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ResolveInput feeds one Resolve call. Exactly one of the mode-specific
// branches is consulted: Form for new-account mode; Session or Verified for
// existing-account mode.
type ResolveInput struct {
	Mode Mode

	// New-account mode.
	Form *RegistrationForm
	// EmailKnownTaken is the availability checker's verdict for the form
	// email. When true, resolution fails fast with ErrEmailTaken instead of
	// racing the duplicate-email constraint.
	EmailKnownTaken bool

	// Existing-account mode.
	Session  *Session
	Verified *VerifiedIdentity
}

// Resolver produces the acting identity for a provisioning run.
type Resolver struct {
	Auth AuthProvider
}

// Resolve determines or creates the acting identity. Every failure maps to
// exactly one typed error; nothing is swallowed.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput) (*ResolvedIdentity, error) {
	switch in.Mode {
	case ModeNewAccount:
		return r.resolveNew(ctx, in)
	case ModeExisting:
		return r.resolveExisting(in)
	}
	return nil, fmt.Errorf("unknown resolution mode %q", in.Mode)
}

func (r *Resolver) resolveNew(ctx context.Context, in ResolveInput) (*ResolvedIdentity, error) {
	if in.Form == nil {
		return nil, ValidationError{"form": "Registration form is required"}
	}
	if errs := in.Form.Validate(); errs != nil {
		return nil, errs
	}
	email := strings.TrimSpace(strings.ToLower(in.Form.Email))
	if in.EmailKnownTaken {
		return nil, ErrEmailTaken
	}

	u, err := r.Auth.SignUp(ctx, email, in.Form.Password, SignUpMetadata{
		Fullname: strings.TrimSpace(in.Form.Fullname),
		Phone:    in.Form.Phone,
	})
	if err != nil {
		return nil, err
	}

	// Creation alone is not enough: role-granting writes are access-controlled
	// and need a session behind them.
	if _, err := r.Auth.SignIn(ctx, email, in.Form.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPostCreateSignInFailed, err)
	}

	return &ResolvedIdentity{
		UserID:     u.UserID,
		Email:      u.Email,
		Fullname:   u.Fullname,
		Provenance: ProvenanceNew,
	}, nil
}

func (r *Resolver) resolveExisting(in ResolveInput) (*ResolvedIdentity, error) {
	if in.Session != nil {
		id, err := uuid.Parse(in.Session.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid session user id: %w", err)
		}
		return &ResolvedIdentity{
			UserID:     id,
			Email:      in.Session.Email,
			Fullname:   in.Session.Fullname,
			Provenance: ProvenanceExisting,
		}, nil
	}
	if in.Verified != nil {
		return &ResolvedIdentity{
			UserID:     in.Verified.UserID,
			Email:      in.Verified.Email,
			Fullname:   in.Verified.Fullname,
			Provenance: ProvenanceExisting,
		}, nil
	}
	return nil, ErrVerificationRequired
}
