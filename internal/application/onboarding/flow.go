package onboarding

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"teamhub-backend/internal/application/identity"
	"teamhub-backend/internal/application/invitations"
	"teamhub-backend/internal/domain"

	"github.com/google/uuid"
)

// Step is a state of the onboarding wizard.
type Step string

const (
	StepInvitationInfo   Step = "invitation_info"
	StepModeSelect       Step = "mode_select"
	StepRegistrationForm Step = "registration_form"
	StepSuccess          Step = "success"
	StepFailure          Step = "failure"
)

var ErrInvalidTransition = errors.New("invalid step transition")

// Flow is one user's pass through the wizard. Session-scoped and in-memory
// only; discarded when the flow completes or is abandoned.
type Flow struct {
	mu sync.Mutex

	ID        uuid.UUID
	CreatedAt time.Time
	touchedAt time.Time

	step     Step
	terminal bool
	// failMsg carries the user-facing copy for StepFailure; cleared when the
	// user steps back to correct input.
	failMsg string

	mode     identity.Mode
	form     identity.RegistrationForm
	session  *identity.Session
	verified *identity.VerifiedIdentity

	status       invitations.InvitationStatus
	availability *EmailAvailability
}

// NewFlow mounts the wizard on a validation result. Any outcome other than
// Valid routes straight to a terminal failure with state-specific copy; the
// rest of the machine is never entered.
func NewFlow(status invitations.InvitationStatus, session *identity.Session, availability *EmailAvailability) *Flow {
	f := &Flow{
		ID:           uuid.New(),
		CreatedAt:    time.Now(),
		touchedAt:    time.Now(),
		status:       status,
		session:      session,
		availability: availability,
	}
	if status.Kind == invitations.StatusValid {
		f.step = StepInvitationInfo
	} else {
		f.step = StepFailure
		f.terminal = true
		f.failMsg = failureCopy(status)
	}
	return f
}

func failureCopy(status invitations.InvitationStatus) string {
	switch status.Kind {
	case invitations.StatusUsed:
		return "This invitation has already been used."
	case invitations.StatusExpired:
		return "This invitation has expired. Ask for a new one."
	case invitations.StatusNotFound:
		return "We couldn't find an invitation for that code."
	case invitations.StatusTransientError:
		return "Something went wrong checking your invitation. Please try again."
	}
	return "This invitation can't be used."
}

// Accept moves InvitationInfo to ModeSelect. Unconditional, user-initiated.
func (f *Flow) Accept() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepInvitationInfo {
		return fmt.Errorf("%w: accept from %s", ErrInvalidTransition, f.step)
	}
	f.step = StepModeSelect
	f.touch()
	return nil
}

// ChooseMode moves ModeSelect to RegistrationForm. New-account mode proceeds
// directly (form validation happens on submit). Existing-account mode
// proceeds only with an active session or a completed verification; otherwise
// the caller must run the verification step first.
func (f *Flow) ChooseMode(mode identity.Mode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepModeSelect {
		return fmt.Errorf("%w: choose mode from %s", ErrInvalidTransition, f.step)
	}
	switch mode {
	case identity.ModeNewAccount:
		f.mode = mode
		f.step = StepRegistrationForm
	case identity.ModeExisting:
		f.mode = mode
		if f.session == nil && f.verified == nil {
			f.touch()
			return identity.ErrVerificationRequired
		}
		f.step = StepRegistrationForm
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	f.touch()
	return nil
}

// SetVerified records a completed out-of-band verification. When the flow was
// parked on ModeSelect waiting for it, verification both resolves the
// identity and advances the step.
func (f *Flow) SetVerified(v *identity.VerifiedIdentity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = v
	if f.step == StepModeSelect && f.mode == identity.ModeExisting {
		f.step = StepRegistrationForm
	}
	f.touch()
}

// UpdateForm stores the collected field values so navigation never loses them.
func (f *Flow) UpdateForm(form identity.RegistrationForm) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.form = form
	f.touch()
}

// Back steps down one stage, preserving previously entered values. A
// recoverable failure steps back onto the registration form.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.step == StepFailure && !f.terminal:
		f.step = StepRegistrationForm
		f.failMsg = ""
	case f.step == StepRegistrationForm:
		f.step = StepModeSelect
	case f.step == StepModeSelect:
		f.step = StepInvitationInfo
	default:
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, f.step)
	}
	f.touch()
	return nil
}

// Succeed moves the flow to its terminal success state and releases the
// debounce timer.
func (f *Flow) Succeed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepRegistrationForm {
		return fmt.Errorf("%w: succeed from %s", ErrInvalidTransition, f.step)
	}
	f.step = StepSuccess
	f.terminal = true
	if f.availability != nil {
		f.availability.Close()
	}
	f.touch()
	return nil
}

// Fail records a recoverable submission failure. The user may correct input
// and resubmit without re-validating the invitation.
func (f *Flow) Fail(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepRegistrationForm {
		return fmt.Errorf("%w: fail from %s", ErrInvalidTransition, f.step)
	}
	f.step = StepFailure
	f.terminal = false
	f.failMsg = message
	f.touch()
	return nil
}

// Close releases the flow's resources (debounce timer). Idempotent.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.availability != nil {
		f.availability.Close()
	}
}

// Submittable returns what a submission needs: mode, form, session,
// verification, and the invitation. Fails unless the flow sits on the form.
func (f *Flow) Submittable() (identity.ResolveInput, *domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepRegistrationForm {
		return identity.ResolveInput{}, nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, f.step)
	}
	form := f.form
	in := identity.ResolveInput{
		Mode:     f.mode,
		Form:     &form,
		Session:  f.session,
		Verified: f.verified,
	}
	if f.availability != nil {
		state, email := f.availability.Snapshot()
		in.EmailKnownTaken = state == AvailabilityTaken && email == normalizeEmail(form.Email)
	}
	return in, f.status.Invitation, nil
}

// Snapshot reports the current step for rendering.
type Snapshot struct {
	ID           uuid.UUID                     `json:"flow_id"`
	Step         Step                          `json:"step"`
	Terminal     bool                          `json:"terminal"`
	Mode         identity.Mode                 `json:"mode,omitempty"`
	Failure      string                        `json:"failure,omitempty"`
	Form         identity.RegistrationForm     `json:"form"`
	Status       invitations.StatusKind        `json:"invitation_status"`
	Availability AvailabilityState             `json:"email_availability"`
	Invitation   *domain.Invitation            `json:"invitation,omitempty"`
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := Snapshot{
		ID:       f.ID,
		Step:     f.step,
		Terminal: f.terminal,
		Mode:     f.mode,
		Failure:  f.failMsg,
		Form:     redactPasswords(f.form),
		Status:   f.status.Kind,
	}
	if f.availability != nil {
		snap.Availability, _ = f.availability.Snapshot()
	} else {
		snap.Availability = AvailabilityUnknown
	}
	if f.status.Kind == invitations.StatusValid {
		snap.Invitation = f.status.Invitation
	}
	return snap
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Terminal reports whether the flow reached a terminal state.
func (f *Flow) Terminal() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.terminal
}

// Availability exposes the flow's debounced checker (nil for terminal flows).
func (f *Flow) Availability() *EmailAvailability {
	return f.availability
}

// Session returns the session the flow was mounted with.
func (f *Flow) Session() *identity.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *Flow) touch() {
	f.touchedAt = time.Now()
}

func redactPasswords(form identity.RegistrationForm) identity.RegistrationForm {
	form.Password = ""
	form.ConfirmPassword = ""
	return form
}
