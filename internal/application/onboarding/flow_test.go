package onboarding

import (
	"testing"
	"time"

	"teamhub-backend/internal/application/identity"
	"teamhub-backend/internal/application/invitations"
	"teamhub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStatus() invitations.InvitationStatus {
	teamID := uuid.New()
	expires := time.Now().Add(24 * time.Hour)
	return invitations.InvitationStatus{
		Kind: invitations.StatusValid,
		Invitation: &domain.Invitation{
			InviteID:  uuid.New(),
			Code:      "UPS-RV2RLR",
			Kind:      domain.KindTeam,
			TeamID:    &teamID,
			Role:      "player",
			Payload:   []byte(`{"team_name":"Thunder U12","sport":"soccer"}`),
			ExpiresAt: &expires,
		},
	}
}

func TestNewFlow_ValidStartsAtInvitationInfo(t *testing.T) {
	f := NewFlow(validStatus(), nil, nil)
	assert.Equal(t, StepInvitationInfo, f.Step())
	assert.False(t, f.Terminal())
}

func TestNewFlow_NonValidIsTerminalFailure(t *testing.T) {
	for _, kind := range []invitations.StatusKind{
		invitations.StatusUsed,
		invitations.StatusExpired,
		invitations.StatusNotFound,
		invitations.StatusTransientError,
	} {
		f := NewFlow(invitations.InvitationStatus{Kind: kind}, nil, nil)
		assert.Equal(t, StepFailure, f.Step(), string(kind))
		assert.True(t, f.Terminal(), string(kind))

		// The machine is never entered: every user action is rejected.
		assert.ErrorIs(t, f.Accept(), ErrInvalidTransition, string(kind))
		assert.ErrorIs(t, f.Back(), ErrInvalidTransition, string(kind))
		_, _, err := f.Submittable()
		assert.ErrorIs(t, err, ErrInvalidTransition, string(kind))
	}
}

func TestFlow_NewAccountPath(t *testing.T) {
	f := NewFlow(validStatus(), nil, nil)

	require.NoError(t, f.Accept())
	assert.Equal(t, StepModeSelect, f.Step())

	require.NoError(t, f.ChooseMode(identity.ModeNewAccount))
	assert.Equal(t, StepRegistrationForm, f.Step())

	f.UpdateForm(identity.RegistrationForm{Email: "jordan@example.com"})
	in, inv, err := f.Submittable()
	require.NoError(t, err)
	assert.Equal(t, identity.ModeNewAccount, in.Mode)
	assert.Equal(t, "jordan@example.com", in.Form.Email)
	assert.Equal(t, "UPS-RV2RLR", inv.Code)

	require.NoError(t, f.Succeed())
	assert.Equal(t, StepSuccess, f.Step())
	assert.True(t, f.Terminal())
}

func TestFlow_ExistingWithSessionIsSynchronous(t *testing.T) {
	session := &identity.Session{UserID: uuid.New().String(), Email: "casey@example.com", Fullname: "Casey Reed"}
	f := NewFlow(validStatus(), session, nil)

	require.NoError(t, f.Accept())
	require.NoError(t, f.ChooseMode(identity.ModeExisting))
	assert.Equal(t, StepRegistrationForm, f.Step())

	in, _, err := f.Submittable()
	require.NoError(t, err)
	assert.Equal(t, session, in.Session)
}

func TestFlow_ExistingWithoutSessionParksOnModeSelect(t *testing.T) {
	f := NewFlow(validStatus(), nil, nil)
	require.NoError(t, f.Accept())

	err := f.ChooseMode(identity.ModeExisting)
	require.ErrorIs(t, err, identity.ErrVerificationRequired)
	assert.Equal(t, StepModeSelect, f.Step())

	// A completed verification both resolves the identity and advances.
	f.SetVerified(&identity.VerifiedIdentity{UserID: uuid.New(), Email: "casey@example.com"})
	assert.Equal(t, StepRegistrationForm, f.Step())
}

func TestFlow_UnknownModeRejected(t *testing.T) {
	f := NewFlow(validStatus(), nil, nil)
	require.NoError(t, f.Accept())
	require.Error(t, f.ChooseMode("oauth"))
	assert.Equal(t, StepModeSelect, f.Step())
}

func TestFlow_BackPreservesForm(t *testing.T) {
	f := NewFlow(validStatus(), nil, nil)
	require.NoError(t, f.Accept())
	require.NoError(t, f.ChooseMode(identity.ModeNewAccount))
	f.UpdateForm(identity.RegistrationForm{Fullname: "Jordan Blake", Email: "jordan@example.com"})

	require.NoError(t, f.Back())
	assert.Equal(t, StepModeSelect, f.Step())
	require.NoError(t, f.Back())
	assert.Equal(t, StepInvitationInfo, f.Step())

	// Moving forward again finds the previously entered values intact.
	require.NoError(t, f.Accept())
	require.NoError(t, f.ChooseMode(identity.ModeNewAccount))
	in, _, err := f.Submittable()
	require.NoError(t, err)
	assert.Equal(t, "Jordan Blake", in.Form.Fullname)
	assert.Equal(t, "jordan@example.com", in.Form.Email)
}

func TestFlow_RecoverableFailureBacksToForm(t *testing.T) {
	f := NewFlow(validStatus(), nil, nil)
	require.NoError(t, f.Accept())
	require.NoError(t, f.ChooseMode(identity.ModeNewAccount))
	f.UpdateForm(identity.RegistrationForm{Email: "jordan@example.com"})

	require.NoError(t, f.Fail("Something went wrong, please try again"))
	assert.Equal(t, StepFailure, f.Step())
	assert.False(t, f.Terminal())

	require.NoError(t, f.Back())
	assert.Equal(t, StepRegistrationForm, f.Step())
	snap := f.Snapshot()
	assert.Empty(t, snap.Failure)
	assert.Equal(t, "jordan@example.com", snap.Form.Email)
}

func TestFlow_SubmittableUsesAvailabilityVerdict(t *testing.T) {
	checker := NewEmailAvailability(time.Millisecond, alwaysTaken)
	f := NewFlow(validStatus(), nil, checker)
	require.NoError(t, f.Accept())
	require.NoError(t, f.ChooseMode(identity.ModeNewAccount))

	checker.Input("jordan@example.com")
	waitForState(t, checker, AvailabilityTaken)

	f.UpdateForm(identity.RegistrationForm{Email: "Jordan@Example.com"})
	in, _, err := f.Submittable()
	require.NoError(t, err)
	assert.True(t, in.EmailKnownTaken)

	// A different email than the checked one carries no verdict.
	f.UpdateForm(identity.RegistrationForm{Email: "other@example.com"})
	in, _, err = f.Submittable()
	require.NoError(t, err)
	assert.False(t, in.EmailKnownTaken)
}

func TestFlow_SnapshotRedactsPasswords(t *testing.T) {
	f := NewFlow(validStatus(), nil, nil)
	require.NoError(t, f.Accept())
	require.NoError(t, f.ChooseMode(identity.ModeNewAccount))
	f.UpdateForm(identity.RegistrationForm{Email: "jordan@example.com", Password: "hunter2!A", ConfirmPassword: "hunter2!A"})

	snap := f.Snapshot()
	assert.Empty(t, snap.Form.Password)
	assert.Empty(t, snap.Form.ConfirmPassword)
	assert.Equal(t, "jordan@example.com", snap.Form.Email)
}

func TestFlowStore_SweepClosesStaleFlows(t *testing.T) {
	store := NewFlowStore(10 * time.Millisecond)
	checker := NewEmailAvailability(time.Millisecond, alwaysTaken)
	f := NewFlow(validStatus(), nil, checker)
	store.Put(f)

	got, ok := store.Get(f.ID)
	require.True(t, ok)
	assert.Same(t, f, got)

	time.Sleep(25 * time.Millisecond)
	_, ok = store.Get(f.ID)
	assert.False(t, ok)
}

func TestFlowStore_DeleteReleasesFlow(t *testing.T) {
	store := NewFlowStore(0)
	f := NewFlow(validStatus(), nil, NewEmailAvailability(time.Millisecond, alwaysTaken))
	store.Put(f)

	store.Delete(f.ID)
	_, ok := store.Get(f.ID)
	assert.False(t, ok)
	// Double delete is a no-op.
	store.Delete(f.ID)
}
