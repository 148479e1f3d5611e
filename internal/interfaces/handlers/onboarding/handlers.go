package onboarding

import (
	"context"
	"errors"
	"time"

	"teamhub-backend/internal/application/identity"
	"teamhub-backend/internal/application/invitations"
	flows "teamhub-backend/internal/application/onboarding"
	"teamhub-backend/internal/application/provisioning"
	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/middleware"
	"teamhub-backend/internal/pkg/constants"
	"teamhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Handlers drives the onboarding wizard over HTTP. All typed results from the
// resolver and the provisioning transaction are mapped to user-facing copy
// here and nowhere else.
type Handlers struct {
	DB           *gorm.DB
	Validator    *invitations.Validator
	Resolver     *identity.Resolver
	Provisioner  *provisioning.Service
	Verification identity.VerificationChannel
	Flows        *flows.FlowStore
	Config       middleware.SessionConfig

	// QuietPeriod overrides the debounce quiet period (tests shorten it).
	QuietPeriod time.Duration
}

// POST /api/v1/onboarding/public/validate-code (no auth)
func (h *Handlers) ValidateCode(c *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil || body.Code == "" {
		return response.Error(c, "code is required", fiber.StatusBadRequest, nil)
	}

	status := h.Validator.Validate(c.Context(), body.Code)
	return respondStatus(c, status)
}

func respondStatus(c *fiber.Ctx, status invitations.InvitationStatus) error {
	data := fiber.Map{"status": status.Kind}
	switch status.Kind {
	case invitations.StatusValid:
		payload, err := status.Invitation.DisplayPayload()
		if err != nil {
			log.Warn().Err(err).Str("code", status.Invitation.Code).Msg("invitation payload decode failed")
		}
		data["invitation"] = status.Invitation
		data["display"] = payload
		return response.Success(c, "Invitation is valid", data, nil)
	case invitations.StatusUsed:
		data["used_at"] = status.UsedAt
		return response.Error(c, "This invitation has already been used", fiber.StatusGone, data)
	case invitations.StatusExpired:
		data["expires_at"] = status.ExpiresAt
		return response.Error(c, "This invitation has expired", fiber.StatusGone, data)
	case invitations.StatusNotFound:
		return response.Error(c, "Invitation not found", fiber.StatusNotFound, data)
	default:
		log.Error().Err(status.Cause).Msg("invitation lookup failed")
		return response.Error(c, "Could not check the invitation, please retry", fiber.StatusServiceUnavailable, data)
	}
}

// POST /api/v1/onboarding/flows (no auth; session used when present)
func (h *Handlers) StartFlow(c *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil || body.Code == "" {
		return response.Error(c, "code is required", fiber.StatusBadRequest, nil)
	}

	status := h.Validator.Validate(c.Context(), body.Code)

	availability := flows.NewEmailAvailability(h.QuietPeriod, func(ctx context.Context, email string) (bool, error) {
		return identity.EmailAvailable(ctx, h.DB, email)
	})
	flow := flows.NewFlow(status, sessionFromCtx(c), availability)
	h.Flows.Put(flow)

	return response.SuccessCreated(c, "Flow started", flow.Snapshot(), nil)
}

// GET /api/v1/onboarding/flows/:id
func (h *Handlers) GetFlow(c *fiber.Ctx) error {
	flow, ok := h.flow(c)
	if !ok {
		return nil
	}
	return response.Success(c, "Flow state", flow.Snapshot(), nil)
}

// POST /api/v1/onboarding/flows/:id/accept
func (h *Handlers) Accept(c *fiber.Ctx) error {
	flow, ok := h.flow(c)
	if !ok {
		return nil
	}
	if err := flow.Accept(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	}
	return response.Success(c, "Invitation accepted", flow.Snapshot(), nil)
}

// POST /api/v1/onboarding/flows/:id/mode
func (h *Handlers) ChooseMode(c *fiber.Ctx) error {
	flow, ok := h.flow(c)
	if !ok {
		return nil
	}
	var body struct {
		Mode identity.Mode `json:"mode"`
	}
	if err := c.BodyParser(&body); err != nil || body.Mode == "" {
		return response.Error(c, "mode is required", fiber.StatusBadRequest, nil)
	}

	switch err := flow.ChooseMode(body.Mode); {
	case err == nil:
		return response.Success(c, "Mode selected", flow.Snapshot(), nil)
	case errors.Is(err, identity.ErrVerificationRequired):
		// Expected branch: the client shows the verification step and calls
		// send-verification + verify before retrying.
		return response.Error(c, err.Error(), fiber.StatusConflict, fiber.Map{"verification_required": true})
	default:
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
}

// POST /api/v1/onboarding/flows/:id/email-availability
func (h *Handlers) EmailInput(c *fiber.Ctx) error {
	flow, ok := h.flow(c)
	if !ok {
		return nil
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}
	if a := flow.Availability(); a != nil {
		a.Input(body.Email)
	}
	return response.Success(c, "Availability check scheduled", flow.Snapshot(), nil)
}

// POST /api/v1/onboarding/flows/:id/send-verification
func (h *Handlers) SendVerification(c *fiber.Ctx) error {
	flow, ok := h.flow(c)
	if !ok {
		return nil
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return response.Error(c, "email is required", fiber.StatusBadRequest, nil)
	}
	if err := h.Verification.Send(c.Context(), flow.ID.String(), body.Email); err != nil {
		if errors.Is(err, identity.ErrNoSuchAccount) {
			return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
		}
		log.Error().Err(err).Msg("verification send failed")
		return response.Error(c, "Could not send the verification code, please retry", fiber.StatusServiceUnavailable, nil)
	}
	return response.Success(c, "Verification code sent", nil, nil)
}

// POST /api/v1/onboarding/flows/:id/verify
func (h *Handlers) Verify(c *fiber.Ctx) error {
	flow, ok := h.flow(c)
	if !ok {
		return nil
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil || body.Code == "" {
		return response.Error(c, "code is required", fiber.StatusBadRequest, nil)
	}

	verified, err := h.Verification.Confirm(c.Context(), flow.ID.String(), body.Code)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrVerificationMismatch):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, identity.ErrVerificationExpired):
			return response.Error(c, err.Error(), fiber.StatusGone, nil)
		default:
			log.Error().Err(err).Msg("verification confirm failed")
			return response.Error(c, "Could not confirm the code, please retry", fiber.StatusServiceUnavailable, nil)
		}
	}
	flow.SetVerified(verified)
	return response.Success(c, "Identity verified", flow.Snapshot(), nil)
}

// POST /api/v1/onboarding/flows/:id/submit
func (h *Handlers) Submit(c *fiber.Ctx) error {
	flow, ok := h.flow(c)
	if !ok {
		return nil
	}
	var form identity.RegistrationForm
	if err := c.BodyParser(&form); err != nil {
		return response.Error(c, "Invalid form body", fiber.StatusBadRequest, nil)
	}
	flow.UpdateForm(form)

	in, inv, err := flow.Submittable()
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	}

	resolved, err := h.Resolver.Resolve(c.Context(), in)
	if err != nil {
		return h.submitFailure(c, flow, err)
	}

	if err := h.Provisioner.Provision(c.Context(), provisioning.ProvisionInput{
		Invitation: inv,
		UserID:     resolved.UserID,
		Email:      resolved.Email,
		Fullname:   resolved.Fullname,
		Phone:      form.Phone,
		Role:       inv.Role,
		IsPrimary:  isPrimaryGrant(inv),
	}); err != nil {
		return h.submitFailure(c, flow, err)
	}

	if err := flow.Succeed(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	}

	// A freshly created account gets its session cookie here so the app is
	// signed in when the success screen closes.
	if resolved.Provenance == identity.ProvenanceNew {
		sid := middleware.RegenerateSessionID(c)
		middleware.SetSessionUser(c, middleware.SessionUser{
			UserID:   resolved.UserID.String(),
			Fullname: resolved.Fullname,
			Email:    resolved.Email,
		})
		cookie := middleware.SessionCookieConfig(h.Config)
		cookie.Value = "s:" + sid
		c.Cookie(&cookie)
	}

	return response.Success(c, "Welcome aboard", flow.Snapshot(), nil)
}

// submitFailure maps a resolver or provisioning error to its one user-facing
// message and records a recoverable failure on the flow.
func (h *Handlers) submitFailure(c *fiber.Ctx, flow *flows.Flow, err error) error {
	var fieldErrs identity.ValidationError
	if errors.As(err, &fieldErrs) {
		// Field-scoped problems block submission but stay on the form.
		return response.Error(c, "Please fix the highlighted fields", fiber.StatusBadRequest, fieldErrs)
	}

	status := fiber.StatusBadRequest
	msg := "Something went wrong, please try again"
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		msg = "That email already has an account. Choose \"I have an account\" instead."
	case errors.Is(err, identity.ErrPostCreateSignInFailed):
		msg = "Your account was created but signing in failed. Please sign in manually and redeem the code again."
	case errors.Is(err, identity.ErrVerificationRequired):
		msg = "Please verify your identity before continuing."
	default:
		var pErr *provisioning.ProvisionError
		if errors.As(err, &pErr) {
			log.Error().Err(pErr).Msg("provisioning failed")
			status = fiber.StatusServiceUnavailable
			msg = "We couldn't finish setting up your membership. Please try again."
		} else {
			log.Error().Err(err).Msg("identity resolution failed")
		}
	}
	if ferr := flow.Fail(msg); ferr != nil {
		log.Warn().Err(ferr).Msg("flow failure transition rejected")
	}
	return response.Error(c, msg, status, fiber.Map{"flow": flow.Snapshot()})
}

// POST /api/v1/onboarding/flows/:id/back
func (h *Handlers) Back(c *fiber.Ctx) error {
	flow, ok := h.flow(c)
	if !ok {
		return nil
	}
	if err := flow.Back(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	}
	return response.Success(c, "Stepped back", flow.Snapshot(), nil)
}

// DELETE /api/v1/onboarding/flows/:id — abandon; in-flight work is dropped,
// writes already issued are not rolled back.
func (h *Handlers) Abandon(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return response.Error(c, "Invalid flow id", fiber.StatusBadRequest, nil)
	}
	h.Flows.Delete(id)
	return response.Success(c, "Flow abandoned", nil, nil)
}

// flow resolves the :id param to a live flow, writing the error response
// itself when the flow is missing.
func (h *Handlers) flow(c *fiber.Ctx) (*flows.Flow, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = response.Error(c, "Invalid flow id", fiber.StatusBadRequest, nil)
		return nil, false
	}
	flow, ok := h.Flows.Get(id)
	if !ok {
		_ = response.Error(c, "Flow not found or expired", fiber.StatusNotFound, nil)
		return nil, false
	}
	return flow, true
}

func isPrimaryGrant(inv *domain.Invitation) bool {
	return inv.Kind == domain.KindClub && inv.Role == constants.ClubAdmin
}

func sessionFromCtx(c *fiber.Ctx) *identity.Session {
	u := middleware.GetUser(c)
	m, ok := u.(map[string]interface{})
	if !ok {
		return nil
	}
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return nil
	}
	email, _ := m["email"].(string)
	fullname, _ := m["fullname"].(string)
	return &identity.Session{UserID: userID, Email: email, Fullname: fullname}
}
