package invitations

import (
	invsvc "teamhub-backend/internal/application/invitations"
	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/middleware"
	"teamhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers covers the inviter side: creating, listing, and revoking codes.
type Handlers struct {
	Service *invsvc.Service
}

// POST /api/v1/invitations/create-invite (auth; actor must hold an inviting role)
func (h *Handlers) CreateInvite(c *fiber.Ctx) error {
	var body struct {
		Kind   domain.InvitationKind `json:"kind"`
		TeamID *uuid.UUID            `json:"team_id"`
		ClubID *uuid.UUID            `json:"club_id"`
		Role   string                `json:"role"`
		Email  string                `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil || body.Kind == "" || body.Role == "" {
		return response.Error(c, "Kind and role are required", fiber.StatusBadRequest, nil)
	}

	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	inv, err := h.Service.CreateInvite(c.Context(), invsvc.CreateInviteInput{
		ActorUserID: actor.UserID,
		Kind:        body.Kind,
		TeamID:      body.TeamID,
		ClubID:      body.ClubID,
		Role:        body.Role,
		Email:       body.Email,
	})
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.SuccessCreated(c, "Invitation created", inv, nil)
}

// GET /api/v1/invitations/view-invites?entity_kind=&entity_id= (auth)
func (h *Handlers) ListInvites(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	entityID, err := uuid.Parse(c.Query("entity_id"))
	if err != nil {
		return response.Error(c, "entity_id is required", fiber.StatusBadRequest, nil)
	}
	kind := domain.EntityKind(c.Query("entity_kind", string(domain.EntityTeam)))

	invitations, err := h.Service.ListInvites(c.Context(), invsvc.ListInvitesInput{
		EntityKind: kind,
		EntityID:   entityID,
	})
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.Success(c, "Invitations fetched successfully", invitations, nil)
}

// PATCH /api/v1/invitations/revoke-invite (auth)
func (h *Handlers) RevokeInvite(c *fiber.Ctx) error {
	var body struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil || body.Code == "" {
		return response.Error(c, "Code is required", fiber.StatusBadRequest, nil)
	}

	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.Service.RevokeInvite(c.Context(), body.Code); err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	}
	return response.Success(c, "Invitation revoked successfully", nil, nil)
}

type actorInfo struct {
	UserID   string
	Fullname string
	Email    string
}

func getActor(c *fiber.Ctx) *actorInfo {
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
	return &actorInfo{UserID: userID, Fullname: fullname, Email: email}
}
