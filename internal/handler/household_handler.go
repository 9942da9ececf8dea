package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HouseholdHandler handles member and invitation HTTP requests
type HouseholdHandler struct {
	householdService *service.HouseholdService
}

// NewHouseholdHandler creates a new HouseholdHandler
func NewHouseholdHandler(householdService *service.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{householdService: householdService}
}

// InviteRequest represents the invite member request body
type InviteRequest struct {
	Email string `json:"email"`
}

func invitationID(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}

// GetMembers handles GET /api/v1/members
func (h *HouseholdHandler) GetMembers(c echo.Context) error {
	members, err := h.householdService.Members(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get members")
	}
	return c.JSON(http.StatusOK, members)
}

// RemoveMember handles DELETE /api/v1/members/:id
func (h *HouseholdHandler) RemoveMember(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "member")
	}

	handle, err := h.householdService.RemoveMember(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to remove member")
	}
	return accepted(c, handle)
}

// GetInvitations handles GET /api/v1/invitations
func (h *HouseholdHandler) GetInvitations(c echo.Context) error {
	invitations, err := h.householdService.Invitations(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get invitations")
	}
	return c.JSON(http.StatusOK, invitations)
}

// Invite handles POST /api/v1/invitations
func (h *HouseholdHandler) Invite(c echo.Context) error {
	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.householdService.Invite(c.Request().Context(), req.Email)
	if err != nil {
		return respondError(c, err, "Failed to send invitation")
	}
	return accepted(c, handle)
}

// Revoke handles DELETE /api/v1/invitations/:id
func (h *HouseholdHandler) Revoke(c echo.Context) error {
	id, ok := invitationID(c)
	if !ok {
		return invalidID(c, "invitation")
	}

	handle, err := h.householdService.Revoke(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to revoke invitation")
	}
	return accepted(c, handle)
}

// Accept handles POST /api/v1/invitations/:id/accept
func (h *HouseholdHandler) Accept(c echo.Context) error {
	id, ok := invitationID(c)
	if !ok {
		return invalidID(c, "invitation")
	}

	handle, err := h.householdService.Accept(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to accept invitation")
	}
	return accepted(c, handle)
}
