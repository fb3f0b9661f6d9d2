package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

// InviteHandler serves invites from the invitee's side.
type InviteHandler struct {
	teamService TeamServiceInterface
	userService UserServiceInterface
	notifier    Notifier
}

func NewInviteHandler(teamService TeamServiceInterface, userService UserServiceInterface, notifier Notifier) *InviteHandler {
	return &InviteHandler{
		teamService: teamService,
		userService: userService,
		notifier:    notifier,
	}
}

func (h *InviteHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	invites, err := h.teamService.ListInvitesForEmail(ctx, user.Email)
	if err != nil {
		respondError(c, err, "failed to get invites")
		return
	}

	_ = c.JSON(http.StatusOK, invites)
}

func (h *InviteHandler) Accept(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	inviteID, ok := paramID(c, "id", "invite")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	invite, err := h.teamService.AcceptInvite(ctx, inviteID, user)
	if err != nil {
		respondError(c, err, "failed to accept invite")
		return
	}

	h.notifier.Notify(ctx, []uuid.UUID{invite.LeaderID}, models.NotificationInviteAccepted, models.SubjectTeamInvite, invite.ID,
		map[string]any{"member_id": user.ID, "member_name": user.Name})

	_ = c.JSON(http.StatusOK, invite)
}

func (h *InviteHandler) Decline(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	inviteID, ok := paramID(c, "id", "invite")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	if err := h.teamService.DeclineInvite(ctx, inviteID, user.Email); err != nil {
		respondError(c, err, "failed to decline invite")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "invite declined"})
}
