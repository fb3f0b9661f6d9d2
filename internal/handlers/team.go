package handlers

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog/log"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type TeamHandler struct {
	teamService  TeamServiceInterface
	userService  UserServiceInterface
	emailService EmailServiceInterface
	notifier     Notifier
	baseURL      string
}

func NewTeamHandler(teamService TeamServiceInterface, userService UserServiceInterface, emailService EmailServiceInterface, notifier Notifier, baseURL string) *TeamHandler {
	return &TeamHandler{
		teamService:  teamService,
		userService:  userService,
		emailService: emailService,
		notifier:     notifier,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// ListMembers returns the caller's team.
func (h *TeamHandler) ListMembers(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	members, err := h.teamService.ListMembers(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get team members")
		return
	}

	_ = c.JSON(http.StatusOK, members)
}

// ListLeaders returns the teams the caller belongs to as a member.
func (h *TeamHandler) ListLeaders(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	leaders, err := h.teamService.ListLeaders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get teams")
		return
	}

	_ = c.JSON(http.StatusOK, leaders)
}

func (h *TeamHandler) UpdateMember(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	memberID, ok := paramID(c, "memberId", "member")
	if !ok {
		return
	}

	var req dto.UpdateMemberRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	if req.HourlyRate != nil {
		errs.check(*req.HourlyRate >= 0, "hourly_rate", "hourly_rate must be at least 0")
	}
	if req.Currency != nil {
		currency := normalizeCurrency(*req.Currency)
		errs.check(validCurrency(currency), "currency", "currency must be a 3-letter ISO 4217 code")
		req.Currency = &currency
	}
	if errs.respond(c) {
		return
	}

	member, err := h.teamService.UpdateMember(c.Request.Context(), userID, memberID, services.MemberUpdate{
		HourlyRate: req.HourlyRate,
		Currency:   req.Currency,
		IsApprover: req.IsApprover,
	})
	if err != nil {
		respondError(c, err, "failed to update team member")
		return
	}

	_ = c.JSON(http.StatusOK, member)
}

func (h *TeamHandler) RemoveMember(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	memberID, ok := paramID(c, "memberId", "member")
	if !ok {
		return
	}

	if err := h.teamService.RemoveMember(c.Request.Context(), userID, memberID); err != nil {
		respondError(c, err, "failed to remove team member")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "member removed"})
}

// Invite records an invite, emails it and notifies the invitee when they already have
// an account.
func (h *TeamHandler) Invite(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.InviteMemberRequest
	if !bind(c, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Currency = normalizeCurrency(req.Currency)

	errs := fieldErrors{}
	_, mailErr := mail.ParseAddress(req.Email)
	errs.check(req.Email != "", "email", "email is required")
	errs.check(mailErr == nil, "email", "email must be a valid email address")
	errs.check(req.HourlyRate >= 0, "hourly_rate", "hourly_rate must be at least 0")
	errs.check(validCurrency(req.Currency), "currency", "currency must be a 3-letter ISO 4217 code")
	if errs.respond(c) {
		return
	}

	ctx := c.Request.Context()

	leader, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	invite, err := h.teamService.CreateInvite(ctx, leader, req.Email, services.MemberTerms{
		HourlyRate: req.HourlyRate,
		Currency:   req.Currency,
		IsApprover: req.IsApprover,
	})
	if err != nil {
		respondError(c, err, "failed to create invite")
		return
	}

	if h.emailService.IsConfigured() {
		inviteURL := fmt.Sprintf("%s/invites/%s", h.baseURL, invite.ID)
		if err := h.emailService.SendTeamInvite(invite.Email, leader.Name, inviteURL); err != nil {
			log.Warn().Err(err).Str("invite_id", invite.ID.String()).Msg("failed to send invite email")
		}
	}

	if invitee, err := h.userService.GetByEmail(ctx, invite.Email); err == nil {
		h.notifier.Notify(ctx, []uuid.UUID{invitee.ID}, models.NotificationTeamInvited, models.SubjectTeamInvite, invite.ID,
			map[string]any{"leader_id": leader.ID, "leader_name": leader.Name})
	}

	_ = c.JSON(http.StatusCreated, invite)
}

// SentInvites lists the caller's pending outgoing invites.
func (h *TeamHandler) SentInvites(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	invites, err := h.teamService.ListSentInvites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get invites")
		return
	}

	_ = c.JSON(http.StatusOK, invites)
}

func (h *TeamHandler) CancelInvite(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	inviteID, ok := paramID(c, "id", "invite")
	if !ok {
		return
	}

	if err := h.teamService.CancelInvite(c.Request.Context(), inviteID, userID); err != nil {
		respondError(c, err, "failed to cancel invite")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "invite cancelled"})
}
