package handlers

import (
	"net/http"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func toUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		AvatarURL:  user.AvatarURL,
		Provider:   user.Provider,
		GlobalRole: user.GlobalRole,
		HourlyRate: user.HourlyRate,
		Currency:   user.Currency,
	}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	_ = c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		errs.check(name != "", "name", "name is required")
		errs.check(withinChars(name, 255), "name", "name may not be longer than 255 characters")
		req.Name = &name
	}
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

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, services.ProfileUpdate{
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
		Currency:   req.Currency,
	})
	if err != nil {
		respondError(c, err, "failed to update user")
		return
	}

	_ = c.JSON(http.StatusOK, toUserResponse(user))
}
