package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type ClientHandler struct {
	clientService ClientServiceInterface
}

func NewClientHandler(clientService ClientServiceInterface) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func clientParams(c *drift.Context, req *dto.ClientRequest) (services.ClientParams, bool) {
	req.Name = strings.TrimSpace(req.Name)
	req.Currency = normalizeCurrency(req.Currency)

	errs := fieldErrors{}
	errs.check(req.Name != "", "name", "name is required")
	errs.check(withinChars(req.Name, 255), "name", "name may not be longer than 255 characters")
	if req.Email != nil && *req.Email != "" {
		_, err := mail.ParseAddress(*req.Email)
		errs.check(err == nil, "email", "email must be a valid email address")
	}
	errs.check(req.HourlyRate >= 0, "hourly_rate", "hourly_rate must be at least 0")
	errs.check(validCurrency(req.Currency), "currency", "currency must be a 3-letter ISO 4217 code")
	if errs.respond(c) {
		return services.ClientParams{}, false
	}

	return services.ClientParams{
		Name:          req.Name,
		Email:         req.Email,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Address:       req.Address,
		Notes:         req.Notes,
		HourlyRate:    req.HourlyRate,
		Currency:      req.Currency,
	}, true
}

func (h *ClientHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	clients, err := h.clientService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get clients")
		return
	}

	_ = c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) Get(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "client")
	if !ok {
		return
	}

	client, err := h.clientService.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to get client")
		return
	}

	_ = c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Create(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ClientRequest
	if !bind(c, &req) {
		return
	}
	params, ok := clientParams(c, &req)
	if !ok {
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err, "failed to create client")
		return
	}

	_ = c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) Update(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "client")
	if !ok {
		return
	}

	var req dto.ClientRequest
	if !bind(c, &req) {
		return
	}
	params, ok := clientParams(c, &req)
	if !ok {
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), id, userID, params)
	if err != nil {
		respondError(c, err, "failed to update client")
		return
	}

	_ = c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Delete(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "client")
	if !ok {
		return
	}

	if err := h.clientService.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "failed to delete client")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "client deleted"})
}
