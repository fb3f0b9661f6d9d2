package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog/log"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type InvoiceHandler struct {
	invoiceService InvoiceServiceInterface
	clientService  ClientServiceInterface
	userService    UserServiceInterface
	emailService   EmailServiceInterface
}

func NewInvoiceHandler(invoiceService InvoiceServiceInterface, clientService ClientServiceInterface, userService UserServiceInterface, emailService EmailServiceInterface) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		clientService:  clientService,
		userService:    userService,
		emailService:   emailService,
	}
}

func checkAdjustment(errs fieldErrors, kind *string, value float64, kindField, valueField string) {
	errs.check(validAdjustment(kind), kindField, kindField+" must be percentage or fixed")
	errs.check(value >= 0, valueField, valueField+" must be at least 0")
	if kind != nil && *kind == models.AdjustmentPercentage {
		errs.check(value <= 100, valueField, valueField+" may not be greater than 100")
	}
}

func invoiceItems(errs fieldErrors, items []dto.InvoiceItemRequest) []services.InvoiceItemParams {
	params := make([]services.InvoiceItemParams, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("items.%d.", i)
		description := strings.TrimSpace(item.Description)
		errs.check(description != "", prefix+"description", "description is required")
		errs.check(item.Quantity > 0, prefix+"quantity", "quantity must be greater than 0")
		errs.check(item.UnitPrice >= 0, prefix+"unit_price", "unit_price must be at least 0")
		params = append(params, services.InvoiceItemParams{
			TimeLogID:   item.TimeLogID,
			Description: description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return params
}

// invoiceDates parses the issue and due dates and requires due >= issue.
func invoiceDates(errs fieldErrors, issue, due string) (time.Time, time.Time) {
	issueDate := parseDate(issue, "issue_date", errs)
	dueDate := parseDate(due, "due_date", errs)
	if !issueDate.IsZero() && !dueDate.IsZero() {
		errs.check(!dueDate.Before(issueDate), "due_date", "due_date must not be before issue_date")
	}
	return issueDate, dueDate
}

func (h *InvoiceHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status := c.QueryParam("status")
	if status != "" && !services.ValidInvoiceStatus(status) {
		fieldErrors{"status": services.ErrInvalidInvoiceStatus.Error()}.respond(c)
		return
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err, "failed to get invoices")
		return
	}

	_ = c.JSON(http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "invoice")
	if !ok {
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to get invoice")
		return
	}

	_ = c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) Create(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateInvoiceRequest
	if !bind(c, &req) {
		return
	}

	req.Currency = normalizeCurrency(req.Currency)

	errs := fieldErrors{}
	errs.check(req.ClientID != uuid.Nil, "client_id", "client_id is required")
	errs.check(validCurrency(req.Currency), "currency", "currency must be a 3-letter ISO 4217 code")
	errs.check(len(req.Items) > 0, "items", "items must contain at least one line")
	issueDate, dueDate := invoiceDates(errs, req.IssueDate, req.DueDate)
	checkAdjustment(errs, req.DiscountType, req.DiscountValue, "discount_type", "discount_value")
	checkAdjustment(errs, req.TaxType, req.TaxRate, "tax_type", "tax_rate")
	items := invoiceItems(errs, req.Items)
	if errs.respond(c) {
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), userID, services.InvoiceParams{
		ClientID:      req.ClientID,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		IssueDate:     issueDate,
		DueDate:       dueDate,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		TaxType:       req.TaxType,
		TaxRate:       req.TaxRate,
		Currency:      req.Currency,
		Notes:         req.Notes,
		Items:         items,
	})
	if err != nil {
		respondError(c, err, "failed to create invoice")
		return
	}

	_ = c.JSON(http.StatusCreated, inv)
}

// CreateFromTimeLogs bills approved, unpaid, uninvoiced time on the client's projects.
func (h *InvoiceHandler) CreateFromTimeLogs(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.FromTimeLogsRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	errs.check(req.ClientID != uuid.Nil, "client_id", "client_id is required")
	errs.check(len(req.TimeLogIDs) <= maxBulkIDs, "time_log_ids", "time_log_ids may not contain more than 500 time logs")
	issueDate, dueDate := invoiceDates(errs, req.IssueDate, req.DueDate)
	checkAdjustment(errs, req.DiscountType, req.DiscountValue, "discount_type", "discount_value")
	checkAdjustment(errs, req.TaxType, req.TaxRate, "tax_type", "tax_rate")
	if errs.respond(c) {
		return
	}

	inv, err := h.invoiceService.CreateFromTimeLogs(c.Request.Context(), userID, services.FromTimeLogsParams{
		ClientID:      req.ClientID,
		TimeLogIDs:    req.TimeLogIDs,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		IssueDate:     issueDate,
		DueDate:       dueDate,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		TaxType:       req.TaxType,
		TaxRate:       req.TaxRate,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err, "failed to create invoice")
		return
	}

	_ = c.JSON(http.StatusCreated, inv)
}

func (h *InvoiceHandler) Update(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "invoice")
	if !ok {
		return
	}

	var req dto.UpdateInvoiceRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	upd := services.InvoiceUpdate{
		InvoiceNumber: req.InvoiceNumber,
		Status:        req.Status,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		TaxType:       req.TaxType,
		TaxRate:       req.TaxRate,
		Notes:         req.Notes,
	}
	if req.IssueDate != nil {
		d := parseDate(*req.IssueDate, "issue_date", errs)
		upd.IssueDate = &d
	}
	if req.DueDate != nil {
		d := parseDate(*req.DueDate, "due_date", errs)
		upd.DueDate = &d
	}
	if upd.IssueDate != nil && upd.DueDate != nil && !upd.IssueDate.IsZero() && !upd.DueDate.IsZero() {
		errs.check(!upd.DueDate.Before(*upd.IssueDate), "due_date", "due_date must not be before issue_date")
	}
	if req.Status != nil {
		switch {
		case !services.ValidInvoiceStatus(*req.Status):
			errs.add("status", services.ErrInvalidInvoiceStatus.Error())
		case !services.EditableInvoiceStatus(*req.Status):
			errs.add("status", services.ErrStatusNotEditable.Error())
		}
	}
	errs.check(validAdjustment(req.DiscountType), "discount_type", "discount_type must be percentage or fixed")
	errs.check(validAdjustment(req.TaxType), "tax_type", "tax_type must be percentage or fixed")
	if req.DiscountValue != nil {
		errs.check(*req.DiscountValue >= 0, "discount_value", "discount_value must be at least 0")
	}
	if req.TaxRate != nil {
		errs.check(*req.TaxRate >= 0, "tax_rate", "tax_rate must be at least 0")
	}
	if req.Items != nil {
		errs.check(len(req.Items) > 0, "items", "items must contain at least one line")
		upd.Items = invoiceItems(errs, req.Items)
	}
	if errs.respond(c) {
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), id, userID, upd)
	if err != nil {
		respondError(c, err, "failed to update invoice")
		return
	}

	_ = c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) Delete(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "failed to delete invoice")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "invoice deleted"})
}

// Send emails the invoice to the client's address and marks it sent.
func (h *InvoiceHandler) Send(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "invoice")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	inv, err := h.invoiceService.Get(ctx, id, userID)
	if err != nil {
		respondError(c, err, "failed to get invoice")
		return
	}
	if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled {
		respondError(c, services.ErrInvoiceLocked, "failed to send invoice")
		return
	}

	client, err := h.clientService.Get(ctx, inv.ClientID, userID)
	if err != nil {
		respondError(c, err, "failed to get client")
		return
	}
	if client.Email == nil || *client.Email == "" {
		fieldErrors{"client_id": "the client has no email address"}.respond(c)
		return
	}

	sender, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	if err := h.emailService.SendInvoice(*client.Email, sender.Name, inv); err != nil {
		log.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("failed to email invoice")
		fail(c, http.StatusBadGateway, "failed to send invoice email")
		return
	}

	sent, err := h.invoiceService.MarkSent(ctx, id, userID)
	if err != nil {
		respondError(c, err, "failed to mark invoice sent")
		return
	}

	_ = c.JSON(http.StatusOK, sent)
}

func (h *InvoiceHandler) AddPayment(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "invoice")
	if !ok {
		return
	}

	var req dto.PaymentRequest
	if !bind(c, &req) {
		return
	}

	if req.Amount <= 0 {
		fieldErrors{"amount": services.ErrInvalidPayment.Error()}.respond(c)
		return
	}

	inv, err := h.invoiceService.AddPayment(c.Request.Context(), id, userID, req.Amount)
	if err != nil {
		respondError(c, err, "failed to record payment")
		return
	}

	_ = c.JSON(http.StatusOK, inv)
}
