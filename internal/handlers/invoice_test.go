package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/internal/testutil"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type invoiceMocks struct {
	invoices *testutil.MockInvoiceService
	clients  *testutil.MockClientService
	users    *testutil.MockUserService
	email    *testutil.MockEmailService
}

func setupInvoiceTest(t *testing.T) (invoiceMocks, *InvoiceHandler) {
	t.Helper()
	m := invoiceMocks{
		invoices: new(testutil.MockInvoiceService),
		clients:  new(testutil.MockClientService),
		users:    new(testutil.MockUserService),
		email:    new(testutil.MockEmailService),
	}
	return m, NewInvoiceHandler(m.invoices, m.clients, m.users, m.email)
}

func TestInvoiceHandler_Create(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	clientID := uuid.New()
	inv := &models.Invoice{ID: uuid.New(), ClientID: clientID, InvoiceNumber: "INV-2026-0001", Status: models.InvoiceStatusDraft,
		Subtotal: 200, TaxAmount: 20, TotalAmount: 220, Currency: "USD"}

	m.invoices.On("Create", mock.Anything, userID, mock.MatchedBy(func(p services.InvoiceParams) bool {
		return p.ClientID == clientID &&
			p.Currency == "USD" &&
			p.IssueDate.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) &&
			p.DueDate.Equal(time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)) &&
			len(p.Items) == 1 && p.Items[0].Description == "Consulting" && p.Items[0].Quantity == 2
	})).Return(inv, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices", handler.Create)

	rec := do(http.MethodPost, "/invoices", dto.CreateInvoiceRequest{
		ClientID:  clientID,
		IssueDate: "2026-04-01",
		DueDate:   "2026-04-30",
		TaxType:   strPtr(models.AdjustmentPercentage),
		TaxRate:   10,
		Currency:  "usd",
		Items:     []dto.InvoiceItemRequest{{Description: " Consulting ", Quantity: 2, UnitPrice: 100}},
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var response models.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 220.0, response.TotalAmount)
	m.invoices.AssertExpectations(t)
}

func TestInvoiceHandler_Create_Validation(t *testing.T) {
	_, handler := setupInvoiceTest(t)

	app, do := newAuthedApp(t, uuid.New())
	app.Post("/invoices", handler.Create)

	rec := do(http.MethodPost, "/invoices", dto.CreateInvoiceRequest{
		ClientID:      uuid.New(),
		IssueDate:     "2026-04-30",
		DueDate:       "2026-04-01",
		DiscountType:  strPtr(models.AdjustmentPercentage),
		DiscountValue: 150,
		TaxType:       strPtr("flat"),
		Currency:      "USD",
		Items:         []dto.InvoiceItemRequest{{Description: "", Quantity: 0, UnitPrice: -1}},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "due_date must not be before issue_date", resp.Errors["due_date"])
	assert.Equal(t, "discount_value may not be greater than 100", resp.Errors["discount_value"])
	assert.Equal(t, "tax_type must be percentage or fixed", resp.Errors["tax_type"])
	assert.Equal(t, "description is required", resp.Errors["items.0.description"])
	assert.Equal(t, "quantity must be greater than 0", resp.Errors["items.0.quantity"])
	assert.Equal(t, "unit_price must be at least 0", resp.Errors["items.0.unit_price"])
}

func TestInvoiceHandler_Create_DuplicateNumber(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	m.invoices.On("Create", mock.Anything, userID, mock.Anything).Return(nil, services.ErrInvoiceNumberExists)

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices", handler.Create)

	rec := do(http.MethodPost, "/invoices", dto.CreateInvoiceRequest{
		ClientID:      uuid.New(),
		InvoiceNumber: "INV-1",
		IssueDate:     "2026-04-01",
		DueDate:       "2026-04-30",
		Currency:      "USD",
		Items:         []dto.InvoiceItemRequest{{Description: "Work", Quantity: 1, UnitPrice: 1}},
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInvoiceHandler_CreateFromTimeLogs(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	clientID := uuid.New()
	m.invoices.On("CreateFromTimeLogs", mock.Anything, userID, mock.MatchedBy(func(p services.FromTimeLogsParams) bool {
		return p.ClientID == clientID && len(p.TimeLogIDs) == 0
	})).Return(&models.Invoice{ID: uuid.New(), ClientID: clientID}, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices/:id", withActions(nil, map[string]drift.HandlerFunc{
		"from-time-logs": handler.CreateFromTimeLogs,
	}))

	rec := do(http.MethodPost, "/invoices/from-time-logs", dto.FromTimeLogsRequest{
		ClientID:  clientID,
		IssueDate: "2026-04-01",
		DueDate:   "2026-04-15",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	m.invoices.AssertExpectations(t)
}

func TestInvoiceHandler_CreateFromTimeLogs_NothingBillable(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	m.invoices.On("CreateFromTimeLogs", mock.Anything, userID, mock.Anything).Return(nil, services.ErrNoBillableTimeLogs)

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices/from-time-logs", handler.CreateFromTimeLogs)

	rec := do(http.MethodPost, "/invoices/from-time-logs", dto.FromTimeLogsRequest{
		ClientID:  uuid.New(),
		IssueDate: "2026-04-01",
		DueDate:   "2026-04-15",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoiceHandler_Update_EmptyItems(t *testing.T) {
	_, handler := setupInvoiceTest(t)

	app, do := newAuthedApp(t, uuid.New())
	app.Patch("/invoices/:id", handler.Update)

	rec := do(http.MethodPatch, "/invoices/"+uuid.NewString(), map[string]any{"items": []any{}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "items must contain at least one line", decodeError(t, rec).Errors["items"])
}

func TestInvoiceHandler_Update_Locked(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	id := uuid.New()
	m.invoices.On("Update", mock.Anything, id, userID, mock.Anything).Return(nil, services.ErrInvoiceLocked)

	app, do := newAuthedApp(t, userID)
	app.Patch("/invoices/:id", handler.Update)

	rec := do(http.MethodPatch, "/invoices/"+id.String(), dto.UpdateInvoiceRequest{Notes: strPtr("n")})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoiceHandler_Update_PaymentStatusesNotSettable(t *testing.T) {
	for _, status := range []string{models.InvoiceStatusPaid, models.InvoiceStatusPartiallyPaid, models.InvoiceStatusOverdue} {
		t.Run(status, func(t *testing.T) {
			m, handler := setupInvoiceTest(t)

			app, do := newAuthedApp(t, uuid.New())
			app.Patch("/invoices/:id", handler.Update)

			rec := do(http.MethodPatch, "/invoices/"+uuid.NewString(), dto.UpdateInvoiceRequest{Status: strPtr(status)})

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, services.ErrStatusNotEditable.Error(), decodeError(t, rec).Errors["status"])
			m.invoices.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestInvoiceHandler_List_BadStatus(t *testing.T) {
	_, handler := setupInvoiceTest(t)

	app, do := newAuthedApp(t, uuid.New())
	app.Get("/invoices", handler.List)

	rec := do(http.MethodGet, "/invoices?status=void", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInvoiceHandler_Send(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	id := uuid.New()
	clientID := uuid.New()
	email := "ap@client.test"
	inv := &models.Invoice{ID: id, ClientID: clientID, Status: models.InvoiceStatusDraft}
	sent := &models.Invoice{ID: id, ClientID: clientID, Status: models.InvoiceStatusSent}

	m.invoices.On("Get", mock.Anything, id, userID).Return(inv, nil)
	m.clients.On("Get", mock.Anything, clientID, userID).Return(&models.Client{ID: clientID, Email: &email}, nil)
	m.users.On("GetByID", mock.Anything, userID).Return(&models.User{ID: userID, Name: "Freelancer"}, nil)
	m.email.On("SendInvoice", email, "Freelancer", inv).Return(nil)
	m.invoices.On("MarkSent", mock.Anything, id, userID).Return(sent, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices/:id/send", handler.Send)

	rec := do(http.MethodPost, "/invoices/"+id.String()+"/send", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var response models.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, models.InvoiceStatusSent, response.Status)
	m.email.AssertExpectations(t)
	m.invoices.AssertExpectations(t)
}

func TestInvoiceHandler_Send_ClientWithoutEmail(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	id := uuid.New()
	clientID := uuid.New()
	m.invoices.On("Get", mock.Anything, id, userID).Return(&models.Invoice{ID: id, ClientID: clientID, Status: models.InvoiceStatusDraft}, nil)
	m.clients.On("Get", mock.Anything, clientID, userID).Return(&models.Client{ID: clientID}, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices/:id/send", handler.Send)

	rec := do(http.MethodPost, "/invoices/"+id.String()+"/send", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "the client has no email address", decodeError(t, rec).Errors["client_id"])
	m.invoices.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceHandler_Send_EmailFailureLeavesStatus(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	id := uuid.New()
	clientID := uuid.New()
	email := "ap@client.test"
	m.invoices.On("Get", mock.Anything, id, userID).Return(&models.Invoice{ID: id, ClientID: clientID, Status: models.InvoiceStatusDraft}, nil)
	m.clients.On("Get", mock.Anything, clientID, userID).Return(&models.Client{ID: clientID, Email: &email}, nil)
	m.users.On("GetByID", mock.Anything, userID).Return(&models.User{ID: userID}, nil)
	m.email.On("SendInvoice", email, mock.Anything, mock.Anything).Return(errors.New("smtp: 554"))

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices/:id/send", handler.Send)

	rec := do(http.MethodPost, "/invoices/"+id.String()+"/send", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	m.invoices.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceHandler_Send_Paid(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	id := uuid.New()
	m.invoices.On("Get", mock.Anything, id, userID).Return(&models.Invoice{ID: id, Status: models.InvoiceStatusPaid}, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices/:id/send", handler.Send)

	rec := do(http.MethodPost, "/invoices/"+id.String()+"/send", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrInvoiceLocked.Error(), decodeError(t, rec).Message)
}

func TestInvoiceHandler_AddPayment(t *testing.T) {
	m, handler := setupInvoiceTest(t)

	userID := uuid.New()
	id := uuid.New()
	m.invoices.On("AddPayment", mock.Anything, id, userID, 50.0).
		Return(&models.Invoice{ID: id, Status: models.InvoiceStatusPartiallyPaid, PaidAmount: 50, TotalAmount: 120}, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/invoices/:id/payments", handler.AddPayment)

	rec := do(http.MethodPost, "/invoices/"+id.String()+"/payments", dto.PaymentRequest{Amount: 50})

	assert.Equal(t, http.StatusOK, rec.Code)
	var response models.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, models.InvoiceStatusPartiallyPaid, response.Status)
}

func TestInvoiceHandler_AddPayment_NonPositive(t *testing.T) {
	_, handler := setupInvoiceTest(t)

	app, do := newAuthedApp(t, uuid.New())
	app.Post("/invoices/:id/payments", handler.AddPayment)

	rec := do(http.MethodPost, "/invoices/"+uuid.NewString()+"/payments", dto.PaymentRequest{Amount: 0})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, services.ErrInvalidPayment.Error(), decodeError(t, rec).Errors["amount"])
}
