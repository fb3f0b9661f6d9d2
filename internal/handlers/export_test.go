package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/internal/testutil"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

func clientsTable() *services.Table {
	return &services.Table{
		Name:   "clients",
		Header: []string{"name", "email", "currency"},
		Rows:   [][]string{{"Acme, Inc.", "billing@acme.test", "USD"}},
	}
}

func TestExportHandler_Clients_CSV(t *testing.T) {
	mockExportService := new(testutil.MockExportService)
	handler := NewExportHandler(mockExportService)

	userID := uuid.New()
	mockExportService.On("Clients", mock.Anything, userID).Return(clientsTable(), nil)

	app, do := newAuthedApp(t, userID)
	app.Get("/clients/export", handler.Clients)

	rec := do(http.MethodGet, "/clients/export", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="clients.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "name,email,currency\n\"Acme, Inc.\",billing@acme.test,USD\n", rec.Body.String())
}

func TestExportHandler_Archive(t *testing.T) {
	mockExportService := new(testutil.MockExportService)
	handler := NewExportHandler(mockExportService)

	userID := uuid.New()
	table := clientsTable()
	mockExportService.On("Clients", mock.Anything, userID).Return(table, nil)
	mockExportService.On("Archive", mock.Anything, userID, table).Return("https://files.test/exports/clients.csv?sig=1", nil)

	app, do := newAuthedApp(t, userID)
	app.Get("/clients/export", handler.Clients)

	rec := do(http.MethodGet, "/clients/export?archive=true", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var response dto.ArchiveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "https://files.test/exports/clients.csv?sig=1", response.URL)
	mockExportService.AssertExpectations(t)
}

func TestExportHandler_Archive_Unavailable(t *testing.T) {
	mockExportService := new(testutil.MockExportService)
	handler := NewExportHandler(mockExportService)

	userID := uuid.New()
	table := clientsTable()
	mockExportService.On("Clients", mock.Anything, userID).Return(table, nil)
	mockExportService.On("Archive", mock.Anything, userID, table).Return("", services.ErrArchiveUnavailable)

	app, do := newAuthedApp(t, userID)
	app.Get("/clients/export", handler.Clients)

	rec := do(http.MethodGet, "/clients/export?archive=true", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrArchiveUnavailable.Error(), decodeError(t, rec).Message)
}

func TestExportHandler_Archive_BadFlag(t *testing.T) {
	mockExportService := new(testutil.MockExportService)
	handler := NewExportHandler(mockExportService)

	userID := uuid.New()
	mockExportService.On("Clients", mock.Anything, userID).Return(clientsTable(), nil)

	app, do := newAuthedApp(t, userID)
	app.Get("/clients/export", handler.Clients)

	rec := do(http.MethodGet, "/clients/export?archive=maybe", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	mockExportService.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
}

func TestExportHandler_TimeLogs_Filters(t *testing.T) {
	mockExportService := new(testutil.MockExportService)
	handler := NewExportHandler(mockExportService)

	userID := uuid.New()
	mockExportService.On("TimeLogs", mock.Anything, userID, mock.MatchedBy(func(f services.TimeLogFilter) bool {
		return f.Scope == services.ScopeTeam && f.IsPaid != nil && !*f.IsPaid
	})).Return(&services.Table{Name: "time-logs", Header: []string{"id"}}, nil)

	app, do := newAuthedApp(t, userID)
	app.Get("/time-logs/export", handler.TimeLogs)

	rec := do(http.MethodGet, "/time-logs/export?scope=team&is_paid=false", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id\n", rec.Body.String())
	mockExportService.AssertExpectations(t)
}

func TestExportHandler_Tasks_BadProject(t *testing.T) {
	handler := NewExportHandler(new(testutil.MockExportService))

	app, do := newAuthedApp(t, uuid.New())
	app.Get("/tasks/export", handler.Tasks)

	rec := do(http.MethodGet, "/tasks/export?project_id=nope", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "project_id must be a valid id", decodeError(t, rec).Errors["project_id"])
}

func TestExportHandler_InvoiceItems_NotFound(t *testing.T) {
	mockExportService := new(testutil.MockExportService)
	handler := NewExportHandler(mockExportService)

	userID := uuid.New()
	invoiceID := uuid.New()
	mockExportService.On("InvoiceItems", mock.Anything, invoiceID, userID).Return(nil, services.ErrInvoiceNotFound)

	app, do := newAuthedApp(t, userID)
	app.Get("/invoices/:id/export", handler.InvoiceItems)

	rec := do(http.MethodGet, "/invoices/"+invoiceID.String()+"/export", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
