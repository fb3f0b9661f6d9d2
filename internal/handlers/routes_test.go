package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/middleware"
	"github.com/work-hours/work-hours-sub001/internal/testutil"
)

type routeMocks struct {
	export       *testutil.MockExportService
	notification *testutil.MockNotificationService
	client       *testutil.MockClientService
}

func setupRoutes(t *testing.T) (routeMocks, *drift.Engine) {
	t.Helper()
	m := routeMocks{
		export:       new(testutil.MockExportService),
		notification: new(testutil.MockNotificationService),
		client:       new(testutil.MockClientService),
	}

	h := &Handlers{
		Auth:         &AuthHandler{},
		User:         NewUserHandler(new(testutil.MockUserService)),
		Team:         &TeamHandler{},
		Invite:       &InviteHandler{},
		Client:       NewClientHandler(m.client),
		Project:      &ProjectHandler{},
		Task:         &TaskHandler{},
		TimeLog:      NewTimeLogHandler(new(testutil.MockTimeLogService)),
		Approval:     &ApprovalHandler{},
		Invoice:      &InvoiceHandler{},
		Integration:  &IntegrationHandler{},
		Conversation: &ConversationHandler{},
		Notification: NewNotificationHandler(m.notification),
		Dashboard:    &DashboardHandler{},
		Export:       NewExportHandler(m.export),
		Events:       &SSEHandler{},
		Socket:       NewChatSocketHandler(new(testutil.MockConversationHub), new(testutil.MockChatService), new(testutil.MockUserService), new(testutil.MockJWTService)),
	}

	app := drift.New()
	require.NotPanics(t, func() {
		h.Register(app.Group("/api"), middleware.Auth(testutil.TestJWTService()))
	})
	return m, app
}

func TestRoutes_ActionDispatch(t *testing.T) {
	m, app := setupRoutes(t)

	userID := uuid.New()
	m.export.On("Clients", mock.Anything, userID).Return(clientsTable(), nil)

	client := testutil.NewHTTPTestClient(t, app)
	headers := testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "user@example.com"))

	rec := client.GET("/api/clients/export", headers)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	m.client.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoutes_ItemFallsThrough(t *testing.T) {
	_, app := setupRoutes(t)

	client := testutil.NewHTTPTestClient(t, app)
	headers := testutil.AuthHeader(testutil.GenerateTestToken(t, uuid.New(), "user@example.com"))

	rec := client.GET("/api/clients/not-an-id", headers)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid client id", decodeError(t, rec).Message)
}

func TestRoutes_UnknownPostAction(t *testing.T) {
	m, app := setupRoutes(t)

	userID := uuid.New()
	m.notification.On("MarkAllRead", mock.Anything, userID).Return(int64(4), nil)

	client := testutil.NewHTTPTestClient(t, app)
	headers := testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "user@example.com"))

	rec := client.POST("/api/notifications/read-all", nil, headers)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":4}`, rec.Body.String())

	rec = client.POST("/api/notifications/archive-all", nil, headers)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeError(t, rec).Message)
}

func TestRoutes_ProtectedRequiresToken(t *testing.T) {
	_, app := setupRoutes(t)

	client := testutil.NewHTTPTestClient(t, app)

	rec := client.GET("/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = client.POST("/api/auth/logout-all", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoutes_SocketAuthenticatesItself(t *testing.T) {
	_, app := setupRoutes(t)

	rec := testutil.NewHTTPTestClient(t, app).GET("/api/ws", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token is required", decodeError(t, rec).Message)
}
