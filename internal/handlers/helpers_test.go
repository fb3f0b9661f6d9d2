package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/middleware"
	"github.com/work-hours/work-hours-sub001/internal/testutil"
)

// newAuthedApp returns an engine with the body parser and auth middleware installed and
// a client whose requests carry a token for userID.
func newAuthedApp(t *testing.T, userID uuid.UUID) (*drift.Engine, func(method, path string, body any) *httptest.ResponseRecorder) {
	t.Helper()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(testutil.TestJWTService()))

	client := testutil.NewHTTPTestClient(t, app)
	headers := testutil.AuthHeader(testutil.GenerateTestToken(t, userID, "user@example.com"))

	return app, func(method, path string, body any) *httptest.ResponseRecorder {
		return client.Request(method, path, body, headers)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
