package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

func TestIntegrationService_SealRoundTrip(t *testing.T) {
	svc := NewIntegrationService(nil, "credentials-key")

	sealed, err := svc.seal("ghp_token")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "ghp_token")

	plain, err := svc.open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ghp_token", plain)

	other := NewIntegrationService(nil, "another-key")
	_, err = other.open(sealed)
	assert.ErrorIs(t, err, ErrCredentialsCorrupt)

	_, err = svc.open([]byte("short"))
	assert.ErrorIs(t, err, ErrCredentialsCorrupt)
}

func TestIntegrationService_Save_UnknownProvider(t *testing.T) {
	svc := NewIntegrationService(nil, "k")

	_, err := svc.Save(context.Background(), uuid.New(), "gitlab", nil, nil, "x")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestIntegrationService_SaveThenCredentials(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIntegrationService(db, "k")
	userID := uuid.New()
	base := "https://acme.atlassian.net"
	email := "dev@acme.test"
	now := time.Now()

	var stored []byte
	mock.ExpectQuery(`INSERT INTO user_integrations`).
		WithArgs(userID, models.IntegrationJira, &base, &email, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "provider", "base_url", "username", "secret", "created_at", "updated_at"}).
			AddRow(uuid.New(), userID, models.IntegrationJira, &base, &email, []byte("sealed"), now, now))

	i, err := svc.Save(context.Background(), userID, models.IntegrationJira, strPtr(base+"/"), &email, "jira-token")
	require.NoError(t, err)
	assert.Equal(t, models.IntegrationJira, i.Provider)
	require.NoError(t, mock.ExpectationsWereMet())

	stored, err = svc.seal("jira-token")
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT base_url, username, secret FROM user_integrations`).
		WithArgs(userID, models.IntegrationJira).
		WillReturnRows(pgxmock.NewRows([]string{"base_url", "username", "secret"}).AddRow(&base, &email, stored))

	creds, err := svc.Credentials(context.Background(), userID, models.IntegrationJira)

	require.NoError(t, err)
	assert.Equal(t, &Credentials{Provider: models.IntegrationJira, BaseURL: base, Username: email, Secret: "jira-token"}, creds)
}

func TestIntegrationService_Credentials_NotConnected(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIntegrationService(db, "k")

	userID := uuid.New()

	mock.ExpectQuery(`SELECT base_url, username, secret`).
		WithArgs(userID, models.IntegrationGitHub).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Credentials(context.Background(), userID, models.IntegrationGitHub)
	assert.ErrorIs(t, err, ErrIntegrationNotFound)
}

func TestIntegrationService_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIntegrationService(db, "k")
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM user_integrations`).
		WithArgs(userID, models.IntegrationGemini).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, svc.Delete(context.Background(), userID, models.IntegrationGemini), ErrIntegrationNotFound)
}
