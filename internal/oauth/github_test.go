package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/config"
	"golang.org/x/oauth2"
)

func newTestGitHubProvider(t *testing.T, api http.HandlerFunc) *GitHubProvider {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gh-token","token_type":"Bearer"}`))
	}))
	t.Cleanup(tokenServer.Close)

	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     "test-client-id",
			ClientSecret: "test-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:  tokenServer.URL + "/authorize",
				TokenURL: tokenServer.URL + "/token",
			},
		},
		apiURL: apiServer.URL,
	}
}

func TestGitHubProvider_Name(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{})
	assert.Equal(t, "github", provider.Name())
}

func TestGitHubProvider_GetConsentURL(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost/callback",
	})

	url := provider.GetConsentURL("test-state")

	assert.Contains(t, url, "github.com")
	assert.Contains(t, url, "client_id=test-client-id")
	assert.Contains(t, url, "state=test-state")
	assert.Contains(t, url, "repo")
}

func TestGitHubProvider_ExchangeCode(t *testing.T) {
	provider := newTestGitHubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 12345,
			"login": "testuser",
			"name": "Test User",
			"email": "test@example.com",
			"avatar_url": "https://avatars.githubusercontent.com/u/12345"
		}`))
	})

	info, err := provider.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.Equal(t, "12345", info.ID)
	assert.Equal(t, "test@example.com", info.Email)
	assert.Equal(t, "Test User", info.Name)
	assert.Equal(t, "github", info.Provider)
	assert.Equal(t, "gh-token", info.AccessToken)
}

func TestGitHubProvider_ExchangeCode_EmailAndNameFallback(t *testing.T) {
	emailsFetched := false
	provider := newTestGitHubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id": 1, "login": "testuser", "name": "", "email": ""}`))
		case "/user/emails":
			emailsFetched = true
			_, _ = w.Write([]byte(`[
				{"email": "secondary@example.com", "primary": false, "verified": true},
				{"email": "private@example.com", "primary": true, "verified": true}
			]`))
		}
	})

	info, err := provider.ExchangeCode(context.Background(), "code")

	require.NoError(t, err)
	assert.True(t, emailsFetched)
	assert.Equal(t, "private@example.com", info.Email)
	assert.Equal(t, "testuser", info.Name)
}

func TestGitHubProvider_ExchangeCode_APIError(t *testing.T) {
	provider := newTestGitHubProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.ExchangeCode(context.Background(), "code")

	assert.Error(t, err)
}
