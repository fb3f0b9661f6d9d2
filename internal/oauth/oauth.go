package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"github.com/work-hours/work-hours-sub001/internal/config"
)

type UserInfo struct {
	Email     string
	Name      string
	AvatarURL string
	ID        string
	Provider  string
	// AccessToken is the provider token obtained at login. GitHub tokens are kept
	// as the user's GitHub integration credential.
	AccessToken string
}

type Provider interface {
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

// Providers returns the login providers that have a client id configured, keyed by name.
func Providers(cfg *config.Config) map[string]Provider {
	providers := make(map[string]Provider)
	if cfg.GitHub.ClientID != "" {
		p := NewGitHubProvider(cfg.GitHub)
		providers[p.Name()] = p
	}
	if cfg.Google.ClientID != "" {
		p := NewGoogleProvider(cfg.Google)
		providers[p.Name()] = p
	}
	return providers
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
