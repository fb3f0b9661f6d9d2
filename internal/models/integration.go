package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	IntegrationGitHub = "github"
	IntegrationJira   = "jira"
	IntegrationGemini = "gemini"
)

// UserIntegration is a stored third-party credential. Secret holds the sealed bytes and
// never leaves the service layer.
type UserIntegration struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Provider  string    `json:"provider"`
	BaseURL   *string   `json:"base_url,omitempty"`
	Username  *string   `json:"username,omitempty"`
	Secret    []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
