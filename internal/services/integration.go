package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrIntegrationNotFound = errors.New("integration not connected")
	ErrUnknownProvider     = errors.New("unknown integration provider")
	ErrCredentialsCorrupt  = errors.New("stored credentials cannot be decrypted")
)

const nonceSize = 24

// Credentials are the decrypted connection details for one provider.
type Credentials struct {
	Provider string
	BaseURL  string
	Username string
	Secret   string
}

type IntegrationService struct {
	db  *database.DB
	key [32]byte
}

// NewIntegrationService derives the sealing key from secret.
func NewIntegrationService(db *database.DB, secret string) *IntegrationService {
	return &IntegrationService{db: db, key: sha256.Sum256([]byte(secret))}
}

func ValidProvider(provider string) bool {
	switch provider {
	case models.IntegrationGitHub, models.IntegrationJira, models.IntegrationGemini:
		return true
	}
	return false
}

func (s *IntegrationService) seal(plain string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key), nil
}

func (s *IntegrationService) open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize {
		return "", ErrCredentialsCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrCredentialsCorrupt
	}
	return string(plain), nil
}

const integrationColumns = `id, user_id, provider, base_url, username, secret, created_at, updated_at`

// Save stores or replaces the user's credentials for provider.
func (s *IntegrationService) Save(ctx context.Context, userID uuid.UUID, provider string, baseURL, username *string, secret string) (*models.UserIntegration, error) {
	if !ValidProvider(provider) {
		return nil, ErrUnknownProvider
	}
	if baseURL != nil {
		trimmed := strings.TrimRight(strings.TrimSpace(*baseURL), "/")
		baseURL = &trimmed
	}

	sealed, err := s.seal(secret)
	if err != nil {
		return nil, err
	}

	var i models.UserIntegration
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO user_integrations (user_id, provider, base_url, username, secret)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, provider) DO UPDATE
		SET base_url = EXCLUDED.base_url, username = EXCLUDED.username, secret = EXCLUDED.secret, updated_at = NOW()
		RETURNING `+integrationColumns,
		userID, provider, baseURL, username, sealed,
	).Scan(&i.ID, &i.UserID, &i.Provider, &i.BaseURL, &i.Username, &i.Secret, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save integration: %w", err)
	}
	return &i, nil
}

func (s *IntegrationService) List(ctx context.Context, userID uuid.UUID) ([]models.UserIntegration, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+integrationColumns+` FROM user_integrations WHERE user_id = $1 ORDER BY provider
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	integrations := []models.UserIntegration{}
	for rows.Next() {
		var i models.UserIntegration
		if err := rows.Scan(&i.ID, &i.UserID, &i.Provider, &i.BaseURL, &i.Username, &i.Secret, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		integrations = append(integrations, i)
	}
	return integrations, rows.Err()
}

func (s *IntegrationService) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM user_integrations WHERE user_id = $1 AND provider = $2
	`, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIntegrationNotFound
	}
	return nil
}

// Credentials returns the decrypted credentials the user stored for provider.
func (s *IntegrationService) Credentials(ctx context.Context, userID uuid.UUID, provider string) (*Credentials, error) {
	var baseURL, username *string
	var sealed []byte
	err := s.db.Pool.QueryRow(ctx, `
		SELECT base_url, username, secret FROM user_integrations WHERE user_id = $1 AND provider = $2
	`, userID, provider).Scan(&baseURL, &username, &sealed)
	if err != nil {
		return nil, notFound(err, ErrIntegrationNotFound)
	}

	secret, err := s.open(sealed)
	if err != nil {
		return nil, err
	}

	c := &Credentials{Provider: provider, Secret: secret}
	if baseURL != nil {
		c.BaseURL = *baseURL
	}
	if username != nil {
		c.Username = *username
	}
	return c, nil
}
