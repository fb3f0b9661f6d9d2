package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrClientInUse    = errors.New("client has invoices and cannot be deleted")
)

type ClientParams struct {
	Name          string
	Email         *string
	ContactPerson *string
	Phone         *string
	Address       *string
	Notes         *string
	HourlyRate    float64
	Currency      string
}

type ClientService struct {
	db *database.DB
}

func NewClientService(db *database.DB) *ClientService {
	return &ClientService{db: db}
}

const clientColumns = `id, user_id, name, email, contact_person, phone, address, notes, hourly_rate, currency, created_at, updated_at`

func scanClient(row pgx.Row, c *models.Client) error {
	return row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.ContactPerson, &c.Phone, &c.Address, &c.Notes,
		&c.HourlyRate, &c.Currency, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (s *ClientService) List(ctx context.Context, userID uuid.UUID) ([]models.Client, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE user_id = $1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		var c models.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Get returns the client only when userID owns it.
func (s *ClientService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := scanClient(s.db.Pool.QueryRow(ctx, `
		SELECT `+clientColumns+` FROM clients WHERE id = $1 AND user_id = $2
	`, id, userID), &c)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound)
	}
	return &c, nil
}

func (s *ClientService) Create(ctx context.Context, userID uuid.UUID, p ClientParams) (*models.Client, error) {
	var c models.Client
	err := scanClient(s.db.Pool.QueryRow(ctx, `
		INSERT INTO clients (user_id, name, email, contact_person, phone, address, notes, hourly_rate, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+clientColumns,
		userID, p.Name, p.Email, p.ContactPerson, p.Phone, p.Address, p.Notes, p.HourlyRate, strings.ToUpper(p.Currency),
	), &c)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &c, nil
}

func (s *ClientService) Update(ctx context.Context, id, userID uuid.UUID, p ClientParams) (*models.Client, error) {
	var c models.Client
	err := scanClient(s.db.Pool.QueryRow(ctx, `
		UPDATE clients SET
			name = $1, email = $2, contact_person = $3, phone = $4, address = $5, notes = $6,
			hourly_rate = $7, currency = $8, updated_at = NOW()
		WHERE id = $9 AND user_id = $10
		RETURNING `+clientColumns,
		p.Name, p.Email, p.ContactPerson, p.Phone, p.Address, p.Notes, p.HourlyRate, strings.ToUpper(p.Currency), id, userID,
	), &c)
	if err != nil {
		return nil, notFound(err, ErrClientNotFound)
	}
	return &c, nil
}

func (s *ClientService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	var invoiced bool
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM invoices WHERE client_id = $1)
	`, id).Scan(&invoiced); err != nil {
		return err
	}
	if invoiced {
		return ErrClientInUse
	}

	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}
