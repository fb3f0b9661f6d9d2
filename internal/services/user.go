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
	"github.com/work-hours/work-hours-sub001/internal/oauth"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailInUse   = errors.New("email is already registered with another provider")
)

const userColumns = `id, email, name, avatar_url, provider, provider_id, global_role, hourly_rate, currency, created_at, updated_at`

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.Provider, &u.ProviderID,
		&u.GlobalRole, &u.HourlyRate, &u.Currency, &u.CreatedAt, &u.UpdatedAt,
	)
}

// ProfileUpdate carries the optional fields of PATCH /users/me.
type ProfileUpdate struct {
	Name       *string
	HourlyRate *float64
	Currency   *string
}

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE provider = $1 AND provider_id = $2
	`, info.Provider, info.ID), &user)

	if err == nil {
		if user.Email != info.Email || user.Name != info.Name || (user.AvatarURL == nil && info.AvatarURL != "") {
			_, _ = s.db.Pool.Exec(ctx, `
				UPDATE users SET email = $1, name = $2, avatar_url = $3, updated_at = NOW()
				WHERE id = $4
			`, info.Email, info.Name, nullableString(info.AvatarURL), user.ID)
			user.Email = info.Email
			user.Name = info.Name
			if info.AvatarURL != "" {
				user.AvatarURL = &info.AvatarURL
			}
		}
		return &user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	err = scanUser(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		info.Email, info.Name, nullableString(info.AvatarURL), info.Provider, info.ID), &user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &user)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)
	`, strings.TrimSpace(email)), &user)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	var currency *string
	if upd.Currency != nil {
		c := strings.ToUpper(*upd.Currency)
		currency = &c
	}

	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($1, name),
			hourly_rate = COALESCE($2, hourly_rate),
			currency = COALESCE($3, currency),
			updated_at = NOW()
		WHERE id = $4
		RETURNING `+userColumns,
		upd.Name, upd.HourlyRate, currency, id), &user)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

// SetGlobalRole changes the platform role of the user registered under email.
func (s *UserService) SetGlobalRole(ctx context.Context, email, role string) (*models.User, error) {
	var user models.User
	err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET global_role = $1, updated_at = NOW()
		WHERE LOWER(email) = LOWER($2)
		RETURNING `+userColumns,
		role, email), &user)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}
