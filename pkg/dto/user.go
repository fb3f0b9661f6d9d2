package dto

import "github.com/google/uuid"

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	Provider   string    `json:"provider"`
	GlobalRole string    `json:"global_role"`
	HourlyRate float64   `json:"hourly_rate"`
	Currency   string    `json:"currency"`
}

type UpdateUserRequest struct {
	Name       *string  `json:"name"`
	HourlyRate *float64 `json:"hourly_rate"`
	Currency   *string  `json:"currency"`
}
