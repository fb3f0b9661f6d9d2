package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamMember is the leader to member edge. Rate and currency apply to time the member
// logs on the leader's projects.
type TeamMember struct {
	ID         uuid.UUID `json:"id"`
	LeaderID   uuid.UUID `json:"leader_id"`
	MemberID   uuid.UUID `json:"member_id"`
	HourlyRate float64   `json:"hourly_rate"`
	Currency   string    `json:"currency"`
	IsApprover bool      `json:"is_approver"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       *User     `json:"user,omitempty"`
}

type TeamInvite struct {
	ID         uuid.UUID `json:"id"`
	LeaderID   uuid.UUID `json:"leader_id"`
	Email      string    `json:"email"`
	HourlyRate float64   `json:"hourly_rate"`
	Currency   string    `json:"currency"`
	IsApprover bool      `json:"is_approver"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Leader     *User     `json:"leader,omitempty"`
}

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)
