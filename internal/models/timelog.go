package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TimeLogStatusPending  = "pending"
	TimeLogStatusApproved = "approved"
	TimeLogStatusRejected = "rejected"
)

type TimeLog struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	ProjectID      uuid.UUID  `json:"project_id"`
	TaskID         *uuid.UUID `json:"task_id,omitempty"`
	StartTimestamp time.Time  `json:"start_timestamp"`
	EndTimestamp   *time.Time `json:"end_timestamp,omitempty"`
	Duration       *float64   `json:"duration,omitempty"`
	Note           *string    `json:"note,omitempty"`
	HourlyRate     float64    `json:"hourly_rate"`
	Currency       string     `json:"currency"`
	IsPaid         bool       `json:"is_paid"`
	Status         string     `json:"status"`
	ApprovedBy     *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	ReviewComment  *string    `json:"review_comment,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Running reports whether the log was started and not yet stopped.
func (l *TimeLog) Running() bool {
	return l.EndTimestamp == nil
}

// Locked reports whether the log can no longer be edited or deleted.
func (l *TimeLog) Locked() bool {
	return l.IsPaid || l.Status == TimeLogStatusApproved
}

// Amount is duration times the snapshotted rate, zero while running.
func (l *TimeLog) Amount() float64 {
	if l.Duration == nil {
		return 0
	}
	return RoundCents(*l.Duration * l.HourlyRate)
}

// UnpaidTotal is the unpaid aggregation for one currency.
type UnpaidTotal struct {
	Currency string  `json:"currency"`
	Hours    float64 `json:"hours"`
	Amount   float64 `json:"amount"`
}
