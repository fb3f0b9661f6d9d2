package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	NotificationTeamInvited     = "team.invited"
	NotificationTaskAssigned    = "task.assigned"
	NotificationTaskCommented   = "task.commented"
	NotificationTimeLogApproved = "time_log.approved"
	NotificationTimeLogRejected = "time_log.rejected"
	NotificationMessageReceived = "message.received"
	NotificationInvoiceOverdue  = "invoice.overdue"
	NotificationInviteAccepted  = "team.invite_accepted"
)

// Subject types a notification can point at.
const (
	SubjectTeamInvite   = "team_invite"
	SubjectTask         = "task"
	SubjectTimeLog      = "time_log"
	SubjectConversation = "conversation"
	SubjectInvoice      = "invoice"
)

type Notification struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Type        string          `json:"type"`
	SubjectType string          `json:"subject_type"`
	SubjectID   uuid.UUID       `json:"subject_id"`
	Data        json.RawMessage `json:"data"`
	ReadAt      *time.Time      `json:"read_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
