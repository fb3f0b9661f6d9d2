package models

import (
	"time"

	"github.com/google/uuid"
)

// Issue trackers a project or task can be imported from.
const (
	SourceGitHub = "github"
	SourceJira   = "jira"
)

type Project struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	ClientID    *uuid.UUID      `json:"client_id,omitempty"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Source      *string         `json:"source,omitempty"`
	SourceID    *string         `json:"source_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Members     []ProjectMember `json:"members,omitempty"`
	ClientName  *string         `json:"client_name,omitempty"`
}

type ProjectMember struct {
	ProjectID  uuid.UUID `json:"project_id"`
	UserID     uuid.UUID `json:"user_id"`
	IsApprover bool      `json:"is_approver"`
	User       *User     `json:"user,omitempty"`
}
