package dto

import "github.com/google/uuid"

type ProjectRequest struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	ClientID    *uuid.UUID `json:"client_id"`
}

type ProjectMemberRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	IsApprover bool      `json:"is_approver"`
}

type ReplaceMembersRequest struct {
	Members []ProjectMemberRequest `json:"members"`
}
