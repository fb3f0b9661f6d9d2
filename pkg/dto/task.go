package dto

import "github.com/google/uuid"

type CreateTaskRequest struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority"`
	DueDate     *string     `json:"due_date"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids"`
	Tags        []string    `json:"tags"`
}

// UpdateTaskRequest leaves absent fields unchanged. An empty due_date string clears it.
type UpdateTaskRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Status      *string     `json:"status"`
	Priority    *string     `json:"priority"`
	DueDate     *string     `json:"due_date"`
	AssigneeIDs []uuid.UUID `json:"assignee_ids"`
	Tags        []string    `json:"tags"`
}

type CommentRequest struct {
	Body string `json:"body"`
}

type AIDescriptionRequest struct {
	Instructions string `json:"instructions"`
}

type AIDescriptionResponse struct {
	Description string `json:"description"`
}
