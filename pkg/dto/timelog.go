package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTimeLogRequest struct {
	ProjectID      uuid.UUID  `json:"project_id"`
	TaskID         *uuid.UUID `json:"task_id"`
	StartTimestamp time.Time  `json:"start_timestamp"`
	EndTimestamp   *time.Time `json:"end_timestamp"`
	Note           *string    `json:"note"`
}

type StartTimerRequest struct {
	ProjectID uuid.UUID  `json:"project_id"`
	TaskID    *uuid.UUID `json:"task_id"`
	Note      *string    `json:"note"`
}

type UpdateTimeLogRequest struct {
	TaskID         *uuid.UUID `json:"task_id"`
	StartTimestamp *time.Time `json:"start_timestamp"`
	EndTimestamp   *time.Time `json:"end_timestamp"`
	Note           *string    `json:"note"`
}

type ReviewRequest struct {
	Comment *string `json:"comment"`
}

type BulkApproveRequest struct {
	IDs     []uuid.UUID `json:"ids"`
	Comment *string     `json:"comment"`
}

type BulkApproveResponse struct {
	ApprovedCount int `json:"approved_count"`
	SkippedCount  int `json:"skipped_count"`
}
