package dto

import "github.com/google/uuid"

type MessageResponse struct {
	Message string `json:"message"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type IDsRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// ArchiveResponse carries the presigned download URL of an archived export.
type ArchiveResponse struct {
	URL string `json:"url"`
}
