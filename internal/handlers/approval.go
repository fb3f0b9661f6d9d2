package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type ApprovalHandler struct {
	approvalService ApprovalServiceInterface
	notifier        Notifier
}

func NewApprovalHandler(approvalService ApprovalServiceInterface, notifier Notifier) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
		notifier:        notifier,
	}
}

func (h *ApprovalHandler) notifyOwner(c *drift.Context, l *models.TimeLog, reviewerID uuid.UUID) {
	kind := models.NotificationTimeLogApproved
	if l.Status == models.TimeLogStatusRejected {
		kind = models.NotificationTimeLogRejected
	}
	if l.UserID == reviewerID {
		return
	}
	h.notifier.Notify(c.Request.Context(), []uuid.UUID{l.UserID}, kind, models.SubjectTimeLog, l.ID,
		map[string]any{"reviewed_by": reviewerID, "comment": l.ReviewComment, "project_id": l.ProjectID})
}

// ListPending returns the pending logs the caller may review.
func (h *ApprovalHandler) ListPending(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	logs, err := h.approvalService.ListPending(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get pending approvals")
		return
	}

	_ = c.JSON(http.StatusOK, logs)
}

func (h *ApprovalHandler) Approve(c *drift.Context) {
	h.review(c, true)
}

func (h *ApprovalHandler) Reject(c *drift.Context) {
	h.review(c, false)
}

func (h *ApprovalHandler) review(c *drift.Context, approve bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "time log")
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var (
		l   *models.TimeLog
		err error
	)
	if approve {
		l, err = h.approvalService.Approve(ctx, id, userID, req.Comment)
	} else {
		l, err = h.approvalService.Reject(ctx, id, userID, req.Comment)
	}
	if err != nil {
		respondError(c, err, "failed to review time log")
		return
	}

	h.notifyOwner(c, l, userID)

	_ = c.JSON(http.StatusOK, l)
}

// BulkApprove approves every listed log the caller may review and skips the rest.
func (h *ApprovalHandler) BulkApprove(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.BulkApproveRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	errs.check(len(req.IDs) > 0, "ids", "ids must contain at least one time log")
	errs.check(len(req.IDs) <= maxBulkIDs, "ids", "ids may not contain more than 500 time logs")
	if errs.respond(c) {
		return
	}

	result, err := h.approvalService.BulkApprove(c.Request.Context(), userID, req.IDs, req.Comment)
	if err != nil {
		respondError(c, err, "failed to approve time logs")
		return
	}

	for i := range result.Approved {
		h.notifyOwner(c, &result.Approved[i], userID)
	}

	_ = c.JSON(http.StatusOK, dto.BulkApproveResponse{
		ApprovedCount: result.ApprovedCount,
		SkippedCount:  result.SkippedCount,
	})
}
