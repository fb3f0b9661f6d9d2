package handlers

import (
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

const (
	defaultNotificationPage = 50
	maxNotificationPage     = 100
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	errs := fieldErrors{}
	unread := queryBool(c, "unread", errs)
	if errs.respond(c) {
		return
	}
	limit := queryInt(c, "limit", defaultNotificationPage, maxNotificationPage)

	notifications, err := h.notificationService.List(c.Request.Context(), userID, unread != nil && *unread, limit)
	if err != nil {
		respondError(c, err, "failed to get notifications")
		return
	}

	_ = c.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to count notifications")
		return
	}

	_ = c.JSON(http.StatusOK, dto.CountResponse{Count: int64(n)})
}

func (h *NotificationHandler) MarkRead(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "failed to mark notification read")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to mark notifications read")
		return
	}

	_ = c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}

func (h *NotificationHandler) Delete(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "failed to delete notification")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "notification deleted"})
}
