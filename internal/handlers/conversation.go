package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/hub"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

const (
	defaultMessagePage = 50
	maxMessagePage     = 200
	maxMessageLength   = 5000
)

type ConversationHandler struct {
	chatService ChatServiceInterface
	chatHub     ConversationHubInterface
	events      EventHubInterface
	notifier    Notifier
}

func NewConversationHandler(chatService ChatServiceInterface, chatHub ConversationHubInterface, events EventHubInterface, notifier Notifier) *ConversationHandler {
	return &ConversationHandler{
		chatService: chatService,
		chatHub:     chatHub,
		events:      events,
		notifier:    notifier,
	}
}

func (h *ConversationHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conversations, err := h.chatService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get conversations")
		return
	}

	_ = c.JSON(http.StatusOK, conversations)
}

// Start returns the caller's direct conversation with user_id, creating it on first use.
func (h *ConversationHandler) Start(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.StartConversationRequest
	if !bind(c, &req) {
		return
	}

	if req.UserID == uuid.Nil {
		fieldErrors{"user_id": "user_id is required"}.respond(c)
		return
	}

	conversation, err := h.chatService.GetOrCreate(c.Request.Context(), userID, req.UserID)
	if err != nil {
		respondError(c, err, "failed to start conversation")
		return
	}

	_ = c.JSON(http.StatusOK, conversation)
}

func (h *ConversationHandler) Messages(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "conversation")
	if !ok {
		return
	}

	errs := fieldErrors{}
	before := queryTime(c, "before", errs)
	if errs.respond(c) {
		return
	}
	limit := queryInt(c, "limit", defaultMessagePage, maxMessagePage)

	messages, err := h.chatService.ListMessages(c.Request.Context(), id, userID, limit, before)
	if err != nil {
		respondError(c, err, "failed to get messages")
		return
	}

	_ = c.JSON(http.StatusOK, messages)
}

// Send stores a message and fans it out to live sockets, SSE streams and notifications.
func (h *ConversationHandler) Send(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "conversation")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !bind(c, &req) {
		return
	}

	body := strings.TrimSpace(req.Body)
	errs := fieldErrors{}
	errs.check(body != "", "body", "body is required")
	errs.check(withinChars(body, maxMessageLength), "body", "body may not be longer than 5000 characters")
	if errs.respond(c) {
		return
	}

	ctx := c.Request.Context()

	msg, recipients, err := h.chatService.SendMessage(ctx, id, userID, body)
	if err != nil {
		respondError(c, err, "failed to send message")
		return
	}

	h.chatHub.BroadcastMessage(id, msg)
	for _, r := range recipients {
		h.events.BroadcastToUser(r, hub.EventMessageCreated, msg)
	}
	if len(recipients) > 0 {
		h.notifier.Notify(ctx, recipients, models.NotificationMessageReceived, models.SubjectConversation, id,
			map[string]any{"message_id": msg.ID, "sender_id": userID})
	}

	_ = c.JSON(http.StatusCreated, msg)
}
