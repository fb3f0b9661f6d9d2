package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/sse"
)

const sseHeartbeat = 25 * time.Second

type SSEHandler struct {
	hub EventHubInterface
}

func NewSSEHandler(hub EventHubInterface) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Connect streams the caller's notifications and chat events until the client goes away.
func (h *SSEHandler) Connect(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stream := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := stream.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		return
	}

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := stream.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.SendComment("ping"); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
