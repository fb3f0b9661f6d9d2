package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"
	"github.com/rs/zerolog/log"
	"github.com/work-hours/work-hours-sub001/internal/hub"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsCheckTimeout = 5 * time.Second
	wsReadLimit    = 64 << 10
)

// ClientMessage is a command sent by a chat socket.
type ClientMessage struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id,omitempty"`
	Typing         bool   `json:"typing,omitempty"`
}

type ChatSocketHandler struct {
	hub         ConversationHubInterface
	chatService ChatServiceInterface
	userService UserServiceInterface
	jwtService  JWTServiceInterface
}

func NewChatSocketHandler(hub ConversationHubInterface, chatService ChatServiceInterface, userService UserServiceInterface, jwtService JWTServiceInterface) *ChatSocketHandler {
	return &ChatSocketHandler{
		hub:         hub,
		chatService: chatService,
		userService: userService,
		jwtService:  jwtService,
	}
}

func socketError(conn *websocket.Conn, action, message string) {
	_ = conn.WriteJSON(map[string]string{
		"type":       "error",
		"message":    message,
		"ref_action": action,
	})
}

// Connect authenticates ?token= before upgrading, then pumps hub events out and
// subscribe/unsubscribe/typing commands in.
func (h *ChatSocketHandler) Connect(c *drift.Context) {
	token := c.QueryParam("token")
	if token == "" {
		fail(c, http.StatusUnauthorized, "token is required")
		return
	}

	claims, err := h.jwtService.ValidateAccessToken(token)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid token")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "user not found")
		return
	}

	conn, err := websocket.Upgrade(c)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(wsReadLimit)

	clientID := uuid.New().String()
	client := &hub.Client{
		ID:            clientID,
		UserID:        user.ID,
		UserName:      user.Name,
		AvatarURL:     user.AvatarURL,
		Conversations: make(map[uuid.UUID]bool),
		Send:          make(chan []byte, 256),
	}

	h.hub.Register(client)

	_ = conn.WriteJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	})

	done := make(chan struct{})

	// Write pump
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		defer func() {
			if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
				log.Debug().Err(err).Str("client_id", clientID).Msg("websocket close")
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteText(string(msg)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.Ping(nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read pump (blocks until disconnect)
	defer func() {
		close(done)
		h.hub.Unregister(client)
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			socketError(conn, "", "invalid message format")
			continue
		}

		switch msg.Action {
		case "subscribe":
			h.handleSubscribe(conn, client, msg)
		case "unsubscribe":
			h.handleUnsubscribe(conn, client, msg)
		case "typing":
			h.handleTyping(conn, client, msg)
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		default:
			socketError(conn, msg.Action, "unknown action")
		}
	}
}

func (h *ChatSocketHandler) handleSubscribe(conn *websocket.Conn, client *hub.Client, msg ClientMessage) {
	conversationID, err := uuid.Parse(msg.ConversationID)
	if err != nil {
		socketError(conn, "subscribe", "invalid conversation_id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsCheckTimeout)
	defer cancel()

	ok, err := h.chatService.IsParticipant(ctx, conversationID, client.UserID)
	if err != nil || !ok {
		socketError(conn, "subscribe", "conversation not found")
		return
	}

	h.hub.Subscribe(client.ID, conversationID)

	_ = conn.WriteJSON(map[string]string{
		"type":            "subscribed",
		"conversation_id": conversationID.String(),
	})
}

func (h *ChatSocketHandler) handleUnsubscribe(conn *websocket.Conn, client *hub.Client, msg ClientMessage) {
	conversationID, err := uuid.Parse(msg.ConversationID)
	if err != nil {
		socketError(conn, "unsubscribe", "invalid conversation_id")
		return
	}

	h.hub.Unsubscribe(client.ID, conversationID)

	_ = conn.WriteJSON(map[string]string{
		"type":            "unsubscribed",
		"conversation_id": conversationID.String(),
	})
}

func (h *ChatSocketHandler) handleTyping(conn *websocket.Conn, client *hub.Client, msg ClientMessage) {
	conversationID, err := uuid.Parse(msg.ConversationID)
	if err != nil {
		socketError(conn, "typing", "invalid conversation_id")
		return
	}

	if !h.hub.IsSubscribed(client.ID, conversationID) {
		socketError(conn, "typing", "not subscribed to conversation")
		return
	}

	h.hub.BroadcastTyping(conversationID, client, msg.Typing)
}
