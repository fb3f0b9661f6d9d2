package hub

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event types pushed to WebSocket clients.
const (
	EventMessageCreated = "message.created"
	EventTyping         = "typing"
	EventPresence       = "presence_update"
)

type Event struct {
	Type           string     `json:"type"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Data           any        `json:"data,omitempty"`
}

type TypingData struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Typing   bool      `json:"typing"`
}

type OnlineUser struct {
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
}

type PresenceUpdateData struct {
	OnlineUsers []OnlineUser `json:"online_users"`
}

type Client struct {
	ID            string
	UserID        uuid.UUID
	UserName      string
	AvatarURL     *string
	Conversations map[uuid.UUID]bool
	Send          chan []byte
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *ConversationMessage
	mu         sync.RWMutex
}

// ConversationMessage goes to every client subscribed to ConversationID except SkipClient.
type ConversationMessage struct {
	ConversationID uuid.UUID
	SkipClient     string
	Event          Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *ConversationMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				conversations := make([]uuid.UUID, 0, len(client.Conversations))
				for id := range client.Conversations {
					conversations = append(conversations, id)
				}
				delete(h.clients, client.ID)
				close(client.Send)
				h.mu.Unlock()

				for _, id := range conversations {
					h.broadcastPresence(id)
				}
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				continue
			}
			h.send(msg.ConversationID, msg.SkipClient, data)
		}
	}
}

func (h *Hub) send(conversationID uuid.UUID, skip string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.ID == skip || !client.Conversations[conversationID] {
			continue
		}
		select {
		case client.Send <- data:
		default:
			// Client buffer full, skip
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Subscribe(clientID string, conversationID uuid.UUID) {
	h.mu.Lock()
	if client, ok := h.clients[clientID]; ok {
		client.Conversations[conversationID] = true
	}
	h.mu.Unlock()

	h.broadcastPresence(conversationID)
}

func (h *Hub) Unsubscribe(clientID string, conversationID uuid.UUID) {
	h.mu.Lock()
	if client, ok := h.clients[clientID]; ok {
		delete(client.Conversations, conversationID)
	}
	h.mu.Unlock()

	h.broadcastPresence(conversationID)
}

func (h *Hub) IsSubscribed(clientID string, conversationID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return ok && client.Conversations[conversationID]
}

// BroadcastMessage pushes a stored chat message to the conversation's live subscribers.
func (h *Hub) BroadcastMessage(conversationID uuid.UUID, message any) {
	h.broadcast <- &ConversationMessage{
		ConversationID: conversationID,
		Event: Event{
			Type:           EventMessageCreated,
			ConversationID: &conversationID,
			Data:           message,
		},
	}
}

// BroadcastTyping relays a typing indicator to everyone but the typing client.
func (h *Hub) BroadcastTyping(conversationID uuid.UUID, from *Client, typing bool) {
	h.broadcast <- &ConversationMessage{
		ConversationID: conversationID,
		SkipClient:     from.ID,
		Event: Event{
			Type:           EventTyping,
			ConversationID: &conversationID,
			Data: TypingData{
				UserID:   from.UserID,
				UserName: from.UserName,
				Typing:   typing,
			},
		},
	}
}

// broadcastPresence computes the online users of a conversation and broadcasts it.
func (h *Hub) broadcastPresence(conversationID uuid.UUID) {
	h.mu.RLock()
	seen := make(map[uuid.UUID]bool)
	online := []OnlineUser{}
	for _, client := range h.clients {
		if client.Conversations[conversationID] && !seen[client.UserID] {
			seen[client.UserID] = true
			online = append(online, OnlineUser{
				UserID:    client.UserID,
				UserName:  client.UserName,
				AvatarURL: client.AvatarURL,
			})
		}
	}
	h.mu.RUnlock()

	data, _ := json.Marshal(Event{
		Type:           EventPresence,
		ConversationID: &conversationID,
		Data:           PresenceUpdateData{OnlineUsers: online},
	})
	h.send(conversationID, "", data)
}
