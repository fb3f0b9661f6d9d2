package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotTeammates         = errors.New("you can only chat with members of your teams")
	ErrCannotChatSelf       = errors.New("cannot start a conversation with yourself")
	ErrEmptyMessage         = errors.New("message body is required")
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// directKey identifies the one-on-one conversation between a and b regardless of order.
func directKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if x > y {
		x, y = y, x
	}
	return x + ":" + y
}

type ChatService struct {
	db *database.DB
}

func NewChatService(db *database.DB) *ChatService {
	return &ChatService{db: db}
}

// GetOrCreate returns the conversation between userID and otherID, creating it on first use.
func (s *ChatService) GetOrCreate(ctx context.Context, userID, otherID uuid.UUID) (*models.Conversation, error) {
	if userID == otherID {
		return nil, ErrCannotChatSelf
	}

	ok, err := areTeammates(ctx, s.db.Pool, userID, otherID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotTeammates
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var c models.Conversation
	err = tx.QueryRow(ctx, `
		INSERT INTO conversations (direct_key) VALUES ($1)
		ON CONFLICT (direct_key) DO UPDATE SET direct_key = EXCLUDED.direct_key
		RETURNING id, direct_key, created_at, updated_at
	`, directKey(userID, otherID)).Scan(&c.ID, &c.DirectKey, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id)
		VALUES ($1, $2), ($1, $3)
		ON CONFLICT DO NOTHING
	`, c.ID, userID, otherID); err != nil {
		return nil, fmt.Errorf("failed to add participants: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	participants, err := s.participants(ctx, []uuid.UUID{c.ID})
	if err != nil {
		return nil, err
	}
	c.Participants = participants[c.ID]
	return &c, nil
}

func (s *ChatService) participants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT cp.conversation_id, u.id, u.email, u.name, u.avatar_url
		FROM conversation_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.conversation_id = ANY($1)
		ORDER BY u.name
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.User, len(ids))
	for rows.Next() {
		var convID uuid.UUID
		var u models.User
		if err := rows.Scan(&convID, &u.ID, &u.Email, &u.Name, &u.AvatarURL); err != nil {
			return nil, err
		}
		out[convID] = append(out[convID], u)
	}
	return out, rows.Err()
}

// List returns the caller's conversations, most recent activity first, with the last message
// and the number of unread messages from the other side.
func (s *ChatService) List(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT c.id, c.direct_key, c.created_at, c.updated_at,
			lm.id, lm.user_id, lm.body, lm.read_at, lm.created_at,
			(SELECT COUNT(*) FROM messages m
			 WHERE m.conversation_id = c.id AND m.user_id <> $1 AND m.read_at IS NULL)
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		LEFT JOIN LATERAL (
			SELECT id, user_id, body, read_at, created_at FROM messages
			WHERE conversation_id = c.id ORDER BY created_at DESC LIMIT 1
		) lm ON TRUE
		ORDER BY COALESCE(lm.created_at, c.updated_at) DESC
	`, userID)
	if err != nil {
		return nil, err
	}

	conversations := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		var msgID, senderID *uuid.UUID
		var body *string
		var readAt, sentAt *time.Time
		if err := rows.Scan(&c.ID, &c.DirectKey, &c.CreatedAt, &c.UpdatedAt,
			&msgID, &senderID, &body, &readAt, &sentAt, &c.UnreadCount); err != nil {
			rows.Close()
			return nil, err
		}
		if msgID != nil {
			c.LastMessage = &models.Message{
				ID:             *msgID,
				ConversationID: c.ID,
				UserID:         *senderID,
				Body:           *body,
				ReadAt:         readAt,
				CreatedAt:      *sentAt,
			}
		}
		conversations = append(conversations, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return conversations, nil
	}

	ids := make([]uuid.UUID, len(conversations))
	for i, c := range conversations {
		ids[i] = c.ID
	}
	participants, err := s.participants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range conversations {
		conversations[i].Participants = participants[conversations[i].ID]
	}
	return conversations, nil
}

func (s *ChatService) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return isParticipant(ctx, s.db.Pool, conversationID, userID)
}

func isParticipant(ctx context.Context, q querier, conversationID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

// ListMessages returns up to limit messages older than before, oldest first, and marks the
// other participant's messages read for userID.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ok, err := isParticipant(ctx, tx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConversationNotFound
	}

	if _, err := tx.Exec(ctx, `
		UPDATE messages SET read_at = NOW()
		WHERE conversation_id = $1 AND user_id <> $2 AND read_at IS NULL
	`, conversationID, userID); err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, conversation_id, user_id, body, read_at, created_at
		FROM messages
		WHERE conversation_id = $1 AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, conversationID, before, limit)
	if err != nil {
		return nil, err
	}

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		messages = append(messages, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SendMessage stores the message and returns it with the ids of the other participants.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*models.Message, []uuid.UUID, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil, ErrEmptyMessage
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ok, err := isParticipant(ctx, tx, conversationID, senderID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrConversationNotFound
	}

	var m models.Message
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, user_id, body) VALUES ($1, $2, $3)
		RETURNING id, conversation_id, user_id, body, read_at, created_at
	`, conversationID, senderID, body).Scan(&m.ID, &m.ConversationID, &m.UserID, &m.Body, &m.ReadAt, &m.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send message: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversationID); err != nil {
		return nil, nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT user_id FROM conversation_participants WHERE conversation_id = $1 AND user_id <> $2
	`, conversationID, senderID)
	if err != nil {
		return nil, nil, err
	}
	var recipients []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, nil, err
		}
		recipients = append(recipients, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &m, recipients, nil
}
