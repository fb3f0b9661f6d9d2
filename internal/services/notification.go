package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// EventNotificationCreated is the SSE event carrying a freshly stored notification.
const EventNotificationCreated = "notification.created"

// Publisher pushes an event onto a user's live streams.
type Publisher interface {
	BroadcastToUser(userID uuid.UUID, eventType string, data any)
}

type NotificationService struct {
	db        *database.DB
	publisher Publisher
	log       zerolog.Logger
}

func NewNotificationService(db *database.DB, publisher Publisher, log zerolog.Logger) *NotificationService {
	return &NotificationService{db: db, publisher: publisher, log: log}
}

const notificationColumns = `id, user_id, type, subject_type, subject_id, data, read_at, created_at`

// Notify stores one notification per recipient and pushes each to the recipient's stream.
// Failures are logged; notifying never fails the operation that triggered it.
func (s *NotificationService) Notify(ctx context.Context, recipients []uuid.UUID, kind, subjectType string, subjectID uuid.UUID, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.log.Error().Err(err).Str("type", kind).Msg("failed to encode notification data")
		return
	}

	for _, userID := range dedupe(recipients) {
		var n models.Notification
		err := s.db.Pool.QueryRow(ctx, `
			INSERT INTO notifications (user_id, type, subject_type, subject_id, data)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+notificationColumns,
			userID, kind, subjectType, subjectID, payload,
		).Scan(&n.ID, &n.UserID, &n.Type, &n.SubjectType, &n.SubjectID, &n.Data, &n.ReadAt, &n.CreatedAt)
		if err != nil {
			s.log.Error().Err(err).Str("type", kind).Str("user_id", userID.String()).Msg("failed to store notification")
			continue
		}
		if s.publisher != nil {
			s.publisher.BroadcastToUser(userID, EventNotificationCreated, n)
		}
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR read_at IS NULL)
		ORDER BY created_at DESC
		LIMIT $3
	`, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.SubjectType, &n.SubjectID, &n.Data, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, NOW()) WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *NotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return unreadCount(ctx, s.db.Pool, userID)
}

func unreadCount(ctx context.Context, q querier, userID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL
	`, userID).Scan(&n)
	return n, err
}
