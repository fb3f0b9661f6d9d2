package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

type Dashboard struct {
	HoursThisWeek       float64              `json:"hours_this_week"`
	HoursTotal          float64              `json:"hours_total"`
	Unpaid              []models.UnpaidTotal `json:"unpaid"`
	TeamUnpaid          []models.UnpaidTotal `json:"team_unpaid"`
	PendingApprovals    int                  `json:"pending_approvals"`
	UnreadNotifications int                  `json:"unread_notifications"`
}

type DashboardService struct {
	db *database.DB
}

func NewDashboardService(db *database.DB) *DashboardService {
	return &DashboardService{db: db}
}

// WeekStart is Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

func (s *DashboardService) Get(ctx context.Context, userID uuid.UUID, now time.Time) (*Dashboard, error) {
	d := &Dashboard{}
	q := s.db.Pool

	if err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(duration) FILTER (WHERE start_timestamp >= $2), 0), COALESCE(SUM(duration), 0)
		FROM time_logs
		WHERE user_id = $1 AND end_timestamp IS NOT NULL
	`, userID, WeekStart(now)).Scan(&d.HoursThisWeek, &d.HoursTotal); err != nil {
		return nil, fmt.Errorf("failed to sum hours: %w", err)
	}

	var err error
	if d.Unpaid, err = unpaidTotals(ctx, q, userID, ScopeMine); err != nil {
		return nil, fmt.Errorf("failed to load unpaid totals: %w", err)
	}
	if d.TeamUnpaid, err = unpaidTotals(ctx, q, userID, ScopeTeam); err != nil {
		return nil, fmt.Errorf("failed to load team unpaid totals: %w", err)
	}
	if d.PendingApprovals, err = pendingCount(ctx, q, userID); err != nil {
		return nil, fmt.Errorf("failed to count pending approvals: %w", err)
	}
	if d.UnreadNotifications, err = unreadCount(ctx, q, userID); err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	return d, nil
}
