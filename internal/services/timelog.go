package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrTimeLogNotFound  = errors.New("time log not found")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrTimeLogLocked    = errors.New("approved or paid time logs cannot be changed")
	ErrTimerRunning     = errors.New("a timer is already running")
	ErrTimerNotRunning  = errors.New("time log is not running")
	ErrTaskNotInProject = errors.New("task does not belong to the project")
)

// Scopes for listing and aggregating time logs.
const (
	ScopeMine = "mine"
	ScopeTeam = "team"
)

type TimeLogParams struct {
	ProjectID uuid.UUID
	TaskID    *uuid.UUID
	Start     time.Time
	End       *time.Time
	Note      *string
}

type TimeLogUpdate struct {
	TaskID *uuid.UUID
	Start  *time.Time
	End    *time.Time
	Note   *string
}

type TimeLogFilter struct {
	Scope     string
	ProjectID *uuid.UUID
	Status    string
	IsPaid    *bool
	From      *time.Time
	To        *time.Time
}

// DurationHours is end minus start in hours, rounded to two decimals.
func DurationHours(start, end time.Time) float64 {
	return models.RoundCents(end.Sub(start).Hours())
}

type TimeLogService struct {
	db *database.DB
}

func NewTimeLogService(db *database.DB) *TimeLogService {
	return &TimeLogService{db: db}
}

const timeLogColumns = `tl.id, tl.user_id, tl.project_id, tl.task_id, tl.start_timestamp, tl.end_timestamp,
	tl.duration, tl.note, tl.hourly_rate, tl.currency, tl.is_paid, tl.status, tl.approved_by,
	tl.approved_at, tl.review_comment, tl.created_at, tl.updated_at`

func timeLogDest(l *models.TimeLog) []any {
	return []any{
		&l.ID, &l.UserID, &l.ProjectID, &l.TaskID, &l.StartTimestamp, &l.EndTimestamp,
		&l.Duration, &l.Note, &l.HourlyRate, &l.Currency, &l.IsPaid, &l.Status, &l.ApprovedBy,
		&l.ApprovedAt, &l.ReviewComment, &l.CreatedAt, &l.UpdatedAt,
	}
}

func scanTimeLog(row pgx.Row, l *models.TimeLog) error {
	return row.Scan(timeLogDest(l)...)
}

func collectTimeLogs(rows pgx.Rows) ([]models.TimeLog, error) {
	defer rows.Close()

	logs := []models.TimeLog{}
	for rows.Next() {
		var l models.TimeLog
		if err := scanTimeLog(rows, &l); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// resolveRate snapshots the rate for time userID logs on a project owned by ownerID: the
// team edge rate when one exists, otherwise the user's own rate.
func resolveRate(ctx context.Context, q querier, ownerID, userID uuid.UUID) (float64, string, error) {
	var rate float64
	var currency string
	err := q.QueryRow(ctx, `
		SELECT COALESCE(tm.hourly_rate, u.hourly_rate), COALESCE(tm.currency, u.currency)
		FROM users u
		LEFT JOIN team_members tm ON tm.leader_id = $1 AND tm.member_id = u.id
		WHERE u.id = $2
	`, ownerID, userID).Scan(&rate, &currency)
	if err != nil {
		return 0, "", fmt.Errorf("failed to resolve hourly rate: %w", err)
	}
	return rate, currency, nil
}

func checkTask(ctx context.Context, q querier, taskID *uuid.UUID, projectID uuid.UUID) error {
	if taskID == nil {
		return nil
	}
	var ok bool
	if err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1 AND project_id = $2)
	`, *taskID, projectID).Scan(&ok); err != nil {
		return err
	}
	if !ok {
		return ErrTaskNotInProject
	}
	return nil
}

func (s *TimeLogService) insert(ctx context.Context, userID uuid.UUID, p TimeLogParams) (*models.TimeLog, error) {
	if p.End != nil && !p.End.After(p.Start) {
		return nil, ErrInvalidTimeRange
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := projectAccess(ctx, tx, p.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	if !a.CanView() {
		return nil, ErrProjectNotFound
	}
	if err := checkTask(ctx, tx, p.TaskID, p.ProjectID); err != nil {
		return nil, err
	}

	rate, currency, err := resolveRate(ctx, tx, a.OwnerID, userID)
	if err != nil {
		return nil, err
	}

	var duration *float64
	if p.End != nil {
		d := DurationHours(p.Start, *p.End)
		duration = &d
	}

	// The owner's own time needs no review.
	status := models.TimeLogStatusPending
	var approvedBy *uuid.UUID
	if a.IsOwner {
		status = models.TimeLogStatusApproved
		approvedBy = &userID
	}

	var l models.TimeLog
	err = scanTimeLog(tx.QueryRow(ctx, `
		INSERT INTO time_logs AS tl (user_id, project_id, task_id, start_timestamp, end_timestamp, duration,
			note, hourly_rate, currency, status, approved_by, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CASE WHEN $11::uuid IS NULL THEN NULL ELSE NOW() END)
		RETURNING `+timeLogColumns,
		userID, p.ProjectID, p.TaskID, p.Start, p.End, duration, p.Note, rate, currency, status, approvedBy), &l)
	if err != nil {
		return nil, fmt.Errorf("failed to create time log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &l, nil
}

func (s *TimeLogService) Create(ctx context.Context, userID uuid.UUID, p TimeLogParams) (*models.TimeLog, error) {
	if p.End == nil {
		return nil, ErrInvalidTimeRange
	}
	return s.insert(ctx, userID, p)
}

// Start opens a running log. A user has at most one running log.
func (s *TimeLogService) Start(ctx context.Context, userID uuid.UUID, p TimeLogParams) (*models.TimeLog, error) {
	var running bool
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM time_logs WHERE user_id = $1 AND end_timestamp IS NULL)
	`, userID).Scan(&running); err != nil {
		return nil, err
	}
	if running {
		return nil, ErrTimerRunning
	}
	p.End = nil
	return s.insert(ctx, userID, p)
}

func (s *TimeLogService) Stop(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.TimeLog, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var l models.TimeLog
	if err := scanTimeLog(tx.QueryRow(ctx, `
		SELECT `+timeLogColumns+` FROM time_logs tl WHERE tl.id = $1 AND tl.user_id = $2 FOR UPDATE
	`, id, userID), &l); err != nil {
		return nil, notFound(err, ErrTimeLogNotFound)
	}
	if !l.Running() {
		return nil, ErrTimerNotRunning
	}
	if !at.After(l.StartTimestamp) {
		return nil, ErrInvalidTimeRange
	}

	if err := scanTimeLog(tx.QueryRow(ctx, `
		UPDATE time_logs AS tl SET end_timestamp = $1, duration = $2, updated_at = NOW()
		WHERE tl.id = $3
		RETURNING `+timeLogColumns,
		at, DurationHours(l.StartTimestamp, at), id), &l); err != nil {
		return nil, fmt.Errorf("failed to stop time log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &l, nil
}

// Get returns the log to its author, the project owner and the project's approvers.
func (s *TimeLogService) Get(ctx context.Context, id, userID uuid.UUID) (*models.TimeLog, error) {
	var l models.TimeLog
	err := scanTimeLog(s.db.Pool.QueryRow(ctx, `
		SELECT `+timeLogColumns+`
		FROM time_logs tl
		JOIN projects p ON p.id = tl.project_id
		WHERE tl.id = $1 AND (
			tl.user_id = $2 OR p.user_id = $2 OR EXISTS(
				SELECT 1 FROM project_members pm
				WHERE pm.project_id = tl.project_id AND pm.user_id = $2 AND pm.is_approver
			)
		)
	`, id, userID), &l)
	if err != nil {
		return nil, notFound(err, ErrTimeLogNotFound)
	}
	return &l, nil
}

func (s *TimeLogService) List(ctx context.Context, userID uuid.UUID, f TimeLogFilter) ([]models.TimeLog, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+timeLogColumns+`
		FROM time_logs tl
		JOIN projects p ON p.id = tl.project_id
		WHERE (CASE WHEN $2 = 'team' THEN p.user_id = $1 ELSE tl.user_id = $1 END)
		  AND ($3::uuid IS NULL OR tl.project_id = $3)
		  AND ($4 = '' OR tl.status = $4)
		  AND ($5::boolean IS NULL OR tl.is_paid = $5)
		  AND ($6::timestamptz IS NULL OR tl.start_timestamp >= $6)
		  AND ($7::timestamptz IS NULL OR tl.start_timestamp < $7)
		ORDER BY tl.start_timestamp DESC
	`, userID, f.Scope, f.ProjectID, f.Status, f.IsPaid, f.From, f.To)
	if err != nil {
		return nil, err
	}
	return collectTimeLogs(rows)
}

func (s *TimeLogService) lockOwn(ctx context.Context, tx pgx.Tx, id, userID uuid.UUID) (*models.TimeLog, error) {
	var l models.TimeLog
	if err := scanTimeLog(tx.QueryRow(ctx, `
		SELECT `+timeLogColumns+` FROM time_logs tl WHERE tl.id = $1 AND tl.user_id = $2 FOR UPDATE
	`, id, userID), &l); err != nil {
		return nil, notFound(err, ErrTimeLogNotFound)
	}
	if l.Locked() {
		return nil, ErrTimeLogLocked
	}
	return &l, nil
}

// Update edits the author's own unlocked log. A rejected log goes back to pending.
func (s *TimeLogService) Update(ctx context.Context, id, userID uuid.UUID, upd TimeLogUpdate) (*models.TimeLog, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	l, err := s.lockOwn(ctx, tx, id, userID)
	if err != nil {
		return nil, err
	}

	start := l.StartTimestamp
	if upd.Start != nil {
		start = *upd.Start
	}
	end := l.EndTimestamp
	if upd.End != nil {
		end = upd.End
	}
	var duration *float64
	if end != nil {
		if !end.After(start) {
			return nil, ErrInvalidTimeRange
		}
		d := DurationHours(start, *end)
		duration = &d
	}
	if err := checkTask(ctx, tx, upd.TaskID, l.ProjectID); err != nil {
		return nil, err
	}

	status := l.Status
	if status == models.TimeLogStatusRejected {
		status = models.TimeLogStatusPending
	}

	var updated models.TimeLog
	if err := scanTimeLog(tx.QueryRow(ctx, `
		UPDATE time_logs AS tl SET
			task_id = COALESCE($1, task_id),
			start_timestamp = $2,
			end_timestamp = $3,
			duration = $4,
			note = COALESCE($5, note),
			status = $6,
			review_comment = CASE WHEN $6 = 'pending' THEN NULL ELSE review_comment END,
			updated_at = NOW()
		WHERE tl.id = $7
		RETURNING `+timeLogColumns,
		upd.TaskID, start, end, duration, upd.Note, status, id), &updated); err != nil {
		return nil, fmt.Errorf("failed to update time log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &updated, nil
}

func (s *TimeLogService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.lockOwn(ctx, tx, id, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM time_logs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete time log: %w", err)
	}
	return tx.Commit(ctx)
}

// MarkPaid flags approved logs on the owner's projects as paid and reports how many changed.
func (s *TimeLogService) MarkPaid(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE time_logs tl SET is_paid = TRUE, updated_at = NOW()
		FROM projects p
		WHERE tl.project_id = p.id AND p.user_id = $1 AND tl.id = ANY($2)
		  AND tl.status = 'approved' AND NOT tl.is_paid
	`, ownerID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark time logs paid: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Unpaid aggregates finished, unpaid, non-rejected time per currency. ScopeMine covers
// the user's own logs and ScopeTeam the logs on projects the user owns.
func (s *TimeLogService) Unpaid(ctx context.Context, userID uuid.UUID, scope string) ([]models.UnpaidTotal, error) {
	return unpaidTotals(ctx, s.db.Pool, userID, scope)
}

func unpaidTotals(ctx context.Context, q querier, userID uuid.UUID, scope string) ([]models.UnpaidTotal, error) {
	rows, err := q.Query(ctx, `
		SELECT tl.currency, COALESCE(SUM(tl.duration), 0), COALESCE(SUM(ROUND(tl.duration * tl.hourly_rate, 2)), 0)
		FROM time_logs tl
		JOIN projects p ON p.id = tl.project_id
		WHERE (CASE WHEN $2 = 'team' THEN p.user_id = $1 ELSE tl.user_id = $1 END)
		  AND NOT tl.is_paid
		  AND tl.end_timestamp IS NOT NULL
		  AND tl.status <> 'rejected'
		GROUP BY tl.currency
		ORDER BY tl.currency
	`, userID, scope)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []models.UnpaidTotal{}
	for rows.Next() {
		var t models.UnpaidTotal
		if err := rows.Scan(&t.Currency, &t.Hours, &t.Amount); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
