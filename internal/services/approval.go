package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrNotAuthorized      = errors.New("not authorized to review this time log")
	ErrTimeLogNotPending  = errors.New("time log is not pending review")
	ErrReviewRunningTimer = errors.New("running time logs cannot be reviewed")
)

// canReview: the project owner reviews anything on the project, approvers review
// everyone's logs but their own.
func canReview(reviewerID, logUserID, ownerID uuid.UUID, isApprover bool) bool {
	if reviewerID == ownerID {
		return true
	}
	if reviewerID == logUserID {
		return false
	}
	return isApprover
}

type BulkApproveResult struct {
	Approved      []models.TimeLog
	ApprovedCount int
	SkippedCount  int
}

type ApprovalService struct {
	db *database.DB
}

func NewApprovalService(db *database.DB) *ApprovalService {
	return &ApprovalService{db: db}
}

// ListPending returns finished pending logs the reviewer may approve, oldest first.
func (s *ApprovalService) ListPending(ctx context.Context, reviewerID uuid.UUID) ([]models.TimeLog, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+timeLogColumns+`
		FROM time_logs tl
		JOIN projects p ON p.id = tl.project_id
		LEFT JOIN project_members pm ON pm.project_id = tl.project_id AND pm.user_id = $1
		WHERE tl.status = 'pending' AND tl.end_timestamp IS NOT NULL
		  AND (p.user_id = $1 OR (pm.is_approver AND tl.user_id <> $1))
		ORDER BY tl.start_timestamp
	`, reviewerID)
	if err != nil {
		return nil, err
	}
	return collectTimeLogs(rows)
}

// PendingCount is the number of logs ListPending would return.
func (s *ApprovalService) PendingCount(ctx context.Context, reviewerID uuid.UUID) (int, error) {
	return pendingCount(ctx, s.db.Pool, reviewerID)
}

func pendingCount(ctx context.Context, q querier, reviewerID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM time_logs tl
		JOIN projects p ON p.id = tl.project_id
		LEFT JOIN project_members pm ON pm.project_id = tl.project_id AND pm.user_id = $1
		WHERE tl.status = 'pending' AND tl.end_timestamp IS NOT NULL
		  AND (p.user_id = $1 OR (pm.is_approver AND tl.user_id <> $1))
	`, reviewerID).Scan(&n)
	return n, err
}

func (s *ApprovalService) Approve(ctx context.Context, id, reviewerID uuid.UUID, comment *string) (*models.TimeLog, error) {
	return s.review(ctx, id, reviewerID, models.TimeLogStatusApproved, comment)
}

func (s *ApprovalService) Reject(ctx context.Context, id, reviewerID uuid.UUID, comment *string) (*models.TimeLog, error) {
	return s.review(ctx, id, reviewerID, models.TimeLogStatusRejected, comment)
}

func (s *ApprovalService) review(ctx context.Context, id, reviewerID uuid.UUID, status string, comment *string) (*models.TimeLog, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var l models.TimeLog
	var ownerID uuid.UUID
	var approver *bool
	err = tx.QueryRow(ctx, `
		SELECT `+timeLogColumns+`, p.user_id, pm.is_approver
		FROM time_logs tl
		JOIN projects p ON p.id = tl.project_id
		LEFT JOIN project_members pm ON pm.project_id = tl.project_id AND pm.user_id = $2
		WHERE tl.id = $1
		FOR UPDATE OF tl
	`, id, reviewerID).Scan(append(timeLogDest(&l), &ownerID, &approver)...)
	if err != nil {
		return nil, notFound(err, ErrTimeLogNotFound)
	}

	if !canReview(reviewerID, l.UserID, ownerID, approver != nil && *approver) {
		return nil, ErrNotAuthorized
	}
	if l.Status != models.TimeLogStatusPending {
		return nil, ErrTimeLogNotPending
	}
	if l.Running() {
		return nil, ErrReviewRunningTimer
	}

	var approvedBy *uuid.UUID
	if status == models.TimeLogStatusApproved {
		approvedBy = &reviewerID
	}

	var updated models.TimeLog
	if err := scanTimeLog(tx.QueryRow(ctx, `
		UPDATE time_logs AS tl SET
			status = $1,
			approved_by = $2,
			approved_at = CASE WHEN $2::uuid IS NULL THEN NULL ELSE NOW() END,
			review_comment = $3,
			updated_at = NOW()
		WHERE tl.id = $4
		RETURNING `+timeLogColumns,
		status, approvedBy, comment, id), &updated); err != nil {
		return nil, fmt.Errorf("failed to review time log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &updated, nil
}

// BulkApprove approves every finished pending log in ids the reviewer may approve.
// The rest, including unknown ids, are counted as skipped.
func (s *ApprovalService) BulkApprove(ctx context.Context, reviewerID uuid.UUID, ids []uuid.UUID, comment *string) (*BulkApproveResult, error) {
	ids = dedupe(ids)
	result := &BulkApproveResult{Approved: []models.TimeLog{}}
	if len(ids) == 0 {
		return result, nil
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT tl.id, tl.user_id, tl.status, tl.end_timestamp IS NULL, p.user_id, pm.is_approver
		FROM time_logs tl
		JOIN projects p ON p.id = tl.project_id
		LEFT JOIN project_members pm ON pm.project_id = tl.project_id AND pm.user_id = $2
		WHERE tl.id = ANY($1)
		FOR UPDATE OF tl
	`, ids, reviewerID)
	if err != nil {
		return nil, err
	}

	eligible := []uuid.UUID{}
	for rows.Next() {
		var id, userID, ownerID uuid.UUID
		var status string
		var running bool
		var approver *bool
		if err := rows.Scan(&id, &userID, &status, &running, &ownerID, &approver); err != nil {
			rows.Close()
			return nil, err
		}
		if status == models.TimeLogStatusPending && !running &&
			canReview(reviewerID, userID, ownerID, approver != nil && *approver) {
			eligible = append(eligible, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(eligible) > 0 {
		updated, err := tx.Query(ctx, `
			UPDATE time_logs AS tl SET
				status = 'approved', approved_by = $1, approved_at = NOW(), review_comment = $2, updated_at = NOW()
			WHERE tl.id = ANY($3)
			RETURNING `+timeLogColumns,
			reviewerID, comment, eligible)
		if err != nil {
			return nil, fmt.Errorf("failed to approve time logs: %w", err)
		}
		if result.Approved, err = collectTimeLogs(updated); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.ApprovedCount = len(result.Approved)
	result.SkippedCount = len(ids) - result.ApprovedCount
	return result, nil
}
