package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

func TestCanReview(t *testing.T) {
	owner, approver, member := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name       string
		reviewer   uuid.UUID
		logUser    uuid.UUID
		isApprover bool
		want       bool
	}{
		{"owner reviews member", owner, member, false, true},
		{"owner reviews own log", owner, owner, false, true},
		{"approver reviews member", approver, member, true, true},
		{"approver cannot review own log", approver, approver, true, false},
		{"plain member cannot review", member, approver, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canReview(tt.reviewer, tt.logUser, owner, tt.isApprover))
		})
	}
}

func reviewRows(r logRow, ownerID uuid.UUID, approver *bool) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(append(append([]string{}, timeLogCols...), "owner_id", "is_approver")).AddRow(
		r.id, r.userID, r.projectID, nil, r.start, r.end,
		r.duration, nil, r.rate, "USD", r.paid, r.status, nil,
		nil, nil, now, now, ownerID, approver,
	)
}

func TestApprovalService_Approve(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewApprovalService(db)
	id, memberID, approverID, ownerID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	start := time.Now().Add(-2 * time.Hour)
	end := start.Add(time.Hour)
	row := logRow{id: id, userID: memberID, start: start, end: &end, duration: floatPtr(1), rate: 50, status: models.TimeLogStatusPending}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM time_logs tl .+ FOR UPDATE OF tl`).
		WithArgs(id, approverID).
		WillReturnRows(reviewRows(row, ownerID, boolPtr(true)))
	approved := row
	approved.status = models.TimeLogStatusApproved
	mock.ExpectQuery(`UPDATE time_logs AS tl SET`).
		WithArgs(models.TimeLogStatusApproved, &approverID, (*string)(nil), id).
		WillReturnRows(approved.rows())
	mock.ExpectCommit()

	l, err := svc.Approve(context.Background(), id, approverID, nil)

	require.NoError(t, err)
	assert.Equal(t, models.TimeLogStatusApproved, l.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalService_Reject_NotAuthorized(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewApprovalService(db)
	id, memberID, otherID := uuid.New(), uuid.New(), uuid.New()
	end := time.Now()
	row := logRow{id: id, userID: memberID, start: end.Add(-time.Hour), end: &end, duration: floatPtr(1), status: models.TimeLogStatusPending}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM time_logs tl`).
		WithArgs(id, otherID).
		WillReturnRows(reviewRows(row, uuid.New(), nil))
	mock.ExpectRollback()

	comment := "wrong project"
	_, err := svc.Reject(context.Background(), id, otherID, &comment)

	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalService_Approve_NotPending(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewApprovalService(db)
	id, memberID, ownerID := uuid.New(), uuid.New(), uuid.New()
	end := time.Now()
	row := logRow{id: id, userID: memberID, start: end.Add(-time.Hour), end: &end, duration: floatPtr(1), status: models.TimeLogStatusRejected}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM time_logs tl`).
		WithArgs(id, ownerID).
		WillReturnRows(reviewRows(row, ownerID, nil))
	mock.ExpectRollback()

	_, err := svc.Approve(context.Background(), id, ownerID, nil)

	assert.ErrorIs(t, err, ErrTimeLogNotPending)
}

func TestApprovalService_BulkApprove_SkipsUnauthorized(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewApprovalService(db)
	reviewerID, memberID := uuid.New(), uuid.New()
	ownProject, approverProject := uuid.New(), uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	ids := []uuid.UUID{a, b, c}
	end := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT tl.id, tl.user_id, tl.status, tl.end_timestamp IS NULL, p.user_id, pm.is_approver`).
		WithArgs(ids, reviewerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "running", "owner_id", "is_approver"}).
			AddRow(a, memberID, models.TimeLogStatusPending, false, reviewerID, nil).
			AddRow(b, memberID, models.TimeLogStatusPending, false, uuid.New(), boolPtr(true)).
			AddRow(c, memberID, models.TimeLogStatusPending, false, uuid.New(), boolPtr(false)))
	mock.ExpectQuery(`UPDATE time_logs AS tl SET status = 'approved'`).
		WithArgs(reviewerID, (*string)(nil), []uuid.UUID{a, b}).
		WillReturnRows(pgxmock.NewRows(timeLogCols).
			AddRow(a, memberID, ownProject, nil, end.Add(-time.Hour), &end, floatPtr(1), nil, 10.0, "USD", false,
				models.TimeLogStatusApproved, &reviewerID, &end, nil, end, end).
			AddRow(b, memberID, approverProject, nil, end.Add(-time.Hour), &end, floatPtr(1), nil, 10.0, "USD", false,
				models.TimeLogStatusApproved, &reviewerID, &end, nil, end, end))
	mock.ExpectCommit()

	res, err := svc.BulkApprove(context.Background(), reviewerID, ids, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, res.ApprovedCount)
	assert.Equal(t, 1, res.SkippedCount)
	assert.Len(t, res.Approved, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalService_BulkApprove_NothingEligible(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewApprovalService(db)
	reviewerID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT tl.id, tl.user_id`).
		WithArgs(ids, reviewerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "running", "owner_id", "is_approver"}))
	mock.ExpectCommit()

	res, err := svc.BulkApprove(context.Background(), reviewerID, ids, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, res.ApprovedCount)
	assert.Equal(t, 2, res.SkippedCount)
}

func TestApprovalService_PendingCount(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewApprovalService(db)
	reviewerID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM time_logs tl`).
		WithArgs(reviewerID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	n, err := svc.PendingCount(context.Background(), reviewerID)

	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
