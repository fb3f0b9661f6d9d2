package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var taskCols = []string{
	"id", "project_id", "title", "description", "status", "priority", "due_date", "created_by", "created_at", "updated_at",
}

func taskRow(id, projectID, createdBy uuid.UUID) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(taskCols).
		AddRow(id, projectID, "Fix login", nil, models.TaskStatusPending, models.PriorityMedium, nil, createdBy, now, now)
}

func expectRelations(mock pgxmock.PgxPoolIface, ids []uuid.UUID, assignees ...uuid.UUID) {
	rows := pgxmock.NewRows([]string{"task_id", "user_id"})
	for _, a := range assignees {
		rows.AddRow(ids[0], a)
	}
	mock.ExpectQuery(`SELECT task_id, user_id FROM task_assignees`).WithArgs(ids).WillReturnRows(rows)
	mock.ExpectQuery(`FROM task_tags tt JOIN tags tg`).WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"task_id", "id", "user_id", "name", "color"}))
	mock.ExpectQuery(`FROM task_meta WHERE task_id`).WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{"id", "task_id", "source", "source_id", "source_number", "source_url", "source_state"}))
}

func TestNormalizeTagNames(t *testing.T) {
	got := normalizeTagNames([]string{" bug ", "", "bug", "ui", "  "})
	assert.Equal(t, []string{"bug", "ui"}, got)
}

func TestTaskService_Create(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTaskService(db)
	projectID, ownerID, memberID, taskID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	expectAccess(mock, projectID, ownerID, ownerID, false, false)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT m.user_id\)`).
		WithArgs(projectID, []uuid.UUID{memberID}).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(projectID, "Fix login", (*string)(nil), models.TaskStatusPending, models.PriorityHigh, (*time.Time)(nil), ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(taskID))
	mock.ExpectExec(`DELETE FROM task_assignees`).
		WithArgs(taskID, []uuid.UUID{memberID}).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`INSERT INTO task_assignees`).
		WithArgs(taskID, []uuid.UUID{memberID}).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(memberID))
	mock.ExpectExec(`DELETE FROM task_tags`).
		WithArgs(taskID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO tags`).
		WithArgs(ownerID, []string{"bug"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO task_tags`).
		WithArgs(taskID, ownerID, []string{"bug"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT .+ FROM tasks t WHERE t.id`).WithArgs(taskID).WillReturnRows(taskRow(taskID, projectID, ownerID))
	expectAccess(mock, projectID, ownerID, ownerID, false, false)
	expectRelations(mock, []uuid.UUID{taskID}, memberID)

	task, added, err := svc.Create(context.Background(), projectID, ownerID, TaskParams{
		Title:       "Fix login",
		Status:      models.TaskStatusPending,
		Priority:    models.PriorityHigh,
		AssigneeIDs: []uuid.UUID{memberID},
		Tags:        []string{"bug", " bug"},
	})

	require.NoError(t, err)
	assert.Equal(t, taskID, task.ID)
	assert.Equal(t, []uuid.UUID{memberID}, task.AssigneeIDs)
	assert.Equal(t, []uuid.UUID{memberID}, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_Create_AssigneeOutsideProject(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTaskService(db)
	projectID, ownerID, outsider := uuid.New(), uuid.New(), uuid.New()

	expectAccess(mock, projectID, ownerID, ownerID, false, false)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT m.user_id\)`).
		WithArgs(projectID, []uuid.UUID{outsider}).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, _, err := svc.Create(context.Background(), projectID, ownerID, TaskParams{
		Title: "X", Status: models.TaskStatusPending, Priority: models.PriorityLow, AssigneeIDs: []uuid.UUID{outsider},
	})

	assert.ErrorIs(t, err, ErrInvalidAssignee)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_Get_NoAccess(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTaskService(db)
	taskID, projectID, ownerID, stranger := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM tasks t WHERE t.id`).WithArgs(taskID).WillReturnRows(taskRow(taskID, projectID, ownerID))
	expectAccess(mock, projectID, stranger, ownerID, false, false)

	_, err := svc.Get(context.Background(), taskID, stranger)

	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_Delete_NotCreator(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTaskService(db)
	taskID, projectID, ownerID, memberID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM tasks t WHERE t.id`).WithArgs(taskID).WillReturnRows(taskRow(taskID, projectID, ownerID))
	expectAccess(mock, projectID, memberID, ownerID, true, false)

	err := svc.Delete(context.Background(), taskID, memberID)

	assert.ErrorIs(t, err, ErrNotTaskOwner)
}

func TestTaskService_AddComment_NotifiesWatchersExceptAuthor(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTaskService(db)
	taskID, projectID, creator, author, other := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM tasks t WHERE t.id`).WithArgs(taskID).WillReturnRows(taskRow(taskID, projectID, creator))
	expectAccess(mock, projectID, author, creator, true, false)
	mock.ExpectQuery(`INSERT INTO task_comments`).
		WithArgs(taskID, author, "looks good").
		WillReturnRows(pgxmock.NewRows([]string{"id", "task_id", "user_id", "body", "created_at", "updated_at"}).
			AddRow(uuid.New(), taskID, author, "looks good", now, now))
	mock.ExpectQuery(`SELECT user_id FROM task_assignees`).
		WithArgs(taskID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(author).AddRow(other).AddRow(creator))

	_, watchers, err := svc.AddComment(context.Background(), taskID, author, "looks good")

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{creator, other}, watchers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskService_DeleteComment(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewTaskService(db)
	taskID, commentID, author, other := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT user_id FROM task_comments`).
		WithArgs(commentID, taskID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(author))
	assert.ErrorIs(t, svc.DeleteComment(context.Background(), taskID, commentID, other), ErrNotCommentAuthor)

	mock.ExpectQuery(`SELECT user_id FROM task_comments`).
		WithArgs(commentID, taskID).
		WillReturnError(pgx.ErrNoRows)
	assert.ErrorIs(t, svc.DeleteComment(context.Background(), taskID, commentID, author), ErrCommentNotFound)
}
