package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrInvalidAssignee  = errors.New("assignees must be members of the project")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentAuthor = errors.New("only the author can delete a comment")
	ErrNotTaskOwner     = errors.New("only the project owner or task creator can delete a task")
)

type TaskParams struct {
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
	AssigneeIDs []uuid.UUID
	Tags        []string
}

// TaskUpdate leaves nil fields untouched. A non-nil empty AssigneeIDs or Tags clears them.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
	AssigneeIDs  []uuid.UUID
	Tags         []string
}

type TaskService struct {
	db *database.DB
}

func NewTaskService(db *database.DB) *TaskService {
	return &TaskService{db: db}
}

const taskColumns = `t.id, t.project_id, t.title, t.description, t.status, t.priority, t.due_date, t.created_by, t.created_at, t.updated_at`

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
}

func (s *TaskService) ListByProject(ctx context.Context, projectID, userID uuid.UUID, status string) ([]models.Task, error) {
	a, err := projectAccess(ctx, s.db.Pool, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !a.CanView() {
		return nil, ErrProjectNotFound
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks t
		WHERE t.project_id = $1 AND ($2 = '' OR t.status = $2)
		ORDER BY t.created_at DESC
	`, projectID, status)
	if err != nil {
		return nil, err
	}
	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}
	if err := loadTaskRelations(ctx, s.db.Pool, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func collectTasks(rows pgx.Rows) ([]models.Task, error) {
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		t.AssigneeIDs = []uuid.UUID{}
		t.Tags = []models.Tag{}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// loadTaskRelations fills assignees, tags and source metadata for tasks in place.
func loadTaskRelations(ctx context.Context, q querier, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(tasks))
	index := make(map[uuid.UUID]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		index[t.ID] = i
	}

	rows, err := q.Query(ctx, `SELECT task_id, user_id FROM task_assignees WHERE task_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var taskID, userID uuid.UUID
		if err := rows.Scan(&taskID, &userID); err != nil {
			rows.Close()
			return err
		}
		tasks[index[taskID]].AssigneeIDs = append(tasks[index[taskID]].AssigneeIDs, userID)
	}
	rows.Close()

	rows, err = q.Query(ctx, `
		SELECT tt.task_id, tg.id, tg.user_id, tg.name, tg.color
		FROM task_tags tt JOIN tags tg ON tg.id = tt.tag_id
		WHERE tt.task_id = ANY($1)
		ORDER BY tg.name
	`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var taskID uuid.UUID
		var tag models.Tag
		if err := rows.Scan(&taskID, &tag.ID, &tag.UserID, &tag.Name, &tag.Color); err != nil {
			rows.Close()
			return err
		}
		tasks[index[taskID]].Tags = append(tasks[index[taskID]].Tags, tag)
	}
	rows.Close()

	rows, err = q.Query(ctx, `
		SELECT id, task_id, source, source_id, source_number, source_url, source_state
		FROM task_meta WHERE task_id = ANY($1)
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m models.TaskMeta
		if err := rows.Scan(&m.ID, &m.TaskID, &m.Source, &m.SourceID, &m.SourceNumber, &m.SourceURL, &m.SourceState); err != nil {
			return err
		}
		tasks[index[m.TaskID]].Meta = &m
	}
	return rows.Err()
}

// taskAccess loads a task and the caller's relation to its project.
func (s *TaskService) taskAccess(ctx context.Context, id, userID uuid.UUID) (*models.Task, *ProjectAccess, error) {
	var t models.Task
	if err := scanTask(s.db.Pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id), &t); err != nil {
		return nil, nil, notFound(err, ErrTaskNotFound)
	}
	a, err := projectAccess(ctx, s.db.Pool, t.ProjectID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !a.CanView() {
		return nil, nil, ErrTaskNotFound
	}
	return &t, a, nil
}

func (s *TaskService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	t, _, err := s.taskAccess(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	tasks := []models.Task{*t}
	tasks[0].AssigneeIDs = []uuid.UUID{}
	tasks[0].Tags = []models.Tag{}
	if err := loadTaskRelations(ctx, s.db.Pool, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func validateAssignees(ctx context.Context, q querier, projectID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var n int
	if err := q.QueryRow(ctx, `
		SELECT COUNT(DISTINCT m.user_id) FROM (
			SELECT user_id FROM project_members WHERE project_id = $1
			UNION SELECT user_id FROM projects WHERE id = $1
		) m WHERE m.user_id = ANY($2)
	`, projectID, ids).Scan(&n); err != nil {
		return fmt.Errorf("failed to validate assignees: %w", err)
	}
	if n != len(ids) {
		return ErrInvalidAssignee
	}
	return nil
}

// setAssignees replaces the task's assignees and returns the users that were newly added.
func setAssignees(ctx context.Context, q querier, taskID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if _, err := q.Exec(ctx, `
		DELETE FROM task_assignees WHERE task_id = $1 AND NOT (user_id = ANY($2))
	`, taskID, ids); err != nil {
		return nil, fmt.Errorf("failed to remove assignees: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.Query(ctx, `
		INSERT INTO task_assignees (task_id, user_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
		RETURNING user_id
	`, taskID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to add assignees: %w", err)
	}
	defer rows.Close()

	var added []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		added = append(added, id)
	}
	return added, rows.Err()
}

// normalizeTagNames trims, drops empties and de-duplicates while keeping order.
func normalizeTagNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// syncTags makes names the task's complete tag set, creating missing tags for ownerID.
func syncTags(ctx context.Context, q querier, taskID, ownerID uuid.UUID, names []string) error {
	names = normalizeTagNames(names)

	if _, err := q.Exec(ctx, `DELETE FROM task_tags WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO tags (user_id, name)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (user_id, name) DO NOTHING
	`, ownerID, names); err != nil {
		return fmt.Errorf("failed to create tags: %w", err)
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO task_tags (task_id, tag_id)
		SELECT $1, id FROM tags WHERE user_id = $2 AND name = ANY($3)
	`, taskID, ownerID, names); err != nil {
		return fmt.Errorf("failed to attach tags: %w", err)
	}
	return nil
}

// Create returns the task and the users newly assigned to it.
func (s *TaskService) Create(ctx context.Context, projectID, userID uuid.UUID, p TaskParams) (*models.Task, []uuid.UUID, error) {
	a, err := projectAccess(ctx, s.db.Pool, projectID, userID)
	if err != nil {
		return nil, nil, err
	}
	if !a.CanView() {
		return nil, nil, ErrProjectNotFound
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := validateAssignees(ctx, tx, projectID, p.AssigneeIDs); err != nil {
		return nil, nil, err
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `
		INSERT INTO tasks (project_id, title, description, status, priority, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, projectID, p.Title, p.Description, p.Status, p.Priority, p.DueDate, userID).Scan(&id); err != nil {
		return nil, nil, fmt.Errorf("failed to create task: %w", err)
	}

	added, err := setAssignees(ctx, tx, id, p.AssigneeIDs)
	if err != nil {
		return nil, nil, err
	}
	if err := syncTags(ctx, tx, id, a.OwnerID, p.Tags); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	t, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	return t, without(added, userID), nil
}

// Update returns the task and the users newly assigned to it.
func (s *TaskService) Update(ctx context.Context, id, userID uuid.UUID, upd TaskUpdate) (*models.Task, []uuid.UUID, error) {
	t, a, err := s.taskAccess(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE tasks SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			status = COALESCE($3, status),
			priority = COALESCE($4, priority),
			due_date = CASE WHEN $5 THEN NULL ELSE COALESCE($6, due_date) END,
			updated_at = NOW()
		WHERE id = $7
	`, upd.Title, upd.Description, upd.Status, upd.Priority, upd.ClearDueDate, upd.DueDate, id); err != nil {
		return nil, nil, fmt.Errorf("failed to update task: %w", err)
	}

	var added []uuid.UUID
	if upd.AssigneeIDs != nil {
		if err := validateAssignees(ctx, tx, t.ProjectID, upd.AssigneeIDs); err != nil {
			return nil, nil, err
		}
		if added, err = setAssignees(ctx, tx, id, upd.AssigneeIDs); err != nil {
			return nil, nil, err
		}
	}
	if upd.Tags != nil {
		if err := syncTags(ctx, tx, id, a.OwnerID, upd.Tags); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	updated, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	return updated, without(added, userID), nil
}

func (s *TaskService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	t, a, err := s.taskAccess(ctx, id, userID)
	if err != nil {
		return err
	}
	if !a.IsOwner && t.CreatedBy != userID {
		return ErrNotTaskOwner
	}
	_, err = s.db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (s *TaskService) ListComments(ctx context.Context, taskID, userID uuid.UUID) ([]models.TaskComment, error) {
	if _, _, err := s.taskAccess(ctx, taskID, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT c.id, c.task_id, c.user_id, c.body, c.created_at, c.updated_at,
		       u.id, u.email, u.name, u.avatar_url
		FROM task_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.task_id = $1
		ORDER BY c.created_at
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.TaskComment{}
	for rows.Next() {
		var c models.TaskComment
		var u models.User
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Body, &c.CreatedAt, &c.UpdatedAt,
			&u.ID, &u.Email, &u.Name, &u.AvatarURL); err != nil {
			return nil, err
		}
		c.User = &u
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// AddComment stores the comment and returns the task's creator and assignees other than
// the author, who should be notified.
func (s *TaskService) AddComment(ctx context.Context, taskID, userID uuid.UUID, body string) (*models.TaskComment, []uuid.UUID, error) {
	t, _, err := s.taskAccess(ctx, taskID, userID)
	if err != nil {
		return nil, nil, err
	}

	var c models.TaskComment
	if err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO task_comments (task_id, user_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, task_id, user_id, body, created_at, updated_at
	`, taskID, userID, body).Scan(&c.ID, &c.TaskID, &c.UserID, &c.Body, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, nil, fmt.Errorf("failed to add comment: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx, `SELECT user_id FROM task_assignees WHERE task_id = $1`, taskID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	watchers := []uuid.UUID{t.CreatedBy}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}
		watchers = append(watchers, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return &c, without(dedupe(watchers), userID), nil
}

func (s *TaskService) DeleteComment(ctx context.Context, taskID, commentID, userID uuid.UUID) error {
	var authorID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		SELECT user_id FROM task_comments WHERE id = $1 AND task_id = $2
	`, commentID, taskID).Scan(&authorID)
	if err != nil {
		return notFound(err, ErrCommentNotFound)
	}
	if authorID != userID {
		return ErrNotCommentAuthor
	}
	_, err = s.db.Pool.Exec(ctx, `DELETE FROM task_comments WHERE id = $1`, commentID)
	return err
}

func without(ids []uuid.UUID, exclude uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
