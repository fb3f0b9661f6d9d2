package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type TaskHandler struct {
	taskService TaskServiceInterface
	aiService   AIServiceInterface
	notifier    Notifier
}

func NewTaskHandler(taskService TaskServiceInterface, aiService AIServiceInterface, notifier Notifier) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		aiService:   aiService,
		notifier:    notifier,
	}
}

func validTaskStatus(s string) bool {
	return s == models.TaskStatusPending || s == models.TaskStatusInProgress || s == models.TaskStatusCompleted
}

func validPriority(s string) bool {
	return s == models.PriorityLow || s == models.PriorityMedium || s == models.PriorityHigh
}

func (h *TaskHandler) notifyAssigned(c *drift.Context, task *models.Task, assignees []uuid.UUID, by uuid.UUID) {
	if len(assignees) == 0 {
		return
	}
	h.notifier.Notify(c.Request.Context(), assignees, models.NotificationTaskAssigned, models.SubjectTask, task.ID,
		map[string]any{"title": task.Title, "project_id": task.ProjectID, "assigned_by": by})
}

func (h *TaskHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projectID, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	status := c.QueryParam("status")
	if status != "" && !validTaskStatus(status) {
		fieldErrors{"status": "status must be pending, in_progress or completed"}.respond(c)
		return
	}

	tasks, err := h.taskService.ListByProject(c.Request.Context(), projectID, userID, status)
	if err != nil {
		respondError(c, err, "failed to get tasks")
		return
	}

	_ = c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Create(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projectID, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bind(c, &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Status == "" {
		req.Status = models.TaskStatusPending
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}

	errs := fieldErrors{}
	errs.check(req.Title != "", "title", "title is required")
	errs.check(withinChars(req.Title, 255), "title", "title may not be longer than 255 characters")
	errs.check(validTaskStatus(req.Status), "status", "status must be pending, in_progress or completed")
	errs.check(validPriority(req.Priority), "priority", "priority must be low, medium or high")
	var due *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		d := parseDate(*req.DueDate, "due_date", errs)
		due = &d
	}
	if errs.respond(c) {
		return
	}

	task, assigned, err := h.taskService.Create(c.Request.Context(), projectID, userID, services.TaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     due,
		AssigneeIDs: req.AssigneeIDs,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err, "failed to create task")
		return
	}

	h.notifyAssigned(c, task, assigned, userID)

	_ = c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Get(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "task")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to get task")
		return
	}

	_ = c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Update(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "task")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		errs.check(title != "", "title", "title is required")
		errs.check(withinChars(title, 255), "title", "title may not be longer than 255 characters")
		req.Title = &title
	}
	if req.Status != nil {
		errs.check(validTaskStatus(*req.Status), "status", "status must be pending, in_progress or completed")
	}
	if req.Priority != nil {
		errs.check(validPriority(*req.Priority), "priority", "priority must be low, medium or high")
	}
	upd := services.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeIDs: req.AssigneeIDs,
		Tags:        req.Tags,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			upd.ClearDueDate = true
		} else {
			d := parseDate(*req.DueDate, "due_date", errs)
			upd.DueDate = &d
		}
	}
	if errs.respond(c) {
		return
	}

	task, assigned, err := h.taskService.Update(c.Request.Context(), id, userID, upd)
	if err != nil {
		respondError(c, err, "failed to update task")
		return
	}

	h.notifyAssigned(c, task, assigned, userID)

	_ = c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "task")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "failed to delete task")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "task deleted"})
}

func (h *TaskHandler) ListComments(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "task")
	if !ok {
		return
	}

	comments, err := h.taskService.ListComments(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to get comments")
		return
	}

	_ = c.JSON(http.StatusOK, comments)
}

func (h *TaskHandler) AddComment(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "task")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !bind(c, &req) {
		return
	}

	req.Body = strings.TrimSpace(req.Body)
	errs := fieldErrors{}
	errs.check(req.Body != "", "body", "body is required")
	errs.check(withinChars(req.Body, 10000), "body", "body may not be longer than 10000 characters")
	if errs.respond(c) {
		return
	}

	ctx := c.Request.Context()

	comment, watchers, err := h.taskService.AddComment(ctx, id, userID, req.Body)
	if err != nil {
		respondError(c, err, "failed to add comment")
		return
	}

	if len(watchers) > 0 {
		h.notifier.Notify(ctx, watchers, models.NotificationTaskCommented, models.SubjectTask, id,
			map[string]any{"comment_id": comment.ID, "author_id": userID})
	}

	_ = c.JSON(http.StatusCreated, comment)
}

func (h *TaskHandler) DeleteComment(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "task")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "commentId", "comment")
	if !ok {
		return
	}

	if err := h.taskService.DeleteComment(c.Request.Context(), id, commentID, userID); err != nil {
		respondError(c, err, "failed to delete comment")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "comment deleted"})
}

// GenerateDescription drafts a task description with Gemini. Nothing is saved.
func (h *TaskHandler) GenerateDescription(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "task")
	if !ok {
		return
	}

	var req dto.AIDescriptionRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}

	description, err := h.aiService.TaskDescription(c.Request.Context(), id, userID, strings.TrimSpace(req.Instructions))
	if err != nil {
		respondError(c, err, "failed to generate description")
		return
	}

	_ = c.JSON(http.StatusOK, dto.AIDescriptionResponse{Description: description})
}
