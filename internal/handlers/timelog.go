package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

const maxBulkIDs = 500

type TimeLogHandler struct {
	timeLogService TimeLogServiceInterface
	now            func() time.Time
}

func NewTimeLogHandler(timeLogService TimeLogServiceInterface) *TimeLogHandler {
	return &TimeLogHandler{timeLogService: timeLogService, now: time.Now}
}

func validScope(s string) bool {
	return s == services.ScopeMine || s == services.ScopeTeam
}

// timeLogFilter reads the list filters shared by GET /time-logs and its CSV export.
func timeLogFilter(c *drift.Context) (services.TimeLogFilter, bool) {
	errs := fieldErrors{}
	f := services.TimeLogFilter{
		Scope:     c.DefaultQuery("scope", services.ScopeMine),
		ProjectID: queryUUID(c, "project_id", errs),
		Status:    c.QueryParam("status"),
		IsPaid:    queryBool(c, "is_paid", errs),
		From:      queryTime(c, "from", errs),
		To:        queryTime(c, "to", errs),
	}
	errs.check(validScope(f.Scope), "scope", "scope must be mine or team")
	if f.Status != "" {
		errs.check(f.Status == models.TimeLogStatusPending || f.Status == models.TimeLogStatusApproved ||
			f.Status == models.TimeLogStatusRejected, "status", "status must be pending, approved or rejected")
	}
	if f.From != nil && f.To != nil {
		errs.check(f.To.After(*f.From), "to", "to must be after from")
	}
	return f, !errs.respond(c)
}

func (h *TimeLogHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	f, ok := timeLogFilter(c)
	if !ok {
		return
	}

	logs, err := h.timeLogService.List(c.Request.Context(), userID, f)
	if err != nil {
		respondError(c, err, "failed to get time logs")
		return
	}

	_ = c.JSON(http.StatusOK, logs)
}

func (h *TimeLogHandler) Get(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "time log")
	if !ok {
		return
	}

	l, err := h.timeLogService.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to get time log")
		return
	}

	_ = c.JSON(http.StatusOK, l)
}

func (h *TimeLogHandler) Create(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateTimeLogRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	errs.check(req.ProjectID != uuid.Nil, "project_id", "project_id is required")
	errs.check(!req.StartTimestamp.IsZero(), "start_timestamp", "start_timestamp is required")
	errs.check(req.EndTimestamp != nil, "end_timestamp", "end_timestamp is required")
	if req.EndTimestamp != nil && !req.StartTimestamp.IsZero() {
		errs.check(req.EndTimestamp.After(req.StartTimestamp), "end_timestamp", services.ErrInvalidTimeRange.Error())
	}
	if errs.respond(c) {
		return
	}

	l, err := h.timeLogService.Create(c.Request.Context(), userID, services.TimeLogParams{
		ProjectID: req.ProjectID,
		TaskID:    req.TaskID,
		Start:     req.StartTimestamp,
		End:       req.EndTimestamp,
		Note:      req.Note,
	})
	if err != nil {
		respondError(c, err, "failed to create time log")
		return
	}

	_ = c.JSON(http.StatusCreated, l)
}

// Start opens a running timer at the current time.
func (h *TimeLogHandler) Start(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.StartTimerRequest
	if !bind(c, &req) {
		return
	}

	if req.ProjectID == uuid.Nil {
		fieldErrors{"project_id": "project_id is required"}.respond(c)
		return
	}

	l, err := h.timeLogService.Start(c.Request.Context(), userID, services.TimeLogParams{
		ProjectID: req.ProjectID,
		TaskID:    req.TaskID,
		Start:     h.now().UTC(),
		Note:      req.Note,
	})
	if err != nil {
		respondError(c, err, "failed to start timer")
		return
	}

	_ = c.JSON(http.StatusCreated, l)
}

func (h *TimeLogHandler) Stop(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "time log")
	if !ok {
		return
	}

	l, err := h.timeLogService.Stop(c.Request.Context(), id, userID, h.now().UTC())
	if err != nil {
		respondError(c, err, "failed to stop timer")
		return
	}

	_ = c.JSON(http.StatusOK, l)
}

func (h *TimeLogHandler) Update(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "time log")
	if !ok {
		return
	}

	var req dto.UpdateTimeLogRequest
	if !bind(c, &req) {
		return
	}

	if req.StartTimestamp != nil && req.EndTimestamp != nil && !req.EndTimestamp.After(*req.StartTimestamp) {
		fieldErrors{"end_timestamp": services.ErrInvalidTimeRange.Error()}.respond(c)
		return
	}

	l, err := h.timeLogService.Update(c.Request.Context(), id, userID, services.TimeLogUpdate{
		TaskID: req.TaskID,
		Start:  req.StartTimestamp,
		End:    req.EndTimestamp,
		Note:   req.Note,
	})
	if err != nil {
		respondError(c, err, "failed to update time log")
		return
	}

	_ = c.JSON(http.StatusOK, l)
}

func (h *TimeLogHandler) Delete(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "time log")
	if !ok {
		return
	}

	if err := h.timeLogService.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "failed to delete time log")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "time log deleted"})
}

// MarkPaid flags approved logs on the caller's projects as paid.
func (h *TimeLogHandler) MarkPaid(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.IDsRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	errs.check(len(req.IDs) > 0, "ids", "ids must contain at least one time log")
	errs.check(len(req.IDs) <= maxBulkIDs, "ids", "ids may not contain more than 500 time logs")
	if errs.respond(c) {
		return
	}

	n, err := h.timeLogService.MarkPaid(c.Request.Context(), userID, req.IDs)
	if err != nil {
		respondError(c, err, "failed to mark time logs paid")
		return
	}

	_ = c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}

// Unpaid aggregates unpaid time per currency.
func (h *TimeLogHandler) Unpaid(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	scope := c.DefaultQuery("scope", services.ScopeMine)
	if !validScope(scope) {
		fieldErrors{"scope": "scope must be mine or team"}.respond(c)
		return
	}

	totals, err := h.timeLogService.Unpaid(c.Request.Context(), userID, scope)
	if err != nil {
		respondError(c, err, "failed to get unpaid totals")
		return
	}

	_ = c.JSON(http.StatusOK, totals)
}
