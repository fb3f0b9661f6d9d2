package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/internal/testutil"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

func setupTimeLogTest(t *testing.T, now time.Time) (*testutil.MockTimeLogService, *TimeLogHandler) {
	t.Helper()
	mockTimeLogService := new(testutil.MockTimeLogService)
	handler := NewTimeLogHandler(mockTimeLogService)
	handler.now = func() time.Time { return now }
	return mockTimeLogService, handler
}

func TestTimeLogHandler_Create(t *testing.T) {
	mockTimeLogService, handler := setupTimeLogTest(t, time.Now())

	userID := uuid.New()
	projectID := uuid.New()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	hours := 1.5
	created := &models.TimeLog{ID: uuid.New(), UserID: userID, ProjectID: projectID, StartTimestamp: start,
		EndTimestamp: &end, Duration: &hours, Status: models.TimeLogStatusPending, Currency: "USD"}

	mockTimeLogService.On("Create", mock.Anything, userID, mock.MatchedBy(func(p services.TimeLogParams) bool {
		return p.ProjectID == projectID && p.Start.Equal(start) && p.End != nil && p.End.Equal(end)
	})).Return(created, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/time-logs", handler.Create)

	rec := do(http.MethodPost, "/time-logs", dto.CreateTimeLogRequest{
		ProjectID:      projectID,
		StartTimestamp: start,
		EndTimestamp:   &end,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var response models.TimeLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotNil(t, response.Duration)
	assert.Equal(t, 1.5, *response.Duration)
}

func TestTimeLogHandler_Create_EndBeforeStart(t *testing.T) {
	_, handler := setupTimeLogTest(t, time.Now())

	app, do := newAuthedApp(t, uuid.New())
	app.Post("/time-logs", handler.Create)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(-time.Minute)
	rec := do(http.MethodPost, "/time-logs", dto.CreateTimeLogRequest{
		ProjectID:      uuid.New(),
		StartTimestamp: start,
		EndTimestamp:   &end,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, services.ErrInvalidTimeRange.Error(), decodeError(t, rec).Errors["end_timestamp"])
}

func TestTimeLogHandler_Create_MissingFields(t *testing.T) {
	_, handler := setupTimeLogTest(t, time.Now())

	app, do := newAuthedApp(t, uuid.New())
	app.Post("/time-logs", handler.Create)

	rec := do(http.MethodPost, "/time-logs", map[string]any{})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Contains(t, resp.Errors, "project_id")
	assert.Contains(t, resp.Errors, "start_timestamp")
	assert.Contains(t, resp.Errors, "end_timestamp")
}

func TestTimeLogHandler_Start_UsesClock(t *testing.T) {
	now := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	mockTimeLogService, handler := setupTimeLogTest(t, now)

	userID := uuid.New()
	projectID := uuid.New()
	mockTimeLogService.On("Start", mock.Anything, userID, services.TimeLogParams{ProjectID: projectID, Start: now}).
		Return(&models.TimeLog{ID: uuid.New(), StartTimestamp: now}, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/time-logs/:id", withActions(nil, map[string]drift.HandlerFunc{"start": handler.Start}))

	rec := do(http.MethodPost, "/time-logs/start", dto.StartTimerRequest{ProjectID: projectID})

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockTimeLogService.AssertExpectations(t)
}

func TestTimeLogHandler_Start_AlreadyRunning(t *testing.T) {
	mockTimeLogService, handler := setupTimeLogTest(t, time.Now())

	userID := uuid.New()
	mockTimeLogService.On("Start", mock.Anything, userID, mock.Anything).Return(nil, services.ErrTimerRunning)

	app, do := newAuthedApp(t, userID)
	app.Post("/time-logs/start", handler.Start)

	rec := do(http.MethodPost, "/time-logs/start", dto.StartTimerRequest{ProjectID: uuid.New()})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, services.ErrTimerRunning.Error(), decodeError(t, rec).Message)
}

func TestTimeLogHandler_Stop(t *testing.T) {
	now := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	mockTimeLogService, handler := setupTimeLogTest(t, now)

	userID := uuid.New()
	logID := uuid.New()
	mockTimeLogService.On("Stop", mock.Anything, logID, userID, now).Return(&models.TimeLog{ID: logID, EndTimestamp: &now}, nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/time-logs/:id/stop", handler.Stop)

	rec := do(http.MethodPost, "/time-logs/"+logID.String()+"/stop", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockTimeLogService.AssertExpectations(t)
}

func TestTimeLogHandler_Update_Locked(t *testing.T) {
	mockTimeLogService, handler := setupTimeLogTest(t, time.Now())

	userID := uuid.New()
	logID := uuid.New()
	mockTimeLogService.On("Update", mock.Anything, logID, userID, mock.Anything).Return(nil, services.ErrTimeLogLocked)

	app, do := newAuthedApp(t, userID)
	app.Patch("/time-logs/:id", handler.Update)

	rec := do(http.MethodPatch, "/time-logs/"+logID.String(), dto.UpdateTimeLogRequest{Note: strPtr("late")})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimeLogHandler_List_ParsesFilters(t *testing.T) {
	mockTimeLogService, handler := setupTimeLogTest(t, time.Now())

	userID := uuid.New()
	projectID := uuid.New()
	mockTimeLogService.On("List", mock.Anything, userID, mock.MatchedBy(func(f services.TimeLogFilter) bool {
		return f.Scope == services.ScopeTeam &&
			f.ProjectID != nil && *f.ProjectID == projectID &&
			f.IsPaid != nil && !*f.IsPaid &&
			f.Status == models.TimeLogStatusApproved &&
			f.From != nil && f.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	})).Return([]models.TimeLog{}, nil)

	app, do := newAuthedApp(t, userID)
	app.Get("/time-logs", handler.List)

	rec := do(http.MethodGet, "/time-logs?scope=team&project_id="+projectID.String()+"&is_paid=false&status=approved&from=2026-03-01", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockTimeLogService.AssertExpectations(t)
}

func TestTimeLogHandler_List_BadFilters(t *testing.T) {
	_, handler := setupTimeLogTest(t, time.Now())

	app, do := newAuthedApp(t, uuid.New())
	app.Get("/time-logs", handler.List)

	rec := do(http.MethodGet, "/time-logs?scope=everyone&is_paid=maybe&from=2026-03-05&to=2026-03-01", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "scope must be mine or team", resp.Errors["scope"])
	assert.Equal(t, "is_paid must be true or false", resp.Errors["is_paid"])
	assert.Equal(t, "to must be after from", resp.Errors["to"])
}

func TestTimeLogHandler_MarkPaid(t *testing.T) {
	mockTimeLogService, handler := setupTimeLogTest(t, time.Now())

	userID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	mockTimeLogService.On("MarkPaid", mock.Anything, userID, ids).Return(int64(2), nil)

	app, do := newAuthedApp(t, userID)
	app.Post("/time-logs/mark-paid", handler.MarkPaid)

	rec := do(http.MethodPost, "/time-logs/mark-paid", dto.IDsRequest{IDs: ids})

	assert.Equal(t, http.StatusOK, rec.Code)
	var response dto.CountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, int64(2), response.Count)
}

func TestTimeLogHandler_MarkPaid_Empty(t *testing.T) {
	_, handler := setupTimeLogTest(t, time.Now())

	app, do := newAuthedApp(t, uuid.New())
	app.Post("/time-logs/mark-paid", handler.MarkPaid)

	rec := do(http.MethodPost, "/time-logs/mark-paid", dto.IDsRequest{})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "ids must contain at least one time log", decodeError(t, rec).Errors["ids"])
}

func TestTimeLogHandler_Unpaid(t *testing.T) {
	mockTimeLogService, handler := setupTimeLogTest(t, time.Now())

	userID := uuid.New()
	totals := []models.UnpaidTotal{{Currency: "EUR", Hours: 10, Amount: 500}, {Currency: "USD", Hours: 2, Amount: 100}}
	mockTimeLogService.On("Unpaid", mock.Anything, userID, services.ScopeMine).Return(totals, nil)

	app, do := newAuthedApp(t, userID)
	app.Get("/time-logs/unpaid", handler.Unpaid)

	rec := do(http.MethodGet, "/time-logs/unpaid", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var response []models.UnpaidTotal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, totals, response)
}

func setupApprovalTest(t *testing.T) (*testutil.MockApprovalService, *testutil.MockNotificationService, *ApprovalHandler) {
	t.Helper()
	mockApprovalService := new(testutil.MockApprovalService)
	mockNotifier := new(testutil.MockNotificationService)
	return mockApprovalService, mockNotifier, NewApprovalHandler(mockApprovalService, mockNotifier)
}

func TestApprovalHandler_Approve_NotifiesOwner(t *testing.T) {
	mockApprovalService, mockNotifier, handler := setupApprovalTest(t)

	reviewerID := uuid.New()
	ownerID := uuid.New()
	logID := uuid.New()
	comment := "thanks"
	approved := &models.TimeLog{ID: logID, UserID: ownerID, Status: models.TimeLogStatusApproved, ReviewComment: &comment}

	mockApprovalService.On("Approve", mock.Anything, logID, reviewerID, &comment).Return(approved, nil)
	mockNotifier.On("Notify", mock.Anything, []uuid.UUID{ownerID}, models.NotificationTimeLogApproved,
		models.SubjectTimeLog, logID, mock.Anything).Return()

	app, do := newAuthedApp(t, reviewerID)
	app.Post("/time-logs/:id/approve", handler.Approve)

	rec := do(http.MethodPost, "/time-logs/"+logID.String()+"/approve", dto.ReviewRequest{Comment: &comment})

	assert.Equal(t, http.StatusOK, rec.Code)
	mockApprovalService.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestApprovalHandler_Reject_WithoutBody(t *testing.T) {
	mockApprovalService, mockNotifier, handler := setupApprovalTest(t)

	reviewerID := uuid.New()
	ownerID := uuid.New()
	logID := uuid.New()
	rejected := &models.TimeLog{ID: logID, UserID: ownerID, Status: models.TimeLogStatusRejected}

	mockApprovalService.On("Reject", mock.Anything, logID, reviewerID, (*string)(nil)).Return(rejected, nil)
	mockNotifier.On("Notify", mock.Anything, []uuid.UUID{ownerID}, models.NotificationTimeLogRejected,
		models.SubjectTimeLog, logID, mock.Anything).Return()

	app, do := newAuthedApp(t, reviewerID)
	app.Post("/time-logs/:id/reject", handler.Reject)

	rec := do(http.MethodPost, "/time-logs/"+logID.String()+"/reject", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockNotifier.AssertExpectations(t)
}

func TestApprovalHandler_Approve_OwnLogNotNotified(t *testing.T) {
	mockApprovalService, mockNotifier, handler := setupApprovalTest(t)

	ownerID := uuid.New()
	logID := uuid.New()
	mockApprovalService.On("Approve", mock.Anything, logID, ownerID, (*string)(nil)).
		Return(&models.TimeLog{ID: logID, UserID: ownerID, Status: models.TimeLogStatusApproved}, nil)

	app, do := newAuthedApp(t, ownerID)
	app.Post("/time-logs/:id/approve", handler.Approve)

	rec := do(http.MethodPost, "/time-logs/"+logID.String()+"/approve", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockNotifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApprovalHandler_Approve_NotApprover(t *testing.T) {
	mockApprovalService, _, handler := setupApprovalTest(t)

	reviewerID := uuid.New()
	logID := uuid.New()
	mockApprovalService.On("Approve", mock.Anything, logID, reviewerID, (*string)(nil)).Return(nil, services.ErrNotAuthorized)

	app, do := newAuthedApp(t, reviewerID)
	app.Post("/time-logs/:id/approve", handler.Approve)

	rec := do(http.MethodPost, "/time-logs/"+logID.String()+"/approve", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestApprovalHandler_BulkApprove(t *testing.T) {
	mockApprovalService, mockNotifier, handler := setupApprovalTest(t)

	reviewerID := uuid.New()
	ownerID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	approved := models.TimeLog{ID: ids[0], UserID: ownerID, Status: models.TimeLogStatusApproved}

	mockApprovalService.On("BulkApprove", mock.Anything, reviewerID, ids, (*string)(nil)).Return(&services.BulkApproveResult{
		Approved:      []models.TimeLog{approved},
		ApprovedCount: 1,
		SkippedCount:  2,
	}, nil)
	mockNotifier.On("Notify", mock.Anything, []uuid.UUID{ownerID}, models.NotificationTimeLogApproved,
		models.SubjectTimeLog, ids[0], mock.Anything).Return()

	app, do := newAuthedApp(t, reviewerID)
	app.Post("/approvals/bulk", handler.BulkApprove)

	rec := do(http.MethodPost, "/approvals/bulk", dto.BulkApproveRequest{IDs: ids})

	assert.Equal(t, http.StatusOK, rec.Code)
	var response dto.BulkApproveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.ApprovedCount)
	assert.Equal(t, 2, response.SkippedCount)
	mockNotifier.AssertExpectations(t)
}

func TestApprovalHandler_BulkApprove_TooMany(t *testing.T) {
	_, _, handler := setupApprovalTest(t)

	app, do := newAuthedApp(t, uuid.New())
	app.Post("/approvals/bulk", handler.BulkApprove)

	ids := make([]uuid.UUID, maxBulkIDs+1)
	for i := range ids {
		ids[i] = uuid.New()
	}
	rec := do(http.MethodPost, "/approvals/bulk", dto.BulkApproveRequest{IDs: ids})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "ids may not contain more than 500 time logs", decodeError(t, rec).Errors["ids"])
}
