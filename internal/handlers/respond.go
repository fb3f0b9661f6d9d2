package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog/log"
	"github.com/work-hours/work-hours-sub001/internal/middleware"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
)

const dateLayout = "2006-01-02"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func fail(c *drift.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Message: message})
}

// fieldErrors collects validation failures keyed by request field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = message
	}
}

func (f fieldErrors) check(ok bool, field, message string) {
	if !ok {
		f.add(field, message)
	}
}

// respond writes the 422 envelope and reports true when any field failed.
func (f fieldErrors) respond(c *drift.Context) bool {
	if len(f) == 0 {
		return false
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorResponse{
		Message: "the given data was invalid",
		Errors:  f,
	})
	return true
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrTeamMemberNotFound, http.StatusNotFound},
	{services.ErrInviteNotFound, http.StatusNotFound},
	{services.ErrClientNotFound, http.StatusNotFound},
	{services.ErrProjectNotFound, http.StatusNotFound},
	{services.ErrTaskNotFound, http.StatusNotFound},
	{services.ErrCommentNotFound, http.StatusNotFound},
	{services.ErrTimeLogNotFound, http.StatusNotFound},
	{services.ErrInvoiceNotFound, http.StatusNotFound},
	{services.ErrIntegrationNotFound, http.StatusNotFound},
	{services.ErrConversationNotFound, http.StatusNotFound},
	{services.ErrNotificationNotFound, http.StatusNotFound},

	{services.ErrNotProjectOwner, http.StatusForbidden},
	{services.ErrNotCommentAuthor, http.StatusForbidden},
	{services.ErrNotTaskOwner, http.StatusForbidden},
	{services.ErrNotAuthorized, http.StatusForbidden},
	{services.ErrNotTeammates, http.StatusForbidden},

	{services.ErrInviteExists, http.StatusConflict},
	{services.ErrAlreadyMember, http.StatusConflict},
	{services.ErrInvoiceNumberExists, http.StatusConflict},
	{services.ErrEmailInUse, http.StatusConflict},

	{services.ErrTimeLogLocked, http.StatusBadRequest},
	{services.ErrTimerRunning, http.StatusBadRequest},
	{services.ErrTimerNotRunning, http.StatusBadRequest},
	{services.ErrTimeLogNotPending, http.StatusBadRequest},
	{services.ErrReviewRunningTimer, http.StatusBadRequest},
	{services.ErrInvoiceLocked, http.StatusBadRequest},
	{services.ErrNoBillableTimeLogs, http.StatusBadRequest},
	{services.ErrMixedCurrencies, http.StatusBadRequest},
	{services.ErrProjectNotSourced, http.StatusBadRequest},
	{services.ErrCannotChatSelf, http.StatusBadRequest},
	{services.ErrCannotInviteSelf, http.StatusBadRequest},
	{services.ErrUnknownProvider, http.StatusBadRequest},
	{services.ErrAINotConfigured, http.StatusBadRequest},
	{services.ErrArchiveUnavailable, http.StatusBadRequest},
	{services.ErrClientInUse, http.StatusBadRequest},
	{services.ErrProjectHasLogged, http.StatusBadRequest},

	{services.ErrExternalService, http.StatusBadGateway},
}

// Service errors that describe one invalid request field.
var errorFields = []struct {
	err   error
	field string
}{
	{services.ErrInvalidTimeRange, "end_timestamp"},
	{services.ErrTaskNotInProject, "task_id"},
	{services.ErrInvalidAssignee, "assignee_ids"},
	{services.ErrNotTeamMember, "members"},
	{services.ErrInvalidPayment, "amount"},
	{services.ErrTimeLogNotBillable, "time_log_ids"},
	{services.ErrInvalidInvoiceStatus, "status"},
	{services.ErrStatusNotEditable, "status"},
	{services.ErrEmptyMessage, "body"},
}

// respondError maps a service error onto the error envelope. Unknown errors are logged
// and answered with fallback as a 500.
func respondError(c *drift.Context, err error, fallback string) {
	for _, f := range errorFields {
		if errors.Is(err, f.err) {
			fieldErrors{f.field: f.err.Error()}.respond(c)
			return
		}
	}
	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			fail(c, s.status, s.err.Error())
			return
		}
	}

	log.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg(fallback)
	fail(c, http.StatusInternalServerError, fallback)
}

func currentUser(c *drift.Context) (uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return uuid.Nil, false
	}
	return userID, true
}

func bind(c *drift.Context, dst any) bool {
	if err := c.BindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func paramID(c *drift.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+label+" id")
		return uuid.Nil, false
	}
	return id, true
}

// withActions serves /resource/:id for both single items and named collection-level
// actions such as /time-logs/unpaid. The router cannot register a static segment and a
// parameter at the same depth, so the action name arrives as the id.
func withActions(item drift.HandlerFunc, actions map[string]drift.HandlerFunc) drift.HandlerFunc {
	return func(c *drift.Context) {
		if h, ok := actions[c.Param("id")]; ok {
			h(c)
			return
		}
		if item == nil {
			fail(c, http.StatusNotFound, "not found")
			return
		}
		item(c)
	}
}

func validCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func normalizeCurrency(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func validAdjustment(kind *string) bool {
	return kind == nil || *kind == models.AdjustmentPercentage || *kind == models.AdjustmentFixed
}

// withinChars reports whether s has at most n characters, counted as runes.
func withinChars(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}

// parseDate reads a 2006-01-02 value into errs under field on failure.
func parseDate(value, field string, errs fieldErrors) time.Time {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		errs.add(field, field+" must be a date formatted as YYYY-MM-DD")
	}
	return t
}

// Query helpers record malformed values in errs and return nil.

func queryUUID(c *drift.Context, key string, errs fieldErrors) *uuid.UUID {
	v := c.QueryParam(key)
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		errs.add(key, key+" must be a valid id")
		return nil
	}
	return &id
}

func queryBool(c *drift.Context, key string, errs fieldErrors) *bool {
	v := c.QueryParam(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		errs.add(key, key+" must be true or false")
		return nil
	}
	return &b
}

// queryTime accepts RFC3339 timestamps and plain dates.
func queryTime(c *drift.Context, key string, errs fieldErrors) *time.Time {
	v := c.QueryParam(key)
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		errs.add(key, key+" must be a date or RFC3339 timestamp")
		return nil
	}
	return &t
}

func queryInt(c *drift.Context, key string, fallback, max int) int {
	n, err := strconv.Atoi(c.QueryParam(key))
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
