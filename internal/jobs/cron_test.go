package jobs

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/config"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
)

type fakeLock struct {
	held bool
	keys []int64
}

func (f *fakeLock) WithAdvisoryLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error) {
	f.keys = append(f.keys, key)
	if f.held {
		return false, nil
	}
	return true, fn(ctx)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockInvoices struct{ mock.Mock }

func (m *mockInvoices) MarkOverdue(ctx context.Context, today time.Time) ([]services.OverdueInvoice, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.OverdueInvoice), args.Error(1)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, recipients []uuid.UUID, kind, subjectType string, subjectID uuid.UUID, data any) {
	m.Called(ctx, recipients, kind, subjectType, subjectID, data)
}

func testConfig() config.CronConfig {
	return config.CronConfig{TZ: "UTC", TokenCleanup: "0 * * * *", OverdueInvoices: "0 1 * * *", JobTimeout: time.Minute}
}

func TestNewCron_InvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.OverdueInvoices = "every day"

	_, err := NewCron(cfg, zerolog.Nop(), &fakeLock{}, &mockTokens{}, &mockInvoices{}, &mockNotifier{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRON_OVERDUE_INVOICES")
}

func TestNewCron_InvalidTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.TZ = "Mars/Olympus"

	_, err := NewCron(cfg, zerolog.Nop(), &fakeLock{}, &mockTokens{}, &mockInvoices{}, &mockNotifier{})

	assert.Error(t, err)
}

func TestCron_CleanupTokens(t *testing.T) {
	lock := &fakeLock{}
	tokens := &mockTokens{}
	tokens.On("CleanupExpired", mock.Anything).Return(int64(4), nil)

	cr, err := NewCron(testConfig(), zerolog.Nop(), lock, tokens, &mockInvoices{}, &mockNotifier{})
	require.NoError(t, err)

	cr.cleanupTokens()

	tokens.AssertExpectations(t)
	assert.Equal(t, []int64{tokenCleanupLock}, lock.keys)
}

func TestCron_SkipsWhenLockHeld(t *testing.T) {
	var buf bytes.Buffer
	tokens := &mockTokens{}

	cr, err := NewCron(testConfig(), zerolog.New(&buf), &fakeLock{held: true}, tokens, &mockInvoices{}, &mockNotifier{})
	require.NoError(t, err)

	cr.cleanupTokens()

	tokens.AssertNotCalled(t, "CleanupExpired", mock.Anything)
	assert.Contains(t, buf.String(), "already running elsewhere")
}

func TestCron_MarkOverdue_NotifiesOwners(t *testing.T) {
	invoices := &mockInvoices{}
	notify := &mockNotifier{}
	owner := uuid.New()
	inv := services.OverdueInvoice{ID: uuid.New(), UserID: owner, InvoiceNumber: "INV-2026-0007"}
	now := time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC)

	invoices.On("MarkOverdue", mock.Anything, now).Return([]services.OverdueInvoice{inv}, nil)
	notify.On("Notify", mock.Anything, []uuid.UUID{owner}, models.NotificationInvoiceOverdue, models.SubjectInvoice, inv.ID,
		map[string]string{"invoice_number": "INV-2026-0007"}).Return()

	cr, err := NewCron(testConfig(), zerolog.Nop(), &fakeLock{}, &mockTokens{}, invoices, notify)
	require.NoError(t, err)
	cr.now = func() time.Time { return now }

	cr.markOverdue()

	invoices.AssertExpectations(t)
	notify.AssertExpectations(t)
}

func TestCron_MarkOverdue_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	invoices := &mockInvoices{}
	notify := &mockNotifier{}
	invoices.On("MarkOverdue", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	cr, err := NewCron(testConfig(), zerolog.New(&buf), &fakeLock{}, &mockTokens{}, invoices, notify)
	require.NoError(t, err)

	cr.markOverdue()

	notify.AssertNotCalled(t, "Notify")
	assert.Contains(t, buf.String(), "db down")
	assert.Contains(t, buf.String(), "overdue_invoices")
}
