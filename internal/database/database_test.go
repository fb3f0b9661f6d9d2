package database

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &DB{Pool: mock}, mock
}

func TestMigrate_RunsAllStatements(t *testing.T) {
	db, mock := newMockDB(t)

	for range migrations {
		mock.ExpectExec(`.+`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_ReportsFailingStep(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`.+`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`.+`).WillReturnError(errors.New("boom"))

	err := db.Migrate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 2 failed")
}

func TestWithAdvisoryLock_RunsWhenAcquired(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"locked"}).AddRow(true))
	mock.ExpectCommit()

	called := false
	ran, err := db.WithAdvisoryLock(context.Background(), 7, func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithAdvisoryLock_SkipsWhenHeldElsewhere(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT pg_try_advisory_xact_lock`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"locked"}).AddRow(false))
	mock.ExpectRollback()

	ran, err := db.WithAdvisoryLock(context.Background(), 7, func(ctx context.Context) error {
		t.Fatal("job must not run without the lock")
		return nil
	})

	require.NoError(t, err)
	assert.False(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}
