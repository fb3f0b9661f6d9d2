package integration

import (
	"testing"

	"github.com/work-hours/work-hours-sub001/internal/testutil"
)

// setupTest starts a migrated PostgreSQL container for one test.
func setupTest(t *testing.T) *testutil.TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	return testutil.SetupTestDB(t)
}
