package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work-hours/work-hours-sub001/internal/integrations/github"
	"github.com/work-hours/work-hours-sub001/internal/integrations/jira"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

type fakeCreds struct {
	err error
}

func (f fakeCreds) Credentials(ctx context.Context, userID uuid.UUID, provider string) (*Credentials, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Credentials{Provider: provider, Secret: "token"}, nil
}

type fakeGitHub struct {
	repos  []github.Repository
	issues []github.Issue
	err    error
}

func (f *fakeGitHub) ListRepositories(ctx context.Context) ([]github.Repository, error) {
	return f.repos, f.err
}

func (f *fakeGitHub) ListIssues(ctx context.Context, fullName string) ([]github.Issue, error) {
	return f.issues, f.err
}

type fakeJira struct {
	projects []jira.Project
}

func (f *fakeJira) ListProjects(ctx context.Context) ([]jira.Project, error) {
	return f.projects, nil
}

func (f *fakeJira) SearchIssues(ctx context.Context, key string) ([]jira.Issue, error) {
	return nil, nil
}

func newSyncService(t *testing.T, gh *fakeGitHub, creds credentialStore) (*SyncService, pgxmock.PgxPoolIface, *SyncMetrics) {
	t.Helper()
	db, mock := newMockDB(t)
	metrics, err := NewSyncMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	clients := SyncClients{
		GitHub: func(*Credentials) GitHubClient { return gh },
		Jira: func(*Credentials) JiraClient {
			return &fakeJira{projects: []jira.Project{{Key: "WEB", Name: "Website"}}}
		},
	}
	return NewSyncService(db, NewProjectService(db), creds, clients, metrics, zerolog.Nop()), mock, metrics
}

func TestFromGitHubIssue(t *testing.T) {
	due := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	issue := fromGitHubIssue(github.Issue{
		ID: 42, Number: 7, Title: "Crash", State: "closed", HTMLURL: "https://github.com/acme/api/issues/7",
		Labels:    []github.Label{{Name: "bug"}, {Name: "Priority: High"}},
		Milestone: &github.Milestone{DueOn: &due},
	})

	assert.Equal(t, "42", issue.SourceID)
	assert.Equal(t, "#7", issue.Number)
	assert.Equal(t, models.TaskStatusCompleted, issue.Status)
	assert.Equal(t, models.PriorityHigh, issue.Priority)
	assert.Nil(t, issue.Description)
	assert.Equal(t, &due, issue.DueDate)
	assert.Equal(t, []string{"bug", "Priority: High"}, issue.Labels)
	assert.False(t, issue.PullRequest)
}

func TestFromJiraIssue(t *testing.T) {
	tests := []struct {
		category, priority   string
		wantStatus, wantPrio string
	}{
		{"new", "Medium", models.TaskStatusPending, models.PriorityMedium},
		{"indeterminate", "Highest", models.TaskStatusInProgress, models.PriorityHigh},
		{"done", "Lowest", models.TaskStatusCompleted, models.PriorityLow},
	}
	for _, tt := range tests {
		issue := fromJiraIssue(jira.Issue{ID: "1", Key: "WEB-1", Summary: "x", StatusCategory: tt.category, Priority: tt.priority})
		assert.Equal(t, tt.wantStatus, issue.Status, tt.category)
		assert.Equal(t, tt.wantPrio, issue.Priority, tt.priority)
		assert.Equal(t, "WEB-1", issue.Number)
	}
}

func TestSyncService_SyncProject_GitHub(t *testing.T) {
	gh := &fakeGitHub{issues: []github.Issue{
		{ID: 1, Number: 1, Title: "Existing", State: "open", Labels: []github.Label{{Name: "bug"}}},
		{ID: 2, Number: 2, Title: "New", State: "open"},
		{ID: 3, Number: 3, Title: "A pull request", State: "open", PullRequest: &struct{}{}},
		{ID: 4, Number: 4, Title: "Broken", State: "open"},
	}}
	svc, mock, metrics := newSyncService(t, gh, fakeCreds{})
	projectID, ownerID, existingTask, newTask := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	source, sourceID := models.SourceGitHub, "acme/api"

	expectAccess(mock, projectID, ownerID, ownerID, false, false)
	mock.ExpectQuery(`SELECT source, source_id FROM projects`).
		WithArgs(projectID).
		WillReturnRows(pgxmock.NewRows([]string{"source", "source_id"}).AddRow(&source, &sourceID))

	// issue 1: matched, updated, tags synced
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT tm.task_id FROM task_meta tm`).
		WithArgs(projectID, source, "1").
		WillReturnRows(pgxmock.NewRows([]string{"task_id"}).AddRow(existingTask))
	mock.ExpectExec(`UPDATE tasks SET title`).
		WithArgs("Existing", (*string)(nil), models.TaskStatusPending, models.PriorityMedium, (*time.Time)(nil), existingTask).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE task_meta SET`).
		WithArgs("#1", "", "open", existingTask).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM task_tags`).WithArgs(existingTask).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO tags`).WithArgs(ownerID, []string{"bug"}).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO task_tags`).WithArgs(existingTask, ownerID, []string{"bug"}).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	// issue 2: created
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT tm.task_id FROM task_meta tm`).
		WithArgs(projectID, source, "2").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO tasks`).
		WithArgs(projectID, "New", (*string)(nil), models.TaskStatusPending, models.PriorityMedium, (*time.Time)(nil), ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(newTask))
	mock.ExpectExec(`INSERT INTO task_meta`).
		WithArgs(newTask, source, "2", "#2", "", "open").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM task_tags`).WithArgs(newTask).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCommit()

	// issue 3 is a pull request and never reaches the database
	// issue 4: lookup fails
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT tm.task_id FROM task_meta tm`).
		WithArgs(projectID, source, "4").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	res, err := svc.SyncProject(context.Background(), projectID, ownerID)

	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Created: 1, Updated: 1, Skipped: 1, Failed: 1}, res)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.issues.WithLabelValues(source, syncCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.issues.WithLabelValues(source, syncSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.issues.WithLabelValues(source, syncFailed)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncService_SyncProject_NotSourced(t *testing.T) {
	svc, mock, _ := newSyncService(t, &fakeGitHub{}, fakeCreds{})
	projectID, ownerID := uuid.New(), uuid.New()

	expectAccess(mock, projectID, ownerID, ownerID, false, false)
	mock.ExpectQuery(`SELECT source, source_id FROM projects`).
		WithArgs(projectID).
		WillReturnRows(pgxmock.NewRows([]string{"source", "source_id"}).AddRow(nil, nil))

	_, err := svc.SyncProject(context.Background(), projectID, ownerID)

	assert.ErrorIs(t, err, ErrProjectNotSourced)
}

func TestSyncService_SyncProject_MemberCannotSync(t *testing.T) {
	svc, mock, _ := newSyncService(t, &fakeGitHub{}, fakeCreds{})
	projectID, ownerID, memberID := uuid.New(), uuid.New(), uuid.New()

	expectAccess(mock, projectID, memberID, ownerID, true, false)

	_, err := svc.SyncProject(context.Background(), projectID, memberID)

	assert.ErrorIs(t, err, ErrNotProjectOwner)
}

func TestSyncService_SyncProject_ExternalFailure(t *testing.T) {
	svc, mock, _ := newSyncService(t, &fakeGitHub{err: errors.New("github api status=502")}, fakeCreds{})
	projectID, ownerID := uuid.New(), uuid.New()
	source, sourceID := models.SourceGitHub, "acme/api"

	expectAccess(mock, projectID, ownerID, ownerID, false, false)
	mock.ExpectQuery(`SELECT source, source_id FROM projects`).
		WithArgs(projectID).
		WillReturnRows(pgxmock.NewRows([]string{"source", "source_id"}).AddRow(&source, &sourceID))

	_, err := svc.SyncProject(context.Background(), projectID, ownerID)

	assert.ErrorIs(t, err, ErrExternalService)
}

func TestSyncService_GitHubRepositories_NotConnected(t *testing.T) {
	svc, _, _ := newSyncService(t, &fakeGitHub{}, fakeCreds{err: ErrIntegrationNotFound})

	_, err := svc.GitHubRepositories(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrIntegrationNotFound)
}

func TestSyncService_ImportGitHub(t *testing.T) {
	gh := &fakeGitHub{repos: []github.Repository{{FullName: "acme/api", Name: "api"}}}
	svc, mock, _ := newSyncService(t, gh, fakeCreds{})
	userID, projectID := uuid.New(), uuid.New()
	source, sourceID := models.SourceGitHub, "acme/api"
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO projects .+ ON CONFLICT`).
		WithArgs(userID, "api", (*string)(nil), source, sourceID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(projectID))
	mock.ExpectQuery(`SELECT .+ FROM projects p LEFT JOIN clients`).
		WithArgs(projectID).
		WillReturnRows(pgxmock.NewRows(projectCols).
			AddRow(projectID, userID, nil, "api", nil, &source, &sourceID, now, now, nil))

	res, err := svc.ImportGitHub(context.Background(), userID, []string{"ACME/api", "acme/missing"})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, []string{"acme/missing"}, res.NotFound)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, projectID, res.Projects[0].ID)
}
