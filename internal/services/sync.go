package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/work-hours/work-hours-sub001/internal/config"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/integrations/github"
	"github.com/work-hours/work-hours-sub001/internal/integrations/jira"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

var (
	ErrProjectNotSourced = errors.New("project is not linked to github or jira")
	ErrExternalService   = errors.New("external service request failed")
)

const maxTitleLength = 500

// Sync outcomes, used as the result label of issue_sync_total.
const (
	syncCreated = "created"
	syncUpdated = "updated"
	syncSkipped = "skipped"
	syncFailed  = "failed"
)

type GitHubClient interface {
	ListRepositories(ctx context.Context) ([]github.Repository, error)
	ListIssues(ctx context.Context, fullName string) ([]github.Issue, error)
}

type JiraClient interface {
	ListProjects(ctx context.Context) ([]jira.Project, error)
	SearchIssues(ctx context.Context, projectKey string) ([]jira.Issue, error)
}

// SyncClients builds API clients from stored credentials.
type SyncClients struct {
	GitHub func(creds *Credentials) GitHubClient
	Jira   func(creds *Credentials) JiraClient
}

func NewSyncClients(cfg config.IntegrationsConfig) SyncClients {
	return SyncClients{
		GitHub: func(creds *Credentials) GitHubClient {
			return github.New(cfg.GitHubAPIURL, creds.Secret, cfg.HTTPTimeout)
		},
		Jira: func(creds *Credentials) JiraClient {
			return jira.New(creds.BaseURL, creds.Username, creds.Secret, cfg.HTTPTimeout)
		},
	}
}

type credentialStore interface {
	Credentials(ctx context.Context, userID uuid.UUID, provider string) (*Credentials, error)
}

type SyncMetrics struct {
	issues *prometheus.CounterVec
}

func NewSyncMetrics(reg prometheus.Registerer) (*SyncMetrics, error) {
	m := &SyncMetrics{
		issues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "issue_sync_total",
				Help: "External issues processed by project sync, by source and outcome.",
			},
			[]string{"source", "result"},
		),
	}
	if err := reg.Register(m.issues); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SyncMetrics) observe(source, result string) {
	if m != nil {
		m.issues.WithLabelValues(source, result).Inc()
	}
}

// ExternalIssue is a GitHub or Jira issue mapped onto task fields.
type ExternalIssue struct {
	SourceID    string
	Number      string
	URL         string
	State       string
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
	Labels      []string
	PullRequest bool
}

func fromGitHubIssue(i github.Issue) ExternalIssue {
	status := models.TaskStatusPending
	if i.State == "closed" {
		status = models.TaskStatusCompleted
	}

	labels := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.Name)
	}

	var due *time.Time
	if i.Milestone != nil {
		due = i.Milestone.DueOn
	}

	return ExternalIssue{
		SourceID:    fmt.Sprint(i.ID),
		Number:      fmt.Sprintf("#%d", i.Number),
		URL:         i.HTMLURL,
		State:       i.State,
		Title:       i.Title,
		Description: nullableString(i.Body),
		Status:      status,
		Priority:    priorityFromLabels(labels),
		DueDate:     due,
		Labels:      labels,
		PullRequest: i.IsPullRequest(),
	}
}

func priorityFromLabels(labels []string) string {
	for _, l := range labels {
		switch strings.ToLower(strings.TrimSpace(l)) {
		case "high", "priority: high", "priority:high", "urgent", "critical", "p0", "p1":
			return models.PriorityHigh
		case "low", "priority: low", "priority:low", "p3", "p4":
			return models.PriorityLow
		}
	}
	return models.PriorityMedium
}

func fromJiraIssue(i jira.Issue) ExternalIssue {
	status := models.TaskStatusPending
	switch i.StatusCategory {
	case "done":
		status = models.TaskStatusCompleted
	case "indeterminate":
		status = models.TaskStatusInProgress
	}

	priority := models.PriorityMedium
	switch strings.ToLower(i.Priority) {
	case "highest", "high", "blocker", "critical":
		priority = models.PriorityHigh
	case "low", "lowest", "trivial", "minor":
		priority = models.PriorityLow
	}

	return ExternalIssue{
		SourceID:    i.ID,
		Number:      i.Key,
		URL:         i.URL,
		State:       i.StatusName,
		Title:       i.Summary,
		Description: nullableString(i.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     i.DueDate,
		Labels:      i.Labels,
	}
}

type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type ImportResult struct {
	Projects []models.Project `json:"projects"`
	Created  int              `json:"created"`
	Existing int              `json:"existing"`
	NotFound []string         `json:"not_found"`
}

type SyncService struct {
	db       *database.DB
	projects *ProjectService
	creds    credentialStore
	clients  SyncClients
	metrics  *SyncMetrics
	log      zerolog.Logger
}

func NewSyncService(db *database.DB, projects *ProjectService, creds credentialStore, clients SyncClients, metrics *SyncMetrics, log zerolog.Logger) *SyncService {
	return &SyncService{db: db, projects: projects, creds: creds, clients: clients, metrics: metrics, log: log}
}

func external(err error) error {
	return fmt.Errorf("%w: %v", ErrExternalService, err)
}

func (s *SyncService) githubClient(ctx context.Context, userID uuid.UUID) (GitHubClient, error) {
	creds, err := s.creds.Credentials(ctx, userID, models.IntegrationGitHub)
	if err != nil {
		return nil, err
	}
	return s.clients.GitHub(creds), nil
}

func (s *SyncService) jiraClient(ctx context.Context, userID uuid.UUID) (JiraClient, error) {
	creds, err := s.creds.Credentials(ctx, userID, models.IntegrationJira)
	if err != nil {
		return nil, err
	}
	return s.clients.Jira(creds), nil
}

func (s *SyncService) GitHubRepositories(ctx context.Context, userID uuid.UUID) ([]github.Repository, error) {
	client, err := s.githubClient(ctx, userID)
	if err != nil {
		return nil, err
	}
	repos, err := client.ListRepositories(ctx)
	if err != nil {
		return nil, external(err)
	}
	return repos, nil
}

func (s *SyncService) JiraProjects(ctx context.Context, userID uuid.UUID) ([]jira.Project, error) {
	client, err := s.jiraClient(ctx, userID)
	if err != nil {
		return nil, err
	}
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return nil, external(err)
	}
	return projects, nil
}

// ImportGitHub creates one project per requested owner/repo the user can access.
func (s *SyncService) ImportGitHub(ctx context.Context, userID uuid.UUID, names []string) (*ImportResult, error) {
	repos, err := s.GitHubRepositories(ctx, userID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]github.Repository, len(repos))
	for _, r := range repos {
		byName[strings.ToLower(r.FullName)] = r
	}

	result := &ImportResult{Projects: []models.Project{}, NotFound: []string{}}
	for _, name := range names {
		r, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			result.NotFound = append(result.NotFound, name)
			continue
		}
		if err := s.importOne(ctx, userID, models.SourceGitHub, r.FullName, r.Name, nullableString(r.Description), result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ImportJira creates one project per requested Jira project key.
func (s *SyncService) ImportJira(ctx context.Context, userID uuid.UUID, keys []string) (*ImportResult, error) {
	projects, err := s.JiraProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]jira.Project, len(projects))
	for _, p := range projects {
		byKey[strings.ToUpper(p.Key)] = p
	}

	result := &ImportResult{Projects: []models.Project{}, NotFound: []string{}}
	for _, key := range keys {
		p, ok := byKey[strings.ToUpper(strings.TrimSpace(key))]
		if !ok {
			result.NotFound = append(result.NotFound, key)
			continue
		}
		if err := s.importOne(ctx, userID, models.SourceJira, p.Key, p.Name, nullableString(p.Description), result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *SyncService) importOne(ctx context.Context, userID uuid.UUID, source, sourceID, name string, desc *string, result *ImportResult) error {
	p, created, err := s.projects.ImportFromSource(ctx, userID, source, sourceID, name, desc)
	if err != nil {
		return err
	}
	if created {
		result.Created++
	} else {
		result.Existing++
	}
	result.Projects = append(result.Projects, *p)
	return nil
}

// SyncProject pulls the issues of a sourced project and upserts them as tasks. Failures on
// single issues are logged and counted; the rest of the batch still runs.
func (s *SyncService) SyncProject(ctx context.Context, projectID, userID uuid.UUID) (*SyncResult, error) {
	a, err := projectAccess(ctx, s.db.Pool, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !a.CanView() {
		return nil, ErrProjectNotFound
	}
	if !a.IsOwner {
		return nil, ErrNotProjectOwner
	}

	var source, sourceID *string
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT source, source_id FROM projects WHERE id = $1
	`, projectID).Scan(&source, &sourceID); err != nil {
		return nil, notFound(err, ErrProjectNotFound)
	}
	if source == nil || sourceID == nil {
		return nil, ErrProjectNotSourced
	}

	var issues []ExternalIssue
	switch *source {
	case models.SourceGitHub:
		client, err := s.githubClient(ctx, userID)
		if err != nil {
			return nil, err
		}
		raw, err := client.ListIssues(ctx, *sourceID)
		if err != nil {
			return nil, external(err)
		}
		for _, i := range raw {
			issues = append(issues, fromGitHubIssue(i))
		}
	case models.SourceJira:
		client, err := s.jiraClient(ctx, userID)
		if err != nil {
			return nil, err
		}
		raw, err := client.SearchIssues(ctx, *sourceID)
		if err != nil {
			return nil, external(err)
		}
		for _, i := range raw {
			issues = append(issues, fromJiraIssue(i))
		}
	default:
		return nil, ErrProjectNotSourced
	}

	result := &SyncResult{}
	for _, issue := range issues {
		outcome := syncSkipped
		if !issue.PullRequest {
			created, err := s.syncIssue(ctx, projectID, a.OwnerID, *source, issue)
			switch {
			case err != nil:
				s.log.Error().Err(err).
					Str("project_id", projectID.String()).
					Str("source", *source).
					Str("source_id", issue.SourceID).
					Msg("failed to sync issue")
				outcome = syncFailed
			case created:
				outcome = syncCreated
			default:
				outcome = syncUpdated
			}
		}

		switch outcome {
		case syncCreated:
			result.Created++
		case syncUpdated:
			result.Updated++
		case syncFailed:
			result.Failed++
		default:
			result.Skipped++
		}
		s.metrics.observe(*source, outcome)
	}

	s.log.Info().
		Str("project_id", projectID.String()).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("project sync finished")
	return result, nil
}

// syncIssue upserts one issue inside its own transaction and reports whether a task was created.
func (s *SyncService) syncIssue(ctx context.Context, projectID, ownerID uuid.UUID, source string, issue ExternalIssue) (bool, error) {
	title := strings.TrimSpace(issue.Title)
	if title == "" {
		title = issue.Number
	}
	if r := []rune(title); len(r) > maxTitleLength {
		title = string(r[:maxTitleLength])
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var taskID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT tm.task_id FROM task_meta tm
		JOIN tasks t ON t.id = tm.task_id
		WHERE t.project_id = $1 AND tm.source = $2 AND tm.source_id = $3
	`, projectID, source, issue.SourceID).Scan(&taskID)

	created := false
	switch {
	case err == nil:
		if _, err := tx.Exec(ctx, `
			UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, updated_at = NOW()
			WHERE id = $6
		`, title, issue.Description, issue.Status, issue.Priority, issue.DueDate, taskID); err != nil {
			return false, fmt.Errorf("failed to update task: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE task_meta SET source_number = $1, source_url = $2, source_state = $3, updated_at = NOW()
			WHERE task_id = $4
		`, issue.Number, issue.URL, issue.State, taskID); err != nil {
			return false, fmt.Errorf("failed to update task meta: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		created = true
		if err := tx.QueryRow(ctx, `
			INSERT INTO tasks (project_id, title, description, status, priority, due_date, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, projectID, title, issue.Description, issue.Status, issue.Priority, issue.DueDate, ownerID).Scan(&taskID); err != nil {
			return false, fmt.Errorf("failed to create task: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO task_meta (task_id, source, source_id, source_number, source_url, source_state)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, taskID, source, issue.SourceID, issue.Number, issue.URL, issue.State); err != nil {
			return false, fmt.Errorf("failed to create task meta: %w", err)
		}
	default:
		return false, err
	}

	if err := syncTags(ctx, tx, taskID, ownerID, issue.Labels); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}
