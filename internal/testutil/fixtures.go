package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/work-hours/work-hours-sub001/internal/database"
	"github.com/work-hours/work-hours-sub001/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.com", f.counter),
		Name:       fmt.Sprintf("Test User %d", f.counter),
		Provider:   "github",
		ProviderID: fmt.Sprintf("provider-%d", f.counter),
		HourlyRate: 50,
		Currency:   "USD",
	}

	for _, opt := range opts {
		opt(user)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, hourly_rate, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, global_role, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL, user.Provider, user.ProviderID, user.HourlyRate, user.Currency).Scan(
		&user.ID, &user.GlobalRole, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithRate sets the user's default hourly rate and currency
func WithRate(rate float64, currency string) UserOption {
	return func(u *models.User) {
		u.HourlyRate = rate
		u.Currency = currency
	}
}

// AddTeamMember creates the leader to member edge
func (f *Fixtures) AddTeamMember(t *testing.T, leader, member *models.User, rate float64, currency string, approver bool) {
	t.Helper()

	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO team_members (leader_id, member_id, hourly_rate, currency, is_approver)
		VALUES ($1, $2, $3, $4, $5)
	`, leader.ID, member.ID, rate, currency, approver)
	if err != nil {
		t.Fatalf("failed to add team member: %v", err)
	}
}

// CreateClient creates a client owned by owner
func (f *Fixtures) CreateClient(t *testing.T, owner *models.User, email *string) *models.Client {
	t.Helper()
	f.counter++

	client := &models.Client{
		UserID:     owner.ID,
		Name:       fmt.Sprintf("Client %d", f.counter),
		Email:      email,
		HourlyRate: 80,
		Currency:   "USD",
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO clients (user_id, name, email, hourly_rate, currency)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, client.UserID, client.Name, client.Email, client.HourlyRate, client.Currency).Scan(
		&client.ID, &client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client
}

// CreateProject creates a project owned by owner, optionally billed to client
func (f *Fixtures) CreateProject(t *testing.T, owner *models.User, client *models.Client) *models.Project {
	t.Helper()
	f.counter++

	project := &models.Project{
		UserID: owner.ID,
		Name:   fmt.Sprintf("Project %d", f.counter),
	}
	if client != nil {
		project.ClientID = &client.ID
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO projects (user_id, client_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, project.UserID, project.ClientID, project.Name).Scan(
		&project.ID, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	return project
}

// AddProjectMember assigns user to project
func (f *Fixtures) AddProjectMember(t *testing.T, project *models.Project, user *models.User, approver bool) {
	t.Helper()

	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO project_members (project_id, user_id, is_approver)
		VALUES ($1, $2, $3)
	`, project.ID, user.ID, approver)
	if err != nil {
		t.Fatalf("failed to add project member: %v", err)
	}
}

// CreateTimeLog inserts a finished log of hours starting at start with the given rate
func (f *Fixtures) CreateTimeLog(t *testing.T, user *models.User, project *models.Project, start time.Time, hours, rate float64, currency, status string) *models.TimeLog {
	t.Helper()

	end := start.Add(time.Duration(hours * float64(time.Hour)))
	l := &models.TimeLog{
		UserID:         user.ID,
		ProjectID:      project.ID,
		StartTimestamp: start,
		EndTimestamp:   &end,
		Duration:       &hours,
		HourlyRate:     rate,
		Currency:       currency,
		Status:         status,
	}

	var id uuid.UUID
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO time_logs (user_id, project_id, start_timestamp, end_timestamp, duration, hourly_rate, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, l.UserID, l.ProjectID, l.StartTimestamp, l.EndTimestamp, l.Duration, l.HourlyRate, l.Currency, l.Status).Scan(&id)
	if err != nil {
		t.Fatalf("failed to create time log: %v", err)
	}
	l.ID = id

	return l
}
