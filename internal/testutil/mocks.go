package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/work-hours/work-hours-sub001/internal/hub"
	"github.com/work-hours/work-hours-sub001/internal/integrations/github"
	"github.com/work-hours/work-hours-sub001/internal/integrations/jira"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/oauth"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/internal/sse"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd services.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, oldHash, newHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockTeamService mocks the TeamService
type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) ListMembers(ctx context.Context, leaderID uuid.UUID) ([]models.TeamMember, error) {
	args := m.Called(ctx, leaderID)
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *MockTeamService) ListLeaders(ctx context.Context, memberID uuid.UUID) ([]models.TeamMember, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *MockTeamService) UpdateMember(ctx context.Context, leaderID, memberID uuid.UUID, upd services.MemberUpdate) (*models.TeamMember, error) {
	args := m.Called(ctx, leaderID, memberID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *MockTeamService) RemoveMember(ctx context.Context, leaderID, memberID uuid.UUID) error {
	args := m.Called(ctx, leaderID, memberID)
	return args.Error(0)
}

func (m *MockTeamService) CreateInvite(ctx context.Context, leader *models.User, email string, terms services.MemberTerms) (*models.TeamInvite, error) {
	args := m.Called(ctx, leader, email, terms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamInvite), args.Error(1)
}

func (m *MockTeamService) ListInvitesForEmail(ctx context.Context, email string) ([]models.TeamInvite, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]models.TeamInvite), args.Error(1)
}

func (m *MockTeamService) ListSentInvites(ctx context.Context, leaderID uuid.UUID) ([]models.TeamInvite, error) {
	args := m.Called(ctx, leaderID)
	return args.Get(0).([]models.TeamInvite), args.Error(1)
}

func (m *MockTeamService) AcceptInvite(ctx context.Context, inviteID uuid.UUID, user *models.User) (*models.TeamInvite, error) {
	args := m.Called(ctx, inviteID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamInvite), args.Error(1)
}

func (m *MockTeamService) DeclineInvite(ctx context.Context, inviteID uuid.UUID, email string) error {
	args := m.Called(ctx, inviteID, email)
	return args.Error(0)
}

func (m *MockTeamService) CancelInvite(ctx context.Context, inviteID, leaderID uuid.UUID) error {
	args := m.Called(ctx, inviteID, leaderID)
	return args.Error(0)
}

// MockClientService mocks the ClientService
type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) List(ctx context.Context, userID uuid.UUID) ([]models.Client, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Client), args.Error(1)
}

func (m *MockClientService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) Create(ctx context.Context, userID uuid.UUID, p services.ClientParams) (*models.Client, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) Update(ctx context.Context, id, userID uuid.UUID, p services.ClientParams) (*models.Client, error) {
	args := m.Called(ctx, id, userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockProjectService mocks the ProjectService
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) List(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Project), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Project, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Create(ctx context.Context, userID uuid.UUID, params services.ProjectParams) (*models.Project, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, id, userID uuid.UUID, params services.ProjectParams) (*models.Project, error) {
	args := m.Called(ctx, id, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockProjectService) ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).([]models.ProjectMember), args.Error(1)
}

func (m *MockProjectService) ReplaceMembers(ctx context.Context, projectID, ownerID uuid.UUID, members []services.ProjectMemberParams) ([]models.ProjectMember, error) {
	args := m.Called(ctx, projectID, ownerID, members)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectMember), args.Error(1)
}

// MockTaskService mocks the TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) ListByProject(ctx context.Context, projectID, userID uuid.UUID, status string) ([]models.Task, error) {
	args := m.Called(ctx, projectID, userID, status)
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskService) Create(ctx context.Context, projectID, userID uuid.UUID, p services.TaskParams) (*models.Task, []uuid.UUID, error) {
	args := m.Called(ctx, projectID, userID, p)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	assigned, _ := args.Get(1).([]uuid.UUID)
	return args.Get(0).(*models.Task), assigned, args.Error(2)
}

func (m *MockTaskService) Update(ctx context.Context, id, userID uuid.UUID, upd services.TaskUpdate) (*models.Task, []uuid.UUID, error) {
	args := m.Called(ctx, id, userID, upd)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	assigned, _ := args.Get(1).([]uuid.UUID)
	return args.Get(0).(*models.Task), assigned, args.Error(2)
}

func (m *MockTaskService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockTaskService) ListComments(ctx context.Context, taskID, userID uuid.UUID) ([]models.TaskComment, error) {
	args := m.Called(ctx, taskID, userID)
	return args.Get(0).([]models.TaskComment), args.Error(1)
}

func (m *MockTaskService) AddComment(ctx context.Context, taskID, userID uuid.UUID, body string) (*models.TaskComment, []uuid.UUID, error) {
	args := m.Called(ctx, taskID, userID, body)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	watchers, _ := args.Get(1).([]uuid.UUID)
	return args.Get(0).(*models.TaskComment), watchers, args.Error(2)
}

func (m *MockTaskService) DeleteComment(ctx context.Context, taskID, commentID, userID uuid.UUID) error {
	args := m.Called(ctx, taskID, commentID, userID)
	return args.Error(0)
}

// MockAIService mocks the AIService
type MockAIService struct {
	mock.Mock
}

func (m *MockAIService) TaskDescription(ctx context.Context, taskID, userID uuid.UUID, hint string) (string, error) {
	args := m.Called(ctx, taskID, userID, hint)
	return args.String(0), args.Error(1)
}

// MockTimeLogService mocks the TimeLogService
type MockTimeLogService struct {
	mock.Mock
}

func (m *MockTimeLogService) List(ctx context.Context, userID uuid.UUID, f services.TimeLogFilter) ([]models.TimeLog, error) {
	args := m.Called(ctx, userID, f)
	return args.Get(0).([]models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Get(ctx context.Context, id, userID uuid.UUID) (*models.TimeLog, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Create(ctx context.Context, userID uuid.UUID, p services.TimeLogParams) (*models.TimeLog, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Start(ctx context.Context, userID uuid.UUID, p services.TimeLogParams) (*models.TimeLog, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Stop(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.TimeLog, error) {
	args := m.Called(ctx, id, userID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Update(ctx context.Context, id, userID uuid.UUID, upd services.TimeLogUpdate) (*models.TimeLog, error) {
	args := m.Called(ctx, id, userID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockTimeLogService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockTimeLogService) MarkPaid(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTimeLogService) Unpaid(ctx context.Context, userID uuid.UUID, scope string) ([]models.UnpaidTotal, error) {
	args := m.Called(ctx, userID, scope)
	return args.Get(0).([]models.UnpaidTotal), args.Error(1)
}

// MockApprovalService mocks the ApprovalService
type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) ListPending(ctx context.Context, reviewerID uuid.UUID) ([]models.TimeLog, error) {
	args := m.Called(ctx, reviewerID)
	return args.Get(0).([]models.TimeLog), args.Error(1)
}

func (m *MockApprovalService) Approve(ctx context.Context, id, reviewerID uuid.UUID, comment *string) (*models.TimeLog, error) {
	args := m.Called(ctx, id, reviewerID, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockApprovalService) Reject(ctx context.Context, id, reviewerID uuid.UUID, comment *string) (*models.TimeLog, error) {
	args := m.Called(ctx, id, reviewerID, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TimeLog), args.Error(1)
}

func (m *MockApprovalService) BulkApprove(ctx context.Context, reviewerID uuid.UUID, ids []uuid.UUID, comment *string) (*services.BulkApproveResult, error) {
	args := m.Called(ctx, reviewerID, ids, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BulkApproveResult), args.Error(1)
}

// MockInvoiceService mocks the InvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) invoice(args mock.Arguments) (*models.Invoice, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, userID uuid.UUID, status string) ([]models.Invoice, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id, userID))
}

func (m *MockInvoiceService) Create(ctx context.Context, userID uuid.UUID, p services.InvoiceParams) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, userID, p))
}

func (m *MockInvoiceService) CreateFromTimeLogs(ctx context.Context, userID uuid.UUID, p services.FromTimeLogsParams) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, userID, p))
}

func (m *MockInvoiceService) Update(ctx context.Context, id, userID uuid.UUID, upd services.InvoiceUpdate) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id, userID, upd))
}

func (m *MockInvoiceService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockInvoiceService) MarkSent(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id, userID))
}

func (m *MockInvoiceService) AddPayment(ctx context.Context, id, userID uuid.UUID, amount float64) (*models.Invoice, error) {
	return m.invoice(m.Called(ctx, id, userID, amount))
}

// MockIntegrationService mocks the IntegrationService
type MockIntegrationService struct {
	mock.Mock
}

func (m *MockIntegrationService) Save(ctx context.Context, userID uuid.UUID, provider string, baseURL, username *string, secret string) (*models.UserIntegration, error) {
	args := m.Called(ctx, userID, provider, baseURL, username, secret)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserIntegration), args.Error(1)
}

func (m *MockIntegrationService) List(ctx context.Context, userID uuid.UUID) ([]models.UserIntegration, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.UserIntegration), args.Error(1)
}

func (m *MockIntegrationService) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

// MockSyncService mocks the SyncService
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) GitHubRepositories(ctx context.Context, userID uuid.UUID) ([]github.Repository, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]github.Repository), args.Error(1)
}

func (m *MockSyncService) JiraProjects(ctx context.Context, userID uuid.UUID) ([]jira.Project, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]jira.Project), args.Error(1)
}

func (m *MockSyncService) ImportGitHub(ctx context.Context, userID uuid.UUID, names []string) (*services.ImportResult, error) {
	args := m.Called(ctx, userID, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ImportResult), args.Error(1)
}

func (m *MockSyncService) ImportJira(ctx context.Context, userID uuid.UUID, keys []string) (*services.ImportResult, error) {
	args := m.Called(ctx, userID, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ImportResult), args.Error(1)
}

func (m *MockSyncService) SyncProject(ctx context.Context, projectID, userID uuid.UUID) (*services.SyncResult, error) {
	args := m.Called(ctx, projectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SyncResult), args.Error(1)
}

// MockChatService mocks the ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) List(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Conversation), args.Error(1)
}

func (m *MockChatService) GetOrCreate(ctx context.Context, userID, otherID uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *MockChatService) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, userID, limit, before)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*models.Message, []uuid.UUID, error) {
	args := m.Called(ctx, conversationID, senderID, body)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	recipients, _ := args.Get(1).([]uuid.UUID)
	return args.Get(0).(*models.Message), recipients, args.Error(2)
}

// MockNotificationService mocks the NotificationService. It also serves as the
// Notifier handed to domain handlers.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, recipients []uuid.UUID, kind, subjectType string, subjectID uuid.UUID, data any) {
	m.Called(ctx, recipients, kind, subjectType, subjectID, data)
}

func (m *MockNotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockDashboardService mocks the DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Get(ctx context.Context, userID uuid.UUID, now time.Time) (*services.Dashboard, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Dashboard), args.Error(1)
}

// MockExportService mocks the ExportService
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) table(args mock.Arguments) (*services.Table, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Table), args.Error(1)
}

func (m *MockExportService) CanArchive() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockExportService) Archive(ctx context.Context, userID uuid.UUID, t *services.Table) (string, error) {
	args := m.Called(ctx, userID, t)
	return args.String(0), args.Error(1)
}

func (m *MockExportService) TimeLogs(ctx context.Context, userID uuid.UUID, f services.TimeLogFilter) (*services.Table, error) {
	return m.table(m.Called(ctx, userID, f))
}

func (m *MockExportService) Invoices(ctx context.Context, userID uuid.UUID) (*services.Table, error) {
	return m.table(m.Called(ctx, userID))
}

func (m *MockExportService) InvoiceItems(ctx context.Context, invoiceID, userID uuid.UUID) (*services.Table, error) {
	return m.table(m.Called(ctx, invoiceID, userID))
}

func (m *MockExportService) Clients(ctx context.Context, userID uuid.UUID) (*services.Table, error) {
	return m.table(m.Called(ctx, userID))
}

func (m *MockExportService) Projects(ctx context.Context, userID uuid.UUID) (*services.Table, error) {
	return m.table(m.Called(ctx, userID))
}

func (m *MockExportService) Tasks(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) (*services.Table, error) {
	return m.table(m.Called(ctx, userID, projectID))
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockEmailService) SendTeamInvite(to, leaderName, inviteURL string) error {
	args := m.Called(to, leaderName, inviteURL)
	return args.Error(0)
}

func (m *MockEmailService) SendInvoice(to, senderName string, inv *models.Invoice) error {
	args := m.Called(to, senderName, inv)
	return args.Error(0)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

// MockConversationHub mocks the WebSocket conversation hub
type MockConversationHub struct {
	mock.Mock
}

func (m *MockConversationHub) Register(client *hub.Client) {
	m.Called(client)
}

func (m *MockConversationHub) Unregister(client *hub.Client) {
	m.Called(client)
}

func (m *MockConversationHub) Subscribe(clientID string, conversationID uuid.UUID) {
	m.Called(clientID, conversationID)
}

func (m *MockConversationHub) Unsubscribe(clientID string, conversationID uuid.UUID) {
	m.Called(clientID, conversationID)
}

func (m *MockConversationHub) IsSubscribed(clientID string, conversationID uuid.UUID) bool {
	args := m.Called(clientID, conversationID)
	return args.Bool(0)
}

func (m *MockConversationHub) BroadcastMessage(conversationID uuid.UUID, message any) {
	m.Called(conversationID, message)
}

func (m *MockConversationHub) BroadcastTyping(conversationID uuid.UUID, from *hub.Client, typing bool) {
	m.Called(conversationID, from, typing)
}

// MockEventHub mocks the SSE hub
type MockEventHub struct {
	mock.Mock
}

func (m *MockEventHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockEventHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockEventHub) BroadcastToUser(userID uuid.UUID, eventType string, data any) {
	m.Called(userID, eventType, data)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error) {
	args := m.Called(userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateAccessToken(token string) (*services.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Claims), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}
