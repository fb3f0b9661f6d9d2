package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/work-hours/work-hours-sub001/internal/hub"
	"github.com/work-hours/work-hours-sub001/internal/integrations/github"
	"github.com/work-hours/work-hours-sub001/internal/integrations/jira"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/oauth"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/internal/sse"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd services.ProfileUpdate) (*models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateAccessToken(token string) (*services.Claims, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	ListMembers(ctx context.Context, leaderID uuid.UUID) ([]models.TeamMember, error)
	ListLeaders(ctx context.Context, memberID uuid.UUID) ([]models.TeamMember, error)
	UpdateMember(ctx context.Context, leaderID, memberID uuid.UUID, upd services.MemberUpdate) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, leaderID, memberID uuid.UUID) error
	CreateInvite(ctx context.Context, leader *models.User, email string, terms services.MemberTerms) (*models.TeamInvite, error)
	ListInvitesForEmail(ctx context.Context, email string) ([]models.TeamInvite, error)
	ListSentInvites(ctx context.Context, leaderID uuid.UUID) ([]models.TeamInvite, error)
	AcceptInvite(ctx context.Context, inviteID uuid.UUID, user *models.User) (*models.TeamInvite, error)
	DeclineInvite(ctx context.Context, inviteID uuid.UUID, email string) error
	CancelInvite(ctx context.Context, inviteID, leaderID uuid.UUID) error
}

// ClientServiceInterface defines the methods used by handlers from ClientService
type ClientServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Client, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Client, error)
	Create(ctx context.Context, userID uuid.UUID, p services.ClientParams) (*models.Client, error)
	Update(ctx context.Context, id, userID uuid.UUID, p services.ClientParams) (*models.Client, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// ProjectServiceInterface defines the methods used by handlers from ProjectService
type ProjectServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Project, error)
	Create(ctx context.Context, userID uuid.UUID, params services.ProjectParams) (*models.Project, error)
	Update(ctx context.Context, id, userID uuid.UUID, params services.ProjectParams) (*models.Project, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]models.ProjectMember, error)
	ReplaceMembers(ctx context.Context, projectID, ownerID uuid.UUID, members []services.ProjectMemberParams) ([]models.ProjectMember, error)
}

// TaskServiceInterface defines the methods used by handlers from TaskService
type TaskServiceInterface interface {
	ListByProject(ctx context.Context, projectID, userID uuid.UUID, status string) ([]models.Task, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, projectID, userID uuid.UUID, p services.TaskParams) (*models.Task, []uuid.UUID, error)
	Update(ctx context.Context, id, userID uuid.UUID, upd services.TaskUpdate) (*models.Task, []uuid.UUID, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	ListComments(ctx context.Context, taskID, userID uuid.UUID) ([]models.TaskComment, error)
	AddComment(ctx context.Context, taskID, userID uuid.UUID, body string) (*models.TaskComment, []uuid.UUID, error)
	DeleteComment(ctx context.Context, taskID, commentID, userID uuid.UUID) error
}

// AIServiceInterface defines the methods used by handlers from AIService
type AIServiceInterface interface {
	TaskDescription(ctx context.Context, taskID, userID uuid.UUID, hint string) (string, error)
}

// TimeLogServiceInterface defines the methods used by handlers from TimeLogService
type TimeLogServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, f services.TimeLogFilter) ([]models.TimeLog, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.TimeLog, error)
	Create(ctx context.Context, userID uuid.UUID, p services.TimeLogParams) (*models.TimeLog, error)
	Start(ctx context.Context, userID uuid.UUID, p services.TimeLogParams) (*models.TimeLog, error)
	Stop(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.TimeLog, error)
	Update(ctx context.Context, id, userID uuid.UUID, upd services.TimeLogUpdate) (*models.TimeLog, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	MarkPaid(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error)
	Unpaid(ctx context.Context, userID uuid.UUID, scope string) ([]models.UnpaidTotal, error)
}

// ApprovalServiceInterface defines the methods used by handlers from ApprovalService
type ApprovalServiceInterface interface {
	ListPending(ctx context.Context, reviewerID uuid.UUID) ([]models.TimeLog, error)
	Approve(ctx context.Context, id, reviewerID uuid.UUID, comment *string) (*models.TimeLog, error)
	Reject(ctx context.Context, id, reviewerID uuid.UUID, comment *string) (*models.TimeLog, error)
	BulkApprove(ctx context.Context, reviewerID uuid.UUID, ids []uuid.UUID, comment *string) (*services.BulkApproveResult, error)
}

// InvoiceServiceInterface defines the methods used by handlers from InvoiceService
type InvoiceServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, status string) ([]models.Invoice, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error)
	Create(ctx context.Context, userID uuid.UUID, p services.InvoiceParams) (*models.Invoice, error)
	CreateFromTimeLogs(ctx context.Context, userID uuid.UUID, p services.FromTimeLogsParams) (*models.Invoice, error)
	Update(ctx context.Context, id, userID uuid.UUID, upd services.InvoiceUpdate) (*models.Invoice, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	MarkSent(ctx context.Context, id, userID uuid.UUID) (*models.Invoice, error)
	AddPayment(ctx context.Context, id, userID uuid.UUID, amount float64) (*models.Invoice, error)
}

// IntegrationServiceInterface defines the methods used by handlers from IntegrationService
type IntegrationServiceInterface interface {
	Save(ctx context.Context, userID uuid.UUID, provider string, baseURL, username *string, secret string) (*models.UserIntegration, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.UserIntegration, error)
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}

// SyncServiceInterface defines the methods used by handlers from SyncService
type SyncServiceInterface interface {
	GitHubRepositories(ctx context.Context, userID uuid.UUID) ([]github.Repository, error)
	JiraProjects(ctx context.Context, userID uuid.UUID) ([]jira.Project, error)
	ImportGitHub(ctx context.Context, userID uuid.UUID, names []string) (*services.ImportResult, error)
	ImportJira(ctx context.Context, userID uuid.UUID, keys []string) (*services.ImportResult, error)
	SyncProject(ctx context.Context, projectID, userID uuid.UUID) (*services.SyncResult, error)
}

// ChatServiceInterface defines the methods used by handlers from ChatService
type ChatServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	GetOrCreate(ctx context.Context, userID, otherID uuid.UUID) (*models.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	ListMessages(ctx context.Context, conversationID, userID uuid.UUID, limit int, before *time.Time) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*models.Message, []uuid.UUID, error)
}

// NotificationServiceInterface defines the methods used by handlers from NotificationService
type NotificationServiceInterface interface {
	Notify(ctx context.Context, recipients []uuid.UUID, kind, subjectType string, subjectID uuid.UUID, data any)
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// Notifier is the part of NotificationService the domain handlers use.
type Notifier interface {
	Notify(ctx context.Context, recipients []uuid.UUID, kind, subjectType string, subjectID uuid.UUID, data any)
}

// DashboardServiceInterface defines the methods used by handlers from DashboardService
type DashboardServiceInterface interface {
	Get(ctx context.Context, userID uuid.UUID, now time.Time) (*services.Dashboard, error)
}

// ExportServiceInterface defines the methods used by handlers from ExportService
type ExportServiceInterface interface {
	CanArchive() bool
	Archive(ctx context.Context, userID uuid.UUID, t *services.Table) (string, error)
	TimeLogs(ctx context.Context, userID uuid.UUID, f services.TimeLogFilter) (*services.Table, error)
	Invoices(ctx context.Context, userID uuid.UUID) (*services.Table, error)
	InvoiceItems(ctx context.Context, invoiceID, userID uuid.UUID) (*services.Table, error)
	Clients(ctx context.Context, userID uuid.UUID) (*services.Table, error)
	Projects(ctx context.Context, userID uuid.UUID) (*services.Table, error)
	Tasks(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) (*services.Table, error)
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	IsConfigured() bool
	SendTeamInvite(to, leaderName, inviteURL string) error
	SendInvoice(to, senderName string, inv *models.Invoice) error
}

// IntegrationSaver stores the GitHub token obtained at login.
type IntegrationSaver interface {
	Save(ctx context.Context, userID uuid.UUID, provider string, baseURL, username *string, secret string) (*models.UserIntegration, error)
}

// ConversationHubInterface defines the methods used by handlers from the WebSocket hub
type ConversationHubInterface interface {
	Register(client *hub.Client)
	Unregister(client *hub.Client)
	Subscribe(clientID string, conversationID uuid.UUID)
	Unsubscribe(clientID string, conversationID uuid.UUID)
	IsSubscribed(clientID string, conversationID uuid.UUID) bool
	BroadcastMessage(conversationID uuid.UUID, message any)
	BroadcastTyping(conversationID uuid.UUID, from *hub.Client, typing bool)
}

// EventHubInterface defines the methods used by handlers from the SSE hub
type EventHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	BroadcastToUser(userID uuid.UUID, eventType string, data any)
}
