package handlers

import "github.com/m1z23r/drift/pkg/drift"

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Team         *TeamHandler
	Invite       *InviteHandler
	Client       *ClientHandler
	Project      *ProjectHandler
	Task         *TaskHandler
	TimeLog      *TimeLogHandler
	Approval     *ApprovalHandler
	Invoice      *InvoiceHandler
	Integration  *IntegrationHandler
	Conversation *ConversationHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	Export       *ExportHandler
	Events       *SSEHandler
	Socket       *ChatSocketHandler
}

// Register mounts the API on api. Routes other than login, token refresh and the
// WebSocket (which authenticates its own ?token=) run behind auth.
func (h *Handlers) Register(api *drift.RouterGroup, auth drift.HandlerFunc) {
	login := api.Group("/auth")
	login.Get("/:provider/consent", h.Auth.GetConsentURL)
	login.Get("/:provider/callback", h.Auth.Callback)
	login.Post("/exchange", h.Auth.ExchangeCode)
	login.Post("/refresh", h.Auth.RefreshToken)
	login.Post("/logout", h.Auth.Logout)

	api.Get("/ws", h.Socket.Connect)

	protected := api.Group("")
	protected.Use(auth)

	protected.Post("/auth/logout-all", h.Auth.LogoutAll)

	protected.Get("/users/me", h.User.GetMe)
	protected.Patch("/users/me", h.User.UpdateMe)

	protected.Get("/team", h.Team.ListMembers)
	protected.Get("/team/leaders", h.Team.ListLeaders)
	protected.Patch("/team/members/:memberId", h.Team.UpdateMember)
	protected.Delete("/team/members/:memberId", h.Team.RemoveMember)
	protected.Get("/team/invites", h.Team.SentInvites)
	protected.Post("/team/invites", h.Team.Invite)
	protected.Delete("/team/invites/:id", h.Team.CancelInvite)

	protected.Get("/invites", h.Invite.List)
	protected.Post("/invites/:id/accept", h.Invite.Accept)
	protected.Post("/invites/:id/decline", h.Invite.Decline)

	protected.Get("/clients", h.Client.List)
	protected.Post("/clients", h.Client.Create)
	protected.Get("/clients/:id", withActions(h.Client.Get, map[string]drift.HandlerFunc{
		"export": h.Export.Clients,
	}))
	protected.Patch("/clients/:id", h.Client.Update)
	protected.Delete("/clients/:id", h.Client.Delete)

	protected.Get("/projects", h.Project.List)
	protected.Post("/projects", h.Project.Create)
	protected.Get("/projects/:id", withActions(h.Project.Get, map[string]drift.HandlerFunc{
		"export": h.Export.Projects,
	}))
	protected.Patch("/projects/:id", h.Project.Update)
	protected.Delete("/projects/:id", h.Project.Delete)
	protected.Get("/projects/:id/members", h.Project.ListMembers)
	protected.Put("/projects/:id/members", h.Project.ReplaceMembers)
	protected.Post("/projects/:id/sync", h.Project.Sync)
	protected.Get("/projects/:id/tasks", h.Task.List)
	protected.Post("/projects/:id/tasks", h.Task.Create)

	protected.Get("/tasks/:id", withActions(h.Task.Get, map[string]drift.HandlerFunc{
		"export": h.Export.Tasks,
	}))
	protected.Patch("/tasks/:id", h.Task.Update)
	protected.Delete("/tasks/:id", h.Task.Delete)
	protected.Get("/tasks/:id/comments", h.Task.ListComments)
	protected.Post("/tasks/:id/comments", h.Task.AddComment)
	protected.Delete("/tasks/:id/comments/:commentId", h.Task.DeleteComment)
	protected.Post("/tasks/:id/ai/description", h.Task.GenerateDescription)

	protected.Get("/time-logs", h.TimeLog.List)
	protected.Post("/time-logs", h.TimeLog.Create)
	protected.Get("/time-logs/:id", withActions(h.TimeLog.Get, map[string]drift.HandlerFunc{
		"unpaid": h.TimeLog.Unpaid,
		"export": h.Export.TimeLogs,
	}))
	protected.Post("/time-logs/:id", withActions(nil, map[string]drift.HandlerFunc{
		"start":     h.TimeLog.Start,
		"mark-paid": h.TimeLog.MarkPaid,
	}))
	protected.Patch("/time-logs/:id", h.TimeLog.Update)
	protected.Delete("/time-logs/:id", h.TimeLog.Delete)
	protected.Post("/time-logs/:id/stop", h.TimeLog.Stop)
	protected.Post("/time-logs/:id/approve", h.Approval.Approve)
	protected.Post("/time-logs/:id/reject", h.Approval.Reject)

	protected.Get("/approvals", h.Approval.ListPending)
	protected.Post("/approvals/bulk", h.Approval.BulkApprove)

	protected.Get("/invoices", h.Invoice.List)
	protected.Post("/invoices", h.Invoice.Create)
	protected.Get("/invoices/:id", withActions(h.Invoice.Get, map[string]drift.HandlerFunc{
		"export": h.Export.Invoices,
	}))
	protected.Post("/invoices/:id", withActions(nil, map[string]drift.HandlerFunc{
		"from-time-logs": h.Invoice.CreateFromTimeLogs,
	}))
	protected.Patch("/invoices/:id", h.Invoice.Update)
	protected.Delete("/invoices/:id", h.Invoice.Delete)
	protected.Get("/invoices/:id/export", h.Export.InvoiceItems)
	protected.Post("/invoices/:id/send", h.Invoice.Send)
	protected.Post("/invoices/:id/payments", h.Invoice.AddPayment)

	protected.Get("/integrations", h.Integration.List)
	protected.Put("/integrations/:provider", h.Integration.Save)
	protected.Delete("/integrations/:provider", h.Integration.Delete)
	protected.Get("/integrations/github/repositories", h.Integration.GitHubRepositories)
	protected.Post("/integrations/github/import", h.Integration.ImportGitHub)
	protected.Get("/integrations/jira/projects", h.Integration.JiraProjects)
	protected.Post("/integrations/jira/import", h.Integration.ImportJira)

	protected.Get("/conversations", h.Conversation.List)
	protected.Post("/conversations", h.Conversation.Start)
	protected.Get("/conversations/:id/messages", h.Conversation.Messages)
	protected.Post("/conversations/:id/messages", h.Conversation.Send)

	protected.Get("/notifications", h.Notification.List)
	protected.Get("/notifications/unread-count", h.Notification.UnreadCount)
	protected.Post("/notifications/:id", withActions(nil, map[string]drift.HandlerFunc{
		"read-all": h.Notification.MarkAllRead,
	}))
	protected.Post("/notifications/:id/read", h.Notification.MarkRead)
	protected.Delete("/notifications/:id", h.Notification.Delete)

	protected.Get("/dashboard", h.Dashboard.Get)
	protected.Get("/events", h.Events.Connect)
}
