package handlers

import (
	"net/http"
	"strings"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/models"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

const maxImport = 100

type IntegrationHandler struct {
	integrationService IntegrationServiceInterface
	syncService        SyncServiceInterface
}

func NewIntegrationHandler(integrationService IntegrationServiceInterface, syncService SyncServiceInterface) *IntegrationHandler {
	return &IntegrationHandler{
		integrationService: integrationService,
		syncService:        syncService,
	}
}

func (h *IntegrationHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	integrations, err := h.integrationService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get integrations")
		return
	}

	_ = c.JSON(http.StatusOK, integrations)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Save connects or replaces the caller's credentials for one provider.
func (h *IntegrationHandler) Save(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	provider := c.Param("provider")
	if !services.ValidProvider(provider) {
		fail(c, http.StatusBadRequest, services.ErrUnknownProvider.Error())
		return
	}

	var req dto.SaveIntegrationRequest
	if !bind(c, &req) {
		return
	}

	token := strings.TrimSpace(req.Token)
	baseURL := trimmed(req.BaseURL)
	username := trimmed(req.Username)
	if baseURL != nil {
		v := strings.TrimRight(*baseURL, "/")
		baseURL = &v
	}

	errs := fieldErrors{}
	errs.check(token != "", "token", "token is required")
	if provider == models.IntegrationJira {
		errs.check(baseURL != nil, "base_url", "base_url is required for jira")
		errs.check(baseURL == nil || strings.HasPrefix(*baseURL, "https://"), "base_url", "base_url must be an https url")
		errs.check(username != nil, "username", "username is required for jira")
	}
	if errs.respond(c) {
		return
	}

	integration, err := h.integrationService.Save(c.Request.Context(), userID, provider, baseURL, username, token)
	if err != nil {
		respondError(c, err, "failed to save integration")
		return
	}

	_ = c.JSON(http.StatusOK, integration)
}

func (h *IntegrationHandler) Delete(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	provider := c.Param("provider")
	if !services.ValidProvider(provider) {
		fail(c, http.StatusBadRequest, services.ErrUnknownProvider.Error())
		return
	}

	if err := h.integrationService.Delete(c.Request.Context(), userID, provider); err != nil {
		respondError(c, err, "failed to delete integration")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "integration disconnected"})
}

func (h *IntegrationHandler) GitHubRepositories(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	repos, err := h.syncService.GitHubRepositories(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get github repositories")
		return
	}

	_ = c.JSON(http.StatusOK, repos)
}

func (h *IntegrationHandler) JiraProjects(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.syncService.JiraProjects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get jira projects")
		return
	}

	_ = c.JSON(http.StatusOK, projects)
}

func importNames(errs fieldErrors, field string, names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	errs.check(len(out) > 0, field, field+" must contain at least one entry")
	errs.check(len(out) <= maxImport, field, field+" may not contain more than 100 entries")
	return out
}

// ImportGitHub creates one project per repository full name.
func (h *IntegrationHandler) ImportGitHub(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ImportGitHubRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	repos := importNames(errs, "repos", req.Repos)
	if errs.respond(c) {
		return
	}

	result, err := h.syncService.ImportGitHub(c.Request.Context(), userID, repos)
	if err != nil {
		respondError(c, err, "failed to import github repositories")
		return
	}

	_ = c.JSON(http.StatusOK, result)
}

func (h *IntegrationHandler) ImportJira(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ImportJiraRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	keys := importNames(errs, "keys", req.Keys)
	if errs.respond(c) {
		return
	}

	result, err := h.syncService.ImportJira(c.Request.Context(), userID, keys)
	if err != nil {
		respondError(c, err, "failed to import jira projects")
		return
	}

	_ = c.JSON(http.StatusOK, result)
}
