package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type ProjectHandler struct {
	projectService ProjectServiceInterface
	syncService    SyncServiceInterface
}

func NewProjectHandler(projectService ProjectServiceInterface, syncService SyncServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		syncService:    syncService,
	}
}

func projectParams(c *drift.Context, req *dto.ProjectRequest) (services.ProjectParams, bool) {
	req.Name = strings.TrimSpace(req.Name)

	errs := fieldErrors{}
	errs.check(req.Name != "", "name", "name is required")
	errs.check(withinChars(req.Name, 255), "name", "name may not be longer than 255 characters")
	if errs.respond(c) {
		return services.ProjectParams{}, false
	}

	return services.ProjectParams{
		Name:        req.Name,
		Description: req.Description,
		ClientID:    req.ClientID,
	}, true
}

func (h *ProjectHandler) List(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get projects")
		return
	}

	_ = c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) Get(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	_ = c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Create(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.ProjectRequest
	if !bind(c, &req) {
		return
	}
	params, ok := projectParams(c, &req)
	if !ok {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err, "failed to create project")
		return
	}

	_ = c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) Update(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	var req dto.ProjectRequest
	if !bind(c, &req) {
		return
	}
	params, ok := projectParams(c, &req)
	if !ok {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), id, userID, params)
	if err != nil {
		respondError(c, err, "failed to update project")
		return
	}

	_ = c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) Delete(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err, "failed to delete project")
		return
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "project deleted"})
}

func (h *ProjectHandler) ListMembers(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if _, err := h.projectService.Get(ctx, id, userID); err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	members, err := h.projectService.ListMembers(ctx, id)
	if err != nil {
		respondError(c, err, "failed to get project members")
		return
	}

	_ = c.JSON(http.StatusOK, members)
}

// ReplaceMembers sets the full assignment list of a project.
func (h *ProjectHandler) ReplaceMembers(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	var req dto.ReplaceMembersRequest
	if !bind(c, &req) {
		return
	}

	errs := fieldErrors{}
	seen := make(map[uuid.UUID]bool, len(req.Members))
	params := make([]services.ProjectMemberParams, 0, len(req.Members))
	for _, m := range req.Members {
		errs.check(m.UserID != uuid.Nil, "members", "every member needs a user_id")
		errs.check(!seen[m.UserID], "members", "members may not contain duplicates")
		seen[m.UserID] = true
		params = append(params, services.ProjectMemberParams{UserID: m.UserID, IsApprover: m.IsApprover})
	}
	if errs.respond(c) {
		return
	}

	members, err := h.projectService.ReplaceMembers(c.Request.Context(), id, userID, params)
	if err != nil {
		respondError(c, err, "failed to update project members")
		return
	}

	_ = c.JSON(http.StatusOK, members)
}

// Sync pulls issues from the project's GitHub repository or Jira project.
func (h *ProjectHandler) Sync(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "project")
	if !ok {
		return
	}

	result, err := h.syncService.SyncProject(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to sync project")
		return
	}

	_ = c.JSON(http.StatusOK, result)
}
