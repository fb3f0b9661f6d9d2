package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/work-hours/work-hours-sub001/internal/services"
	"github.com/work-hours/work-hours-sub001/pkg/dto"
)

type ExportHandler struct {
	exportService ExportServiceInterface
}

func NewExportHandler(exportService ExportServiceInterface) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// write sends t as a CSV download, or uploads it and returns the link when ?archive=true.
func (h *ExportHandler) write(c *drift.Context, t *services.Table) {
	errs := fieldErrors{}
	archive := queryBool(c, "archive", errs)
	if errs.respond(c) {
		return
	}

	if archive != nil && *archive {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		url, err := h.exportService.Archive(c.Request.Context(), userID, t)
		if err != nil {
			respondError(c, err, "failed to archive export")
			return
		}
		_ = c.JSON(http.StatusOK, dto.ArchiveResponse{URL: url})
		return
	}

	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		respondError(c, err, "failed to write export")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, t.Filename()))
	_ = c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ExportHandler) Clients(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	t, err := h.exportService.Clients(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to export clients")
		return
	}

	h.write(c, t)
}

func (h *ExportHandler) Projects(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	t, err := h.exportService.Projects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to export projects")
		return
	}

	h.write(c, t)
}

func (h *ExportHandler) Tasks(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	errs := fieldErrors{}
	projectID := queryUUID(c, "project_id", errs)
	if errs.respond(c) {
		return
	}

	t, err := h.exportService.Tasks(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, err, "failed to export tasks")
		return
	}

	h.write(c, t)
}

// TimeLogs exports with the same filters as GET /time-logs.
func (h *ExportHandler) TimeLogs(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	f, ok := timeLogFilter(c)
	if !ok {
		return
	}

	t, err := h.exportService.TimeLogs(c.Request.Context(), userID, f)
	if err != nil {
		respondError(c, err, "failed to export time logs")
		return
	}

	h.write(c, t)
}

func (h *ExportHandler) Invoices(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	t, err := h.exportService.Invoices(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to export invoices")
		return
	}

	h.write(c, t)
}

func (h *ExportHandler) InvoiceItems(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, ok := paramID(c, "id", "invoice")
	if !ok {
		return
	}

	t, err := h.exportService.InvoiceItems(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "failed to export invoice items")
		return
	}

	h.write(c, t)
}
