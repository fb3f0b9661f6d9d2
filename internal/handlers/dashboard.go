package handlers

import (
	"net/http"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
)

type DashboardHandler struct {
	dashboardService DashboardServiceInterface
	now              func() time.Time
}

func NewDashboardHandler(dashboardService DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, now: time.Now}
}

func (h *DashboardHandler) Get(c *drift.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	d, err := h.dashboardService.Get(c.Request.Context(), userID, h.now().UTC())
	if err != nil {
		respondError(c, err, "failed to get dashboard")
		return
	}

	_ = c.JSON(http.StatusOK, d)
}
