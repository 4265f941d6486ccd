package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Admin Dashboard Stats ---
//

// GetDashboardStats returns KPI data for the admin dashboard
// GET /v1/admin/stats
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	stats, err := h.Orders.Stats(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to load dashboard stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
