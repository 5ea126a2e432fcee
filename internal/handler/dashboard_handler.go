package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-beasiswa-api/internal/dto"
	"github.com/noah-isme/sma-beasiswa-api/internal/service"
	"github.com/noah-isme/sma-beasiswa-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, bool, error)
}

// DashboardHandler exposes the cached admin dashboard.
type DashboardHandler struct {
	dashboard dashboardService
	metrics   *service.MetricsService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard dashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, metrics: metrics}
}

// Stats godoc
// @Summary Admin dashboard statistics
// @Description Aggregated counters, served from Redis when fresh
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, cached, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCacheLookup(cached)
	response.JSON(c, http.StatusOK, stats, nil, map[string]interface{}{"cached": cached})
}
