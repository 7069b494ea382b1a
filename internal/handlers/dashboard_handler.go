package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetSummary returns the learner's headline numbers
// @Summary Get dashboard summary
// @Description Module totals, progress counts, certificate buckets and unread notifications
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.DashboardSummary
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
