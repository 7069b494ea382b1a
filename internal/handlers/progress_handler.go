package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	service services.ProgressService
}

func NewProgressHandler(service services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// AdvanceProgress moves a progress row forward by one step
// @Router /progress/{id}/advance [post]
func (h *ProgressHandler) AdvanceProgress(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req models.AdvanceProgressRequest
	if !h.bindJSON(c, &req, true) {
		return
	}

	progressID := c.Param("id")
	h.LogRequest(c, "Advancing progress", "progress_id", progressID)

	progress, err := h.service.Advance(c.Request.Context(), userID, progressID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// ListProgress returns the caller's progress rows
// @Param status query string false "in_progress or completed"
// @Param module_id query string false "Module filter"
// @Router /progress [get]
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var params services.ListProgressParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	result, err := h.service.List(c.Request.Context(), userID, &params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
