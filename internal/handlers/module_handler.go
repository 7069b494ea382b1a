package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

type ModuleHandler struct {
	BaseHandler
	catalog  services.CatalogService
	progress services.ProgressService
}

func NewModuleHandler(catalog services.CatalogService, progress services.ProgressService, logger utils.Logger) *ModuleHandler {
	return &ModuleHandler{
		BaseHandler: NewBaseHandler(logger),
		catalog:     catalog,
		progress:    progress,
	}
}

// ===== CATALOG ENDPOINTS =====

// ListModules returns the training catalog
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param search query string false "Title search"
// @Param category query string false "Category filter"
// @Router /modules [get]
func (h *ModuleHandler) ListModules(c *gin.Context) {
	params := &models.ListModulesParams{
		Page:     h.parseIntQuery(c, "page", 1),
		Size:     h.parseIntQuery(c, "size", 20),
		Search:   c.Query("search"),
		Category: c.Query("category"),
		SortBy:   c.Query("sort_by"),
		SortDir:  c.Query("sort_dir"),
	}

	result, err := h.catalog.ListModules(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetModule returns one module with the caller's latest progress
// @Router /modules/{id} [get]
func (h *ModuleHandler) GetModule(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	detail, err := h.catalog.GetModuleDetail(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Feed returns every module ranked for the dashboard
// @Param limit query int false "Keep only the top N cards (default: all)"
// @Router /feed [get]
func (h *ModuleHandler) Feed(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	limit := h.parseIntQuery(c, "limit", 0)
	if limit < 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid limit", "limit must not be negative")
		return
	}

	feed, err := h.catalog.Feed(c.Request.Context(), userID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}

// StartModule opens a new progress row for the module
// @Router /modules/{id}/start [post]
func (h *ModuleHandler) StartModule(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req models.StartModuleRequest
	if !h.bindJSON(c, &req, true) {
		return
	}

	moduleID := c.Param("id")
	h.LogRequest(c, "Starting module", "module_id", moduleID)

	progress, err := h.progress.Start(c.Request.Context(), userID, moduleID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, progress)
}

// ===== ADMIN ENDPOINTS =====

// CreateModule adds a module to the catalog
// @Router /modules [post]
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	var req models.ModuleUpsertRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	h.LogRequest(c, "Creating module", "title", req.Title)

	module, err := h.catalog.CreateModule(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, module)
}

// UpdateModule replaces a module's editable fields
// @Router /modules/{id} [put]
func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	var req models.ModuleUpsertRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	moduleID := c.Param("id")
	h.LogRequest(c, "Updating module", "module_id", moduleID)

	module, err := h.catalog.UpdateModule(c.Request.Context(), moduleID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, module)
}
