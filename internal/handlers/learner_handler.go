package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

// LearnerHandler serves goals, favorites and achievements
type LearnerHandler struct {
	BaseHandler
	goals        services.GoalService
	favorites    services.FavoriteService
	achievements services.AchievementService
	now          func() time.Time
}

func NewLearnerHandler(
	goals services.GoalService,
	favorites services.FavoriteService,
	achievements services.AchievementService,
	logger utils.Logger,
) *LearnerHandler {
	return &LearnerHandler{
		BaseHandler:  NewBaseHandler(logger),
		goals:        goals,
		favorites:    favorites,
		achievements: achievements,
		now:          time.Now,
	}
}

// ===== WEEKLY GOALS =====

// GetCurrentGoal returns this week's goal and progress toward it
// @Router /goals/current [get]
func (h *LearnerHandler) GetCurrentGoal(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	goal, err := h.goals.GetCurrent(c.Request.Context(), userID, h.now())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

// SetCurrentGoal sets this week's targets
// @Router /goals/current [put]
func (h *LearnerHandler) SetCurrentGoal(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req models.WeeklyGoalRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	goal, err := h.goals.SetCurrent(c.Request.Context(), userID, &req, h.now())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, goal)
}

// ===== FAVORITES =====

// @Router /favorites [get]
func (h *LearnerHandler) ListFavorites(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	favorites, err := h.favorites.List(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, favorites)
}

// @Router /favorites/{module_id} [post]
func (h *LearnerHandler) AddFavorite(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.favorites.Add(c.Request.Context(), userID, c.Param("module_id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Router /favorites/{module_id} [delete]
func (h *LearnerHandler) RemoveFavorite(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.favorites.Remove(c.Request.Context(), userID, c.Param("module_id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== ACHIEVEMENTS =====

// ListAchievements returns every achievement with the caller's earned state
// @Router /achievements [get]
func (h *LearnerHandler) ListAchievements(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	achievements, err := h.achievements.List(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievements)
}
