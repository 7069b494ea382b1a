package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	service services.NotificationService
	now     func() time.Time
}

func NewNotificationHandler(service services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		now:         time.Now,
	}
}

// ListNotifications returns the newest notifications
// @Param limit query int false "Number of notifications (default: 20, max: 100)"
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	notifications, err := h.service.List(c.Request.Context(), userID, h.parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// ScanNotifications creates due-soon and expiring alerts, then lists notifications
// @Router /notifications/scan [post]
func (h *NotificationHandler) ScanNotifications(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	notifications, err := h.service.Scan(c.Request.Context(), userID, h.now())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// UnreadCount returns the number of unread notifications
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead marks one notification read
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	notification, err := h.service.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// MarkAllRead marks every unread notification read
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
