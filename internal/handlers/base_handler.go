package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/repositories"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
	"github.com/flexible-healthcare/training-service/internal/validator"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request scoped logger, adding the caller's user id when known
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	if userID := c.GetString("user_id"); userID != "" {
		args = append(args, "user_id", userID)
	}
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// requireUserID reads the id set by the auth middleware and answers 401 when missing
func (h *BaseHandler) requireUserID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil || userID == "" {
		h.RespondWithError(c, http.StatusUnauthorized, "User not authenticated", nil)
		return "", false
	}
	return userID, true
}

// bindJSON answers 400 on malformed bodies; an empty body leaves req at its zero value when allowEmpty
func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}, allowEmpty bool) bool {
	if allowEmpty && c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return false
	}
	return true
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var authErr *services.AuthError
	var permErr *services.PermissionError

	switch {
	case errors.As(err, &validationErrs):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", validationErrs)
	case errors.As(err, &authErr):
		status := http.StatusUnauthorized
		if authErr.Conflict {
			status = http.StatusConflict
		}
		h.RespondWithError(c, status, authErr.Reason, nil)
	case errors.As(err, &permErr):
		h.RespondWithError(c, http.StatusForbidden, "Permission denied", permErr.Reason)
	case services.IsNotFoundError(err), repositories.IsNotFoundError(err):
		h.RespondWithError(c, http.StatusNotFound, err.Error(), nil)
	case services.IsConflictError(err):
		h.RespondWithError(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrStorageUnavailable):
		h.RespondWithError(c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		h.LogError(c, err, "Unhandled service error", "path", c.FullPath())
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
