package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	service services.AuthService
}

func NewAuthHandler(service services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// SignUp registers an account and signs it in
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	h.LogRequest(c, "Signing up")

	session, err := h.service.SignUp(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// SignIn exchanges credentials for a session token
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if !h.bindJSON(c, &req, false) {
		return
	}

	session, err := h.service.SignIn(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// SignOut revokes the bearer token
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		h.RespondWithError(c, http.StatusUnauthorized, err.Error(), nil)
		return
	}

	if err := h.service.SignOut(c.Request.Context(), token); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSession returns the session behind the bearer token
// @Router /auth/session [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		h.RespondWithError(c, http.StatusUnauthorized, err.Error(), nil)
		return
	}

	session, err := h.service.GetSession(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
