package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/utils"
)

// SessionResolver turns a bearer token into a session
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
}

// SessionAuthMiddleware authenticates requests with service issued or identity provider tokens
type SessionAuthMiddleware struct {
	BaseHandler
	sessions SessionResolver
}

func NewSessionAuthMiddleware(sessions SessionResolver, logger utils.Logger) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
	}
}

// AuthMiddleware rejects requests without a valid bearer token
func (am *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		session, err := am.sessions.GetSession(c.Request.Context(), token)
		if err != nil || session.User == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "invalid or expired session",
			})
			c.Abort()
			return
		}

		user := session.User
		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)
		c.Set("session_token", token)

		c.Next()
	}
}

// RequireRoleMiddleware must run after AuthMiddleware; admins pass every check
func (am *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		allowed := role == models.RoleAdmin
		for _, required := range requiredRoles {
			if role == required {
				allowed = true
				break
			}
		}

		if !allowed {
			userID, _ := GetUserIDFromContext(c)
			am.handleServiceError(c, services.NewPermissionError(userID, c.FullPath(), c.Request.Method,
				fmt.Sprintf("requires role %v", requiredRoles)))
			c.Abort()
			return
		}

		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("authorization header missing")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return parts[1], nil
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// GetUserIDFromContext extracts user ID from Gin context
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok {
		return "", fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
