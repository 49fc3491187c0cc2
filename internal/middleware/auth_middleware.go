package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/smarttransit/bus-booking-backend/pkg/jwt"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

// TokenValidator verifies bearer access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// UserContext represents the authenticated user's information
type UserContext struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// HasRole reports whether the token carried role
func (u UserContext) HasRole(role models.UserRole) bool {
	for _, r := range u.Roles {
		if strings.EqualFold(r, string(role)) {
			return true
		}
	}
	return false
}

// Role collapses the token roles into the directory role
func (u UserContext) Role() models.UserRole {
	if u.HasRole(models.RoleAdmin) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(validator TokenValidator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.WithFields(fields).Warn("Auth failed: missing authorization header")
			abortUnauthorized(c, "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			logger.WithFields(fields).Warn("Auth failed: invalid authorization format")
			abortUnauthorized(c, "Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := validator.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.WithFields(fields).Info("Auth failed: token expired")
			abortUnauthorized(c, "Access token has expired", "TOKEN_EXPIRED")
			return
		}
		if err != nil {
			logger.WithFields(fields).WithError(err).Warn("Auth failed: invalid token")
			abortUnauthorized(c, "Invalid access token", "INVALID_TOKEN")
			return
		}

		c.Set(UserContextKey, UserContext{UserID: claims.UserID, Roles: claims.Roles})
		c.Next()
	}
}

// RequireRole creates a middleware that checks if user has required role
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			abortUnauthorized(c, "User context not found", "MISSING_USER_CONTEXT")
			return
		}

		for _, role := range roles {
			if userCtx.HasRole(role) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "You don't have permission to access this resource",
			"code":  "INSUFFICIENT_PERMISSIONS",
		})
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}

	userCtx, ok := value.(UserContext)
	return userCtx, ok
}

func abortUnauthorized(c *gin.Context, message, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  code,
	})
}
