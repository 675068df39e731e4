package middleware

import (
	"errors"
	"net/http"

	"cv-talent/internal/models"
	"cv-talent/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
	ContextUser      = "user"
	ContextClaims    = "jwt_claims"
)

// AuthMiddleware validates the bearer token and loads the user it names. A
// token for a deleted or deactivated user is rejected.
func AuthMiddleware(jwtService *auth.JWTService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		token := auth.ExtractTokenFromBearer(authHeader)
		if token == "" {
			abortUnauthorized(c, "Invalid authorization header format", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateTokenWithBlacklist(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				abortUnauthorized(c, "Token has expired", "TOKEN_EXPIRED")
			case errors.Is(err, auth.ErrTokenBlacklisted):
				abortUnauthorized(c, "Token has been revoked", "TOKEN_REVOKED")
			default:
				abortUnauthorized(c, "Invalid token", "TOKEN_INVALID")
			}
			return
		}

		var user models.User
		err = db.WithContext(c.Request.Context()).
			Preload("Role").
			First(&user, "id = ?", claims.UserID).Error
		if err != nil || !user.IsActive {
			abortUnauthorized(c, "User not found or inactive", "USER_NOT_FOUND")
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUserEmail, user.Email)
		c.Set(ContextUserRole, user.RoleName())
		c.Set(ContextUser, &user)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message, code string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  code,
	})
}

// RequireRole ensures the user has one of the given roles
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User role not found in context",
				"code":  "MISSING_USER_ROLE",
			})
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid user role type",
				"code":  "INVALID_ROLE_TYPE",
			})
			return
		}

		for _, requiredRole := range roles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
			"code":  "INSUFFICIENT_PERMISSIONS",
		})
	}
}

// RequireAdmin ensures the user is an admin
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// GetCurrentUserID extracts the current user ID from context
func GetCurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	return id, ok
}

// GetCurrentUserRole extracts the current user role from context
func GetCurrentUserRole(c *gin.Context) (models.UserRole, bool) {
	userRole, exists := c.Get(ContextUserRole)
	if !exists {
		return "", false
	}

	role, ok := userRole.(models.UserRole)
	return role, ok
}

// GetCurrentUser returns the user loaded by AuthMiddleware
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}

	user, ok := v.(*models.User)
	return user, ok
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *gin.Context) bool {
	role, exists := GetCurrentUserRole(c)
	return exists && role == models.RoleAdmin
}
