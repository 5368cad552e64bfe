package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// AuthMiddleware validates JWT tokens and protects routes
func AuthMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperr.ErrUnauthenticated.WithMessage("Authorization header required"))
			return
		}

		if !authenticate(c, authHeader, log) {
			abort(c, apperr.ErrUnauthenticated.WithMessage("Invalid or expired token"))
			return
		}

		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid token is sent
// and lets anonymous requests through.
func OptionalAuth(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			authenticate(c, authHeader, log)
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authHeader string, log *zap.Logger) bool {
	// Extract token from "Bearer <token>" format
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return false
	}

	claims, err := ValidateToken(parts[1])
	if err != nil {
		log.Debug("token validation failed", zap.Error(err))
		return false
	}
	userID, _ := claims.UserID()

	c.Set(userIDKey, userID)
	c.Set(emailKey, claims.Email)
	return true
}

func abort(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(err.Status, gin.H{
		"error": err.Message,
		"code":  err.Code,
	})
}

// GetUserID retrieves the user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	return id, ok
}

// GetEmail retrieves the verified e-mail from the context
func GetEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(emailKey)
	if !exists {
		return "", false
	}

	address, ok := email.(string)
	return address, ok
}
