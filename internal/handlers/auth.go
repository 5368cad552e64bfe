package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/auth"
	"prophet-betting/internal/models"
	"prophet-betting/internal/services"
)

const currentUserKey = "current_user"

// AuthHandler mirrors token identities into local users
type AuthHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService *services.UserService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, log: log}
}

// RequireUser makes sure the authenticated caller has a local user row,
// creating it with the signup bonus on first sight. It must run after
// auth.AuthMiddleware.
func (h *AuthHandler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		requester, ok := requesterFrom(c)
		if !ok {
			respondError(c, h.log, apperr.ErrUnauthenticated)
			c.Abort()
			return
		}

		user, err := h.userService.EnsureUser(c.Request.Context(), requester)
		if err != nil {
			respondError(c, h.log, err)
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// Me returns the caller's profile
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthenticated)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func requesterFrom(c *gin.Context) (services.Requester, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return services.Requester{}, false
	}
	email, _ := auth.GetEmail(c)
	return services.Requester{ID: userID, Email: email}, true
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
