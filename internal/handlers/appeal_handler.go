package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/models"
	"prophet-betting/internal/services"
)

// AppealHandler files and lists appeals of AI decisions
type AppealHandler struct {
	appeals *services.AppealService
	log     *zap.Logger
}

// NewAppealHandler creates a new AppealHandler
func NewAppealHandler(appeals *services.AppealService, log *zap.Logger) *AppealHandler {
	return &AppealHandler{appeals: appeals, log: log}
}

// CreateAppeal files an appeal against an AI decision
// POST /api/appeals
func (h *AppealHandler) CreateAppeal(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthenticated)
		return
	}

	var req models.CreateAppealRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	appeal, err := h.appeals.CreateAppeal(c.Request.Context(), user.ID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"appeal":  appeal,
	})
}

// ListAppeals returns the caller's appeals
// GET /api/appeals?status=&page=&limit=
func (h *AppealHandler) ListAppeals(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthenticated)
		return
	}

	appeals, pagination, err := h.appeals.ListAppeals(
		c.Request.Context(),
		user.ID,
		c.Query("status"),
		queryInt(c, "page", 1),
		queryInt(c, "limit", 0),
	)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"appeals":    appeals,
		"pagination": pagination,
	})
}
