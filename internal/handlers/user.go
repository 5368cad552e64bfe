package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/services"
)

// UserHandler handles user-related endpoints
type UserHandler struct {
	ledger *services.LedgerService
	log    *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(ledger *services.LedgerService, log *zap.Logger) *UserHandler {
	return &UserHandler{ledger: ledger, log: log}
}

// GetBalance returns the caller's balance and latest ledger entries
// GET /api/user/balance
func (h *UserHandler) GetBalance(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthenticated)
		return
	}

	view, err := h.ledger.View(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"balance":             view.Balance,
		"recent_transactions": view.RecentTransactions,
		"stats": gin.H{
			"total_transactions": view.TotalTransactions,
			"active_bets_count":  view.ActiveBetsCount,
		},
	})
}
