package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/models"
	"prophet-betting/internal/services"
)

type MarketHandler struct {
	markets *services.MarketService
	log     *zap.Logger
}

func NewMarketHandler(markets *services.MarketService, log *zap.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, log: log}
}

// GetMarkets returns active markets with optional category filtering
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	markets, err := h.markets.ListMarkets(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"markets": markets,
		"count":   len(markets),
	})
}

// CreateMarket creates a new market (admin only)
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthenticated)
		return
	}

	var req models.CreateMarketRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	market, err := h.markets.CreateMarket(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"market":  market,
	})
}
