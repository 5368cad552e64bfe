package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/auth"
	"prophet-betting/internal/models"
	"prophet-betting/internal/services"
)

// BetHandler serves the bet registry, staking and resolution
type BetHandler struct {
	bets        *services.BetService
	stakes      *services.StakeService
	resolution  *services.ResolutionService
	arbitration *services.ArbitrationService
	log         *zap.Logger
}

// NewBetHandler creates a new BetHandler
func NewBetHandler(
	bets *services.BetService,
	stakes *services.StakeService,
	resolution *services.ResolutionService,
	arbitration *services.ArbitrationService,
	log *zap.Logger,
) *BetHandler {
	return &BetHandler{
		bets:        bets,
		stakes:      stakes,
		resolution:  resolution,
		arbitration: arbitration,
		log:         log,
	}
}

// ListBets returns a filtered page of bets
// GET /api/bets?status=&search=&creator_id=&arbitrator_type=&market_id=&sort=&order=&page=&limit=
func (h *BetHandler) ListBets(c *gin.Context) {
	creatorID, err := queryUUID(c, "creator_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	marketID, err := queryUUID(c, "market_id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	filter := models.BetFilter{
		Status:         c.Query("status"),
		Search:         strings.TrimSpace(c.Query("search")),
		CreatorID:      creatorID,
		ArbitratorType: models.ArbitratorType(c.Query("arbitrator_type")),
		MarketID:       marketID,
		Sort:           c.Query("sort"),
		Ascending:      strings.EqualFold(c.Query("order"), "asc"),
		Page:           queryInt(c, "page", 1),
		Limit:          queryInt(c, "limit", 0),
	}

	var viewer *uuid.UUID
	if id, ok := auth.GetUserID(c); ok {
		viewer = &id
	}

	items, pagination, err := h.bets.ListBets(c.Request.Context(), filter, viewer)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bets":       items,
		"pagination": pagination,
	})
}

// GetBet returns a bet with participants, stats and decision
// GET /api/bets/:id
func (h *BetHandler) GetBet(c *gin.Context) {
	betID, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var viewer *uuid.UUID
	if id, ok := auth.GetUserID(c); ok {
		viewer = &id
	}

	detail, err := h.bets.GetBet(c.Request.Context(), betID, viewer)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CreateBet creates a bet owned by the caller
// POST /api/bets
func (h *BetHandler) CreateBet(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthenticated)
		return
	}

	var req models.CreateBetRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	bet, err := h.bets.CreateBet(c.Request.Context(), user.ID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"bet":     bet,
	})
}

// PlaceStake stakes credits on one side of a bet
// POST /api/bets/:id/stake
func (h *BetHandler) PlaceStake(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthenticated)
		return
	}
	betID, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req models.PlaceStakeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	result, err := h.stakes.PlaceStake(c.Request.Context(), user.ID, betID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"participant_id": result.ParticipantID,
		"new_balance":    result.NewBalance,
	})
}

// ResolveBet resolves a creator or friend arbitrated bet
// POST /api/bets/:id/resolve
func (h *BetHandler) ResolveBet(c *gin.Context) {
	requester, ok := requesterFrom(c)
	if !ok {
		respondError(c, h.log, apperr.ErrUnauthenticated)
		return
	}
	betID, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req models.ResolveBetRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	result, err := h.resolution.ResolveBet(c.Request.Context(), requester, betID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"decision_id":   result.DecisionID,
		"outcome":       result.Outcome,
		"total_payout":  result.TotalPayout,
		"winners_count": result.WinnersCount,
		"refunded":      result.Refunded,
	})
}

// ArbitrateBet asks the AI judge to resolve an AI-arbitrated bet
// POST /api/bets/:id/arbitrate
func (h *BetHandler) ArbitrateBet(c *gin.Context) {
	betID, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	result, err := h.arbitration.Arbitrate(c.Request.Context(), betID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"decision_id":   result.DecisionID,
		"ai_decision":   result.AIDecision,
		"reasoning":     result.Reasoning,
		"fallback":      result.Fallback,
		"total_payout":  result.TotalPayout,
		"winners_count": result.WinnersCount,
		"refunded":      result.Refunded,
	})
}
