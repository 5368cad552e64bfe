package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBetRequest creates a bet, optionally inside a new or existing market
// and optionally with the creator's own opening stake.
type CreateBetRequest struct {
	Title           string           `json:"title" binding:"required,min=3,max=200"`
	Description     string           `json:"description" binding:"required,min=10,max=1000"`
	Deadline        time.Time        `json:"deadline" binding:"required"`
	ArbitratorType  ArbitratorType   `json:"arbitrator_type" binding:"required,oneof=creator friend ai"`
	ArbitratorEmail string           `json:"arbitrator_email" binding:"omitempty,email"`
	MinimumStake    *decimal.Decimal `json:"minimum_stake"`
	MarketID        *uuid.UUID       `json:"market_id"`
	MarketName      string           `json:"market_name" binding:"omitempty,max=200"`
	MarketCategory  string           `json:"market_category" binding:"omitempty,max=50"`
	StakeAmount     *decimal.Decimal `json:"stake_amount"`
	Prediction      *bool            `json:"prediction"`
}

// PlaceStakeRequest is the body of POST /api/bets/:id/stake
type PlaceStakeRequest struct {
	Prediction  *bool           `json:"prediction" binding:"required"`
	StakeAmount decimal.Decimal `json:"stake_amount"`
}

// ResolveBetRequest is the body of POST /api/bets/:id/resolve
type ResolveBetRequest struct {
	Outcome   *bool  `json:"outcome" binding:"required"`
	Reasoning string `json:"reasoning" binding:"max=2000"`
}

// CreateAppealRequest is the body of POST /api/appeals
type CreateAppealRequest struct {
	BetID  uuid.UUID `json:"bet_id" binding:"required"`
	Reason string    `json:"reason" binding:"required,min=20,max=1000"`
}

// CreateMarketRequest is the body of POST /api/markets
type CreateMarketRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"max=1000"`
	Category    string `json:"category" binding:"required,max=50"`
	Type        string `json:"type" binding:"omitempty,oneof=binary multiple_choice numeric"`
}

// BetFilter narrows ListBets
type BetFilter struct {
	Status         string // active, resolved, expired, all
	Search         string
	CreatorID      *uuid.UUID
	ArbitratorType ArbitratorType
	MarketID       *uuid.UUID
	Sort           string // created_at, deadline, total_pool
	Ascending      bool
	Page           int
	Limit          int
}

// Pagination is echoed back with every paginated list
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination computes the page count for total rows
func NewPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
