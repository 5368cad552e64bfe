package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stake is the caller's own position on a bet
type Stake struct {
	Prediction  bool            `json:"prediction"`
	StakeAmount decimal.Decimal `json:"stake_amount"`
}

// BetListItem is one row of GET /api/bets
type BetListItem struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Creator           UserSummary     `json:"creator"`
	Market            *Market         `json:"market"`
	Deadline          time.Time       `json:"deadline"`
	ArbitratorType    ArbitratorType  `json:"arbitrator_type"`
	Resolved          bool            `json:"resolved"`
	Outcome           *bool           `json:"outcome"`
	ParticipantCount  int64           `json:"participant_count"`
	TotalPool         decimal.Decimal `json:"total_pool"`
	UserParticipation *Stake          `json:"user_participation"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ParticipantView is a participant with its public user projection
type ParticipantView struct {
	ID          uuid.UUID       `json:"id"`
	User        UserSummary     `json:"user"`
	Prediction  bool            `json:"prediction"`
	StakeAmount decimal.Decimal `json:"stake_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DecisionView is the arbitrator decision of a resolved bet
type DecisionView struct {
	ID           uuid.UUID    `json:"id"`
	Arbitrator   *UserSummary `json:"arbitrator"`
	Outcome      bool         `json:"outcome"`
	Reasoning    string       `json:"reasoning"`
	IsAIDecision bool         `json:"is_ai_decision"`
	Fallback     bool         `json:"fallback"`
	DecidedAt    time.Time    `json:"decided_at"`
}

// BetStats summarises both sides of a bet
type BetStats struct {
	TotalParticipants  int             `json:"total_participants"`
	YesCount           int             `json:"yes_count"`
	NoCount            int             `json:"no_count"`
	YesAmount          decimal.Decimal `json:"yes_amount"`
	NoAmount           decimal.Decimal `json:"no_amount"`
	PotentialPayoutYes decimal.Decimal `json:"potential_payout_yes"`
	PotentialPayoutNo  decimal.Decimal `json:"potential_payout_no"`
}

// BetDetail is the response of GET /api/bets/:id
type BetDetail struct {
	Bet               *Bet              `json:"bet"`
	Creator           UserSummary       `json:"creator"`
	Participants      []ParticipantView `json:"participants"`
	Decision          *DecisionView     `json:"decision"`
	UserParticipation *Stake            `json:"user_participation"`
	Stats             BetStats          `json:"stats"`
}

// StakeResult is returned after a stake is recorded
type StakeResult struct {
	ParticipantID uuid.UUID       `json:"participant_id"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}

// ResolutionResult is returned after a bet is resolved and paid
type ResolutionResult struct {
	DecisionID   uuid.UUID       `json:"decision_id"`
	Outcome      bool            `json:"outcome"`
	TotalPayout  decimal.Decimal `json:"total_payout"`
	WinnersCount int             `json:"winners_count"`
	Refunded     bool            `json:"refunded"`
}

// ArbitrationResult is a ResolutionResult produced by the AI judge
type ArbitrationResult struct {
	ResolutionResult
	AIDecision bool   `json:"ai_decision"`
	Reasoning  string `json:"reasoning"`
	Fallback   bool   `json:"fallback"`
}

// BalanceView is the response of GET /api/user/balance
type BalanceView struct {
	Balance            decimal.Decimal     `json:"balance"`
	RecentTransactions []CreditTransaction `json:"recent_transactions"`
	ActiveBetsCount    int64               `json:"active_bets_count"`
	TotalTransactions  int64               `json:"total_transactions"`
}
