package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ArbitratorType string

const (
	ArbitratorCreator ArbitratorType = "creator"
	ArbitratorFriend  ArbitratorType = "friend"
	ArbitratorAI      ArbitratorType = "ai"
)

// Valid reports whether t is one of the known arbitrator types
func (t ArbitratorType) Valid() bool {
	switch t {
	case ArbitratorCreator, ArbitratorFriend, ArbitratorAI:
		return true
	}
	return false
}

// Bet is a single binary proposition open for staking until Deadline.
// Outcome and ResolvedAt are set if and only if Resolved is true, and
// TotalPool always equals the sum of participant stakes.
type Bet struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	MarketID        *uuid.UUID      `gorm:"type:uuid;index" json:"market_id,omitempty"`
	Market          *Market         `gorm:"foreignKey:MarketID" json:"market,omitempty"`
	Title           string          `gorm:"size:200;not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	CreatorID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator         *User           `gorm:"foreignKey:CreatorID" json:"-"`
	Deadline        time.Time       `gorm:"not null;index" json:"deadline"`
	ArbitratorType  ArbitratorType  `gorm:"size:20;not null;index" json:"arbitrator_type"`
	ArbitratorEmail *string         `gorm:"size:320" json:"arbitrator_email,omitempty"`
	MinimumStake    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"minimum_stake"`
	Resolved        bool            `gorm:"not null;default:false;index" json:"resolved"`
	Outcome         *bool           `json:"outcome"`
	ResolvedAt      *time.Time      `json:"resolved_at"`
	TotalPool       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_pool"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Bet model
func (Bet) TableName() string {
	return "bets"
}

func (b *Bet) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// DeadlinePassed reports whether staking is closed at now
func (b *Bet) DeadlinePassed(now time.Time) bool {
	return !now.Before(b.Deadline)
}

// Participant is one user's single stake on one side of a bet
type Participant struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BetID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_participant_bet_user" json:"bet_id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_participant_bet_user;index" json:"user_id"`
	User        *User           `gorm:"foreignKey:UserID" json:"-"`
	Prediction  bool            `gorm:"not null" json:"prediction"`
	StakeAmount decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"stake_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName specifies the table name for Participant model
func (Participant) TableName() string {
	return "bet_participants"
}

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ArbitratorDecision records how a bet was resolved. There is exactly one
// per resolved bet.
type ArbitratorDecision struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BetID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"bet_id"`
	ArbitratorID *uuid.UUID `gorm:"type:uuid;index" json:"arbitrator_id"`
	Arbitrator   *User      `gorm:"foreignKey:ArbitratorID" json:"-"`
	Outcome      bool       `gorm:"not null" json:"outcome"`
	Reasoning    string     `gorm:"type:text" json:"reasoning"`
	IsAIDecision bool       `gorm:"not null;default:false" json:"is_ai_decision"`
	Fallback     bool       `gorm:"not null;default:false" json:"fallback"`
	DecidedAt    time.Time  `gorm:"not null" json:"decided_at"`
}

// TableName specifies the table name for ArbitratorDecision model
func (ArbitratorDecision) TableName() string {
	return "arbitrator_decisions"
}

func (d *ArbitratorDecision) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
