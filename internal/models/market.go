package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MarketTypeBinary         = "binary"
	MarketTypeMultipleChoice = "multiple_choice"
	MarketTypeNumeric        = "numeric"
)

// Market groups related bets under a named, categorised topic
type Market struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	Category    string     `gorm:"size:50;not null;index" json:"category"`
	Type        string     `gorm:"size:20;not null;default:binary" json:"type"`
	IsActive    bool       `gorm:"not null;default:true;index" json:"is_active"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid;index" json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for Market model
func (Market) TableName() string {
	return "markets"
}

func (m *Market) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// MarketSummary is a market with aggregates over its bets
type MarketSummary struct {
	Market
	TotalBets int64           `json:"total_bets"`
	TotalPool decimal.Decimal `json:"total_pool"`
}
