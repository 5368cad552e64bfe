package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreditTransactionType string

const (
	CreditTypeSignupBonus CreditTransactionType = "signup_bonus"
	CreditTypeStake       CreditTransactionType = "stake"
	CreditTypePayout      CreditTransactionType = "payout"
	CreditTypeRefund      CreditTransactionType = "refund"
	CreditTypeAdjustment  CreditTransactionType = "adjustment"
)

// CreditTransaction is an append-only ledger entry. A user's balance is the
// sum of their entries; rows are never updated or deleted.
type CreditTransaction struct {
	ID          uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID             `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount      decimal.Decimal       `gorm:"type:decimal(15,2);not null" json:"amount"`
	Type        CreditTransactionType `gorm:"size:30;not null;index" json:"type"`
	Description string                `gorm:"type:text" json:"description"`
	BetID       *uuid.UUID            `gorm:"type:uuid;index" json:"bet_id,omitempty"`
	CreatedAt   time.Time             `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for CreditTransaction model
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

func (t *CreditTransaction) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
