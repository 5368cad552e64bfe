package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppealStatus string

const (
	AppealStatusPending    AppealStatus = "pending"
	AppealStatusReviewing  AppealStatus = "reviewing"
	AppealStatusUpheld     AppealStatus = "upheld"
	AppealStatusOverturned AppealStatus = "overturned"
)

// Appeal contests an AI arbitrator's decision. One per (bet, user).
type Appeal struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	BetID     uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_appeal_bet_user" json:"bet_id"`
	Bet       *Bet         `gorm:"foreignKey:BetID" json:"bet,omitempty"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_appeal_bet_user;index" json:"user_id"`
	Reason    string       `gorm:"type:text;not null" json:"reason"`
	Status    AppealStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for Appeal model
func (Appeal) TableName() string {
	return "appeals"
}

func (a *Appeal) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
