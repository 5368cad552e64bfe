package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/models"
)

// Bet list statuses
const (
	BetStatusActive   = "active"
	BetStatusResolved = "resolved"
	BetStatusExpired  = "expired"
	BetStatusAll      = "all"
)

var betSortColumns = map[string]string{
	"created_at": "created_at",
	"deadline":   "deadline",
	"total_pool": "total_pool",
}

// CreateBet creates a new bet
func (r *Repository) CreateBet(ctx context.Context, bet *models.Bet) error {
	return wrap("create bet", r.db.WithContext(ctx).Create(bet).Error)
}

// GetBetByID retrieves a bet with its market and creator
func (r *Repository) GetBetByID(ctx context.Context, betID uuid.UUID) (*models.Bet, error) {
	var bet models.Bet
	err := r.db.WithContext(ctx).
		Preload("Market").
		Preload("Creator").
		Where("id = ?", betID).
		First(&bet).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrBetNotFound)
	}
	return &bet, nil
}

// lockBet loads a bet and, on PostgreSQL, holds its row lock until the
// surrounding transaction ends.
func (r *Repository) lockBet(ctx context.Context, betID uuid.UUID) (*models.Bet, error) {
	var bet models.Bet
	err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", betID).First(&bet).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrBetNotFound)
	}
	return &bet, nil
}

// ListBets returns one page of bets matching filter and the total count.
// Active and expired are relative to now; a bet is expired from the
// instant staking closes.
func (r *Repository) ListBets(ctx context.Context, filter models.BetFilter, now time.Time) ([]*models.Bet, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Bet{})

	switch filter.Status {
	case BetStatusActive:
		query = query.Where("resolved = ? AND deadline > ?", false, now)
	case BetStatusResolved:
		query = query.Where("resolved = ?", true)
	case BetStatusExpired:
		query = query.Where("resolved = ? AND deadline <= ?", false, now)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}
	if filter.ArbitratorType != "" {
		query = query.Where("arbitrator_type = ?", filter.ArbitratorType)
	}
	if filter.MarketID != nil {
		query = query.Where("market_id = ?", *filter.MarketID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrap("count bets", err)
	}

	column, ok := betSortColumns[filter.Sort]
	if !ok {
		column = "created_at"
	}
	direction := " DESC"
	if filter.Ascending {
		direction = " ASC"
	}

	var bets []*models.Bet
	err := query.
		Preload("Market").
		Preload("Creator").
		Order(column + direction).
		Order("id ASC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit).
		Find(&bets).Error
	if err != nil {
		return nil, 0, wrap("list bets", err)
	}
	return bets, total, nil
}

// ListDueAIBets returns unresolved AI bets whose deadline has passed,
// oldest deadline first.
func (r *Repository) ListDueAIBets(ctx context.Context, now time.Time, limit int) ([]*models.Bet, error) {
	var bets []*models.Bet
	err := r.db.WithContext(ctx).
		Where("arbitrator_type = ? AND resolved = ? AND deadline < ?", models.ArbitratorAI, false, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&bets).Error
	return bets, wrap("list due ai bets", err)
}

// CountActiveBetsForUser counts unresolved bets the user has staked on
func (r *Repository) CountActiveBetsForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Participant{}).
		Joins("JOIN bets ON bets.id = bet_participants.bet_id").
		Where("bet_participants.user_id = ? AND bets.resolved = ?", userID, false).
		Count(&count).Error
	return count, wrap("count active bets", err)
}

// setPool stores the bet's pool total
func (r *Repository) setPool(ctx context.Context, betID uuid.UUID, total decimal.Decimal, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ?", betID).
		Updates(map[string]interface{}{"total_pool": total, "updated_at": at}).Error
}

// markResolved flips resolved from false to true. It reports false when
// another resolution got there first.
func (r *Repository) markResolved(ctx context.Context, betID uuid.UUID, outcome bool, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND resolved = ?", betID, false).
		Updates(map[string]interface{}{
			"resolved":    true,
			"outcome":     outcome,
			"resolved_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
