package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/database"
	"prophet-betting/internal/models"
)

// StakeParams describes one stake to record
type StakeParams struct {
	BetID      uuid.UUID
	UserID     uuid.UUID
	Prediction bool
	Amount     decimal.Decimal
	At         time.Time
}

// RecordStake places a stake atomically: the bet row and then the user row
// are locked, every admission rule is checked, then the participant row, the debit and the
// new pool total are written together. It returns the participant and the
// user's balance after the debit.
func (r *Repository) RecordStake(ctx context.Context, p StakeParams) (*models.Participant, decimal.Decimal, error) {
	var participant *models.Participant
	var newBalance decimal.Decimal

	err := r.Transaction(ctx, func(tx *Repository) error {
		bet, err := tx.lockBet(ctx, p.BetID)
		if err != nil {
			return err
		}
		if bet.Resolved {
			return apperr.ErrBetResolved
		}
		if bet.DeadlinePassed(p.At) {
			return apperr.ErrDeadlinePassed
		}
		if p.Amount.LessThan(bet.MinimumStake) {
			return apperr.ErrStakeBelowMinimum.WithMessage(
				"Stake must be at least %s credits", bet.MinimumStake.StringFixed(2))
		}

		existing, err := tx.GetParticipant(ctx, p.BetID, p.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.ErrAlreadyParticipated
		}

		if err := tx.lockUser(ctx, p.UserID); err != nil {
			return err
		}
		balance, err := tx.Balance(ctx, p.UserID)
		if err != nil {
			return err
		}
		if balance.LessThan(p.Amount) {
			return apperr.ErrInsufficientCredits
		}

		participant = &models.Participant{
			BetID:       p.BetID,
			UserID:      p.UserID,
			Prediction:  p.Prediction,
			StakeAmount: p.Amount,
			CreatedAt:   p.At,
		}
		if err := tx.db.WithContext(ctx).Create(participant).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperr.ErrAlreadyParticipated
			}
			return fmt.Errorf("create participant: %w", err)
		}

		betID := p.BetID
		side := "no"
		if p.Prediction {
			side = "yes"
		}
		debit := &models.CreditTransaction{
			UserID:      p.UserID,
			Amount:      p.Amount.Neg(),
			Type:        models.CreditTypeStake,
			Description: fmt.Sprintf("Stake on %q (%s)", bet.Title, side),
			BetID:       &betID,
			CreatedAt:   p.At,
		}
		if err := tx.AppendCredits(ctx, debit); err != nil {
			return err
		}

		if err := tx.setPool(ctx, p.BetID, bet.TotalPool.Add(p.Amount), p.At); err != nil {
			return fmt.Errorf("update pool: %w", err)
		}

		newBalance = balance.Sub(p.Amount)
		return nil
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return participant, newBalance, nil
}

// GetParticipant returns the user's stake on a bet, or nil
func (r *Repository) GetParticipant(ctx context.Context, betID, userID uuid.UUID) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.WithContext(ctx).
		Where("bet_id = ? AND user_id = ?", betID, userID).
		First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get participant", err)
	}
	return &participant, nil
}

// ListParticipants returns a bet's participants with their users, oldest first
func (r *Repository) ListParticipants(ctx context.Context, betID uuid.UUID) ([]*models.Participant, error) {
	var participants []*models.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("bet_id = ?", betID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&participants).Error
	return participants, wrap("list participants", err)
}

// CountParticipants returns the participant count of each bet in betIDs
func (r *Repository) CountParticipants(ctx context.Context, betIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(betIDs))
	if len(betIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		BetID uuid.UUID
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&models.Participant{}).
		Select("bet_id, COUNT(*) AS count").
		Where("bet_id IN ?", betIDs).
		Group("bet_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("count participants", err)
	}
	for _, row := range rows {
		counts[row.BetID] = row.Count
	}
	return counts, nil
}

// UserStakes returns the user's stake on each of betIDs they joined
func (r *Repository) UserStakes(ctx context.Context, userID uuid.UUID, betIDs []uuid.UUID) (map[uuid.UUID]*models.Participant, error) {
	out := make(map[uuid.UUID]*models.Participant)
	if len(betIDs) == 0 {
		return out, nil
	}

	var participants []*models.Participant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND bet_id IN ?", userID, betIDs).
		Find(&participants).Error
	if err != nil {
		return nil, wrap("user stakes", err)
	}
	for _, p := range participants {
		out[p.BetID] = p
	}
	return out, nil
}
