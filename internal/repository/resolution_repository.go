package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/database"
	"prophet-betting/internal/models"
	"prophet-betting/internal/payout"
)

// Resolution is a verdict to apply to a bet
type Resolution struct {
	BetID        uuid.UUID
	Outcome      bool
	Reasoning    string
	ArbitratorID *uuid.UUID
	IsAI         bool
	Fallback     bool
	At           time.Time
}

// Settled is the persisted result of a resolution
type Settled struct {
	Bet        *models.Bet
	Decision   *models.ArbitratorDecision
	Settlement payout.Settlement
}

// ResolveAndPay resolves a bet exactly once. In a single transaction it
// flips resolved with a compare-and-swap, records the decision and appends
// one payout (or refund) entry per paid participant. A bet that is already
// resolved yields ErrAlreadyResolved and nothing is written.
func (r *Repository) ResolveAndPay(ctx context.Context, res Resolution) (*Settled, error) {
	var settled *Settled

	err := r.Transaction(ctx, func(tx *Repository) error {
		bet, err := tx.lockBet(ctx, res.BetID)
		if err != nil {
			return err
		}
		if bet.Resolved {
			return apperr.ErrAlreadyResolved
		}

		won, err := tx.markResolved(ctx, res.BetID, res.Outcome, res.At)
		if err != nil {
			return fmt.Errorf("mark resolved: %w", err)
		}
		if !won {
			return apperr.ErrAlreadyResolved
		}

		participants, err := tx.ListParticipants(ctx, res.BetID)
		if err != nil {
			return err
		}
		stakes := make([]payout.Stake, 0, len(participants))
		for _, p := range participants {
			stakes = append(stakes, payout.Stake{
				ParticipantID: p.ID,
				UserID:        p.UserID,
				Prediction:    p.Prediction,
				Amount:        p.StakeAmount,
				CreatedAt:     p.CreatedAt,
			})
		}
		settlement := payout.Compute(stakes, res.Outcome)

		decision := &models.ArbitratorDecision{
			BetID:        res.BetID,
			ArbitratorID: res.ArbitratorID,
			Outcome:      res.Outcome,
			Reasoning:    res.Reasoning,
			IsAIDecision: res.IsAI,
			Fallback:     res.Fallback,
			DecidedAt:    res.At,
		}
		if err := tx.db.WithContext(ctx).Create(decision).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperr.ErrAlreadyResolved
			}
			return fmt.Errorf("create decision: %w", err)
		}

		betID := res.BetID
		entries := make([]*models.CreditTransaction, 0, len(settlement.Payouts))
		for _, p := range settlement.Payouts {
			if !p.Amount.IsPositive() {
				continue
			}
			entry := &models.CreditTransaction{
				UserID:      p.UserID,
				Amount:      p.Amount,
				Type:        models.CreditTypePayout,
				Description: fmt.Sprintf("Payout for %q", bet.Title),
				BetID:       &betID,
				CreatedAt:   res.At,
			}
			if p.Refund {
				entry.Type = models.CreditTypeRefund
				entry.Description = fmt.Sprintf("Refund for %q (no winning stakes)", bet.Title)
			}
			entries = append(entries, entry)
		}
		if err := tx.AppendCredits(ctx, entries...); err != nil {
			return err
		}

		outcome := res.Outcome
		resolvedAt := res.At
		bet.Resolved = true
		bet.Outcome = &outcome
		bet.ResolvedAt = &resolvedAt

		settled = &Settled{Bet: bet, Decision: decision, Settlement: settlement}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// GetDecision returns the decision of a resolved bet, or nil
func (r *Repository) GetDecision(ctx context.Context, betID uuid.UUID) (*models.ArbitratorDecision, error) {
	var decision models.ArbitratorDecision
	err := r.db.WithContext(ctx).
		Preload("Arbitrator").
		Where("bet_id = ?", betID).
		First(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get decision", err)
	}
	return &decision, nil
}
