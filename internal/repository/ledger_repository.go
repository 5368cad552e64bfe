package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"prophet-betting/internal/models"
)

// AppendCredits inserts ledger entries. Entries are never updated.
func (r *Repository) AppendCredits(ctx context.Context, entries ...*models.CreditTransaction) error {
	if len(entries) == 0 {
		return nil
	}
	return wrap("append credits", r.db.WithContext(ctx).Create(entries).Error)
}

// Balance folds every ledger entry of a user
func (r *Repository) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, wrap("balance", err)
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

// Balances folds the ledger of every user that has at least one entry
func (r *Repository) Balances(ctx context.Context) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []models.CreditTransaction
	err := r.db.WithContext(ctx).Select("user_id", "amount").Find(&rows).Error
	if err != nil {
		return nil, wrap("balances", err)
	}
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, row := range rows {
		out[row.UserID] = out[row.UserID].Add(row.Amount)
	}
	return out, nil
}

// RecentCredits returns the newest n ledger entries of a user
func (r *Repository) RecentCredits(ctx context.Context, userID uuid.UUID, n int) ([]models.CreditTransaction, error) {
	var entries []models.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(n).
		Find(&entries).Error
	return entries, wrap("recent credits", err)
}

// CountCredits counts the ledger entries of a user
func (r *Repository) CountCredits(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CreditTransaction{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, wrap("count credits", err)
}

// CreditsForBet returns the ledger entries tied to a bet
func (r *Repository) CreditsForBet(ctx context.Context, betID uuid.UUID) ([]models.CreditTransaction, error) {
	var entries []models.CreditTransaction
	err := r.db.WithContext(ctx).
		Where("bet_id = ?", betID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, wrap("credits for bet", err)
}

// HasCreditOfType reports whether the user already has an entry of type t
func (r *Repository) HasCreditOfType(ctx context.Context, userID uuid.UUID, t models.CreditTransactionType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CreditTransaction{}).
		Where("user_id = ? AND type = ?", userID, t).
		Count(&count).Error
	return count > 0, wrap("credit lookup", err)
}
