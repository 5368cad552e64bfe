package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"prophet-betting/internal/cache"
	"prophet-betting/internal/models"
	"prophet-betting/internal/repository"
)

// LedgerService reads the credit ledger and keeps the balance cache honest
type LedgerService struct {
	repo  *repository.Repository
	cache cache.BalanceCache
	log   *zap.Logger
}

// NewLedgerService creates a new LedgerService. A nil cache disables caching.
func NewLedgerService(repo *repository.Repository, c cache.BalanceCache, log *zap.Logger) *LedgerService {
	if c == nil {
		c = cache.Noop{}
	}
	return &LedgerService{repo: repo, cache: c, log: log}
}

// Balance returns the user's balance, from the snapshot cache when fresh
func (s *LedgerService) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	cached, version, ok, cacheErr := s.cache.Get(ctx, userID)
	if cacheErr != nil {
		s.log.Warn("balance cache read failed", zap.String("user_id", userID.String()), zap.Error(cacheErr))
	} else if ok {
		return cached, nil
	}

	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if cacheErr != nil {
		return balance, nil
	}
	if err := s.cache.Set(ctx, userID, version, balance); err != nil {
		s.log.Warn("balance cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return balance, nil
}

// Invalidate drops cached balances after the ledger changed
func (s *LedgerService) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if err := s.cache.Invalidate(ctx, userIDs...); err != nil {
		s.log.Warn("balance cache invalidation failed", zap.Int("users", len(userIDs)), zap.Error(err))
	}
}

// Recent returns the newest n ledger entries of the user
func (s *LedgerService) Recent(ctx context.Context, userID uuid.UUID, n int) ([]models.CreditTransaction, error) {
	return s.repo.RecentCredits(ctx, userID, n)
}

// View builds the balance page of a user
func (s *LedgerService) View(ctx context.Context, userID uuid.UUID) (*models.BalanceView, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	recent, err := s.Recent(ctx, userID, recentLedgerLen)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountActiveBetsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountCredits(ctx, userID)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.CreditTransaction{}
	}
	return &models.BalanceView{
		Balance:            balance,
		RecentTransactions: recent,
		ActiveBetsCount:    active,
		TotalTransactions:  total,
	}, nil
}
