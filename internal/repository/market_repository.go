package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"prophet-betting/internal/apperr"
	"prophet-betting/internal/database"
	"prophet-betting/internal/models"
)

// CreateMarket inserts a market; names are unique
func (r *Repository) CreateMarket(ctx context.Context, market *models.Market) error {
	err := r.db.WithContext(ctx).Create(market).Error
	if database.IsDuplicate(err) {
		return apperr.ErrDuplicate.WithMessage("Market %q already exists", market.Name)
	}
	return wrap("create market", err)
}

// GetMarketByID retrieves a market by ID
func (r *Repository) GetMarketByID(ctx context.Context, marketID uuid.UUID) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("id = ?", marketID).First(&market).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrMarketNotFound)
	}
	return &market, nil
}

// FindMarketByName returns the market with name, or nil
func (r *Repository) FindMarketByName(ctx context.Context, name string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&market).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("find market", err)
	}
	return &market, nil
}

// ListMarketSummaries returns active markets with their bet count and
// combined pool, newest first.
func (r *Repository) ListMarketSummaries(ctx context.Context, category string) ([]models.MarketSummary, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var markets []models.Market
	if err := query.Order("created_at DESC").Find(&markets).Error; err != nil {
		return nil, wrap("list markets", err)
	}
	if len(markets) == 0 {
		return []models.MarketSummary{}, nil
	}

	ids := make([]uuid.UUID, len(markets))
	for i, m := range markets {
		ids[i] = m.ID
	}

	var bets []models.Bet
	err := r.db.WithContext(ctx).
		Select("market_id", "total_pool").
		Where("market_id IN ?", ids).
		Find(&bets).Error
	if err != nil {
		return nil, wrap("aggregate market bets", err)
	}

	counts := make(map[uuid.UUID]int64)
	pools := make(map[uuid.UUID]decimal.Decimal)
	for _, b := range bets {
		if b.MarketID == nil {
			continue
		}
		counts[*b.MarketID]++
		pools[*b.MarketID] = pools[*b.MarketID].Add(b.TotalPool)
	}

	summaries := make([]models.MarketSummary, len(markets))
	for i, m := range markets {
		summaries[i] = models.MarketSummary{
			Market:    m,
			TotalBets: counts[m.ID],
			TotalPool: pools[m.ID],
		}
	}
	return summaries, nil
}
